package gemhub

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is one of the two sides of a rebalance.
type Side struct {
	Name       string
	Current    Money
	Target     Money
	Diff       Money // Target - Current, positive when under target
	Allocation Money
}

// Advice is the suggested split of a new contribution between two sides.
type Advice struct {
	Target       decimal.Decimal // weight of side A, in [0,1]
	Contribution Money
	NewTotal     Money
	A, B         Side
}

// Advise splits contribution between a side A currently worth currentA and a side B
// worth currentB, so that A moves toward a weight 'target' of the new total.
//
// When both sides are under their target the contribution is split proportionally to
// the missing amounts. When only one is, it gets everything. When none is, nothing is
// allocated: selling is never suggested.
//
// All amounts must be in the same currency. Advise fails with ErrInvalidTarget when
// target is outside [0,1] or contribution is negative.
func Advise(currentA, currentB Money, target decimal.Decimal, contribution Money) (Advice, error) {
	if target.IsNegative() || target.GreaterThan(decimal.NewFromInt(1)) {
		return Advice{}, fmt.Errorf("%w: weight %s is not within [0,1]", ErrInvalidTarget, target)
	}
	if contribution.IsNegative() {
		return Advice{}, fmt.Errorf("%w: contribution %s is negative", ErrInvalidTarget, contribution.Decimal())
	}

	one := decimal.NewFromInt(1)
	newTotal := currentA.Add(currentB).Add(contribution)
	adv := Advice{
		Target:       target,
		Contribution: contribution,
		NewTotal:     newTotal,
		A:            Side{Name: "A", Current: currentA, Target: newTotal.Scale(target)},
		B:            Side{Name: "B", Current: currentB, Target: newTotal.Scale(one.Sub(target))},
	}
	adv.A.Diff = adv.A.Target.Sub(currentA)
	adv.B.Diff = adv.B.Target.Sub(currentB)

	zero := M(decimal.Zero, newTotal.Currency())
	switch {
	case adv.A.Diff.IsPositive() && adv.B.Diff.IsPositive():
		share := adv.A.Diff.DivMoney(adv.A.Diff.Add(adv.B.Diff))
		adv.A.Allocation = contribution.Scale(share)
		// B takes the remainder so that both allocations sum to the contribution exactly.
		adv.B.Allocation = contribution.Sub(adv.A.Allocation)
	case adv.A.Diff.IsPositive():
		adv.A.Allocation, adv.B.Allocation = contribution, zero
	case adv.B.Diff.IsPositive():
		adv.A.Allocation, adv.B.Allocation = zero, contribution
	default:
		adv.A.Allocation, adv.B.Allocation = zero, zero
	}
	return adv, nil
}

// Rebalance is the suggested split of a contribution between a category and the rest
// of the portfolio, with the allocations also expressed in the categories currencies.
type Rebalance struct {
	Advice
	Category Category
	// Native allocations, in the currency of the category (A) and of the
	// other categories (B) when they share a single currency.
	NativeA, NativeB Money
}

// NewRebalance values p and advises how to split contribution (in the reporting currency
// of rates) so that category c reaches the weight target.
func NewRebalance(p *Portfolio, rates *Rates, c Category, target decimal.Decimal, contribution Money) (*Rebalance, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: unknown category", ErrInvalidTarget)
	}
	if contribution.Currency() == "" {
		contribution = M(contribution.Decimal(), rates.Currency())
	}
	if contribution.Currency() != rates.Currency() {
		return nil, fmt.Errorf("%w: contribution in %s, reporting currency is %s", ErrInvalidTarget, contribution.Currency(), rates.Currency())
	}
	v, err := Valuate(p, rates, ByCategory)
	if err != nil {
		return nil, err
	}
	a := v.CategoryTotal(c)
	adv, err := Advise(a, v.Total.Sub(a), target, contribution)
	if err != nil {
		return nil, err
	}

	var others []string
	otherCur := ""
	for _, o := range Categories() {
		if o == c {
			continue
		}
		others = append(others, o.Name())
		if otherCur == "" || otherCur == o.Currency() {
			otherCur = o.Currency()
		} else {
			otherCur = "-"
		}
	}
	adv.A.Name = c.Name()
	adv.B.Name = strings.Join(others, ", ")

	r := &Rebalance{Advice: adv, Category: c}
	if r.NativeA, err = rates.Back(adv.A.Allocation, c.Currency()); err != nil {
		return nil, err
	}
	if otherCur != "-" && otherCur != "" {
		if r.NativeB, err = rates.Back(adv.B.Allocation, otherCur); err != nil {
			return nil, err
		}
	}
	return r, nil
}
