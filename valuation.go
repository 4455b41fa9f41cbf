package gemhub

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Rates converts amounts into a single reporting currency.
//
// A rate is the number of units of the reporting currency for one unit of the
// source currency. The reporting currency itself always has rate 1.
type Rates struct {
	currency string
	rates    map[string]decimal.Decimal
}

// NewRates returns an empty set of rates into currency.
func NewRates(currency string) *Rates {
	return &Rates{currency: strings.ToUpper(currency), rates: make(map[string]decimal.Decimal)}
}

// Currency returns the reporting currency.
func (r *Rates) Currency() string { return r.currency }

// Set records the rate from currency 'from' into the reporting currency.
func (r *Rates) Set(from string, rate decimal.Decimal) *Rates {
	r.rates[strings.ToUpper(from)] = rate
	return r
}

// Currencies returns the source currencies with a known rate, sorted.
func (r *Rates) Currencies() []string {
	return slices.Sorted(maps.Keys(r.rates))
}

// Rate returns the rate from currency 'from' into the reporting currency.
func (r *Rates) Rate(from string) (decimal.Decimal, error) {
	if from == r.currency || from == "" {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := r.rates[from]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrMissingRate, from, r.currency)
	}
	return rate, nil
}

// Convert converts m into the reporting currency.
func (r *Rates) Convert(m Money) (Money, error) {
	rate, err := r.Rate(m.Currency())
	if err != nil {
		return Money{}, err
	}
	return m.Convert(rate, r.currency), nil
}

// Back converts m, in the reporting currency, into currency 'to'.
func (r *Rates) Back(m Money, to string) (Money, error) {
	rate, err := r.Rate(to)
	if err != nil {
		return Money{}, err
	}
	return M(m.Decimal().Div(rate), to), nil
}

// GroupBy is the grouping key of a valuation.
type GroupBy int

const (
	ByCategory GroupBy = iota
	BySector
)

func (g GroupBy) String() string {
	if g == BySector {
		return "sector"
	}
	return "category"
}

// ParseGroupBy parses "category" or "sector".
func ParseGroupBy(s string) (GroupBy, error) {
	switch strings.ToLower(s) {
	case "", "category", "cat":
		return ByCategory, nil
	case "sector":
		return BySector, nil
	}
	return ByCategory, fmt.Errorf("unknown grouping %q, want category or sector", s)
}

// Holding is the valuation of one asset.
type Holding struct {
	Ticker       string
	Category     Category
	Sector       string
	Quantity     Quantity
	AveragePrice Money // native currency
	Price        Money // native currency
	DailyChange  Percent
	Value        Money   // native currency
	Cost         Money   // reporting currency
	MarketValue  Money   // reporting currency
	Gain         Money   // reporting currency
	ProvDividend Money   // reporting currency
	Weight       Percent // of the grand total
}

// Return returns the unrealized gain as a percentage of cost.
func (h Holding) Return() Percent {
	if !h.Cost.IsPositive() {
		return 0
	}
	return Percent(h.Gain.DivMoney(h.Cost).Mul(decimal.NewFromInt(100)).InexactFloat64())
}

// Group is the valuation of a set of holdings sharing a key.
type Group struct {
	Key      string
	Value    Money // reporting currency
	Weight   Percent
	Holdings []Holding
}

// Valuation is the aggregated value of a portfolio in a reporting currency.
type Valuation struct {
	Currency     string
	GroupBy      GroupBy
	Total        Money
	Cost         Money
	MonthlyYield Money // sum of provisioned dividends
	Holdings     []Holding
	Groups       []Group
}

// Valuate values every asset in the reporting currency of rates and groups them.
//
// The market value of an asset is quantity*current price converted with the rate of
// its category currency. Nothing is rounded. It fails with ErrMissingRate if an asset
// currency has no rate.
func Valuate(p *Portfolio, rates *Rates, by GroupBy) (*Valuation, error) {
	cur := rates.Currency()
	zero := M(decimal.Zero, cur)
	v := &Valuation{Currency: cur, GroupBy: by, Total: zero, Cost: zero, MonthlyYield: zero}

	for a := range p.Assets() {
		rate, err := rates.Rate(a.Currency())
		if err != nil {
			return nil, fmt.Errorf("cannot value %s: %w", a.Ticker, err)
		}
		h := Holding{
			Ticker:       a.Ticker,
			Category:     a.Category,
			Sector:       a.Sector,
			Quantity:     a.Quantity(),
			AveragePrice: a.AveragePrice(),
			Price:        a.CurrentPrice,
			DailyChange:  a.DailyChange,
			Value:        a.MarketValue(),
			Cost:         a.Position().Cost().Convert(rate, cur),
			MarketValue:  a.MarketValue().Convert(rate, cur),
			ProvDividend: a.ProvDividend.Convert(rate, cur),
		}
		h.Gain = h.MarketValue.Sub(h.Cost)
		v.Total = v.Total.Add(h.MarketValue)
		v.Cost = v.Cost.Add(h.Cost)
		v.MonthlyYield = v.MonthlyYield.Add(h.ProvDividend)
		v.Holdings = append(v.Holdings, h)
	}

	index := make(map[string]int)
	for i := range v.Holdings {
		h := &v.Holdings[i]
		h.Weight = ratio(h.MarketValue, v.Total)
		key := h.Category.Code()
		if by == BySector {
			key = h.Sector
		}
		g, ok := index[key]
		if !ok {
			g = len(v.Groups)
			index[key] = g
			v.Groups = append(v.Groups, Group{Key: key, Value: zero})
		}
		v.Groups[g].Value = v.Groups[g].Value.Add(h.MarketValue)
		v.Groups[g].Holdings = append(v.Groups[g].Holdings, *h)
	}
	for i := range v.Groups {
		v.Groups[i].Weight = ratio(v.Groups[i].Value, v.Total)
	}
	switch by {
	case ByCategory:
		order := func(key string) int {
			c, _ := ParseCategory(key)
			return slices.Index(Categories(), c)
		}
		slices.SortStableFunc(v.Groups, func(a, b Group) int { return order(a.Key) - order(b.Key) })
	case BySector:
		slices.SortStableFunc(v.Groups, func(a, b Group) int {
			if c := b.Value.Decimal().Cmp(a.Value.Decimal()); c != 0 {
				return c
			}
			return strings.Compare(a.Key, b.Key)
		})
	}
	return v, nil
}

// Group returns the group with this key, and false if there is none.
func (v *Valuation) Group(key string) (Group, bool) {
	i := slices.IndexFunc(v.Groups, func(g Group) bool { return strings.EqualFold(g.Key, key) })
	if i < 0 {
		return Group{}, false
	}
	return v.Groups[i], true
}

// CategoryTotal returns the value of the category c, in the reporting currency.
func (v *Valuation) CategoryTotal(c Category) Money {
	total := M(decimal.Zero, v.Currency)
	for _, h := range v.Holdings {
		if h.Category == c {
			total = total.Add(h.MarketValue)
		}
	}
	return total
}

// NativeTotal returns the value of the category c in its own currency.
func (v *Valuation) NativeTotal(c Category) Money {
	total := M(decimal.Zero, c.Currency())
	for _, h := range v.Holdings {
		if h.Category == c {
			total = total.Add(h.Value)
		}
	}
	return total
}

// Gain returns the unrealized gain of the whole portfolio.
func (v *Valuation) Gain() Money { return v.Total.Sub(v.Cost) }

// ratio returns part/total as a percentage, 0 when total is not positive.
func ratio(part, total Money) Percent {
	if !total.IsPositive() {
		return 0
	}
	return Percent(part.DivMoney(total).Mul(decimal.NewFromInt(100)).InexactFloat64())
}
