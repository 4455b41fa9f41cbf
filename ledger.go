package gemhub

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransaction is returned when a transaction fails validation.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrNotFound is returned for an unknown ticker or transaction id.
	ErrNotFound = errors.New("not found")
	// ErrOversell is returned in strict mode when a sell exceeds the held quantity.
	ErrOversell = errors.New("sell exceeds held quantity")
	// ErrMissingRate is returned when a conversion rate to the reporting currency is missing.
	ErrMissingRate = errors.New("missing exchange rate")
	// ErrInvalidTarget is returned for a rebalance target outside [0,1] or a negative contribution.
	ErrInvalidTarget = errors.New("invalid rebalance target")
)

// RiskProfile is the declared appetite for risk of the portfolio owner.
type RiskProfile string

const (
	Conservative RiskProfile = "conservative"
	Moderate     RiskProfile = "moderate"
	Aggressive   RiskProfile = "aggressive"
)

// ParseRiskProfile parses a risk profile, the portuguese names are accepted too.
func ParseRiskProfile(s string) (RiskProfile, error) {
	switch strings.ToLower(s) {
	case "conservative", "conservador":
		return Conservative, nil
	case "", "moderate", "moderado":
		return Moderate, nil
	case "aggressive", "arrojado":
		return Aggressive, nil
	}
	return "", fmt.Errorf("unknown risk profile %q", s)
}

// Portfolio is the ordered set of assets of one owner, unique by ticker.
//
// Portfolio is not safe for concurrent use. Every method leaves the assets fully
// consistent: derived quantities and average prices are never stale.
type Portfolio struct {
	Name              string
	PreferredCurrency string
	RiskProfile       RiskProfile

	// Strict rejects sells larger than the held quantity instead of clamping them.
	Strict bool

	assets []*Asset
	// Infer is called when an asset is created with an inferred category.
	// It is meant for logging.
	Infer func(ticker string, c Category)
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{PreferredCurrency: "BRL", RiskProfile: Moderate}
}

// Len returns the number of assets.
func (p *Portfolio) Len() int { return len(p.assets) }

// Asset returns the asset for ticker, or nil if unknown.
func (p *Portfolio) Asset(ticker string) *Asset {
	i := p.index(ticker)
	if i < 0 {
		return nil
	}
	return p.assets[i]
}

func (p *Portfolio) index(ticker string) int {
	ticker = NormalizeTicker(ticker)
	return slices.IndexFunc(p.assets, func(a *Asset) bool { return a.Ticker == ticker })
}

// Assets iterates over the assets in portfolio order.
func (p *Portfolio) Assets() iter.Seq[*Asset] {
	return func(yield func(*Asset) bool) {
		for _, a := range p.assets {
			if !yield(a) {
				return
			}
		}
	}
}

// Tickers returns the tickers in portfolio order.
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, 0, len(p.assets))
	for _, a := range p.assets {
		tickers = append(tickers, a.Ticker)
	}
	return tickers
}

// NormalizeTicker upper cases and trims a ticker.
func NormalizeTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Declare adds an empty asset, or updates the category and sector of an existing one
// that has no transaction yet. An empty sector means the category default.
func (p *Portfolio) Declare(ticker string, c Category, sector string) (*Asset, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is missing", ErrInvalidTransaction)
	}
	if !c.IsValid() {
		c = InferCategory(ticker)
		if p.Infer != nil {
			p.Infer(ticker, c)
		}
	}
	if sector == "" {
		sector = c.DefaultSector()
	}
	if a := p.Asset(ticker); a != nil {
		if a.Category != c && len(a.transactions) > 0 {
			return nil, fmt.Errorf("%w: %s is already recorded as %s", ErrInvalidTransaction, ticker, a.Category)
		}
		if a.Category != c {
			fresh := newAsset(a.ID, ticker, c)
			*a = *fresh
		}
		a.Sector = sector
		return a, nil
	}
	a := newAsset(uuid.NewString(), ticker, c)
	a.Sector = sector
	p.assets = append(p.assets, a)
	return a, nil
}

// Record validates tx and appends it to the asset for ticker, creating the asset if it
// does not exist yet. When category is NoCategory and the asset is new, the category is
// inferred from the ticker. A new asset is priced at the transaction price until the
// next quote.
//
// It returns the stored transaction with its assigned id. On error the portfolio is
// unchanged.
func (p *Portfolio) Record(ticker string, c Category, tx Transaction) (Transaction, error) {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return tx, fmt.Errorf("%w: ticker is missing", ErrInvalidTransaction)
	}
	tx, err := tx.Validate()
	if err != nil {
		return tx, err
	}

	a := p.Asset(ticker)
	created := a == nil
	if created {
		if !c.IsValid() {
			c = InferCategory(ticker)
			if p.Infer != nil {
				p.Infer(ticker, c)
			}
		}
		a = newAsset(uuid.NewString(), ticker, c)
	} else if c.IsValid() && c != a.Category {
		return tx, fmt.Errorf("%w: %s is a %s asset, not %s", ErrInvalidTransaction, ticker, a.Category, c)
	}

	if tx, err = tx.inCurrency(a.Currency()); err != nil {
		return tx, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	} else if _, exists := a.Transaction(tx.ID); exists {
		return tx, fmt.Errorf("%w: duplicate transaction id %s", ErrInvalidTransaction, tx.ID)
	}

	if err := a.setTransactions(append(slices.Clone(a.transactions), tx), p.Strict); err != nil {
		return tx, err
	}
	if created {
		if tx.Type != CmdDividend {
			a.CurrentPrice = tx.Price
		}
		p.assets = append(p.assets, a)
	}
	return tx, nil
}

// Restore declares an asset and replaces its transactions with txs, as read back from
// storage. Transactions are validated but historical oversells are always clamped.
func (p *Portfolio) Restore(id, ticker string, c Category, sector string, txs []Transaction) (*Asset, error) {
	a, err := p.Declare(ticker, c, sector)
	if err != nil {
		return nil, err
	}
	if id != "" {
		a.ID = id
	}
	restored := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx, err = tx.Validate(); err != nil {
			return nil, fmt.Errorf("%s transaction %s: %w", a.Ticker, tx.ID, err)
		}
		if tx, err = tx.inCurrency(a.Currency()); err != nil {
			return nil, fmt.Errorf("%s transaction %s: %w", a.Ticker, tx.ID, err)
		}
		restored = append(restored, tx)
	}
	if err := a.setTransactions(restored, false); err != nil {
		return nil, err
	}
	return a, nil
}

// Remove deletes the transaction id from the asset for ticker and recomputes its
// position. The asset itself is kept, even when drained.
func (p *Portfolio) Remove(ticker, id string) (Transaction, error) {
	a := p.Asset(ticker)
	if a == nil {
		return Transaction{}, fmt.Errorf("%w: ticker %q", ErrNotFound, ticker)
	}
	i := slices.IndexFunc(a.transactions, func(tx Transaction) bool { return tx.ID == id })
	if i < 0 {
		return Transaction{}, fmt.Errorf("%w: transaction %q in %s", ErrNotFound, id, a.Ticker)
	}
	removed := a.transactions[i]
	// removing a buy can turn a later sell into an oversell.
	if err := a.setTransactions(slices.Delete(slices.Clone(a.transactions), i, i+1), p.Strict); err != nil {
		return Transaction{}, err
	}
	return removed, nil
}

// Find returns the asset and the transaction with this id, searching every asset.
func (p *Portfolio) Find(id string) (*Asset, Transaction, bool) {
	for _, a := range p.assets {
		if tx, ok := a.Transaction(id); ok {
			return a, tx, true
		}
	}
	return nil, Transaction{}, false
}

// ApplyQuotes merges market quotes into the matching assets. Quotes for tickers that
// are not in the portfolio are ignored. It returns the number of assets updated.
func (p *Portfolio) ApplyQuotes(quotes []Quote) int {
	n := 0
	for _, q := range quotes {
		a := p.Asset(q.Ticker)
		if a == nil || !q.Price.IsPositive() {
			continue
		}
		if q.Price.Currency() != "" && q.Price.Currency() != a.Currency() {
			continue
		}
		a.CurrentPrice = M(q.Price.Decimal(), a.Currency())
		a.DailyChange = q.DailyChange
		if q.ProvDividend != nil {
			a.ProvDividend = M(q.ProvDividend.Decimal(), a.Currency())
		}
		n++
	}
	return n
}

// Quotes returns the current quote of every asset, the input of a price feed.
func (p *Portfolio) Quotes() []Quote {
	quotes := make([]Quote, 0, len(p.assets))
	for _, a := range p.assets {
		quotes = append(quotes, a.Quote())
	}
	return quotes
}

// Transactions iterates over every transaction of every asset, sorted by date.
func (p *Portfolio) Transactions() iter.Seq2[*Asset, Transaction] {
	type entry struct {
		a  *Asset
		tx Transaction
	}
	var all []entry
	for _, a := range p.assets {
		for _, tx := range a.transactions {
			all = append(all, entry{a, tx})
		}
	}
	slices.SortStableFunc(all, func(x, y entry) int { return x.tx.Date.Compare(y.tx.Date) })
	return func(yield func(*Asset, Transaction) bool) {
		for _, e := range all {
			if !yield(e.a, e.tx) {
				return
			}
		}
	}
}

// Clone returns a deep copy of p, safe to read while p keeps changing.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	c.assets = make([]*Asset, len(p.assets))
	for i, a := range p.assets {
		c.assets[i] = a.clone()
	}
	return &c
}
