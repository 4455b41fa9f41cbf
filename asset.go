package gemhub

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Position is the state of an asset derived from its transactions.
type Position struct {
	Quantity     Quantity
	AveragePrice Money // cost per unit, fees included
}

// Cost returns the cost basis of the position: quantity*average price.
func (p Position) Cost() Money { return p.AveragePrice.Mul(p.Quantity) }

// Aggregate replays buys and sells in chronological order (ties keep the slice order)
// and returns the resulting position. Dividends are ignored.
//
// A sell larger than the held quantity drains the position to zero. The returned
// position is always the clamped one, but the first such sell is also reported as an
// error wrapping ErrOversell so that strict callers can reject it. Amounts in another
// currency than currency are an error wrapping ErrInvalidTransaction.
func Aggregate(txs []Transaction, currency string) (Position, error) {
	pos, oversold, err := aggregate(txs, currency)
	if err != nil {
		return pos, err
	}
	if len(oversold) > 0 {
		return pos, oversold[0].err
	}
	return pos, nil
}

// oversell is a sell that exceeded the held quantity when it was replayed.
type oversell struct {
	key string
	err error
}

// oversellKey identifies a sell across replays of the same asset.
func oversellKey(tx Transaction) string {
	if tx.ID != "" {
		return tx.ID
	}
	return tx.Date.String() + "/" + tx.Quantity.String()
}

func aggregate(txs []Transaction, currency string) (Position, []oversell, error) {
	ordered := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		tx, err := tx.inCurrency(currency)
		if err != nil {
			return Position{AveragePrice: M(decimal.Zero, currency)}, nil, err
		}
		ordered = append(ordered, tx)
	}
	slices.SortStableFunc(ordered, func(a, b Transaction) int { return a.Date.Compare(b.Date) })

	qty := Quantity{}
	avg := M(decimal.Zero, currency)
	buys := 0
	var oversold []oversell
	for _, tx := range ordered {
		switch tx.Type {
		case CmdBuy:
			buys++
			cost := avg.Mul(qty).Add(tx.Gross()).Add(tx.Fees)
			qty = qty.Add(tx.Quantity)
			avg = cost.Div(qty)
		case CmdSell:
			if tx.Quantity.GreaterThan(qty) {
				err := fmt.Errorf("%w: selling %s on %s while holding %s", ErrOversell, tx.Quantity, tx.Date, qty)
				oversold = append(oversold, oversell{key: oversellKey(tx), err: err})
			}
			// avg is unchanged: the remaining units keep their cost basis.
			qty = qty.Sub(tx.Quantity).ClampZero()
		}
	}
	if buys == 0 {
		return Position{AveragePrice: M(decimal.Zero, currency)}, oversold, nil
	}
	return Position{Quantity: qty, AveragePrice: avg}, oversold, nil
}

// Asset is one tracked holding: a ticker, its category and its transactions.
//
// The quantity and average price are derived from the transactions. They are not
// settable, every change to the transactions goes through the Portfolio which
// recomputes them before returning.
type Asset struct {
	ID       string
	Ticker   string
	Category Category
	Sector   string

	// Market data, refreshed by the price feed.
	CurrentPrice Money
	DailyChange  Percent
	ProvDividend Money // provisioned monthly dividend for the whole position, FII only
	DY           Percent
	PVP          decimal.Decimal
	Vacancy      Percent
	Target       Percent // optional target weight of the asset

	transactions []Transaction
	pos          Position
}

// newAsset returns an empty asset for ticker in category c.
func newAsset(id, ticker string, c Category) *Asset {
	cur := c.Currency()
	return &Asset{
		ID:           id,
		Ticker:       ticker,
		Category:     c,
		Sector:       c.DefaultSector(),
		CurrentPrice: M(decimal.Zero, cur),
		ProvDividend: M(decimal.Zero, cur),
		pos:          Position{AveragePrice: M(decimal.Zero, cur)},
	}
}

// Currency returns the currency the asset is quoted in.
func (a *Asset) Currency() string { return a.Category.Currency() }

// Quantity returns the number of units held.
func (a *Asset) Quantity() Quantity { return a.pos.Quantity }

// AveragePrice returns the average cost per unit, fees included.
func (a *Asset) AveragePrice() Money { return a.pos.AveragePrice }

// Position returns the derived position.
func (a *Asset) Position() Position { return a.pos }

// MarketValue returns quantity*current price, in the asset currency.
func (a *Asset) MarketValue() Money { return a.CurrentPrice.Mul(a.pos.Quantity) }

// Gain returns the unrealized gain of the position, in the asset currency.
func (a *Asset) Gain() Money { return a.MarketValue().Sub(a.pos.Cost()) }

// Transactions returns a copy of the asset transactions, in recording order.
func (a *Asset) Transactions() []Transaction { return slices.Clone(a.transactions) }

// Transaction returns the transaction with this id.
func (a *Asset) Transaction(id string) (Transaction, bool) {
	i := slices.IndexFunc(a.transactions, func(tx Transaction) bool { return tx.ID == id })
	if i < 0 {
		return Transaction{}, false
	}
	return a.transactions[i], true
}

// Last returns the most recently recorded transaction.
func (a *Asset) Last() (Transaction, bool) {
	if len(a.transactions) == 0 {
		return Transaction{}, false
	}
	return a.transactions[len(a.transactions)-1], true
}

// setTransactions replaces the transactions and recomputes the position. In strict
// mode an oversell that the current transactions did not already have is returned and
// the asset is left untouched: historical oversells stay clamped.
func (a *Asset) setTransactions(txs []Transaction, strict bool) error {
	pos, oversold, err := aggregate(txs, a.Currency())
	if err != nil {
		return err
	}
	if strict && len(oversold) > 0 {
		_, known, _ := aggregate(a.transactions, a.Currency())
		for _, o := range oversold {
			if !slices.ContainsFunc(known, func(k oversell) bool { return k.key == o.key }) {
				return o.err
			}
		}
	}
	a.transactions, a.pos = txs, pos
	return nil
}

// clone returns a deep copy of a.
func (a *Asset) clone() *Asset {
	c := *a
	c.transactions = slices.Clone(a.transactions)
	return &c
}

// Quote is a market update for one ticker, as produced by a price feed.
type Quote struct {
	Ticker       string
	Category     Category
	Price        Money
	DailyChange  Percent
	ProvDividend *Money // nil leaves the provisioned dividend of the asset unchanged
}

// Quote returns the current market state of the asset as a Quote.
func (a *Asset) Quote() Quote {
	prov := a.ProvDividend
	return Quote{
		Ticker:       a.Ticker,
		Category:     a.Category,
		Price:        a.CurrentPrice,
		DailyChange:  a.DailyChange,
		ProvDividend: &prov,
	}
}
