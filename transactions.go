package gemhub

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/gemhub/date"
	"github.com/shopspring/decimal"
)

// CommandType is a typed string for identifying transaction commands.
type CommandType string

// Command types used for identifying ledger lines.
const (
	CmdDeclare  CommandType = "declare"
	CmdBuy      CommandType = "buy"
	CmdSell     CommandType = "sell"
	CmdDividend CommandType = "dividend"
	CmdQuote    CommandType = "quote"
)

// IsTransaction reports whether c is one of buy, sell or dividend.
func (c CommandType) IsTransaction() bool {
	return c == CmdBuy || c == CmdSell || c == CmdDividend
}

// Source tells where the money of a transaction came from.
type Source string

const (
	NewMoney     Source = "new_money"
	Reinvestment Source = "reinvestment"
)

// ParseSource parses a transaction source, "new" and "reinvest" are accepted as shorthands.
func ParseSource(s string) (Source, error) {
	switch s {
	case "", "new", string(NewMoney):
		return NewMoney, nil
	case "reinvest", string(Reinvestment):
		return Reinvestment, nil
	}
	return "", fmt.Errorf("unknown source %q, want new_money or reinvestment", s)
}

// Transaction is a single buy, sell or dividend of an asset.
//
// A Transaction is immutable once recorded, it can only be removed from its asset.
type Transaction struct {
	ID       string
	Type     CommandType
	Date     date.Date
	Quantity Quantity // units bought, sold, or held when the dividend was paid
	Price    Money    // unit price, or dividend per unit, in the asset native currency
	Fees     Money
	Source   Source
	Memo     string
}

// NewBuy creates a new buy transaction funded with new money.
func NewBuy(day date.Date, quantity Quantity, price, fees Money) Transaction {
	return Transaction{Type: CmdBuy, Date: day, Quantity: quantity, Price: price, Fees: fees, Source: NewMoney}
}

// NewSell creates a new sell transaction.
func NewSell(day date.Date, quantity Quantity, price, fees Money) Transaction {
	return Transaction{Type: CmdSell, Date: day, Quantity: quantity, Price: price, Fees: fees, Source: NewMoney}
}

// NewDividend creates a new dividend transaction: 'quantity' units paid 'perUnit' each.
func NewDividend(day date.Date, quantity Quantity, perUnit Money) Transaction {
	return Transaction{Type: CmdDividend, Date: day, Quantity: quantity, Price: perUnit, Source: NewMoney}
}

// What returns the command type of the transaction.
func (t Transaction) What() CommandType { return t.Type }

// When returns the date of the transaction.
func (t Transaction) When() date.Date { return t.Date }

// Currency returns the currency of the transaction amounts.
func (t Transaction) Currency() string { return cur(t.Price, t.Fees) }

// Gross returns quantity*price.
func (t Transaction) Gross() Money { return t.Price.Mul(t.Quantity) }

// Total returns quantity*price + fees, the amount reported by exports.
func (t Transaction) Total() Money { return t.Gross().Add(t.Fees) }

// Validate checks the transaction fields. It returns a copy with quick fixes
// applied (missing date, source or fees) and an error joining every failure.
// Errors wrap ErrInvalidTransaction.
func (t Transaction) Validate() (Transaction, error) {
	if t.Date.IsZero() {
		t.Date = date.Today()
	}
	if t.Source == "" {
		t.Source = NewMoney
	}
	if t.Fees.Currency() == "" && t.Fees.IsZero() {
		t.Fees = M(decimal.Zero, t.Price.Currency())
	}

	var errs []error
	if !t.Type.IsTransaction() {
		errs = append(errs, fmt.Errorf("unknown transaction type %q", t.Type))
	}
	if _, err := ParseSource(string(t.Source)); err != nil {
		errs = append(errs, err)
	}
	if !t.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("%s quantity must be positive, got %s", t.Type, t.Quantity))
	}
	switch {
	case t.Type == CmdDividend && t.Price.IsNegative():
		errs = append(errs, fmt.Errorf("dividend per unit cannot be negative, got %s", t.Price.Decimal()))
	case t.Type != CmdDividend && !t.Price.IsPositive():
		errs = append(errs, fmt.Errorf("%s price must be positive, got %s", t.Type, t.Price.Decimal()))
	}
	if t.Fees.IsNegative() {
		errs = append(errs, fmt.Errorf("%s fees cannot be negative, got %s", t.Type, t.Fees.Decimal()))
	}
	if t.Price.Currency() != "" && t.Fees.Currency() != "" && t.Price.Currency() != t.Fees.Currency() {
		errs = append(errs, fmt.Errorf("price currency %s and fees currency %s differ", t.Price.Currency(), t.Fees.Currency()))
	}
	if len(errs) > 0 {
		return t, fmt.Errorf("%w: %w", ErrInvalidTransaction, errors.Join(errs...))
	}
	return t, nil
}

// inCurrency returns t with its amounts tagged with currency, or an error if they
// already carry another one.
func (t Transaction) inCurrency(currency string) (Transaction, error) {
	for _, m := range []Money{t.Price, t.Fees} {
		if m.Currency() != "" && m.Currency() != currency {
			return t, fmt.Errorf("%w: %s amounts are in %s, the asset is quoted in %s", ErrInvalidTransaction, t.Type, m.Currency(), currency)
		}
	}
	t.Price = M(t.Price.Decimal(), currency)
	t.Fees = M(t.Fees.Decimal(), currency)
	return t, nil
}

// MarshalJSON writes the transaction with a stable key order. Amounts are written as
// bare numbers next to a single currency field.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.appendTo(&w, "")
	return w.MarshalJSON()
}

// appendTo writes the transaction fields into w, with ticker right after the date.
func (t Transaction) appendTo(w *jsonObjectWriter, ticker string) {
	w.Append("command", t.Type)
	w.Append("date", t.Date)
	w.Optional("ticker", ticker)
	w.Optional("id", t.ID)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Decimal())
	w.Optional("fees", nonZero(t.Fees.Decimal()))
	w.Optional("currency", t.Currency())
	w.Append("source", t.Source)
	w.Optional("memo", t.Memo)
}

// txCmd is the json shape of a transaction.
type txCmd struct {
	Command  CommandType     `json:"command"`
	Date     date.Date       `json:"date"`
	ID       string          `json:"id"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fees     decimal.Decimal `json:"fees"`
	Currency string          `json:"currency"`
	Source   Source          `json:"source"`
	Memo     string          `json:"memo"`
}

func (c txCmd) Transaction() Transaction {
	return Transaction{
		ID:       c.ID,
		Type:     c.Command,
		Date:     c.Date,
		Quantity: c.Quantity,
		Price:    M(c.Price, c.Currency),
		Fees:     M(c.Fees, c.Currency),
		Source:   c.Source,
		Memo:     c.Memo,
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var c txCmd
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*t = c.Transaction()
	return nil
}

// nonZero returns a pointer to d, or nil if d is zero, so that Optional skips it.
func nonZero(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}
