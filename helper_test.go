package gemhub

import (
	"testing"
	"time"

	"github.com/etnz/gemhub/date"
	"github.com/shopspring/decimal"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// BRL is a helper for test to create brl money from const
func BRL(v float64) Money { return M(v, "BRL") }

// prov returns a provisioned dividend for a Quote.
func prov(m Money) *Money { return &m }

// dec parses a decimal or panics.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// day returns a date in 2025.
func day(month, d int) date.Date { return date.New(2025, time.Month(month), d) }

// brlRates returns rates into BRL with usd as the USD rate.
func brlRates(usd string) *Rates { return NewRates("BRL").Set("USD", dec(usd)) }

// mustRecord records tx or fails the test.
func mustRecord(t *testing.T, p *Portfolio, ticker string, c Category, tx Transaction) Transaction {
	t.Helper()
	tx, err := p.Record(ticker, c, tx)
	if err != nil {
		t.Fatalf("Record(%s, %v) unexpected error: %v", ticker, tx, err)
	}
	return tx
}

// assertMoney fails if got is not equal to want once rounded to 'places' decimals.
func assertMoney(t *testing.T, what string, got Money, want string, places int32) {
	t.Helper()
	if g := got.Decimal().Round(places); !g.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", what, g, want)
	}
}
