package gemhub

import (
	"errors"
	"strings"
	"testing"
)

func TestPortfolio_Record(t *testing.T) {
	p := NewPortfolio()
	var inferred []string
	p.Infer = func(ticker string, c Category) { inferred = append(inferred, ticker+"="+c.Code()) }

	tx := mustRecord(t, p, " mxrf11 ", NoCategory, NewBuy(day(1, 5), Q(100), M(9.8, ""), M(0, "")))
	if tx.ID == "" {
		t.Error("Record() did not assign an id")
	}
	a := p.Asset("MXRF11")
	if a == nil {
		t.Fatal("Record() did not create MXRF11")
	}
	if a.Category != FII || a.Sector != "Imobiliário" || a.Currency() != "BRL" {
		t.Errorf("Record() created %s %s %s, want FII Imobiliário BRL", a.Category, a.Sector, a.Currency())
	}
	if !a.CurrentPrice.Equal(BRL(9.8)) {
		t.Errorf("new asset price = %v, want the transaction price", a.CurrentPrice)
	}
	if !tx.Price.Equal(BRL(9.8)) {
		t.Errorf("stored price = %v, want it tagged BRL", tx.Price)
	}
	if len(inferred) != 1 || inferred[0] != "MXRF11=FII" {
		t.Errorf("Infer calls = %v, want [MXRF11=FII]", inferred)
	}

	// explicit category wins over the naming convention.
	mustRecord(t, p, "ABCD11", Crypto, NewBuy(day(1, 5), Q(1), USD(3), USD(0)))
	if got := p.Asset("ABCD11").Category; got != Crypto {
		t.Errorf("ABCD11 category = %s, want CRYPTO", got)
	}
	if len(inferred) != 1 {
		t.Errorf("Infer called for an explicit category: %v", inferred)
	}

	// second buy goes to the existing asset.
	mustRecord(t, p, "MXRF11", NoCategory, NewBuy(day(1, 6), Q(100), BRL(10.2), BRL(0)))
	if got := p.Asset("MXRF11").Quantity(); !got.Equal(Q(200)) {
		t.Errorf("MXRF11 quantity = %s, want 200", got)
	}
	assertMoney(t, "MXRF11 average", p.Asset("MXRF11").AveragePrice(), "10", 2)
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestPortfolio_RecordErrors(t *testing.T) {
	tests := []struct {
		name     string
		ticker   string
		category Category
		tx       Transaction
	}{
		{"missing ticker", " ", Crypto, NewBuy(day(1, 1), Q(1), USD(1), USD(0))},
		{"zero quantity", "BTC", Crypto, NewBuy(day(1, 1), Q(0), USD(1), USD(0))},
		{"negative price", "BTC", Crypto, NewSell(day(1, 1), Q(1), USD(-1), USD(0))},
		{"negative fees", "BTC", Crypto, NewBuy(day(1, 1), Q(1), USD(1), USD(-1))},
		{"unknown type", "BTC", Crypto, Transaction{Type: CmdQuote, Quantity: Q(1), Price: USD(1)}},
		{"unknown source", "BTC", Crypto, Transaction{Type: CmdBuy, Quantity: Q(1), Price: USD(1), Source: "gift"}},
		{"wrong currency", "BTC", Crypto, NewBuy(day(1, 1), Q(1), BRL(1), BRL(0))},
		{"category conflict", "ETH", FII, NewBuy(day(1, 1), Q(1), BRL(1), BRL(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPortfolio()
			mustRecord(t, p, "ETH", Crypto, NewBuy(day(1, 1), Q(1), USD(2000), USD(0)))
			before := p.Clone()

			_, err := p.Record(tt.ticker, tt.category, tt.tx)
			if !errors.Is(err, ErrInvalidTransaction) {
				t.Fatalf("Record() error = %v, want ErrInvalidTransaction", err)
			}
			if p.Len() != before.Len() || len(p.Asset("ETH").Transactions()) != 1 {
				t.Errorf("Record() touched the portfolio on error")
			}
		})
	}
}

func TestPortfolio_RecordJoinsErrors(t *testing.T) {
	p := NewPortfolio()
	_, err := p.Record("BTC", Crypto, NewBuy(day(1, 1), Q(-1), USD(0), USD(-2)))
	if !errors.Is(err, ErrInvalidTransaction) {
		t.Fatalf("Record() error = %v, want ErrInvalidTransaction", err)
	}
	for _, want := range []string{"quantity", "price", "fees"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Record() error %q does not mention %s", err, want)
		}
	}
}

func TestPortfolio_Remove(t *testing.T) {
	p := NewPortfolio()
	b1 := mustRecord(t, p, "BTC", Crypto, NewBuy(day(1, 1), Q(0.1), USD(40000), USD(5)))
	b2 := mustRecord(t, p, "BTC", Crypto, NewBuy(day(2, 1), Q(0.05), USD(46000), USD(8)))
	s := mustRecord(t, p, "BTC", Crypto, NewSell(day(3, 1), Q(0.05), USD(50000), USD(0)))

	if _, err := p.Remove("DOGE", b1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(unknown ticker) error = %v, want ErrNotFound", err)
	}
	if _, err := p.Remove("BTC", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(unknown id) error = %v, want ErrNotFound", err)
	}

	removed, err := p.Remove("btc", s.ID)
	if err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if removed.ID != s.ID {
		t.Errorf("Remove() returned %s, want %s", removed.ID, s.ID)
	}
	a := p.Asset("BTC")
	if !a.Quantity().Equal(Q(0.15)) {
		t.Errorf("quantity after removing the sell = %s, want 0.15", a.Quantity())
	}
	assertMoney(t, "average after removing the sell", a.AveragePrice(), "42086.67", 2)

	// recomputing from the remaining transactions is stable.
	again, _ := Aggregate(a.Transactions(), a.Currency())
	if !again.Quantity.Equal(a.Quantity()) || !again.AveragePrice.Equal(a.AveragePrice()) {
		t.Errorf("recomputing gives %v, want %v", again, a.Position())
	}

	for _, id := range []string{b2.ID, b1.ID} {
		if _, err := p.Remove("BTC", id); err != nil {
			t.Fatalf("Remove(%s) unexpected error: %v", id, err)
		}
	}
	if !a.Quantity().IsZero() || !a.AveragePrice().IsZero() {
		t.Errorf("position without buys = %s @ %s, want zero", a.Quantity(), a.AveragePrice().Decimal())
	}
	if p.Asset("BTC") == nil {
		t.Error("drained asset was deleted")
	}
}

func TestPortfolio_Strict(t *testing.T) {
	p := NewPortfolio()
	p.Strict = true
	buy := mustRecord(t, p, "SOL", Crypto, NewBuy(day(1, 1), Q(10), USD(85), USD(0)))
	mustRecord(t, p, "SOL", Crypto, NewSell(day(1, 2), Q(4), USD(100), USD(0)))

	if _, err := p.Record("SOL", Crypto, NewSell(day(1, 3), Q(7), USD(100), USD(0))); !errors.Is(err, ErrOversell) {
		t.Errorf("Record(oversell) error = %v, want ErrOversell", err)
	}
	if got := len(p.Asset("SOL").Transactions()); got != 2 {
		t.Errorf("rejected sell was recorded: %d transactions", got)
	}
	if _, err := p.Remove("SOL", buy.ID); !errors.Is(err, ErrOversell) {
		t.Errorf("Remove(buy backing a sell) error = %v, want ErrOversell", err)
	}
	if !p.Asset("SOL").Quantity().Equal(Q(6)) {
		t.Errorf("quantity = %s, want 6", p.Asset("SOL").Quantity())
	}

	p.Strict = false
	if _, err := p.Record("SOL", Crypto, NewSell(day(1, 3), Q(7), USD(100), USD(0))); err != nil {
		t.Errorf("Record(oversell) lenient: unexpected error %v", err)
	}
	if !p.Asset("SOL").Quantity().IsZero() {
		t.Errorf("quantity = %s, want 0", p.Asset("SOL").Quantity())
	}
}

func TestPortfolio_StrictHistoricalOversell(t *testing.T) {
	p := NewPortfolio()
	p.Strict = true
	if _, err := p.Restore("", "BTC", Crypto, "", []Transaction{
		{ID: "b1", Type: CmdBuy, Date: day(1, 1), Quantity: Q(1), Price: USD(100), Fees: USD(0), Source: NewMoney},
		{ID: "s1", Type: CmdSell, Date: day(1, 2), Quantity: Q(2), Price: USD(120), Fees: USD(0), Source: NewMoney},
	}); err != nil {
		t.Fatalf("Restore() unexpected error: %v", err)
	}

	// the clamped sell does not lock the asset.
	buy := mustRecord(t, p, "BTC", Crypto, NewBuy(day(2, 1), Q(1), USD(100), USD(0)))
	if !p.Asset("BTC").Quantity().Equal(Q(1)) {
		t.Errorf("quantity = %s, want 1", p.Asset("BTC").Quantity())
	}
	if _, err := p.Remove("BTC", buy.ID); err != nil {
		t.Errorf("Remove() unexpected error: %v", err)
	}

	// new oversells are still rejected.
	if _, err := p.Record("BTC", Crypto, NewSell(day(2, 2), Q(1), USD(100), USD(0))); !errors.Is(err, ErrOversell) {
		t.Errorf("Record(oversell) error = %v, want ErrOversell", err)
	}
	if got := len(p.Asset("BTC").Transactions()); got != 2 {
		t.Errorf("transactions = %d, want 2", got)
	}
}

func TestPortfolio_ApplyQuotes(t *testing.T) {
	p := NewPortfolio()
	mustRecord(t, p, "BTC", Crypto, NewBuy(day(1, 1), Q(1), USD(40000), USD(0)))
	mustRecord(t, p, "HGLG11", FII, NewBuy(day(1, 1), Q(10), BRL(158), BRL(0)))

	n := p.ApplyQuotes([]Quote{
		{Ticker: "BTC", Price: USD(64200), DailyChange: 2.4},
		{Ticker: "HGLG11", Price: M(164.2, ""), DailyChange: -0.3, ProvDividend: prov(BRL(11))},
		{Ticker: "DOGE", Price: USD(0.1)},
		{Ticker: "BTC", Price: BRL(1)}, // wrong currency
		{Ticker: "HGLG11", Price: BRL(0)},
	})
	if n != 2 {
		t.Errorf("ApplyQuotes() = %d, want 2", n)
	}
	if got := p.Asset("BTC").CurrentPrice; !got.Equal(USD(64200)) {
		t.Errorf("BTC price = %v, want 64200 USD", got)
	}
	h := p.Asset("HGLG11")
	if !h.CurrentPrice.Equal(BRL(164.2)) || !h.DailyChange.Equal(-0.3) || !h.ProvDividend.Equal(BRL(11)) {
		t.Errorf("HGLG11 = %v %v %v", h.CurrentPrice, h.DailyChange, h.ProvDividend)
	}
	if p.Asset("DOGE") != nil {
		t.Error("ApplyQuotes() created an asset")
	}

	p.ApplyQuotes([]Quote{{Ticker: "HGLG11", Price: BRL(165)}})
	if !h.ProvDividend.Equal(BRL(11)) {
		t.Errorf("quote without dividend changed it to %v", h.ProvDividend)
	}
	p.ApplyQuotes([]Quote{{Ticker: "HGLG11", Price: BRL(165), ProvDividend: prov(BRL(0))}})
	if !h.ProvDividend.IsZero() {
		t.Errorf("HGLG11 dividend = %v, want it cleared", h.ProvDividend)
	}
}

func TestPortfolio_Clone(t *testing.T) {
	p := NewPortfolio()
	tx := mustRecord(t, p, "ETH", Crypto, NewBuy(day(1, 1), Q(1), USD(2000), USD(0)))
	c := p.Clone()

	mustRecord(t, p, "ETH", Crypto, NewBuy(day(1, 2), Q(1), USD(3000), USD(0)))
	p.Asset("ETH").CurrentPrice = USD(1)

	a := c.Asset("ETH")
	if len(a.Transactions()) != 1 || !a.Quantity().Equal(Q(1)) || !a.CurrentPrice.Equal(USD(2000)) {
		t.Errorf("clone changed with the original: %d txs, qty %s, price %v", len(a.Transactions()), a.Quantity(), a.CurrentPrice)
	}
	if _, got, ok := c.Find(tx.ID); !ok || got.ID != tx.ID {
		t.Errorf("Find(%s) = %v, %v", tx.ID, got, ok)
	}
}

func TestPortfolio_Declare(t *testing.T) {
	p := NewPortfolio()
	a, err := p.Declare("knip11", NoCategory, "")
	if err != nil {
		t.Fatalf("Declare() unexpected error: %v", err)
	}
	if a.Ticker != "KNIP11" || a.Category != FII || a.Sector != FII.DefaultSector() {
		t.Errorf("Declare() = %s %s %s", a.Ticker, a.Category, a.Sector)
	}
	if a, err = p.Declare("KNIP11", Crypto, "Papel"); err != nil || a.Category != Crypto || a.Sector != "Papel" {
		t.Errorf("re-Declare() empty asset = %v %v, want it updated", a, err)
	}
	mustRecord(t, p, "KNIP11", NoCategory, NewBuy(day(1, 1), Q(1), USD(1), USD(0)))
	if _, err := p.Declare("KNIP11", FII, ""); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("Declare() with transactions error = %v, want ErrInvalidTransaction", err)
	}
}
