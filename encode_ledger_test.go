package gemhub

import (
	"bytes"
	"strings"
	"testing"

	"github.com/etnz/gemhub/date"
)

func TestEncodePortfolio(t *testing.T) {
	p := NewPortfolio()
	p.Name = "Ana"
	tx := NewBuy(day(1, 10), Q(0.1), USD(40000), USD(5))
	tx.ID = "t1"
	mustRecord(t, p, "BTC", Crypto, tx)
	div := NewDividend(day(2, 15), Q(100), BRL(0.11))
	div.ID, div.Memo = "t2", "jan"
	mustRecord(t, p, "MXRF11", FII, div)
	p.Asset("BTC").ID = "a1"
	p.Asset("MXRF11").ID = "a2"
	p.ApplyQuotes([]Quote{{Ticker: "BTC", Price: USD(64200), DailyChange: 2.4}})

	var buf bytes.Buffer
	if err := EncodePortfolio(&buf, p); err != nil {
		t.Fatalf("EncodePortfolio() unexpected error: %v", err)
	}
	want := strings.Join([]string{
		`{"command":"profile","name":"Ana","currency":"BRL","risk":"moderate"}`,
		`{"command":"declare","ticker":"BTC","id":"a1","category":"CRYPTO","sector":"Ouro Digital"}`,
		`{"command":"buy","date":"2025-01-10","ticker":"BTC","id":"t1","quantity":0.1,"price":40000,"fees":5,"currency":"USD","source":"new_money"}`,
		`{"command":"quote","ticker":"BTC","price":64200,"currency":"USD","change":2.4}`,
		`{"command":"declare","ticker":"MXRF11","id":"a2","category":"FII","sector":"Imobiliário"}`,
		`{"command":"dividend","date":"2025-02-15","ticker":"MXRF11","id":"t2","quantity":100,"price":0.11,"currency":"BRL","source":"new_money","memo":"jan"}`,
		`{"command":"quote","ticker":"MXRF11","price":0,"currency":"BRL"}`,
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("EncodePortfolio() =\n%s\nwant\n%s", got, want)
	}
}

func TestDecodePortfolio(t *testing.T) {
	input := `
{"command":"profile","name":"Ana","currency":"USD","risk":"arrojado","strict":true}
{"command":"declare","ticker":"HGLG11","category":"FII","sector":"Logística"}
{"command":"buy","date":"2025-01-10","ticker":"HGLG11","id":"t1","quantity":10,"price":158,"fees":1,"currency":"BRL","source":"new_money"}
{"command":"buy","date":"2025-01-05","ticker":"eth","quantity":1,"price":2000,"source":"reinvestment"}
{"command":"sell","date":"2025-01-11","ticker":"ETH","quantity":3,"price":2500}
{"command":"quote","ticker":"HGLG11","price":164.2,"change":-0.3,"provDividend":93.5,"dy":9.2,"pvp":1.02,"vacancy":2.1}
`
	p, err := DecodePortfolio(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodePortfolio() unexpected error: %v", err)
	}
	if p.Name != "Ana" || p.PreferredCurrency != "USD" || p.RiskProfile != Aggressive || !p.Strict {
		t.Errorf("profile = %q %q %q %v", p.Name, p.PreferredCurrency, p.RiskProfile, p.Strict)
	}
	h := p.Asset("HGLG11")
	if h == nil || h.Sector != "Logística" || !h.Quantity().Equal(Q(10)) {
		t.Fatalf("HGLG11 = %+v", h)
	}
	assertMoney(t, "HGLG11 average", h.AveragePrice(), "158.1", 8)
	if !h.CurrentPrice.Equal(BRL(164.2)) || !h.ProvDividend.Equal(BRL(93.5)) || !h.Vacancy.Equal(2.1) {
		t.Errorf("HGLG11 quote = %v %v %v", h.CurrentPrice, h.ProvDividend, h.Vacancy)
	}

	// undeclared tickers are inferred, historical oversells are clamped even in strict mode.
	e := p.Asset("ETH")
	if e == nil || e.Category != Crypto || !e.Quantity().IsZero() {
		t.Fatalf("ETH = %+v", e)
	}
	if txs := e.Transactions(); len(txs) != 2 || txs[0].Source != Reinvestment || txs[0].Price.Currency() != "USD" {
		t.Errorf("ETH transactions = %v", txs)
	}
}

func TestDecodePortfolio_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `buy BTC`},
		{"unknown command", `{"command":"deposit","amount":1}`},
		{"invalid transaction", `{"command":"buy","date":"2025-01-10","ticker":"BTC","quantity":0,"price":1}`},
		{"wrong currency", `{"command":"buy","date":"2025-01-10","ticker":"BTC","quantity":1,"price":1,"currency":"BRL"}`},
		{"bad category", `{"command":"declare","ticker":"BTC","category":"STOCK"}`},
		{"bad risk", `{"command":"profile","risk":"yolo"}`},
		{"quote currency", `{"command":"quote","ticker":"MXRF11","price":1,"currency":"USD"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePortfolio(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("DecodePortfolio() want error, got nil")
			}
			if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("DecodePortfolio() error %q does not name the line", err)
			}
		})
	}
}

func TestPortfolio_RoundTrip(t *testing.T) {
	p := DemoPortfolio(date.New(2025, 6, 1))
	p.Strict = true

	var first bytes.Buffer
	if err := EncodePortfolio(&first, p); err != nil {
		t.Fatalf("EncodePortfolio() unexpected error: %v", err)
	}
	q, err := DecodePortfolio(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatalf("DecodePortfolio() unexpected error: %v", err)
	}
	var second bytes.Buffer
	if err := EncodePortfolio(&second, q); err != nil {
		t.Fatalf("EncodePortfolio() unexpected error: %v", err)
	}
	if first.String() != second.String() {
		t.Errorf("round trip changed the ledger:\n%s\nthen\n%s", first.String(), second.String())
	}

	v1, _ := Valuate(p, brlRates("5.45"), ByCategory)
	v2, _ := Valuate(q, brlRates("5.45"), ByCategory)
	if !v1.Total.Equal(v2.Total) {
		t.Errorf("round trip changed the total: %s then %s", v1.Total.Decimal(), v2.Total.Decimal())
	}
}
