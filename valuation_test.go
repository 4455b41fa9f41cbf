package gemhub

import (
	"errors"
	"testing"
)

// twoAssets returns 0.5 BTC at 60000 USD and 100 MXRF11 at 10 BRL, paying 11 BRL a month.
func twoAssets(t *testing.T) *Portfolio {
	t.Helper()
	p := NewPortfolio()
	mustRecord(t, p, "BTC", Crypto, NewBuy(day(1, 1), Q(0.5), USD(50000), USD(0)))
	mustRecord(t, p, "MXRF11", FII, NewBuy(day(1, 1), Q(100), BRL(9), BRL(0)))
	p.ApplyQuotes([]Quote{
		{Ticker: "BTC", Price: USD(60000)},
		{Ticker: "MXRF11", Price: BRL(10), ProvDividend: prov(BRL(11))},
	})
	return p
}

func TestValuate(t *testing.T) {
	tests := []struct {
		name      string
		rates     *Rates
		wantTotal string
		wantCost  string
		wantYield string
		wantBTC   string
	}{
		{
			name:      "BRL reporting",
			rates:     brlRates("5"),
			wantTotal: "151000",
			wantCost:  "125900",
			wantYield: "11",
			wantBTC:   "150000",
		},
		{
			name:      "USD reporting",
			rates:     NewRates("usd").Set("BRL", dec("0.2")),
			wantTotal: "30200",
			wantCost:  "25180",
			wantYield: "2.2",
			wantBTC:   "30000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Valuate(twoAssets(t), tt.rates, ByCategory)
			if err != nil {
				t.Fatalf("Valuate() unexpected error: %v", err)
			}
			assertMoney(t, "Total", v.Total, tt.wantTotal, 8)
			assertMoney(t, "Cost", v.Cost, tt.wantCost, 8)
			assertMoney(t, "MonthlyYield", v.MonthlyYield, tt.wantYield, 8)
			assertMoney(t, "CategoryTotal(Crypto)", v.CategoryTotal(Crypto), tt.wantBTC, 8)
			if v.Total.Currency() != tt.rates.Currency() {
				t.Errorf("Total currency = %s, want %s", v.Total.Currency(), tt.rates.Currency())
			}
			if len(v.Groups) != 2 || v.Groups[0].Key != "CRYPTO" || v.Groups[1].Key != "FII" {
				t.Errorf("Groups = %v, want CRYPTO then FII", v.Groups)
			}
		})
	}
}

func TestValuate_BySector(t *testing.T) {
	p := twoAssets(t)
	mustRecord(t, p, "ETH", Crypto, NewBuy(day(1, 1), Q(1), USD(100), USD(0)))
	p.Asset("ETH").Sector = "Plataforma"

	v, err := Valuate(p, brlRates("5"), BySector)
	if err != nil {
		t.Fatalf("Valuate() unexpected error: %v", err)
	}
	var keys []string
	for _, g := range v.Groups {
		keys = append(keys, g.Key)
	}
	want := []string{"Ouro Digital", "Imobiliário", "Plataforma"}
	if len(keys) != len(want) {
		t.Fatalf("group keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("group keys = %v, want %v", keys, want)
			break
		}
	}
	g, ok := v.Group("ouro digital")
	if !ok {
		t.Fatal("Group(ouro digital) not found")
	}
	if !g.Weight.Equal(Percent(150000.0 / 151500 * 100)) {
		t.Errorf("Ouro Digital weight = %v", g.Weight)
	}
	assertMoney(t, "NativeTotal(Crypto)", v.NativeTotal(Crypto), "30100", 8)
}

func TestValuate_MissingRate(t *testing.T) {
	_, err := Valuate(twoAssets(t), NewRates("BRL"), ByCategory)
	if !errors.Is(err, ErrMissingRate) {
		t.Errorf("Valuate() error = %v, want ErrMissingRate", err)
	}

	// a portfolio entirely in the reporting currency needs no rate.
	p := NewPortfolio()
	mustRecord(t, p, "HGLG11", FII, NewBuy(day(1, 1), Q(1), BRL(158), BRL(0)))
	if _, err := Valuate(p, NewRates("BRL"), ByCategory); err != nil {
		t.Errorf("Valuate() unexpected error: %v", err)
	}
}

func TestValuate_Empty(t *testing.T) {
	v, err := Valuate(NewPortfolio(), brlRates("5.45"), ByCategory)
	if err != nil {
		t.Fatalf("Valuate() unexpected error: %v", err)
	}
	if !v.Total.IsZero() || len(v.Groups) != 0 || v.Total.Currency() != "BRL" {
		t.Errorf("Valuate(empty) = %v", v)
	}
}

func TestHolding_Return(t *testing.T) {
	v, err := Valuate(twoAssets(t), brlRates("5"), ByCategory)
	if err != nil {
		t.Fatalf("Valuate() unexpected error: %v", err)
	}
	if got := v.Holdings[0].Return(); !got.Equal(20) {
		t.Errorf("BTC Return() = %v, want 20%%", got)
	}
	assertMoney(t, "Gain()", v.Gain(), "25100", 8)
}
