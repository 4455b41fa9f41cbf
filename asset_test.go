package gemhub

import (
	"errors"
	"testing"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		currency    string
		txs         []Transaction
		wantQty     string
		wantAvg     string // rounded to 2 decimals
		wantOversel bool
	}{
		{
			name:    "empty",
			wantQty: "0",
			wantAvg: "0",
		},
		{
			name: "two buys with fees",
			txs: []Transaction{
				NewBuy(day(1, 10), Q(0.1), USD(40000), USD(5)),
				NewBuy(day(2, 10), Q(0.05), USD(46000), USD(8)),
			},
			wantQty: "0.15",
			wantAvg: "42086.67",
		},
		{
			name: "sell keeps the average",
			txs: []Transaction{
				NewBuy(day(1, 1), Q(10), USD(100), USD(0)),
				NewSell(day(1, 2), Q(4), USD(150), USD(1)),
			},
			wantQty: "6",
			wantAvg: "100",
		},
		{
			name: "oversell clamps to zero",
			txs: []Transaction{
				NewBuy(day(1, 1), Q(10), USD(100), USD(0)),
				NewSell(day(1, 2), Q(25), USD(150), USD(0)),
			},
			wantQty:     "0",
			wantAvg:     "100",
			wantOversel: true,
		},
		{
			name:     "dividends are ignored",
			currency: "BRL",
			txs: []Transaction{
				NewBuy(day(1, 1), Q(100), BRL(10), BRL(1)),
				NewDividend(day(2, 1), Q(100), BRL(0.11)),
			},
			wantQty: "100",
			wantAvg: "10.01",
		},
		{
			name: "no buy resets the position",
			txs: []Transaction{
				NewSell(day(1, 2), Q(1), USD(150), USD(0)),
				NewDividend(day(2, 1), Q(100), USD(0.11)),
			},
			wantQty:     "0",
			wantAvg:     "0",
			wantOversel: true,
		},
		{
			name: "chronological order",
			txs: []Transaction{
				NewBuy(day(3, 1), Q(5), USD(200), USD(0)),
				NewBuy(day(1, 1), Q(5), USD(100), USD(0)),
				NewSell(day(2, 1), Q(5), USD(120), USD(0)),
			},
			wantQty: "5",
			wantAvg: "200",
		},
		{
			name: "same day keeps recording order",
			txs: []Transaction{
				NewBuy(day(1, 1), Q(10), USD(100), USD(0)),
				NewSell(day(1, 2), Q(15), USD(100), USD(0)),
				NewBuy(day(1, 2), Q(5), USD(100), USD(0)),
			},
			wantQty:     "5",
			wantAvg:     "100",
			wantOversel: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			currency := tt.currency
			if currency == "" {
				currency = "USD"
			}
			pos, err := Aggregate(tt.txs, currency)
			if got := errors.Is(err, ErrOversell); got != tt.wantOversel {
				t.Errorf("Aggregate() error = %v, want oversell %v", err, tt.wantOversel)
			}
			if !pos.Quantity.Decimal().Equal(dec(tt.wantQty)) {
				t.Errorf("Aggregate() quantity = %s, want %s", pos.Quantity, tt.wantQty)
			}
			assertMoney(t, "Aggregate() average", pos.AveragePrice, tt.wantAvg, 2)
		})
	}
}

func TestAggregate_CurrencyMismatch(t *testing.T) {
	txs := []Transaction{
		NewBuy(day(1, 1), Q(1), USD(100), USD(0)),
		NewBuy(day(1, 2), Q(10), BRL(10), BRL(0)),
	}
	pos, err := Aggregate(txs, "USD")
	if !errors.Is(err, ErrInvalidTransaction) {
		t.Fatalf("Aggregate() error = %v, want %v", err, ErrInvalidTransaction)
	}
	if !pos.Quantity.IsZero() {
		t.Errorf("Aggregate() quantity = %s, want 0", pos.Quantity)
	}
}

func TestAggregate_BuysOnly(t *testing.T) {
	txs := []Transaction{
		NewBuy(day(1, 1), Q(3), BRL(10), BRL(1.5)),
		NewBuy(day(1, 5), Q(7), BRL(12.25), BRL(0)),
		NewBuy(day(2, 1), Q(0.5), BRL(9), BRL(2)),
		NewBuy(day(3, 1), Q(10), BRL(11), BRL(3.1)),
	}
	qty, cost := Q(0), BRL(0)
	for _, tx := range txs {
		qty = qty.Add(tx.Quantity)
		cost = cost.Add(tx.Total())
	}

	pos, err := Aggregate(txs, "BRL")
	if err != nil {
		t.Fatalf("Aggregate() unexpected error: %v", err)
	}
	if !pos.Quantity.Equal(qty) {
		t.Errorf("Aggregate() quantity = %s, want %s", pos.Quantity, qty)
	}
	want := cost.Div(qty).Decimal().Round(8)
	if got := pos.AveragePrice.Decimal().Round(8); !got.Equal(want) {
		t.Errorf("Aggregate() average = %s, want %s", got, want)
	}
}

func TestAggregate_SellWithinHolding(t *testing.T) {
	buys := []Transaction{
		NewBuy(day(1, 1), Q(2), USD(100), USD(1)),
		NewBuy(day(1, 2), Q(3), USD(110), USD(1)),
	}
	before, _ := Aggregate(buys, "USD")

	for _, sold := range []float64{0.5, 1, 4.99, 5} {
		txs := append(buys, NewSell(day(1, 3), Q(sold), USD(90), USD(0)))
		after, err := Aggregate(txs, "USD")
		if err != nil {
			t.Fatalf("Aggregate() selling %v: unexpected error: %v", sold, err)
		}
		if want := before.Quantity.Sub(Q(sold)); !after.Quantity.Equal(want) {
			t.Errorf("Aggregate() selling %v: quantity = %s, want %s", sold, after.Quantity, want)
		}
		if !after.AveragePrice.Equal(before.AveragePrice) {
			t.Errorf("Aggregate() selling %v: average = %s, want %s", sold, after.AveragePrice.Decimal(), before.AveragePrice.Decimal())
		}
	}
}
