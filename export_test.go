package gemhub

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestExportCSV(t *testing.T) {
	p := NewPortfolio()
	mustRecord(t, p, "BTC", Crypto, NewBuy(day(1, 10), Q(0.1), USD(40000), USD(5)))
	mustRecord(t, p, "MXRF11", FII, NewBuy(day(1, 5), Q(10), BRL(9.8), BRL(0)))
	reinvest := NewBuy(day(2, 1), Q(1), BRL(10.333), BRL(0.01))
	reinvest.Source = Reinvestment
	mustRecord(t, p, "MXRF11", FII, reinvest)

	var buf bytes.Buffer
	if err := ExportCSV(&buf, p, brlRates("5.45")); err != nil {
		t.Fatalf("ExportCSV() unexpected error: %v", err)
	}
	want := strings.Join([]string{
		"date,ticker,type,source,quantity,unit_price,currency,total",
		"2025-01-05,MXRF11,buy,new_money,10,9.8,BRL,98.00",
		"2025-01-10,BTC,buy,new_money,0.1,40000,USD,21827.25",
		"2025-02-01,MXRF11,buy,reinvestment,1,10.333,BRL,10.34",
	}, "\n") + "\n"
	if got := buf.String(); got != want {
		t.Errorf("ExportCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestExportCSV_MissingRate(t *testing.T) {
	p := NewPortfolio()
	mustRecord(t, p, "BTC", Crypto, NewBuy(day(1, 10), Q(0.1), USD(40000), USD(5)))

	var buf bytes.Buffer
	if err := ExportCSV(&buf, p, NewRates("BRL")); !errors.Is(err, ErrMissingRate) {
		t.Errorf("ExportCSV() error = %v, want ErrMissingRate", err)
	}
}
