package gemhub

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVHeader is the header row written by ExportCSV.
var CSVHeader = []string{"date", "ticker", "type", "source", "quantity", "unit_price", "currency", "total"}

// ExportCSV writes one row per transaction of p, sorted by date. The total column is
// (quantity*price + fees) converted to the reporting currency of rates, with 2 decimals.
func ExportCSV(w io.Writer, p *Portfolio, rates *Rates) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for a, tx := range p.Transactions() {
		total, err := rates.Convert(tx.Total())
		if err != nil {
			return fmt.Errorf("cannot export %s transaction %s: %w", a.Ticker, tx.ID, err)
		}
		row := []string{
			tx.Date.String(),
			a.Ticker,
			string(tx.Type),
			string(tx.Source),
			tx.Quantity.String(),
			tx.Price.Decimal().String(),
			a.Currency(),
			total.Decimal().StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
