package renderer

import (
	"fmt"

	"github.com/etnz/gemhub"
)

// Transaction renders a transaction of ticker to a one line string.
func Transaction(ticker string, tx gemhub.Transaction) string {
	switch tx.Type {
	case gemhub.CmdBuy:
		return fmt.Sprintf("Bought %s %s at %s on %s", tx.Quantity, ticker, tx.Price, tx.Date)
	case gemhub.CmdSell:
		return fmt.Sprintf("Sold %s %s at %s on %s", tx.Quantity, ticker, tx.Price, tx.Date)
	case gemhub.CmdDividend:
		return fmt.Sprintf("Dividend of %s for %s %s on %s", tx.Total(), tx.Quantity, ticker, tx.Date)
	default:
		return string(tx.Type)
	}
}

// TxRow is a transaction with the ticker it belongs to.
type TxRow struct {
	Ticker string
	Tx     gemhub.Transaction
}

// TransactionRows returns the transactions of p sorted by date. An empty ticker
// selects every asset.
func TransactionRows(p *gemhub.Portfolio, ticker string) []TxRow {
	ticker = gemhub.NormalizeTicker(ticker)
	var rows []TxRow
	for a, tx := range p.Transactions() {
		if ticker == "" || a.Ticker == ticker {
			rows = append(rows, TxRow{Ticker: a.Ticker, Tx: tx})
		}
	}
	return rows
}

// TransactionsMarkdown renders a table of transactions.
func TransactionsMarkdown(rows []TxRow, opts Options) string {
	return renderTemplate("transactions", "transactions.md", nil, opts, rows)
}
