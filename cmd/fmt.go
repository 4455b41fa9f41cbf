package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/gemhub"
	"github.com/google/subcommands"
)

type fmtCmd struct {
	check bool
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates the ledger and rewrites it in canonical form"
}
func (*fmtCmd) Usage() string {
	return `gem fmt [-check]

  Replays every transaction, normalizes tickers, sorts transactions by date and writes
  the portfolio back to the store. With -check nothing is written and the exit status
  tells whether the ledger is valid.
`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.check, "check", false, "only validate the ledger")
}

func (c *fmtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := canonical(a.sess.Snapshot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.check {
		fmt.Fprintf(os.Stderr, "%d assets, ledger is valid.\n", p.Len())
		return subcommands.ExitSuccess
	}
	if err := a.sess.Replace(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Formatted %d assets.\n", p.Len())
	return subcommands.ExitSuccess
}

// canonical rebuilds p with every ticker normalized and transactions sorted by date,
// validating each transaction again. Market data is kept.
func canonical(p *gemhub.Portfolio) (*gemhub.Portfolio, error) {
	out := gemhub.NewPortfolio()
	out.Name, out.PreferredCurrency, out.RiskProfile = p.Name, p.PreferredCurrency, p.RiskProfile
	out.Strict = p.Strict
	for a := range p.Assets() {
		txs := a.Transactions()
		slices.SortStableFunc(txs, func(x, y gemhub.Transaction) int { return x.Date.Compare(y.Date) })
		b, err := out.Restore(a.ID, a.Ticker, a.Category, a.Sector, txs)
		if err != nil {
			return nil, err
		}
		b.CurrentPrice, b.DailyChange, b.ProvDividend = a.CurrentPrice, a.DailyChange, a.ProvDividend
		b.DY, b.PVP, b.Vacancy, b.Target = a.DY, a.PVP, a.Vacancy, a.Target
	}
	return out, nil
}
