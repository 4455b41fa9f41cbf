package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/gemhub/date"
	"github.com/etnz/gemhub/renderer"
	"github.com/google/subcommands"
)

type txCmd struct {
	ticker string
	period string
	date   string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions in the ledger" }
func (*txCmd) Usage() string {
	return `gem tx [-s <ticker>] [-p <period> [-d <date>]] [-head <n> | -tail <n>]

  Lists transactions sorted by date, with their ids. -p restricts the list to the
  day, week, month, quarter or year containing <date> (today by default).
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "s", "", "Only list the transactions of this ticker.")
	f.StringVar(&c.period, "p", "", "Predefined period (day, week, month, quarter, year).")
	f.StringVar(&c.date, "d", "", "A date in the period, today by default.")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	var within func(date.Date) bool
	if c.period != "" {
		period, err := date.ParsePeriod(c.period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing period: %v\n", err)
			return subcommands.ExitUsageError
		}
		on := date.Today()
		if c.date != "" {
			if on, err = date.Parse(c.date); err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		within = date.NewRange(on, period).Contains
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	rows := renderer.TransactionRows(a.sess.Snapshot(), c.ticker)
	if within != nil {
		rows = slices.DeleteFunc(rows, func(r renderer.TxRow) bool { return !within(r.Tx.Date) })
	}
	if c.head > 0 && len(rows) > c.head {
		rows = rows[:c.head]
	}
	if c.tail > 0 && len(rows) > c.tail {
		rows = rows[len(rows)-c.tail:]
	}

	printMarkdown(renderer.TransactionsMarkdown(rows, renderOptions()))
	return subcommands.ExitSuccess
}
