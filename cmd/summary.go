package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gemhub/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	update bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio stat cards and capital metrics" }
func (*summaryCmd) Usage() string {
	return `gem summary [-u]

  Displays the total value, the crypto value in USD, the FII value in BRL, the monthly
  yield, the invested capital and profit, the monthly contributions, the dividend
  bridge and the top movers of the day.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.update, "u", false, "update prices before calculating the summary")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.update {
		if _, err := a.sess.Refresh(ctx, a.mode()); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	rates, err := a.sess.Rates(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := renderer.NewSummary(a.sess.Snapshot(), rates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing the summary: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SummaryMarkdown(s, renderOptions()))
	return subcommands.ExitSuccess
}
