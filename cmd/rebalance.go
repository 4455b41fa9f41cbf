package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type rebalanceCmd struct {
	category     string
	target       string
	contribution string
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "split a new contribution toward a target allocation" }
func (*rebalanceCmd) Usage() string {
	return `gem rebalance -target <weight> -contribution <amount> [-cat crypto|fii]

  Suggests how to split a contribution, in the reporting currency, between a category
  and the rest of the portfolio so that the category weight moves toward <weight>
  (between 0 and 1). Selling is never suggested.

Usage Examples:
# 30% crypto, investing 5000 BRL
$ gem rebalance -target 0.3 -contribution 5000
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "cat", "crypto", "Category to rebalance: crypto or fii")
	f.StringVar(&c.target, "target", "0.3", "Target weight of the category, between 0 and 1")
	f.StringVar(&c.contribution, "contribution", "", "Amount to invest, in the reporting currency")
}

func (c *rebalanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cat, err := gemhub.ParseCategory(c.category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	target, err := decimal.NewFromString(c.target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing target: %v\n", err)
		return subcommands.ExitUsageError
	}
	contribution, err := decimal.NewFromString(c.contribution)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing contribution: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	r, err := a.sess.Rebalance(ctx, cat, target, contribution)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RebalanceMarkdown(r, renderOptions()))
	return subcommands.ExitSuccess
}
