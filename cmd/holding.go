package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/renderer"
	"github.com/google/subcommands"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	by     string
	update bool
	assets bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the holdings grouped by category or sector" }
func (*holdingCmd) Usage() string {
	return `gem holding [-by category|sector] [-u] [-assets]

  Displays every holding valued in the reporting currency, grouped by category or by
  sector, with its weight in the portfolio.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.by, "by", "category", "Group holdings by category or sector")
	f.BoolVar(&c.update, "u", false, "update prices before calculating the report")
	f.BoolVar(&c.assets, "assets", false, "list the declared assets instead")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	by, err := gemhub.ParseGroupBy(c.by)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.assets {
		printMarkdown(renderer.AssetsMarkdown(a.sess.Snapshot()))
		return subcommands.ExitSuccess
	}
	if c.update {
		if _, err := a.sess.Refresh(ctx, a.mode()); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	v, p, err := a.sess.Valuate(ctx, by)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing the portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.HoldingMarkdown(p.Name, v, renderOptions()))
	return subcommands.ExitSuccess
}
