package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/google/subcommands"
)

type initCmd struct {
	demo    bool
	force   bool
	name    string
	risk    string
	prefers string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "create a new portfolio" }
func (*initCmd) Usage() string {
	return `gem init [-demo] [-name <owner>] [-risk conservative|moderate|aggressive] [-f]

  Creates an empty portfolio in the configured store, or the demo portfolio of three
  cryptocurrencies and three FIIs with -demo. An existing portfolio is only replaced
  with -f.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.demo, "demo", false, "Seed the portfolio with demo assets")
	f.BoolVar(&c.force, "f", false, "Replace an existing portfolio")
	f.StringVar(&c.name, "name", "", "Name of the portfolio owner")
	f.StringVar(&c.risk, "risk", "moderate", "Risk profile: conservative, moderate or aggressive")
	f.StringVar(&c.prefers, "currency", "BRL", "Preferred reporting currency")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	risk, err := gemhub.ParseRiskProfile(c.risk)
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

	if n := a.sess.Snapshot().Len(); n > 0 && !c.force {
		fmt.Fprintf(os.Stderr, "Error: the portfolio already holds %d assets, use -f to replace it\n", n)
		return subcommands.ExitFailure
	}

	p := gemhub.NewPortfolio()
	if c.demo {
		p = gemhub.DemoPortfolio(date.Today())
	}
	if c.name != "" {
		p.Name = c.name
	}
	p.RiskProfile = risk
	p.PreferredCurrency = strings.ToUpper(c.prefers)

	if err := a.sess.Replace(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created portfolio %q with %d assets in the %s store\n", p.Name, p.Len(), a.cfg.Store)
	return subcommands.ExitSuccess
}
