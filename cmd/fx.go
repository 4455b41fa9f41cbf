package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/gemhub/config"
	"github.com/etnz/gemhub/logger"
	"github.com/etnz/gemhub/market"
	"github.com/google/subcommands"
)

type fxCmd struct {
	from, to string
	days     int
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "display the recent history of an exchange rate" }
func (*fxCmd) Usage() string {
	return `gem fx [-from USD] [-to BRL] [-days 30]

  Displays the daily closing rates of a currency pair from Yahoo Finance, with their
  statistics and a few technical indicators. Responses are cached on disk for the day.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "USD", "Currency to convert from")
	f.StringVar(&c.to, "to", "BRL", "Currency to convert to")
	f.IntVar(&c.days, "days", 30, "Number of days of history")
}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.days <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	level := "warn"
	if cfg, err := config.Load(); err == nil {
		level = cfg.LogLevel
	}
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level})

	rates, err := market.NewYahoo(time.Hour, log).History(ctx, c.from, c.to, c.days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s to %s\n\n| Date | Rate |\n|:---|---:|\n", strings.ToUpper(c.from), strings.ToUpper(c.to))
	for _, r := range rates {
		fmt.Fprintf(&b, "| %s | %s |\n", r.Day, r.Rate.StringFixed(4))
	}
	st := market.Stats(rates)
	fmt.Fprintf(&b, "\n| %d days | |\n|:---|---:|\n", st.Days)
	fmt.Fprintf(&b, "| Min / Max | %.4f / %.4f |\n", st.Min, st.Max)
	fmt.Fprintf(&b, "| Mean | %.4f ± %.4f |\n", st.Mean, st.StdDev)
	fmt.Fprintf(&b, "| Annualized volatility | %.2f%% |\n", st.Volatility*100)
	if st.SMA != nil {
		fmt.Fprintf(&b, "| SMA %d | %.4f |\n", market.SMAPeriod, *st.SMA)
	}
	if st.RSI != nil {
		fmt.Fprintf(&b, "| RSI %d | %.1f |\n", market.RSIPeriod, *st.RSI)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
