package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/market"
	"github.com/google/subcommands"
)

type refreshCmd struct {
	mode string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "update the market prices once" }
func (*refreshCmd) Usage() string {
	return `gem refresh [-mode simulated|realtime]

  Fetches new prices for every asset and saves them. In realtime mode crypto prices
  come from Binance, a ticker that cannot be fetched keeps its previous price.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", "", "Price mode: simulated or realtime. Defaults to GEM_PRICE_MODE.")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	mode := a.mode()
	if c.mode != "" {
		if mode, err = market.ParseMode(c.mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	res, err := a.sess.Refresh(ctx, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, q := range res.Quotes {
		fmt.Printf("%-8s %14s %8s\n", q.Ticker, q.Price.Decimal().StringFixed(2), q.DailyChange.SignedString())
	}
	if res.PartialFailure {
		fmt.Fprintln(os.Stderr, "Warning: some prices could not be updated, see the log with -v.")
	}
	return subcommands.ExitSuccess
}

type watchCmd struct {
	mode     string
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh the market prices periodically" }
func (*watchCmd) Usage() string {
	return `gem watch [-mode simulated|realtime] [-i <interval>]

  Refreshes prices every <interval> until interrupted, printing the portfolio total
  after each refresh.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", "", "Price mode: simulated or realtime. Defaults to GEM_PRICE_MODE.")
	f.DurationVar(&c.interval, "i", 0, "Refresh interval. Defaults to GEM_REFRESH_INTERVAL.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	mode := a.mode()
	if c.mode != "" {
		if mode, err = market.ParseMode(c.mode); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	interval := a.cfg.RefreshInterval
	if c.interval > 0 {
		interval = c.interval
	}

	// fn runs while the session saves, the valuation waits for the save to complete.
	changed := make(chan struct{}, 1)
	unsubscribe := a.sess.Subscribe(func(*gemhub.Portfolio) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
			v, _, err := a.sess.Valuate(ctx, gemhub.ByCategory)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error valuing the portfolio: %v\n", err)
				continue
			}
			fmt.Printf("%s  %s  %s\n", time.Now().Format(time.TimeOnly), maskedMoney(v.Total), maskedMoney(v.Gain()))
		}
	}()

	r, err := market.NewRefresher(a.sess, mode, interval, a.log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	fmt.Fprintf(os.Stderr, "Refreshing %s prices every %s, press Ctrl+C to stop.\n", mode, interval)
	r.Run(ctx)
	return subcommands.ExitSuccess
}

func maskedMoney(m gemhub.Money) string {
	if *mask {
		return "•••"
	}
	return m.String()
}
