// Package cmd implements the gem CLI to manage a crypto and FII portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/gemhub/config"
	"github.com/etnz/gemhub/logger"
	"github.com/etnz/gemhub/market"
	"github.com/etnz/gemhub/renderer"
	"github.com/etnz/gemhub/session"
	"github.com/etnz/gemhub/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	storeKind  = flag.String("store", "", "Storage backend: file, sqlite, gcs, s3 or memory. Overrides GEM_STORE.")
	ledgerFile = flag.String("ledger-file", "", "Path to the ledger file (JSONL format). Overrides GEM_LEDGER_FILE.")
	currency   = flag.String("c", "", "Reporting currency, BRL or USD. Overrides GEM_REPORTING_CURRENCY.")
	verbose    = flag.Bool("v", false, "Log debug messages to stderr.")
	mask       = flag.Bool("mask", false, "Focus mode: hide monetary values.")
)

// Commands are the gem subcommands, by group.
var Commands = map[string][]subcommands.Command{
	"transactions": {
		&recordCmd{kind: "buy"},
		&recordCmd{kind: "sell"},
		&recordCmd{kind: "dividend"},
		&rmCmd{},
		&txCmd{},
	},
	"reports": {
		&holdingCmd{},
		&summaryCmd{},
		&rebalanceCmd{},
		&exportCmd{},
	},
	"market": {
		&refreshCmd{},
		&watchCmd{},
		&fxCmd{},
	},
	"assistant": {
		&insightsCmd{},
		&assistCmd{},
	},
	"portfolio": {
		&initCmd{},
		&fmtCmd{},
		&topicCmd{},
		&serveCmd{},
	},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, group := range groups {
		for _, cmd := range Commands[group] {
			c.Register(cmd, group)
		}
	}
}

var groups = []string{"portfolio", "transactions", "reports", "market", "assistant"}

// LoadConfig reads the configuration and applies the global flags on top of it.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *storeKind != "" {
		cfg.Store = strings.ToLower(*storeKind)
	}
	if *ledgerFile != "" {
		cfg.LedgerFile = *ledgerFile
	}
	if *currency != "" {
		cfg.ReportingCurrency = strings.ToUpper(*currency)
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

// app is what a subcommand needs to run.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	sess *session.Session
}

// openApp wires the configured store, price feed and exchanger into a session.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s store: %w", cfg.Store, err)
	}
	opts := session.Options{ReportingCurrency: cfg.ReportingCurrency, Strict: cfg.StrictSells}
	sess, err := session.New(ctx, st, newFeed(log), newExchanger(cfg, log), opts, log)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: log, sess: sess}, nil
}

func (a *app) Close() {
	if err := a.sess.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing store: %v\n", err)
	}
}

// mode returns the configured price mode.
func (a *app) mode() market.Mode {
	m, err := market.ParseMode(a.cfg.PriceMode)
	if err != nil {
		return market.Simulated
	}
	return m
}

// newFeed returns the Binance feed: it falls back on the simulation outside of
// realtime mode.
func newFeed(log zerolog.Logger) market.Feed {
	sim := market.NewSim(uint64(time.Now().UnixNano()))
	return market.NewBinance(sim, log)
}

func newExchanger(cfg *config.Config, log zerolog.Logger) market.Exchanger {
	if cfg.FX == "yahoo" {
		return market.NewYahoo(time.Hour, log)
	}
	return market.NewFixed(cfg.USDToBRL)
}

func renderOptions() renderer.Options { return renderer.Options{Mask: *mask} }

// renderMarkdown formats md for the terminal, md is returned as is if it cannot.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func printMarkdown(md string) { fmt.Print(renderMarkdown(md)) }
