package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/etnz/gemhub/renderer"
	"github.com/google/subcommands"
)

// recordCmd records a buy, a sell or a dividend.
type recordCmd struct {
	kind gemhub.CommandType

	date     string
	ticker   string
	quantity float64
	price    float64
	fees     float64
	category string
	sector   string
	source   string
	memo     string
	repeat   bool
}

func (c *recordCmd) Name() string { return string(c.kind) }
func (c *recordCmd) Synopsis() string {
	switch c.kind {
	case gemhub.CmdSell:
		return "sell units of an asset"
	case gemhub.CmdDividend:
		return "record a dividend paid by an asset"
	}
	return "buy units of an asset, declaring it if needed"
}
func (c *recordCmd) Usage() string {
	if c.kind == gemhub.CmdDividend {
		return `gem dividend -s <ticker> -p <per_unit> [-q <quantity>] [-d <date>] [-m <memo>]

  Records a dividend of <per_unit> for each of <quantity> units, the held quantity by
  default.
`
	}
	return fmt.Sprintf(`gem %[1]s -s <ticker> -q <quantity> -p <price> [-f <fees>] [-cat crypto|fii] [-source new|reinvest] [-d <date>] [-m <memo>]
gem %[1]s -repeat [-s <ticker>] [flags]

  Records a %[1]s at <price> per unit, in the currency of the asset category (USD for
  crypto, BRL for FIIs). A new ticker is created in the -cat category, or in the
  category guessed from its name (tickers ending with 11 are FIIs).

  -repeat reuses the last %[1]s (of <ticker> if given) with today's date, any other
  flag overrides the repeated value.
`, c.kind)
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD), today by default")
	f.StringVar(&c.ticker, "s", "", "Asset ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of units")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
	if c.kind == gemhub.CmdDividend {
		f.Float64Var(&c.price, "p", 0, "Dividend per unit")
		return
	}
	f.Float64Var(&c.price, "p", 0, "Price per unit")
	f.Float64Var(&c.fees, "f", 0, "Fees")
	f.StringVar(&c.category, "cat", "", "Category of a new asset: crypto or fii")
	f.StringVar(&c.sector, "sector", "", "Sector of a new asset")
	f.StringVar(&c.source, "source", "", "Origin of the money: new (default) or reinvest")
	f.BoolVar(&c.repeat, "repeat", false, "Repeat the last transaction of the same kind")
}

// transaction builds the transaction from the flags, on top of base.
func (c *recordCmd) transaction(f *flag.FlagSet, base gemhub.Transaction) (gemhub.Transaction, error) {
	tx := base
	tx.ID = ""
	tx.Type = c.kind
	tx.Date = date.Today()
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if set["d"] {
		day, err := date.Parse(c.date)
		if err != nil {
			return tx, fmt.Errorf("invalid date: %w", err)
		}
		tx.Date = day
	}
	if set["q"] || !c.repeat {
		tx.Quantity = gemhub.Q(c.quantity)
	}
	if set["p"] || !c.repeat {
		tx.Price = gemhub.M(c.price, "")
	}
	if set["f"] || !c.repeat {
		tx.Fees = gemhub.M(c.fees, "")
	}
	if set["source"] || !c.repeat {
		src, err := gemhub.ParseSource(c.source)
		if err != nil {
			return tx, err
		}
		tx.Source = src
	}
	if set["m"] || !c.repeat {
		tx.Memo = c.memo
	}
	return tx, nil
}

// last returns the most recent transaction of kind, for ticker if not empty.
func last(p *gemhub.Portfolio, kind gemhub.CommandType, ticker string) (string, gemhub.Transaction, bool) {
	var (
		found  bool
		lastTk string
		lastTx gemhub.Transaction
	)
	ticker = gemhub.NormalizeTicker(ticker)
	for a, tx := range p.Transactions() {
		if tx.Type != kind || (ticker != "" && a.Ticker != ticker) {
			continue
		}
		found, lastTk, lastTx = true, a.Ticker, tx
	}
	return lastTk, lastTx, found
}

func (c *recordCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.repeat && (c.ticker == "" || c.price < 0 || (c.kind != gemhub.CmdDividend && (c.quantity <= 0 || c.price == 0))) {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var cat gemhub.Category
	if c.category != "" {
		var err error
		if cat, err = gemhub.ParseCategory(c.category); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	p := a.sess.Snapshot()

	ticker := c.ticker
	var base gemhub.Transaction
	if c.repeat {
		var ok bool
		if ticker, base, ok = last(p, c.kind, c.ticker); !ok {
			fmt.Fprintf(os.Stderr, "Error: there is no %s to repeat\n", c.kind)
			return subcommands.ExitFailure
		}
	}
	tx, err := c.transaction(f, base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if tx.Type == gemhub.CmdDividend && tx.Quantity.IsZero() {
		if held := p.Asset(ticker); held != nil {
			tx.Quantity = held.Quantity()
		}
	}
	stored, err := a.sess.RecordIn(ctx, ticker, cat, c.sector, tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", c.kind, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (id %s)\n", renderer.Transaction(gemhub.NormalizeTicker(ticker), stored), stored.ID)
	return subcommands.ExitSuccess
}

// rmCmd removes transactions by id.
type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove transactions from the ledger" }
func (*rmCmd) Usage() string {
	return `gem rm <id>...

  Removes the transactions with these ids (listed by gem tx) and recomputes the positions.
`
}
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		asset, _, ok := a.sess.Snapshot().Find(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: transaction %q not found\n", id)
			status = subcommands.ExitFailure
			continue
		}
		removed, err := a.sess.Remove(ctx, asset.Ticker, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error removing %q: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("Removed: %s\n", renderer.Transaction(asset.Ticker, removed))
	}
	return status
}
