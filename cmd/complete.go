package cmd

import (
	"context"
	"flag"
	"slices"
	"time"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/config"
	"github.com/etnz/gemhub/docs"
	"github.com/etnz/gemhub/logger"
	"github.com/etnz/gemhub/store"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the gem command line. tickers is called
// lazily, only when a ticker is being completed.
func Completion(tickers func() []string) *complete.Command {
	tickerPredictor := complete.PredictFunc(func(string) []string { return tickers() })

	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"store":       predict.Set{config.StoreFile, config.StoreSQLite, config.StoreGCS, config.StoreS3, config.StoreMemory},
			"ledger-file": predict.Files("*.jsonl"),
			"c":           predict.Set{"BRL", "USD"},
			"v":           predict.Nothing,
			"mask":        predict.Nothing,
		},
	}
	var names []string
	for _, group := range groups {
		for _, cmd := range Commands[group] {
			names = append(names, cmd.Name())
			fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(fs)
			sub := &complete.Command{Flags: map[string]complete.Predictor{}}
			fs.VisitAll(func(fl *flag.Flag) {
				sub.Flags[fl.Name] = flagPredictor(fl, tickerPredictor)
			})
			if cmd.Name() == "topic" {
				topics, _ := docs.GetAllTopics()
				sub.Args = predict.Set(topics)
			}
			root.Sub[cmd.Name()] = sub
		}
	}
	slices.Sort(names)
	root.Sub["help"] = &complete.Command{Args: predict.Set(names)}
	root.Sub["flags"] = &complete.Command{Args: predict.Set(names)}
	root.Sub["commands"] = &complete.Command{}
	return root
}

func flagPredictor(fl *flag.Flag, tickers complete.Predictor) complete.Predictor {
	if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch fl.Name {
	case "s":
		return tickers
	case "cat":
		return predict.Set{"crypto", "fii"}
	case "mode":
		return predict.Set{"simulated", "realtime"}
	case "by":
		return predict.Set{"category", "sector"}
	case "source":
		return predict.Set{"new", "reinvest"}
	case "risk":
		return predict.Set{"conservative", "moderate", "aggressive"}
	case "o":
		return predict.Files("*.csv")
	}
	return predict.Something
}

// KnownTickers returns the tickers of the local portfolio followed by the suggested
// ones. Remote stores are not read.
func KnownTickers() []string {
	tickers := slices.Clone(gemhub.SuggestedTickers)
	cfg, err := LoadConfig()
	if err != nil || cfg.Store == config.StoreGCS || cfg.Store == config.StoreS3 {
		return tickers
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := store.Open(ctx, cfg, logger.Nop())
	if err != nil {
		return tickers
	}
	defer st.Close()
	p, err := st.Load(ctx)
	if err != nil {
		return tickers
	}
	held := p.Tickers()
	for _, t := range tickers {
		if !slices.Contains(held, t) {
			held = append(held, t)
		}
	}
	return held
}
