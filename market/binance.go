package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/gemhub"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BinanceURL is the public Binance REST API.
const BinanceURL = "https://api.binance.com"

// Binance prices crypto assets with the Binance 24h ticker, in USDT taken as USD.
// FIIs are moved by the simulated drift, other modes are delegated to Sim.
type Binance struct {
	Client  *http.Client
	BaseURL string
	Sim     *Sim
	// Concurrency bounds the number of tickers fetched at once.
	Concurrency int

	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewBinance returns a Binance feed allowing 10 requests per second.
func NewBinance(sim *Sim, log zerolog.Logger) *Binance {
	return &Binance{
		Client:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:     BinanceURL,
		Sim:         sim,
		Concurrency: 4,
		limiter:     rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		log:         log.With().Str("component", "binance").Logger(),
	}
}

// FetchPrices implements Feed. A ticker Binance cannot price is logged and left out of
// the result, which is then marked as a partial failure.
func (b *Binance) FetchPrices(ctx context.Context, quotes []gemhub.Quote, mode Mode) (Result, error) {
	if mode != Realtime {
		return b.Sim.FetchPrices(ctx, quotes, mode)
	}

	fetched := make([]*gemhub.Quote, len(quotes))
	var (
		mu     sync.Mutex
		failed bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Concurrency, 1))
	for i, q := range quotes {
		switch q.Category {
		case gemhub.FII:
			if q.Price.IsPositive() {
				d := b.Sim.Drift(q)
				fetched[i] = &d
			}
		case gemhub.Crypto:
			g.Go(func() error {
				price, change, err := b.ticker(gctx, q.Ticker)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					b.log.Warn().Err(err).Str("ticker", q.Ticker).Msg("price fetch failed")
					mu.Lock()
					failed = true
					mu.Unlock()
					return nil
				}
				q.Price = gemhub.M(price, "USD")
				q.DailyChange = gemhub.Percent(change.InexactFloat64())
				fetched[i] = &q
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{PartialFailure: failed}
	for _, q := range fetched {
		if q != nil {
			res.Quotes = append(res.Quotes, *q)
		}
	}
	return res, nil
}

// ticker returns the last price and 24h change percent of ticker against USDT.
func (b *Binance) ticker(ctx context.Context, ticker string) (price, change decimal.Decimal, err error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return price, change, err
	}
	addr := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%sUSDT", strings.TrimSuffix(b.BaseURL, "/"), strings.ToUpper(ticker))
	var jobj any
	if err := jwget(ctx, b.Client, addr, &jobj); err != nil {
		return price, change, fmt.Errorf("error retrieving %q: %w", ticker, err)
	}
	if price, err = decimalAt(jobj, "$.lastPrice"); err != nil {
		return price, change, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	if !price.IsPositive() {
		return price, change, fmt.Errorf("empty price for %s", ticker)
	}
	if change, err = decimalAt(jobj, "$.priceChangePercent"); err != nil {
		return price, change, fmt.Errorf("error parsing %q: %w", ticker, err)
	}
	return price, change, nil
}

// decimalAt reads a number at path. Binance and Yahoo return numbers either as JSON
// numbers or as strings.
func decimalAt(jobj any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", path, err)
	}
	// jsonpath may return a list of one answer, keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%q: invalid number %q: %w", path, v, err)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%q: not a number: %v", path, jval)
}
