package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/date"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Exchanger returns the rate converting one unit of from into to.
type Exchanger interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Fixed is an Exchanger with configured rates. Inverse rates are derived.
type Fixed map[string]decimal.Decimal

// NewFixed returns a Fixed exchanger knowing only USD to BRL.
func NewFixed(usdToBRL decimal.Decimal) Fixed {
	return Fixed{"USDBRL": usdToBRL}
}

func (f Fixed) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := f[from+to]; ok && r.IsPositive() {
		return r, nil
	}
	if r, ok := f[to+from]; ok && r.IsPositive() {
		return decimal.NewFromInt(1).DivRound(r, 16), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s to %s", gemhub.ErrMissingRate, from, to)
}

// YahooURL is the public Yahoo Finance chart API.
const YahooURL = "https://query2.finance.yahoo.com"

// Yahoo reads live exchange rates from Yahoo Finance and keeps them in memory for an
// hour. History goes through a daily disk cache.
type Yahoo struct {
	Client  *http.Client
	Daily   *http.Client
	BaseURL string

	cache *cache.Cache
	log   zerolog.Logger
}

// NewYahoo returns a Yahoo exchanger caching live rates for ttl.
func NewYahoo(ttl time.Duration, log zerolog.Logger) *Yahoo {
	log = log.With().Str("component", "yahoo").Logger()
	return &Yahoo{
		Client:  &http.Client{Timeout: 10 * time.Second},
		Daily:   Daily("", log),
		BaseURL: YahooURL,
		cache:   cache.New(ttl, 2*ttl),
		log:     log,
	}
}

func (y *Yahoo) chartURL(from, to string, query url.Values) string {
	return fmt.Sprintf("%s/v8/finance/chart/%s%s=X?%s", strings.TrimSuffix(y.BaseURL, "/"),
		strings.ToUpper(from), strings.ToUpper(to), query.Encode())
}

// Rate implements Exchanger with the regular market price of the FROMTO=X pair.
func (y *Yahoo) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), nil
	}
	key := strings.ToUpper(from + to)
	if r, found := y.cache.Get(key); found {
		return r.(decimal.Decimal), nil
	}

	var jobj any
	if err := jwget(ctx, y.Client, y.chartURL(from, to, url.Values{"interval": {"1d"}, "range": {"1d"}}), &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", gemhub.ErrMissingRate, key, err)
	}
	r, err := decimalAt(jobj, "$.chart.result[0].meta.regularMarketPrice")
	if err != nil || !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s: no price in response: %v", gemhub.ErrMissingRate, key, err)
	}
	y.cache.SetDefault(key, r)
	y.log.Debug().Str("pair", key).Str("rate", r.String()).Msg("rate fetched")
	return r, nil
}

// History returns the daily closing rates of the last days, oldest first.
func (y *Yahoo) History(ctx context.Context, from, to string, days int) ([]DailyRate, error) {
	var chart struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	q := url.Values{"interval": {"1d"}, "range": {fmt.Sprintf("%dd", days)}}
	if err := jwget(ctx, y.Daily, y.chartURL(from, to, q), &chart); err != nil {
		return nil, fmt.Errorf("error retrieving %s%s history: %w", from, to, err)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no %s%s history", from, to)
	}
	res := chart.Chart.Result[0]
	closes := res.Indicators.Quote[0].Close
	var rates []DailyRate
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market closed
		}
		rates = append(rates, DailyRate{
			Day:  date.FromTime(time.Unix(ts, 0).UTC()),
			Rate: decimal.NewFromFloat(*closes[i]),
		})
	}
	return rates, nil
}

// DailyRate is the closing exchange rate of a day.
type DailyRate struct {
	Day  date.Date
	Rate decimal.Decimal
}

// Rates collects, from ex, the rate of every currency of p into the reporting currency.
func Rates(ctx context.Context, ex Exchanger, reporting string, p *gemhub.Portfolio) (*gemhub.Rates, error) {
	rates := gemhub.NewRates(reporting)
	seen := map[string]bool{strings.ToUpper(reporting): true}
	currencies := make([]string, 0, 2)
	for _, c := range gemhub.Categories() {
		currencies = append(currencies, c.Currency())
	}
	for a := range p.Assets() {
		currencies = append(currencies, a.Currency())
	}
	for _, cur := range currencies {
		if seen[cur] {
			continue
		}
		seen[cur] = true
		r, err := ex.Rate(ctx, cur, reporting)
		if err != nil {
			return nil, err
		}
		rates.Set(cur, r)
	}
	return rates, nil
}
