package market

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/etnz/gemhub"
	"github.com/shopspring/decimal"
)

// Sim is a random walk feed. Each fetch moves every price by a uniform random step
// scaled by the volatility of its category, and accumulates the step in the daily change.
type Sim struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSim returns a simulated feed. seed makes the walk reproducible.
func NewSim(seed uint64) *Sim {
	return &Sim{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// FetchPrices never fails. In Realtime mode it only moves FIIs, with a small upward
// drift, and leaves other tickers out of the result.
func (s *Sim) FetchPrices(ctx context.Context, quotes []gemhub.Quote, mode Mode) (Result, error) {
	res := Result{Quotes: make([]gemhub.Quote, 0, len(quotes))}
	for _, q := range quotes {
		if !q.Price.IsPositive() {
			continue
		}
		switch {
		case mode != Realtime:
			res.Quotes = append(res.Quotes, s.walk(q))
		case q.Category == gemhub.FII:
			res.Quotes = append(res.Quotes, s.Drift(q))
		}
	}
	return res, nil
}

func (s *Sim) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *Sim) walk(q gemhub.Quote) gemhub.Quote {
	return move(q, (s.float()-0.5)*q.Category.Volatility())
}

// Drift moves q by at most 0.2%, slightly biased upward.
func (s *Sim) Drift(q gemhub.Quote) gemhub.Quote {
	return move(q, (s.float()-0.48)*0.004)
}

func move(q gemhub.Quote, change float64) gemhub.Quote {
	q.Price = q.Price.Scale(decimal.NewFromFloat(1 + change))
	q.DailyChange += gemhub.Percent(change * 100)
	return q
}
