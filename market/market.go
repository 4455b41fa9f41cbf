// Package market fetches prices and exchange rates for a gemhub portfolio.
package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/gemhub"
)

// Mode selects where prices come from.
type Mode string

const (
	Simulated Mode = "simulated" // random walk around the last price
	Realtime  Mode = "realtime"  // live crypto quotes, simulated drift for FIIs
)

// ParseMode parses a price mode. The empty string is Simulated.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", Simulated:
		return Simulated, nil
	case Realtime:
		return Realtime, nil
	}
	return "", fmt.Errorf("unknown price mode %q, want simulated or realtime", s)
}

// Result is the outcome of a price fetch.
type Result struct {
	Quotes []gemhub.Quote
	// PartialFailure is set when at least one ticker could not be priced. Such tickers
	// are absent from Quotes, their previous price should be kept.
	PartialFailure bool
}

// Feed produces fresh quotes from the current ones.
type Feed interface {
	FetchPrices(ctx context.Context, quotes []gemhub.Quote, mode Mode) (Result, error)
}
