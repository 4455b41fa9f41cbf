package market

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RateStats summarizes an exchange rate history.
type RateStats struct {
	Days       int
	Last       float64
	Min, Max   float64
	Mean       float64
	StdDev     float64
	Volatility float64  // annualized volatility of the daily returns, 0.1 is 10%
	SMA        *float64 // simple moving average over SMAPeriod days, nil on short histories
	RSI        *float64 // relative strength index over RSIPeriod days, nil on short histories
}

// Indicator periods, in days.
const (
	SMAPeriod = 7
	RSIPeriod = 14
)

// Stats computes the statistics of rates, oldest first.
func Stats(rates []DailyRate) RateStats {
	closes := make([]float64, len(rates))
	for i, r := range rates {
		closes[i] = r.Rate.InexactFloat64()
	}
	s := RateStats{Days: len(closes)}
	if len(closes) == 0 {
		return s
	}
	s.Last = closes[len(closes)-1]
	s.Min, s.Max = floats.Min(closes), floats.Max(closes)
	s.Mean = stat.Mean(closes, nil)
	if len(closes) > 1 {
		s.StdDev = stat.StdDev(closes, nil)
	}
	if returns := dailyReturns(closes); len(returns) > 1 {
		s.Volatility = stat.StdDev(returns, nil) * math.Sqrt(252)
	}
	if len(closes) >= SMAPeriod {
		s.SMA = last(talib.Sma(closes, SMAPeriod))
	}
	if len(closes) > RSIPeriod {
		s.RSI = last(talib.Rsi(closes, RSIPeriod))
	}
	return s
}

func dailyReturns(closes []float64) []float64 {
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
	}
	return returns
}

// last returns the last value of an indicator, nil when it is not a number.
func last(values []float64) *float64 {
	if len(values) == 0 || math.IsNaN(values[len(values)-1]) {
		return nil
	}
	v := values[len(values)-1]
	return &v
}
