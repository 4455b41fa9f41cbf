package gemhub

import (
	"slices"

	"github.com/etnz/gemhub/date"
	"github.com/shopspring/decimal"
)

// CapitalReport compares the capital put into the portfolio with its current value.
// All amounts are in the reporting currency.
type CapitalReport struct {
	Currency string
	// Invested is what buys cost, fees included, minus what sells returned.
	Invested   Money
	NewMoney   Money // buys funded with new money
	Reinvested Money // buys funded with reinvested income
	Current    Money
	Profit     Money
	ProfitPct  Percent
	// AnnualIncome is twelve times the provisioned monthly dividends of FIIs.
	AnnualIncome Money
	YieldOnCost  Percent
}

// NewCapitalReport computes the capital report of p.
func NewCapitalReport(p *Portfolio, rates *Rates) (*CapitalReport, error) {
	cur := rates.Currency()
	zero := M(decimal.Zero, cur)
	r := &CapitalReport{Currency: cur, Invested: zero, NewMoney: zero, Reinvested: zero, Current: zero, AnnualIncome: zero}

	for a := range p.Assets() {
		rate, err := rates.Rate(a.Currency())
		if err != nil {
			return nil, err
		}
		for _, tx := range a.transactions {
			switch tx.Type {
			case CmdBuy:
				v := tx.Total().Convert(rate, cur)
				r.Invested = r.Invested.Add(v)
				if tx.Source == Reinvestment {
					r.Reinvested = r.Reinvested.Add(v)
				} else {
					r.NewMoney = r.NewMoney.Add(v)
				}
			case CmdSell:
				r.Invested = r.Invested.Sub(tx.Gross().Convert(rate, cur))
			}
		}
		r.Current = r.Current.Add(a.MarketValue().Convert(rate, cur))
		if a.Category == FII {
			r.AnnualIncome = r.AnnualIncome.Add(a.ProvDividend.Convert(rate, cur).Mul(Q(12)))
		}
	}
	r.Profit = r.Current.Sub(r.Invested)
	r.ProfitPct = ratio(r.Profit, r.Invested)
	r.YieldOnCost = ratio(r.AnnualIncome, r.Invested)
	return r, nil
}

// MonthlyFlow is the money put into the portfolio during one month, in the
// reporting currency.
type MonthlyFlow struct {
	Month      string // YYYY-MM
	Crypto     Money  // new money into crypto
	FII        Money  // new money into FIIs
	Reinvested Money  // reinvested income, any category
}

// Total returns the sum of the flows of the month.
func (f MonthlyFlow) Total() Money { return f.Crypto.Add(f.FII).Add(f.Reinvested) }

// MonthlyContributions returns the buys of p, quantity*price+fees, summed per month
// and split by category and source. Only the last 'months' months with activity are
// returned, oldest first. months <= 0 returns all of them.
func MonthlyContributions(p *Portfolio, rates *Rates, months int) ([]MonthlyFlow, error) {
	cur := rates.Currency()
	zero := M(decimal.Zero, cur)
	var flows []MonthlyFlow
	index := make(map[string]int)
	for a, tx := range p.Transactions() {
		if tx.Type != CmdBuy {
			continue
		}
		rate, err := rates.Rate(a.Currency())
		if err != nil {
			return nil, err
		}
		key := tx.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(flows)
			index[key] = i
			flows = append(flows, MonthlyFlow{Month: key, Crypto: zero, FII: zero, Reinvested: zero})
		}
		v := tx.Total().Convert(rate, cur)
		f := &flows[i]
		switch {
		case tx.Source == Reinvestment:
			f.Reinvested = f.Reinvested.Add(v)
		case a.Category == FII:
			f.FII = f.FII.Add(v)
		default:
			f.Crypto = f.Crypto.Add(v)
		}
	}
	if months > 0 && len(flows) > months {
		flows = flows[len(flows)-months:]
	}
	return flows, nil
}

// Activity returns the number of transactions per day.
func Activity(p *Portfolio) map[date.Date]int {
	days := make(map[date.Date]int)
	for _, tx := range p.Transactions() {
		days[tx.Date]++
	}
	return days
}

// Fallback prices used by the dividend bridge when BTC or ETH is not held.
var (
	FallbackBTCPrice = M(64000, "USD")
	FallbackETHPrice = M(3150, "USD")
)

// Bridge expresses the monthly FII income in crypto units.
type Bridge struct {
	Income Money           // monthly FII dividends, in BRL
	USD    Money           // the same, in USD
	Sats   int64           // satoshis
	ETH    decimal.Decimal // ether, rounded to 4 decimals
}

// DividendBridge converts the provisioned monthly dividends of FIIs into satoshis and
// ether, at the current BTC and ETH prices of the portfolio (or fallback prices when
// they are not held). usdToBRL is the number of BRL per USD.
func DividendBridge(p *Portfolio, usdToBRL decimal.Decimal) (Bridge, error) {
	if !usdToBRL.IsPositive() {
		return Bridge{}, ErrMissingRate
	}
	income := M(decimal.Zero, FII.Currency())
	for a := range p.Assets() {
		if a.Category == FII {
			income = income.Add(a.ProvDividend)
		}
	}
	price := func(ticker string, fallback Money) Money {
		if a := p.Asset(ticker); a != nil && a.CurrentPrice.IsPositive() {
			return a.CurrentPrice
		}
		return fallback
	}
	usd := M(income.Decimal().Div(usdToBRL), "USD")
	btc := price("BTC", FallbackBTCPrice)
	eth := price("ETH", FallbackETHPrice)
	return Bridge{
		Income: income,
		USD:    usd,
		Sats:   usd.DivMoney(btc).Shift(8).Round(0).IntPart(),
		ETH:    usd.DivMoney(eth).Round(4),
	}, nil
}

// TopMovers returns the holdings sorted by daily change, biggest rise first.
func TopMovers(v *Valuation) []Holding {
	hs := slices.Clone(v.Holdings)
	slices.SortStableFunc(hs, func(a, b Holding) int {
		switch {
		case a.DailyChange > b.DailyChange:
			return -1
		case a.DailyChange < b.DailyChange:
			return 1
		}
		return 0
	})
	return hs
}
