package renderer

import (
	"github.com/etnz/gemhub"
)

// Summary gathers the dashboard statistics of a portfolio.
type Summary struct {
	Name      string
	Currency  string
	Valuation *gemhub.Valuation
	Crypto    gemhub.Money // native, USD
	FII       gemhub.Money // native, BRL
	Capital   *gemhub.CapitalReport
	Flows     []gemhub.MonthlyFlow
	Bridge    *gemhub.Bridge // nil when there is no FII income
	Movers    []gemhub.Holding
}

// NewSummary computes the summary of p in the reporting currency of rates.
func NewSummary(p *gemhub.Portfolio, rates *gemhub.Rates) (*Summary, error) {
	v, err := gemhub.Valuate(p, rates, gemhub.ByCategory)
	if err != nil {
		return nil, err
	}
	capital, err := gemhub.NewCapitalReport(p, rates)
	if err != nil {
		return nil, err
	}
	flows, err := gemhub.MonthlyContributions(p, rates, 6)
	if err != nil {
		return nil, err
	}
	s := &Summary{
		Name:      p.Name,
		Currency:  rates.Currency(),
		Valuation: v,
		Crypto:    v.NativeTotal(gemhub.Crypto),
		FII:       v.NativeTotal(gemhub.FII),
		Capital:   capital,
		Flows:     flows,
	}

	movers := gemhub.TopMovers(v)
	s.Movers = movers[:min(3, len(movers))]

	if v.MonthlyYield.IsPositive() {
		// 1 USD is usd units of the reporting currency, 1 BRL is brl units.
		usd, err := rates.Rate("USD")
		if err != nil {
			return nil, err
		}
		brl, err := rates.Rate("BRL")
		if err != nil {
			return nil, err
		}
		b, err := gemhub.DividendBridge(p, usd.Div(brl))
		if err != nil {
			return nil, err
		}
		s.Bridge = &b
	}
	return s, nil
}

// SummaryMarkdown renders the summary stat cards and sections.
func SummaryMarkdown(s *Summary, opts Options) string {
	partials := map[string]string{
		"summary_capital": "summary_capital.md",
		"summary_flows":   "summary_flows.md",
		"summary_bridge":  "summary_bridge.md",
		"summary_movers":  "summary_movers.md",
	}
	return renderTemplate("summary", "summary.md", partials, opts, s)
}
