package server

import (
	"github.com/etnz/gemhub"
	"github.com/shopspring/decimal"
)

type assetView struct {
	ID           string               `json:"id"`
	Ticker       string               `json:"ticker"`
	Category     gemhub.Category      `json:"category"`
	Sector       string               `json:"sector"`
	Currency     string               `json:"currency"`
	Quantity     gemhub.Quantity      `json:"quantity"`
	AveragePrice decimal.Decimal      `json:"averagePrice"`
	CurrentPrice decimal.Decimal      `json:"currentPrice"`
	DailyChange  float64              `json:"dailyChange"`
	ProvDividend decimal.Decimal      `json:"provDividend"`
	MarketValue  decimal.Decimal      `json:"marketValue"`
	Gain         decimal.Decimal      `json:"gain"`
	Transactions []gemhub.Transaction `json:"transactions"`
}

type portfolioView struct {
	Name              string      `json:"name"`
	PreferredCurrency string      `json:"preferredCurrency"`
	RiskProfile       string      `json:"riskProfile"`
	Assets            []assetView `json:"assets"`
}

func newPortfolioView(p *gemhub.Portfolio) portfolioView {
	v := portfolioView{
		Name:              p.Name,
		PreferredCurrency: p.PreferredCurrency,
		RiskProfile:       string(p.RiskProfile),
		Assets:            make([]assetView, 0, p.Len()),
	}
	for a := range p.Assets() {
		v.Assets = append(v.Assets, assetView{
			ID:           a.ID,
			Ticker:       a.Ticker,
			Category:     a.Category,
			Sector:       a.Sector,
			Currency:     a.Currency(),
			Quantity:     a.Quantity(),
			AveragePrice: a.AveragePrice().Decimal(),
			CurrentPrice: a.CurrentPrice.Decimal(),
			DailyChange:  float64(a.DailyChange),
			ProvDividend: a.ProvDividend.Decimal(),
			MarketValue:  a.MarketValue().Decimal(),
			Gain:         a.Gain().Decimal(),
			Transactions: a.Transactions(),
		})
	}
	return v
}

type holdingView struct {
	Ticker       string          `json:"ticker"`
	Category     gemhub.Category `json:"category"`
	Sector       string          `json:"sector"`
	Quantity     gemhub.Quantity `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	MarketValue  decimal.Decimal `json:"marketValue"`
	Cost         decimal.Decimal `json:"cost"`
	Gain         decimal.Decimal `json:"gain"`
	Return       float64         `json:"return"`
	ProvDividend decimal.Decimal `json:"provDividend"`
	Weight       float64         `json:"weight"`
}

type groupView struct {
	Key      string          `json:"key"`
	Value    decimal.Decimal `json:"value"`
	Weight   float64         `json:"weight"`
	Holdings []holdingView   `json:"holdings"`
}

type statsView struct {
	Currency     string          `json:"currency"`
	GroupBy      string          `json:"groupBy"`
	Total        decimal.Decimal `json:"total"`
	Cost         decimal.Decimal `json:"cost"`
	Gain         decimal.Decimal `json:"gain"`
	MonthlyYield decimal.Decimal `json:"monthlyYield"`
	Groups       []groupView     `json:"groups"`
}

func newStatsView(v *gemhub.Valuation) statsView {
	s := statsView{
		Currency:     v.Currency,
		GroupBy:      v.GroupBy.String(),
		Total:        v.Total.Decimal(),
		Cost:         v.Cost.Decimal(),
		Gain:         v.Gain().Decimal(),
		MonthlyYield: v.MonthlyYield.Decimal(),
		Groups:       make([]groupView, 0, len(v.Groups)),
	}
	for _, g := range v.Groups {
		gv := groupView{Key: g.Key, Value: g.Value.Decimal(), Weight: float64(g.Weight), Holdings: make([]holdingView, 0, len(g.Holdings))}
		for _, h := range g.Holdings {
			gv.Holdings = append(gv.Holdings, holdingView{
				Ticker:       h.Ticker,
				Category:     h.Category,
				Sector:       h.Sector,
				Quantity:     h.Quantity,
				Price:        h.Price.Decimal(),
				MarketValue:  h.MarketValue.Decimal(),
				Cost:         h.Cost.Decimal(),
				Gain:         h.Gain.Decimal(),
				Return:       float64(h.Return()),
				ProvDividend: h.ProvDividend.Decimal(),
				Weight:       float64(h.Weight),
			})
		}
		s.Groups = append(s.Groups, gv)
	}
	return s
}

type sideView struct {
	Name       string          `json:"name"`
	Current    decimal.Decimal `json:"current"`
	Target     decimal.Decimal `json:"target"`
	Diff       decimal.Decimal `json:"diff"`
	Allocation decimal.Decimal `json:"allocation"`
}

type rebalanceView struct {
	Currency     string          `json:"currency"`
	Category     gemhub.Category `json:"category"`
	Target       decimal.Decimal `json:"target"`
	Contribution decimal.Decimal `json:"contribution"`
	NewTotal     decimal.Decimal `json:"newTotal"`
	A            sideView        `json:"a"`
	B            sideView        `json:"b"`
	NativeA      decimal.Decimal `json:"nativeA"`
	NativeACur   string          `json:"nativeACurrency"`
	NativeB      decimal.Decimal `json:"nativeB"`
	NativeBCur   string          `json:"nativeBCurrency,omitempty"`
}

func newSideView(s gemhub.Side) sideView {
	return sideView{
		Name:       s.Name,
		Current:    s.Current.Decimal(),
		Target:     s.Target.Decimal(),
		Diff:       s.Diff.Decimal(),
		Allocation: s.Allocation.Decimal(),
	}
}

func newRebalanceView(r *gemhub.Rebalance) rebalanceView {
	return rebalanceView{
		Currency:     r.Contribution.Currency(),
		Category:     r.Category,
		Target:       r.Target,
		Contribution: r.Contribution.Decimal(),
		NewTotal:     r.NewTotal.Decimal(),
		A:            newSideView(r.A),
		B:            newSideView(r.B),
		NativeA:      r.NativeA.Decimal(),
		NativeACur:   r.NativeA.Currency(),
		NativeB:      r.NativeB.Decimal(),
		NativeBCur:   r.NativeB.Currency(),
	}
}

type refreshView struct {
	Mode           string `json:"mode"`
	Quotes         int    `json:"quotes"`
	PartialFailure bool   `json:"partialFailure"`
}
