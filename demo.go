package gemhub

import (
	"github.com/etnz/gemhub/date"
	"github.com/shopspring/decimal"
)

// DefaultUSDToBRL is the fixed conversion rate used when no live rate is configured.
var DefaultUSDToBRL = decimal.RequireFromString("5.45")

// SuggestedTickers are offered for completion on top of the tickers already held.
var SuggestedTickers = []string{"BTC", "ETH", "SOL", "KNIP11", "XPML11"}

type demoAsset struct {
	ticker             string
	category           Category
	sector             string
	quantity, average  float64
	price, change      float64
	prov, dy, pvp, vac float64
	monthsAgo          int
}

var demoAssets = []demoAsset{
	{ticker: "BTC", category: Crypto, sector: "Ouro Digital", quantity: 0.25, average: 45000, price: 64200, change: 2.4, monthsAgo: 5},
	{ticker: "ETH", category: Crypto, sector: "Plataforma", quantity: 4.2, average: 2200, price: 3150, change: -1.2, monthsAgo: 4},
	{ticker: "SOL", category: Crypto, sector: "DeFi", quantity: 50, average: 85, price: 142, change: 5.8, monthsAgo: 3},
	{ticker: "MXRF11", category: FII, sector: "Papel", quantity: 1500, average: 9.80, price: 10.45, change: 0.1, prov: 165, dy: 12.5, pvp: 1.04, vac: 0, monthsAgo: 5},
	{ticker: "HGLG11", category: FII, sector: "Logística", quantity: 85, average: 158, price: 164.20, change: -0.3, prov: 93.5, dy: 9.2, pvp: 1.02, vac: 2.1, monthsAgo: 2},
	{ticker: "VISC11", category: FII, sector: "Shoppings", quantity: 120, average: 110, price: 118.50, change: 0.5, prov: 120, dy: 8.8, pvp: 0.95, vac: 4.5, monthsAgo: 1},
}

// DemoPortfolio returns a sample portfolio of three cryptocurrencies and three FIIs.
// Each position is opened by a single buy at its average price, dated relative to today.
func DemoPortfolio(today date.Date) *Portfolio {
	p := NewPortfolio()
	p.Name = "Demo"
	for _, d := range demoAssets {
		a, err := p.Declare(d.ticker, d.category, d.sector)
		if err != nil {
			panic(err)
		}
		cur := d.category.Currency()
		buy := NewBuy(today.AddMonth(-d.monthsAgo), Q(d.quantity), M(d.average, cur), M(0, cur))
		if _, err := p.Record(d.ticker, d.category, buy); err != nil {
			panic(err)
		}
		a.CurrentPrice = M(d.price, cur)
		a.DailyChange = Percent(d.change)
		a.ProvDividend = M(d.prov, cur)
		a.DY, a.PVP, a.Vacancy = Percent(d.dy), decimal.NewFromFloat(d.pvp), Percent(d.vac)
	}
	return p
}
