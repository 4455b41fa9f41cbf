package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/gemhub"
)

type holdingView struct {
	Name string
	*gemhub.Valuation
}

// HoldingMarkdown renders the holdings of a valuation, one table per group.
func HoldingMarkdown(name string, v *gemhub.Valuation, opts Options) string {
	partials := map[string]string{
		"holding_group": "holding_group.md",
	}
	return renderTemplate("holding", "holding.md", partials, opts, holdingView{Name: name, Valuation: v})
}

// AssetsMarkdown lists the declared assets of p with their category, sector and
// currency. It gives the assistant the tickers it can talk about.
func AssetsMarkdown(p *gemhub.Portfolio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Assets\n\n")
	fmt.Fprintln(&b, "| Ticker | Held | Category | Sector | Currency |")
	fmt.Fprintln(&b, "|:---|:---:|:---|:---|:---|")
	for a := range p.Assets() {
		held := " "
		if a.Quantity().IsPositive() {
			held = "X"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", a.Ticker, held, a.Category.Name(), a.Sector, a.Currency())
	}
	return b.String()
}
