package renderer

import "github.com/etnz/gemhub"

// RebalanceMarkdown renders a rebalance suggestion.
func RebalanceMarkdown(r *gemhub.Rebalance, opts Options) string {
	return renderTemplate("rebalance", "rebalance.md", nil, opts, r)
}
