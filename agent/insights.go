package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/gemhub"
	"google.golang.org/genai"
)

// InsightsFallback is returned by Insights when the model cannot be reached.
const InsightsFallback = "Market analysis is unavailable right now. Check your connection and your Gemini API key, then try again."

// Insights asks model for a short market-sentiment analysis of the holdings of p.
// On failure it returns InsightsFallback together with the error.
func Insights(ctx context.Context, client *genai.Client, model string, p *gemhub.Portfolio) (string, error) {
	if model == "" {
		model = DefaultModel
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(InsightsPrompt(p)), nil)
	if err != nil {
		return InsightsFallback, fmt.Errorf("insights: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return InsightsFallback, fmt.Errorf("insights: empty response")
	}
	return text, nil
}

// InsightsPrompt is the prompt sent by Insights.
func InsightsPrompt(p *gemhub.Portfolio) string {
	var b strings.Builder
	b.WriteString("Act as a financial analyst specialized in cryptocurrencies and Brazilian real-estate funds (FIIs).\n")
	b.WriteString("Here are my holdings:\n\n")
	for a := range p.Assets() {
		if !a.Quantity().IsPositive() {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s units at %s\n", a.Ticker, a.Category.Name(), a.Quantity(), a.CurrentPrice)
	}
	b.WriteString("\nGive a short market sentiment analysis of these assets, and one risk to watch.\n")
	b.WriteString("Answer in markdown bullet points, in 150 words or less.\n")
	return b.String()
}
