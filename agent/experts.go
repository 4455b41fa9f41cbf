package agent

import (
	"context"
	"fmt"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/renderer"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Source gives the accountant read access to the portfolio. A session.Session is one.
type Source interface {
	Snapshot() *gemhub.Portfolio
	Valuate(ctx context.Context, by gemhub.GroupBy) (*gemhub.Valuation, *gemhub.Portfolio, error)
	Rebalance(ctx context.Context, c gemhub.Category, target, contribution decimal.Decimal) (*gemhub.Rebalance, error)
}

// creates the facilitator
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name: "Facilitator",
		// Used by facilitators to know what they can expected from the expert
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user holds cryptocurrencies (quoted in USD) and Brazilian real-estate funds, FIIs
			(quoted in BRL). He is here primarily to understand his portfolio, its balance between
			crypto and FIIs, and to get news about his assets.
			If he is angry try to understand why, and seek for a clear user approval.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.

			The user will assume that you know about his tickers, check the portfolio first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded with Google Search.
func NewTrader(model string) *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of cryptocurrencies and of the Brazilian real-estate funds (FIIs),
		about the latest news about the different assets and markets.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			cryptocurrencies, Brazilian FIIs, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAccountant returns the expert reading the user's portfolio from src.
func NewAccountant(model string, src Source) *Expert {
	lib := []Function{Assets(src), Holdings(src), Rebalance(src)}
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's portfolio.
		He can compute the holdings, their value, and how to split a new contribution between
		crypto and FIIs to reach a target allocation.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's portfolio.
				You know how to use the Tools to extract relevant information about the user's portfolio and wealth.
				You are part of a team of experts, yours is everything about the user's portfolio. They might ask
				you questions about the user's portfolio, pardon their approximative language and figure out what they meant.

				Use the available tools to get information about the user's portfolio
				  - list of assets
				  - holdings, by category or by sector
				  - rebalancing a new contribution
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Assets lists the declared assets.
func Assets(src Source) *Func {
	const name = "Assets"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: `Assets lists every asset of the portfolio with its category, sector and currency, and whether it is currently held.`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of the assets.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			return output(id, name, renderer.AssetsMarkdown(src.Snapshot()))
		},
	}
}

// Holdings values the portfolio in the reporting currency.
func Holdings(src Source) *Func {
	const name = "Holdings"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: name,
			Description: `Holdings values every asset at its current price, in the reporting currency,
			with quantity, average price, gain and weight, grouped by category or by sector.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"groupBy": {
						Type:        genai.TypeString,
						Enum:        []string{"category", "sector"},
						Description: "How to group the holdings. category is the default.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report with one table per group.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			s, _ := args["groupBy"].(string)
			by, err := gemhub.ParseGroupBy(s)
			if err != nil {
				return failure(id, name, err)
			}
			v, p, err := src.Valuate(ctx, by)
			if err != nil {
				return failure(id, name, err)
			}
			return output(id, name, renderer.HoldingMarkdown(p.Name, v, renderer.Options{}))
		},
	}
}

// Rebalance splits a contribution between crypto and FIIs.
func Rebalance(src Source) *Func {
	const name = "Rebalance"
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: name,
			Description: `Rebalance tells how to split a new contribution, in the reporting currency, between
			crypto and FIIs so that crypto moves toward a target weight of the portfolio. It never suggests selling.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"target": {
						Type:        genai.TypeNumber,
						Description: "The target weight of crypto, between 0 and 1 (0.3 is 30%).",
					},
					"contribution": {
						Type:        genai.TypeNumber,
						Description: "The amount of new money to invest, in the reporting currency.",
					},
				},
				Required: []string{"target", "contribution"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table with the allocation of each side.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			target, ok := args["target"].(float64)
			if !ok {
				return failure(id, name, fmt.Errorf("argument 'target' is not a number but %T", args["target"]))
			}
			contribution, ok := args["contribution"].(float64)
			if !ok {
				return failure(id, name, fmt.Errorf("argument 'contribution' is not a number but %T", args["contribution"]))
			}
			r, err := src.Rebalance(ctx, gemhub.Crypto, decimal.NewFromFloat(target), decimal.NewFromFloat(contribution))
			if err != nil {
				return failure(id, name, err)
			}
			return output(id, name, renderer.RebalanceMarkdown(r, renderer.Options{}))
		},
	}
}
