// Package gemhub tracks a personal portfolio of cryptocurrencies (quoted in USD) and
// Brazilian real-estate funds, FIIs (quoted in BRL).
//
// The transactions of each asset are the single source of truth. Everything else is
// derived from them:
//   - Position: quantity and average cost, recomputed by Aggregate on every change
//     recorded through a Portfolio.
//   - Valuation: market values converted into a reporting currency with Rates and
//     grouped by category or sector.
//   - Rebalance: how to split a new contribution so that a category moves toward a
//     target weight, without ever selling.
//   - Analytics: invested capital, monthly contributions and the dividend bridge.
//
// A Portfolio is persisted as JSONL, one command per line, see EncodePortfolio.
// It is not safe for concurrent use; the session package owns one and serialises access.
package gemhub
