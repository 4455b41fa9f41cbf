// Package session owns the live portfolio of a gemhub process.
//
// A Session serialises every mutation and read of the portfolio. Mutations are applied
// to a copy, saved, and only then published: a failed save leaves the session
// unchanged. Readers get deep copies that they can keep.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/etnz/gemhub"
	"github.com/etnz/gemhub/market"
	"github.com/etnz/gemhub/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Options tune a session.
type Options struct {
	// ReportingCurrency overrides the portfolio preferred currency.
	ReportingCurrency string
	// Strict rejects oversells, on top of the stored portfolio setting.
	Strict bool
}

// Session is the single stateful object of a gemhub process.
type Session struct {
	mu    sync.Mutex
	p     *gemhub.Portfolio
	store *store.Notifier
	feed  market.Feed
	fx    market.Exchanger
	opts  Options
	log   zerolog.Logger
}

// New loads the portfolio from s.
func New(ctx context.Context, s store.Store, feed market.Feed, fx market.Exchanger, opts Options, log zerolog.Logger) (*Session, error) {
	n, ok := s.(*store.Notifier)
	if !ok {
		n = store.NewNotifier(s, log)
	}
	sess := &Session{
		store: n,
		feed:  feed,
		fx:    fx,
		opts:  opts,
		log:   log.With().Str("component", "session").Logger(),
	}
	p, err := n.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load portfolio: %w", err)
	}
	sess.p = sess.adopt(p)
	sess.log.Debug().Int("assets", p.Len()).Msg("portfolio loaded")
	return sess, nil
}

// adopt prepares a portfolio to become the session one.
func (s *Session) adopt(p *gemhub.Portfolio) *gemhub.Portfolio {
	p.Strict = p.Strict || s.opts.Strict
	p.Infer = func(ticker string, c gemhub.Category) {
		s.log.Warn().Str("ticker", ticker).Str("category", c.Code()).Msg("category inferred from ticker")
	}
	return p
}

// Currency returns the reporting currency.
func (s *Session) Currency() string {
	if s.opts.ReportingCurrency != "" {
		return strings.ToUpper(s.opts.ReportingCurrency)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.PreferredCurrency
}

// Snapshot returns a copy of the portfolio.
func (s *Session) Snapshot() *gemhub.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Clone()
}

// Subscribe calls fn with a copy of the portfolio after each saved change. fn runs
// while the session is locked: it must not call the session back.
func (s *Session) Subscribe(fn func(*gemhub.Portfolio)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// Update applies fn to a copy of the portfolio, saves it and makes it current.
func (s *Session) Update(ctx context.Context, fn func(p *gemhub.Portfolio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.p.Clone()
	if err := fn(c); err != nil {
		return err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return fmt.Errorf("cannot save portfolio: %w", err)
	}
	s.p = c
	return nil
}

// Replace makes p the session portfolio and saves it.
func (s *Session) Replace(ctx context.Context, p *gemhub.Portfolio) error {
	p = s.adopt(p.Clone())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, p); err != nil {
		return fmt.Errorf("cannot save portfolio: %w", err)
	}
	s.p = p
	return nil
}

// Record records tx for ticker and saves the portfolio.
func (s *Session) Record(ctx context.Context, ticker string, c gemhub.Category, tx gemhub.Transaction) (gemhub.Transaction, error) {
	return s.RecordIn(ctx, ticker, c, "", tx)
}

// RecordIn is Record for a ticker that is declared in sector when it is new. The
// declaration is saved only along with tx.
func (s *Session) RecordIn(ctx context.Context, ticker string, c gemhub.Category, sector string, tx gemhub.Transaction) (gemhub.Transaction, error) {
	var stored gemhub.Transaction
	err := s.Update(ctx, func(p *gemhub.Portfolio) (err error) {
		if sector != "" && p.Asset(ticker) == nil {
			if _, err = p.Declare(ticker, c, sector); err != nil {
				return err
			}
		}
		stored, err = p.Record(ticker, c, tx)
		return err
	})
	if err != nil {
		return tx, err
	}
	s.log.Info().Str("ticker", gemhub.NormalizeTicker(ticker)).Str("type", string(stored.Type)).Str("id", stored.ID).Msg("transaction recorded")
	return stored, nil
}

// Remove removes the transaction id of ticker and saves the portfolio.
func (s *Session) Remove(ctx context.Context, ticker, id string) (gemhub.Transaction, error) {
	var removed gemhub.Transaction
	err := s.Update(ctx, func(p *gemhub.Portfolio) (err error) {
		removed, err = p.Remove(ticker, id)
		return err
	})
	if err != nil {
		return removed, err
	}
	s.log.Info().Str("ticker", gemhub.NormalizeTicker(ticker)).Str("id", id).Msg("transaction removed")
	return removed, nil
}

// Refresh fetches new prices and merges them. The fetch runs without holding the
// session, quotes for tickers removed meanwhile are ignored.
func (s *Session) Refresh(ctx context.Context, mode market.Mode) (market.Result, error) {
	if s.feed == nil {
		return market.Result{}, fmt.Errorf("no price feed configured")
	}
	quotes := s.Snapshot().Quotes()
	res, err := s.feed.FetchPrices(ctx, quotes, mode)
	if err != nil {
		return res, fmt.Errorf("price fetch failed: %w", err)
	}
	updated := 0
	err = s.Update(ctx, func(p *gemhub.Portfolio) error {
		updated = p.ApplyQuotes(res.Quotes)
		return nil
	})
	if err != nil {
		return res, err
	}
	ev := s.log.Debug()
	if res.PartialFailure {
		ev = s.log.Warn()
	}
	ev.Str("mode", string(mode)).Int("updated", updated).Bool("partial", res.PartialFailure).Msg("prices refreshed")
	return res, nil
}

// Rates returns the conversion rates of every portfolio currency into the reporting
// currency.
func (s *Session) Rates(ctx context.Context) (*gemhub.Rates, error) {
	if s.fx == nil {
		return nil, fmt.Errorf("%w: no exchanger configured", gemhub.ErrMissingRate)
	}
	return market.Rates(ctx, s.fx, s.Currency(), s.Snapshot())
}

// Valuate values a snapshot of the portfolio in the reporting currency.
func (s *Session) Valuate(ctx context.Context, by gemhub.GroupBy) (*gemhub.Valuation, *gemhub.Portfolio, error) {
	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, nil, err
	}
	p := s.Snapshot()
	v, err := gemhub.Valuate(p, rates, by)
	if err != nil {
		return nil, nil, err
	}
	return v, p, nil
}

// Rebalance advises how to split a contribution, in the reporting currency, between
// category c and the rest of the portfolio.
func (s *Session) Rebalance(ctx context.Context, c gemhub.Category, target, contribution decimal.Decimal) (*gemhub.Rebalance, error) {
	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}
	return gemhub.NewRebalance(s.Snapshot(), rates, c, target, gemhub.M(contribution, rates.Currency()))
}

// Close closes the underlying store.
func (s *Session) Close() error { return s.store.Close() }
