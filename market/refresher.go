package market

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Target receives periodic price refreshes, usually a session.
type Target interface {
	Refresh(ctx context.Context, mode Mode) (Result, error)
}

// Refresher refreshes a Target on a fixed interval. Failures are logged and the next
// tick simply tries again.
type Refresher struct {
	cron   *cron.Cron
	target Target
	mode   Mode
	log    zerolog.Logger

	// Timeout bounds a single refresh, it defaults to the interval.
	Timeout time.Duration
}

// NewRefresher schedules a refresh of target every interval.
func NewRefresher(target Target, mode Mode, interval time.Duration, log zerolog.Logger) (*Refresher, error) {
	if interval < time.Second {
		return nil, fmt.Errorf("refresh interval %v is too short", interval)
	}
	r := &Refresher{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		target:  target,
		mode:    mode,
		log:     log.With().Str("component", "refresher").Logger(),
		Timeout: interval,
	}
	schedule := "@every " + interval.String()
	if _, err := r.cron.AddFunc(schedule, r.RunNow); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	r.log.Info().Str("schedule", schedule).Str("mode", string(mode)).Msg("refresh registered")
	return r, nil
}

// RunNow refreshes immediately.
func (r *Refresher) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()
	res, err := r.target.Refresh(ctx, r.mode)
	switch {
	case err != nil:
		r.log.Error().Err(err).Msg("refresh failed")
	case res.PartialFailure:
		r.log.Warn().Int("quotes", len(res.Quotes)).Msg("refresh partially failed")
	default:
		r.log.Debug().Int("quotes", len(res.Quotes)).Msg("refresh completed")
	}
}

// Start starts the schedule in the background.
func (r *Refresher) Start() {
	r.cron.Start()
	r.log.Info().Msg("refresher started")
}

// Stop stops the schedule and waits for a running refresh to complete.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info().Msg("refresher stopped")
}

// Run refreshes once, then on schedule until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	r.RunNow()
	r.Start()
	<-ctx.Done()
	r.Stop()
}
