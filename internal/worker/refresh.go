package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"garagedesk/internal/api"
	"garagedesk/internal/events"
	"garagedesk/internal/metrics"

	"github.com/rs/zerolog"
)

// Reloader is the slice of the booking desk the refresher drives.
type Reloader interface {
	LoadAll(ctx context.Context) error
}

// Refresher re-pulls the booking collections on a fixed interval so the desk
// keeps tracking backend changes made elsewhere (customer cancellations, other
// terminals). Failures back off exponentially; an expired session pauses the
// loop until Resume is called after a fresh login.
type Refresher struct {
	desk     Reloader
	interval time.Duration
	backoff  BackoffPolicy
	logger   zerolog.Logger

	paused atomic.Bool
	resume chan struct{}
}

func NewRefresher(desk Reloader, interval time.Duration, backoff BackoffPolicy, logger zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		desk:     desk,
		interval: interval,
		backoff:  backoff,
		logger:   logger,
		resume:   make(chan struct{}, 1),
	}
}

// SubscribeTo pauses the refresher when the session expires. Refreshing with
// a dead token would only produce a 401 per cycle.
func (r *Refresher) SubscribeTo(bus *events.Bus) {
	bus.Subscribe(events.EventSessionExpired, func(*events.Event) error {
		r.Pause()
		return nil
	})
}

// Pause stops refreshing until Resume.
func (r *Refresher) Pause() {
	if r.paused.CompareAndSwap(false, true) {
		r.logger.Warn().Msg("refresh paused")
	}
}

// Resume restarts refreshing and triggers an immediate cycle.
func (r *Refresher) Resume() {
	if r.paused.CompareAndSwap(true, false) {
		r.logger.Info().Msg("refresh resumed")
		select {
		case r.resume <- struct{}{}:
		default:
		}
	}
}

// Paused reports whether the loop is waiting for a fresh session.
func (r *Refresher) Paused() bool {
	return r.paused.Load()
}

// Run drives the refresh loop until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("refresh loop started")

	failures := 0
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("refresh loop stopped")
			return
		case <-r.resume:
		case <-timer.C:
		}

		wait := r.interval
		if r.paused.Load() {
			metrics.IncRefresh("paused")
		} else if err := r.refresh(ctx); err != nil {
			failures++
			wait = r.backoff.Delay(failures)
			r.logger.Error().Err(err).Int("failures", failures).
				Dur("retry_in", wait).Msg("refresh cycle failed")
		} else {
			failures = 0
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	cycle, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	err := r.desk.LoadAll(cycle)
	switch {
	case err == nil:
		metrics.IncRefresh("success")
		return nil
	case errors.Is(err, api.ErrAuthExpired):
		// The desk already published session_expired; Pause directly in case
		// the bus is unwired.
		r.Pause()
		metrics.IncRefresh("auth_expired")
		return err
	default:
		metrics.IncRefresh("failure")
		return err
	}
}
