package session

import (
	"context"
	"sync/atomic"
	"time"

	"garagedesk/internal/domain"

	"github.com/rs/zerolog"
)

// recoveryProbe is how long the failover store waits before trying the
// primary again after a failure.
const recoveryProbe = time.Minute

// FailoverStore prefers the primary store and falls back to the secondary
// when the primary errors, probing the primary again after a cooldown.
// Expiry callbacks are registered on the failover itself so they fire exactly
// once regardless of which side served the call.
type FailoverStore struct {
	expireNotifier

	primary  domain.SessionStore
	fallback domain.SessionStore
	logger   zerolog.Logger

	isDown   atomic.Bool
	downedAt atomic.Int64 // unix nanos of the failure that marked primary down
}

func NewFailoverStore(primary, fallback domain.SessionStore, logger zerolog.Logger) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback, logger: logger}
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("primary session store failed, using fallback")
	s.isDown.Store(true)
	s.downedAt.Store(time.Now().UnixNano())
}

func (s *FailoverStore) shouldProbe() bool {
	return time.Since(time.Unix(0, s.downedAt.Load())) > recoveryProbe
}

func (s *FailoverStore) Token(ctx context.Context) (string, error) {
	if !s.isDown.Load() {
		token, err := s.primary.Token(ctx)
		if err == nil {
			return token, nil
		}
		s.markDown(err)
	} else if s.shouldProbe() {
		token, err := s.primary.Token(ctx)
		if err == nil {
			s.isDown.Store(false)
			return token, nil
		}
		s.downedAt.Store(time.Now().UnixNano())
	}
	return s.fallback.Token(ctx)
}

func (s *FailoverStore) SetToken(ctx context.Context, token string) error {
	// Always mirror into the fallback so a later primary failure does not
	// lose the session.
	err := s.fallback.SetToken(ctx, token)
	if !s.isDown.Load() {
		if perr := s.primary.SetToken(ctx, token); perr != nil {
			s.markDown(perr)
		}
	}
	return err
}

func (s *FailoverStore) Clear(ctx context.Context) error {
	err := s.fallback.Clear(ctx)
	if perr := s.primary.Clear(ctx); perr != nil && !s.isDown.Load() {
		s.markDown(perr)
	}
	return err
}

func (s *FailoverStore) Expire(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}
