package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"okhouse/internal/domain"

	"github.com/rs/zerolog"
)

const recoverAfter = time.Minute

// FailoverTokenStore uses primary until it fails, then serves from fallback
// and retries primary once per minute.
type FailoverTokenStore struct {
	primary  domain.TokenStore
	fallback domain.TokenStore
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverTokenStore(primary, fallback domain.TokenStore, logger *zerolog.Logger) *FailoverTokenStore {
	return &FailoverTokenStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverTokenStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("Primary token store failed, falling back")
	s.isDown.Store(true)
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
}

// usePrimary reports whether the next call should go to primary.
func (s *FailoverTokenStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) > recoverAfter {
		s.lastCheck = time.Now()
		return true
	}
	return false
}

func (s *FailoverTokenStore) Get(ctx context.Context, key string) (string, error) {
	if s.usePrimary() {
		val, err := s.primary.Get(ctx, key)
		if err == nil {
			s.isDown.Store(false)
			return val, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, key)
}

func (s *FailoverTokenStore) Set(ctx context.Context, key, value string) error {
	if s.usePrimary() {
		err := s.primary.Set(ctx, key, value)
		if err == nil {
			s.isDown.Store(false)
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Set(ctx, key, value)
}

// Clear removes the value from both stores so a recovered primary cannot
// hand back a token that was logged out.
func (s *FailoverTokenStore) Clear(ctx context.Context, key string) error {
	if err := s.primary.Clear(ctx, key); err != nil && !s.isDown.Load() {
		s.markDown(err)
	}
	return s.fallback.Clear(ctx, key)
}
