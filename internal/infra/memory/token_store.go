package memory

import (
	"context"
	"sync"
	"time"
)

// TokenStore is an in-memory implementation of opentdb.TokenStore.
type TokenStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewTokenStore keeps a token for ttl after its last save; ttl <= 0 never expires.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return NewTokenStoreWithClock(ttl, time.Now)
}

// NewTokenStoreWithClock allows deterministic expiry in tests.
func NewTokenStoreWithClock(ttl time.Duration, clock func() time.Time) *TokenStore {
	return &TokenStore{ttl: ttl, clock: clock}
}

func (s *TokenStore) Token(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false, nil
	}
	if s.ttl > 0 && !s.expiresAt.After(s.clock()) {
		return "", false, nil
	}
	return s.token, true, nil
}

func (s *TokenStore) SaveToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = s.clock().Add(s.ttl)
	return nil
}

func (s *TokenStore) DeleteToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	return nil
}
