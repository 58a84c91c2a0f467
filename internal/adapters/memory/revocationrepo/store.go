package revocationrepo

import (
	"context"
	"sync"
	"time"
)

// Store is an in-memory implementation of revocationrepo.Store.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	revokedAt map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		revokedAt: make(map[string]time.Time),
	}
}

func (s *Store) Add(ctx context.Context, token string, revokedAt time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revokedAt[token]; ok {
		return nil
	}
	s.revokedAt[token] = revokedAt
	return nil
}

func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revokedAt[token]
	return ok, nil
}
