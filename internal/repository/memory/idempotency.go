package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	orderID   string
	expiresAt time.Time
}

// IdempotencyStore implements repository.IdempotencyStore with expiring
// entries held in memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]idempotencyEntry
}

// NewIdempotencyStore creates a store whose keys expire after ttl.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]idempotencyEntry),
	}
}

// Reserve binds key to orderID unless an unexpired binding exists.
func (s *IdempotencyStore) Reserve(_ context.Context, key, orderID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}

	if e, ok := s.entries[key]; ok {
		return e.orderID, false, nil
	}
	s.entries[key] = idempotencyEntry{orderID: orderID, expiresAt: now.Add(s.ttl)}
	return orderID, true, nil
}

// Release drops key if it is still bound to orderID.
func (s *IdempotencyStore) Release(_ context.Context, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.orderID == orderID {
		delete(s.entries, key)
	}
	return nil
}
