package security

import (
	"context"
	"sync"
)

// Store is the narrow key-value contract behind the revoked-credential
// set and the suspicious-activity counters. A single-process in-memory
// implementation and a shared Redis implementation satisfy the same
// contract, so a multi-process deployment sees revocations
// consistently when backed by the shared store.
type Store interface {
	Add(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
}

// MemoryStore is a process-local Store for single-instance deployments
// and tests.
type MemoryStore struct {
	mu       sync.Mutex
	members  map[string]struct{}
	counters map[string]int64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:  make(map[string]struct{}),
		counters: make(map[string]int64),
	}
}

// Add inserts the key into the set.
func (s *MemoryStore) Add(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[key] = struct{}{}
	return nil
}

// Contains reports set membership.
func (s *MemoryStore) Contains(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[key]
	return ok, nil
}

// Increment bumps and returns the counter for key.
func (s *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}
