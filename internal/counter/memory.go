package counter

import (
	"context"
	"sync"
)

// MemoryStore keeps counters in process memory. Suitable for tests and
// single-node deployments where the gate does not need to span processes.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int64)}
}

func (s *MemoryStore) IncrBelow(ctx context.Context, name string, max int64) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[name] >= max {
		return false, nil
	}
	s.values[name]++
	return true, nil
}

func (s *MemoryStore) Decr(ctx context.Context, name string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[name] > 0 {
		s.values[name]--
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[name], nil
}

func (s *MemoryStore) Reset(ctx context.Context, name string, value int64) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}
