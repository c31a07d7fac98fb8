package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data     []byte
	deadline time.Time
	expires  time.Time
}

// MemoryStore is the process-local Store used when Redis is disabled.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	policy  Policy
	now     clock
}

func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), policy: policy, now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	now := s.now()
	if !now.Before(e.expires) {
		delete(s.entries, key)
		return nil, ErrMiss
	}
	e.expires = now.Add(s.policy.ttl(now, e.deadline))
	s.entries[key] = e
	return append([]byte(nil), e.data...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.now()
	deadline := now.Add(s.policy.Absolute)

	s.mu.Lock()
	s.entries[key] = entry{
		data:     append([]byte(nil), value...),
		deadline: deadline,
		expires:  now.Add(s.policy.ttl(now, deadline)),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
