package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memoryStoreSize bounds the number of tracked (group, ip) keys. Keys
// evicted under pressure restart their window on next sight.
const memoryStoreSize = 65536

type entry struct {
	count       int64
	windowStart time.Time
}

// MemoryStore is the in-process fallback counter store used when Redis
// is not configured. One mutex guards the whole table; the hot path is
// a map lookup and an increment.
type MemoryStore struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]

	// now is replaced in tests.
	now func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	// lru.New errors only on a non-positive size.
	cache, _ := lru.New[string, *entry](memoryStoreSize)
	return &MemoryStore{entries: cache, now: time.Now}
}

// Take counts one hit. A window that has fully elapsed resets before
// counting; denied hits do not consume quota or extend the window.
func (s *MemoryStore) Take(_ context.Context, key string, limit int64, window time.Duration) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries.Get(key)
	if !ok || now.Sub(e.windowStart) >= window {
		e = &entry{windowStart: now}
		s.entries.Add(key, e)
	}

	denied := e.count >= limit
	if !denied {
		e.count++
	}

	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Limit:     limit,
		Remaining: remaining,
		ResetUnix: e.windowStart.Add(window).Unix(),
		Denied:    denied,
	}, nil
}
