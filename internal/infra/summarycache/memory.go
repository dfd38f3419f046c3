package summarycache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/meeting-summarizer/internal/domain/summary"
)

type entry struct {
	summaryText string
	createdAt   time.Time
}

// MemoryStore is the default, process-local summary cache. Entries older
// than the TTL read as absent; a Set that leaves the map above maxEntries
// synchronously sweeps every expired entry. The sweep is opportunistic, not
// an LRU bound: under sustained unique-key load the map can hold more than
// maxEntries live entries until some expire.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore constructs the in-memory cache.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// WithClock replaces the store's clock. Test use only.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get implements summary.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if s.expired(e, s.now()) {
		s.mu.Lock()
		// Re-check before deleting: a Set may have refreshed the key
		// between dropping the read lock and taking the write lock.
		if cur, ok := s.entries[key]; ok && s.expired(cur, s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.summaryText, true, nil
}

// Set implements summary.Store.
func (s *MemoryStore) Set(_ context.Context, key, summaryText string) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{summaryText: summaryText, createdAt: now}
	if len(s.entries) > s.maxEntries {
		for k, e := range s.entries {
			if s.expired(e, now) {
				delete(s.entries, k)
			}
		}
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return now.Sub(e.createdAt) > s.ttl
}

var _ summary.Store = (*MemoryStore)(nil)
