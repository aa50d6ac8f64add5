package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is the state stored under an idempotency key. A pending entry has
// been claimed by a request that has not finished yet.
type Entry struct {
	ResourceID string `json:"resource_id,omitempty"`
	Pending    bool   `json:"pending"`
}

// IdempotencyStore guards write operations against client retries.
type IdempotencyStore interface {
	// Claim reserves key and reports whether this caller now owns it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Lookup returns nil when the key is unknown or expired.
	Lookup(ctx context.Context, key string) (*Entry, error)
	// Remember records the resource created under a claimed key.
	Remember(ctx context.Context, key string, resourceID string, ttl time.Duration) error
	// Release drops a claim whose write failed so the client can retry.
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryIdempotencyStore keeps keys in process. Expired keys are evicted
// lazily on access.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.liveLocked(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{entry: Entry{Pending: true}, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryIdempotencyStore) Lookup(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.liveLocked(key)
	if !ok {
		return nil, nil
	}
	entry := stored.entry
	return &entry, nil
}

func (s *MemoryIdempotencyStore) Remember(_ context.Context, key string, resourceID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{entry: Entry{ResourceID: resourceID}, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryIdempotencyStore) liveLocked(key string) (memoryEntry, bool) {
	stored, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(stored.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return stored, true
}
