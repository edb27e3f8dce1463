package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub013/log"
)

var memoryWarnOnce sync.Once

// MemoryStore keeps counters in a process-local map. Each instance of
// the service holding its own MemoryStore sees an independent counter,
// so it provides no cross-instance limiting at all; it exists as a
// local-development fallback when no network backend is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	memoryWarnOnce.Do(func() {
		log.Logger().Warn("using in-memory rate limit store: counters are per-instance and will not be shared across replicas")
	})
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !entry.live(s.now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry Entry, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// No timer per entry: expiry is enforced lazily on read and
	// reclaimed by Cleanup, so the ttl argument carries no extra
	// information beyond entry.ResetTime here.
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || !entry.live(now) {
		entry = Entry{Count: 1, ResetTime: now.Add(window)}
	} else {
		entry.Count++
	}
	s.entries[key] = entry
	return entry, nil
}

// Cleanup deletes expired entries to bound memory growth. Expired
// entries are already invisible to Get, so this is reclamation only.
func (s *MemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.entries {
		if !entry.live(now) {
			delete(s.entries, key)
		}
	}
}
