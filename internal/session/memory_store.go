package session

import (
	"context"
	"sync"
	"time"

	"go-medscan/pkg/models"
)

type memoryEntry struct {
	state     models.SessionImageState
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Entries expire lazily on read and
// are swept on write.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (models.SessionImageState, bool, error) {
	if err := validateID(sessionID); err != nil {
		return models.SessionImageState{}, false, err
	}

	s.mu.RLock()
	entry, ok := s.entries[Key(sessionID)]
	s.mu.RUnlock()

	if !ok || s.expired(entry) {
		return models.SessionImageState{}, false, nil
	}
	return entry.state, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionID string, state models.SessionImageState) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, key)
		}
	}

	entry := memoryEntry{state: state}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[Key(sessionID)] = entry
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
