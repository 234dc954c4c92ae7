package indexers

import (
	"context"
	"sync"
	"time"

	"github.com/sjafferali/searcharr/internal/models"
)

// MemoryStatusStore is an in-process StatusStore used when Redis is not
// configured, and in tests.
type MemoryStatusStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	status    models.Status
	expiresAt time.Time
}

// NewMemoryStatusStore creates an empty in-process status store
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{entries: make(map[string]memoryEntry)}
}

// Get returns the cached status for key, or false when missing or expired.
func (s *MemoryStatusStore) Get(_ context.Context, key string) (*models.Status, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	status := entry.status
	return &status, true
}

// Set stores a probe result under key with the given TTL.
func (s *MemoryStatusStore) Set(_ context.Context, key string, status *models.Status, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{status: *status, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}
