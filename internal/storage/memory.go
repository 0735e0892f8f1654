package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps attachment bodies in a map. Test substrate.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save stores content under a fresh uuid key.
func (s *MemoryStore) Save(_ context.Context, filename string, content []byte) (string, error) {
	key := uuid.NewString() + safeExtension(filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(content))
	copy(stored, content)
	s.data[key] = stored
	return key, nil
}

// Load returns the content stored under key, or (nil, nil) when absent.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	content := make([]byte, len(stored))
	copy(content, stored)
	return content, nil
}

// Delete removes the content stored under key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
