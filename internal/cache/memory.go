package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const memoryStoreMaxEntries = 1024

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is the in-process fallback used when Redis is disabled.
// Values are stored as marshaled JSON so Get behaves exactly like the
// Redis backend. Expired entries are dropped lazily on lookup.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	keyPrefix  string
	defaultTTL time.Duration
}

func NewMemoryStore(prefix string, ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		keyPrefix:  prefix,
		defaultTTL: ttl,
	}
}

func (ms *MemoryStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	fullKey := ms.keyPrefix + key

	ms.mu.RLock()
	entry, ok := ms.entries[fullKey]
	ms.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			ms.mu.Lock()
			delete(ms.entries, fullKey)
			ms.mu.Unlock()
		}
		missCounter.WithLabelValues("memory").Inc()
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		errorCounter.WithLabelValues("memory").Inc()
		return false, err
	}
	hitCounter.WithLabelValues("memory").Inc()
	return true, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		errorCounter.WithLabelValues("memory").Inc()
		return err
	}
	if ttl <= 0 {
		ttl = ms.defaultTTL
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.entries) >= memoryStoreMaxEntries {
		ms.evictSoonest()
	}
	ms.entries[ms.keyPrefix+key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, ms.keyPrefix+key)
	return nil
}

func (ms *MemoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	fullPrefix := ms.keyPrefix + prefix

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for key := range ms.entries {
		if strings.HasPrefix(key, fullPrefix) {
			delete(ms.entries, key)
		}
	}
	return nil
}

func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries = make(map[string]memoryEntry)
	return nil
}

// evictSoonest drops the entry closest to expiry. Caller holds the lock.
func (ms *MemoryStore) evictSoonest() {
	var victim string
	var soonest time.Time
	for key, entry := range ms.entries {
		if victim == "" || entry.expiresAt.Before(soonest) {
			victim = key
			soonest = entry.expiresAt
		}
	}
	if victim != "" {
		delete(ms.entries, victim)
	}
}
