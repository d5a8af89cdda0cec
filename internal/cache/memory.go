package cache

import (
	"sync"
	"time"

	"dex-scalp-assistant/internal/analyzer"
)

// memoryStore is the in-process fallback behind the Redis cache. Entries
// expire lazily on read.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	analysis  *analyzer.Analysis
	expiresAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (m *memoryStore) get(key string) (*analyzer.Analysis, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.analysis, true
}

func (m *memoryStore) set(key string, analysis *analyzer.Analysis, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{analysis: analysis, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
}

func (m *memoryStore) delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}
