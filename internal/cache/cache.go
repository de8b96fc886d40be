package cache

import (
	"sync"
	"time"
)

// Memory is a small TTL'd in-memory cache. It guards the once-per-session
// catalog fetch and the company-name lookups.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
}

type entry struct {
	value   any
	expires time.Time
}

// NewMemory returns an empty cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry)}
}

// Get returns the cached value for key, or ok=false when absent or expired.
// Expired entries are evicted lazily.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A zero ttl means no expiry.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.items = make(map[string]entry)
	m.mu.Unlock()
}
