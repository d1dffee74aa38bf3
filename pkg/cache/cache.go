// Package cache provides the shared key-value store contract used for decoded
// records, user preferences, and sessions. Every operation is safe to call
// when no backend is configured and never raises into caller code: a backend
// failure reads as a miss and writes as a dropped write.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the get/set/delete contract all backends implement.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key with a TTL (0 means no expiry). Returns
	// whether the write landed.
	Set(ctx context.Context, key string, value string, ttl time.Duration) bool
	// Delete removes key. Returns whether a value was removed.
	Delete(ctx context.Context, key string) bool
}

// Noop is the always-miss store used when no backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool)              { return "", false }
func (Noop) Set(context.Context, string, string, time.Duration) bool { return false }
func (Noop) Delete(context.Context, string) bool                     { return false }

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-process store used as the durability fallback and in tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) bool {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return true
}

func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	_, ok := m.entries[key]
	delete(m.entries, key)
	m.mu.Unlock()
	return ok
}

// Len returns the number of live entries (expired entries may be counted
// until their next read).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
