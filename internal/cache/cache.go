// Package cache provides the time-bounded memoization used for computed
// session profiles. Lifetime and eviction are explicit: callers inject a
// Store and pass a TTL on every Set.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "goethos/internal/errors"
)

// Store is a TTL key/value store
type Store interface {
	// Get returns the value and true when the key is present and unexpired
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value until now+ttl; ttl <= 0 is rejected
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Evict removes the key; evicting a missing key is not an error
	Evict(ctx context.Context, key string) error
}

// Clock returns the current time
type Clock func() time.Time

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     Clock
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-memory store; a nil clock uses time.Now
func NewMemory(now Clock) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: make(map[string]entry), now: now}
}

// Get implements Store. Expired entries are removed on read.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set implements Store
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return apperrors.InvalidInputf("cache ttl must be positive, got %s", ttl)
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.entries[key] = entry{value: stored, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Evict implements Store
func (m *Memory) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Purge drops every expired entry and returns how many were removed
func (m *Memory) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Typed wraps a Store with JSON encoding for one value type
type Typed[V any] struct {
	store  Store
	prefix string
	ttl    time.Duration
}

// NewTyped creates a typed view over store; keys are namespaced by prefix
func NewTyped[V any](store Store, prefix string, ttl time.Duration) *Typed[V] {
	return &Typed[V]{store: store, prefix: prefix, ttl: ttl}
}

// Get decodes the cached value for key
func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var v V
	raw, ok, err := t.store.Get(ctx, t.prefix+key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		// A corrupt entry is dropped rather than served.
		_ = t.store.Evict(ctx, t.prefix+key)
		return v, false, apperrors.Wrapf(err, "decode cached %s", key)
	}
	return v, true, nil
}

// Set encodes and stores v under key with the configured TTL
func (t *Typed[V]) Set(ctx context.Context, key string, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrapf(err, "encode %s for cache", key)
	}
	return t.store.Set(ctx, t.prefix+key, raw, t.ttl)
}

// Evict removes key
func (t *Typed[V]) Evict(ctx context.Context, key string) error {
	return t.store.Evict(ctx, t.prefix+key)
}
