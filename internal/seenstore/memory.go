// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seenstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pdiddy/paperbot/internal/dedup"
)

// MemoryStore is a map-backed SeenSet that lives for one process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]dedup.Entry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]dedup.Entry)}
}

// Contains reports whether id has been recorded.
func (m *MemoryStore) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok, nil
}

// Add records an entry, keeping the first entry for an id.
func (m *MemoryStore) Add(_ context.Context, e dedup.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		m.entries[e.ID] = e
	}
	return nil
}

// Remove deletes id and reports whether it was present.
func (m *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	delete(m.entries, id)
	return ok, nil
}

// Count returns the number of entries.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// List returns entries newest first.
func (m *MemoryStore) List(_ context.Context, limit int) ([]dedup.Entry, error) {
	m.mu.RLock()
	out := make([]dedup.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].PostedAt.After(out[j].PostedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune deletes entries posted before cutoff.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if e.PostedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
