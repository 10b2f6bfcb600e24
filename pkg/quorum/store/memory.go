// Package store provides tracker.Store implementations: an in-process map,
// a SQLite file, and a Redis client for state shared between processes.
package store

import (
	"context"
	"sync"

	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

// Memory is the default store: a map guarded by a RWMutex. State lives for
// the process lifetime only.
type Memory struct {
	mu      sync.RWMutex
	records map[string]tracker.Record
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{records: make(map[string]tracker.Record)}
}

// Get implements tracker.Store
func (m *Memory) Get(ctx context.Context, modelID string) (tracker.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[modelID]
	return rec, ok, nil
}

// Put implements tracker.Store
func (m *Memory) Put(ctx context.Context, rec tracker.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[rec.ModelID] = rec
	return nil
}

// List implements tracker.Store
func (m *Memory) List(ctx context.Context) ([]tracker.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]tracker.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}
