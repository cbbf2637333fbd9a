package store

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory RunStore for testing and single-process hosts
// that do not need the journal to survive restarts.
type MemStore struct {
	mu     sync.RWMutex
	runs   map[string]RunRecord
	order  []string // run IDs in save order
	closed bool
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{runs: make(map[string]RunRecord)}
}

// SaveRun stores the record, replacing any previous record with the same
// run ID.
func (m *MemStore) SaveRun(ctx context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}
	if _, exists := m.runs[rec.RunID]; !exists {
		m.order = append(m.order, rec.RunID)
	}
	m.runs[rec.RunID] = rec
	return nil
}

// LoadRun retrieves a record by run ID.
func (m *MemStore) LoadRun(ctx context.Context, runID string) (RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return RunRecord{}, fmt.Errorf("store is closed")
	}
	rec, ok := m.runs[runID]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListRuns returns up to limit records for the graph, most recent first.
func (m *MemStore) ListRuns(ctx context.Context, graphID string, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}
	var result []RunRecord
	for i := len(m.order) - 1; i >= 0 && (limit <= 0 || len(result) < limit); i-- {
		rec := m.runs[m.order[i]]
		if graphID != "" && rec.GraphID != graphID {
			continue
		}
		result = append(result, rec)
	}
	return result, nil
}

// Close marks the store closed. Double-close is a no-op.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
