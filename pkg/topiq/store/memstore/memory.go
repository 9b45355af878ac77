// Package memstore is an in-memory Store implementation for tests
// and ephemeral runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/topiq/pkg/topiq/internalerr"
	"github.com/cognicore/topiq/pkg/topiq/store"
)

type memStore struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates an empty in-memory store.
func New() store.Store {
	return &memStore{runs: make(map[string]store.Run)}
}

func (m *memStore) Close() error {
	return nil
}

func (m *memStore) SaveRun(_ context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("memstore: run id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = r
	return nil
}

func (m *memStore) GetRun(_ context.Context, id string) (store.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("memstore: run %s: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

func (m *memStore) ListRuns(_ context.Context, limit int) ([]store.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summaries := make([]store.RunSummary, 0, len(m.runs))
	for _, r := range m.runs {
		summaries = append(summaries, store.RunSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Topics:    len(r.Topics),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (m *memStore) DeleteRun(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("memstore: run %s: %w", id, internalerr.ErrNotFound)
	}
	delete(m.runs, id)
	return nil
}
