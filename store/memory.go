package store

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	runs map[string]*Run
	ids  []string // insertion order
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[string]*Run)}
}

func (m *Memory) SaveRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		m.ids = append(m.ids, run.ID)
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (m *Memory) LatestRun(_ context.Context) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.ids) == 0 {
		return nil, ErrRunNotFound
	}
	return m.runs[m.ids[len(m.ids)-1]], nil
}

func (m *Memory) ListRuns(_ context.Context) ([]RunMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metas := make([]RunMeta, 0, len(m.ids))
	for _, id := range m.ids {
		metas = append(metas, MetaOf(m.runs[id]))
	}
	// Newest first, matching the sqlite store.
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

func (m *Memory) Close() error { return nil }
