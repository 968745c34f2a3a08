package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// MockSyncHistoryStore is an in-memory SyncHistoryStore for testing.
type MockSyncHistoryStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.SyncRun

	CreateErr error
	UpdateErr error
	ListErr   error
}

// NewMockSyncHistoryStore creates an empty in-memory history store.
func NewMockSyncHistoryStore() *MockSyncHistoryStore {
	return &MockSyncHistoryStore{runs: make(map[string]*domain.SyncRun)}
}

func (m *MockSyncHistoryStore) Create(ctx context.Context, run *domain.SyncRun) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MockSyncHistoryStore) Update(ctx context.Context, id string, patch driven.RunPatch) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Status != nil {
		run.Status = *patch.Status
	}
	if patch.EndTime != nil {
		run.EndTime = patch.EndTime
	}
	if patch.Counts != nil {
		run.Counts = *patch.Counts
	}
	if patch.ErrorMessage != nil {
		run.ErrorMessage = *patch.ErrorMessage
	}
	if patch.Performance != nil {
		run.Performance = patch.Performance
	}
	return nil
}

func (m *MockSyncHistoryStore) FindLastSuccess(ctx context.Context, source, entityType string) (*domain.SyncRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *domain.SyncRun
	for _, run := range m.runs {
		if run.Source != source || run.EntityType != entityType || run.Status != domain.RunStatusSuccess {
			continue
		}
		if last == nil || run.StartTime.After(last.StartTime) {
			last = run
		}
	}
	if last == nil {
		return nil, domain.ErrNotFound
	}
	clone := *last
	return &clone, nil
}

func (m *MockSyncHistoryStore) List(ctx context.Context, filter driven.RunFilter) ([]*domain.SyncRun, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SyncRun
	for _, run := range m.runs {
		if filter.Source != "" && run.Source != filter.Source {
			continue
		}
		if filter.EntityType != "" && run.EntityType != filter.EntityType {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		if filter.Since != nil && run.StartTime.Before(*filter.Since) {
			continue
		}
		clone := *run
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockSyncHistoryStore) Ping(ctx context.Context) error { return nil }

// Get returns a stored run by id. Test inspection helper.
func (m *MockSyncHistoryStore) Get(id string) *domain.SyncRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs[id]
}
