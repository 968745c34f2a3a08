package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// MockSourceStore is an in-memory SourceStore for testing.
type MockSourceStore struct {
	mu      sync.RWMutex
	sources map[string]*domain.Source
}

// NewMockSourceStore creates an empty in-memory source store.
func NewMockSourceStore() *MockSourceStore {
	return &MockSourceStore{sources: make(map[string]*domain.Source)}
}

func (m *MockSourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	source, ok := m.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *source
	return &clone, nil
}

func (m *MockSourceStore) List(ctx context.Context) ([]*domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Source
	for _, source := range m.sources {
		clone := *source
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockSourceStore) Save(ctx context.Context, source *domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *source
	m.sources[source.ID] = &clone
	return nil
}

func (m *MockSourceStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sources, id)
	return nil
}

// MockScheduleStore is an in-memory ScheduleStore for testing.
type MockScheduleStore struct {
	mu        sync.RWMutex
	schedules map[string]*domain.SyncSchedule
}

// NewMockScheduleStore creates an empty in-memory schedule store.
func NewMockScheduleStore() *MockScheduleStore {
	return &MockScheduleStore{schedules: make(map[string]*domain.SyncSchedule)}
}

func (m *MockScheduleStore) Get(ctx context.Context, id string) (*domain.SyncSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *schedule
	return &clone, nil
}

func (m *MockScheduleStore) List(ctx context.Context) ([]*domain.SyncSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SyncSchedule
	for _, schedule := range m.schedules {
		clone := *schedule
		result = append(result, &clone)
	}
	return result, nil
}

func (m *MockScheduleStore) Save(ctx context.Context, schedule *domain.SyncSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *schedule
	m.schedules[schedule.ID] = &clone
	return nil
}

func (m *MockScheduleStore) MarkRun(ctx context.Context, id string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule, ok := m.schedules[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	schedule.LastRunAt = &now
	schedule.LastError = lastError
	return nil
}

func (m *MockScheduleStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	return nil
}

// MockTaskQueue is an in-memory TaskQueue for testing.
type MockTaskQueue struct {
	mu    sync.Mutex
	tasks []*domain.SyncTask

	EnqueueErr error

	Acked  []string
	Nacked []string
}

// NewMockTaskQueue creates an empty in-memory task queue.
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.SyncTask) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeoutSeconds int) (*domain.SyncTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	return task, nil
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acked = append(m.Acked, taskID)
	return nil
}

func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Nacked = append(m.Nacked, taskID)
	return nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error { return nil }

// Pending returns queued task count. Test helper.
func (m *MockTaskQueue) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}
