package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// MockConcurrencyGuard is an in-process counting semaphore for testing the
// coordinator without Redis.
type MockConcurrencyGuard struct {
	mu       sync.Mutex
	capacity int
	held     map[int]bool

	AcquireErr   error
	HeartbeatErr error

	AcquireCalls int
	ReleaseCalls int
}

// NewMockConcurrencyGuard creates a guard with the given capacity.
func NewMockConcurrencyGuard(capacity int) *MockConcurrencyGuard {
	if capacity <= 0 {
		capacity = 2
	}
	return &MockConcurrencyGuard{
		capacity: capacity,
		held:     make(map[int]bool),
	}
}

func (m *MockConcurrencyGuard) Acquire(ctx context.Context, ttl, timeout time.Duration) (*domain.ConcurrencyLease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcquireCalls++
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	for slot := 0; slot < m.capacity; slot++ {
		if !m.held[slot] {
			m.held[slot] = true
			now := time.Now()
			return &domain.ConcurrencyLease{
				Slot:            slot,
				OwnerID:         "mock-owner",
				AcquiredAt:      now,
				LastHeartbeatAt: now,
				TTL:             ttl,
			}, nil
		}
	}
	return nil, domain.ErrAcquireTimeout
}

func (m *MockConcurrencyGuard) Heartbeat(ctx context.Context, lease *domain.ConcurrencyLease) error {
	if m.HeartbeatErr != nil {
		return m.HeartbeatErr
	}
	lease.LastHeartbeatAt = time.Now()
	return nil
}

func (m *MockConcurrencyGuard) Release(ctx context.Context, lease *domain.ConcurrencyLease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls++
	delete(m.held, lease.Slot)
	return nil
}

func (m *MockConcurrencyGuard) Capacity() int { return m.capacity }

func (m *MockConcurrencyGuard) Ping(ctx context.Context) error { return nil }

// HeldSlots returns how many slots are currently held. Test helper.
func (m *MockConcurrencyGuard) HeldSlots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}
