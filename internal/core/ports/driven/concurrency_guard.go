package driven

import (
	"context"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// ConcurrencyGuard is a cluster-wide counting semaphore bounding how many
// sync runs execute simultaneously, independent of which (source,
// entityType) is requesting. Slots are held as TTL leases: a holder that
// stops heartbeating past the TTL loses its slot to the next contender.
type ConcurrencyGuard interface {
	// Acquire claims a free slot, blocking until one frees up or timeout
	// elapses. A timeout <= 0 fails immediately when no slot is free.
	// Returns domain.ErrAcquireTimeout when no slot could be claimed.
	Acquire(ctx context.Context, ttl, timeout time.Duration) (*domain.ConcurrencyLease, error)

	// Heartbeat refreshes the lease TTL. Returns domain.ErrLeaseNotHeld
	// when the slot has been reclaimed; the holder must stop assuming
	// exclusive capacity and finalize its run.
	Heartbeat(ctx context.Context, lease *domain.ConcurrencyLease) error

	// Release frees the slot. Idempotent and safe to call after
	// reclamation or expiry.
	Release(ctx context.Context, lease *domain.ConcurrencyLease) error

	// Capacity returns the fixed size of the slot pool.
	Capacity() int

	// Ping checks if the guard backend is healthy.
	Ping(ctx context.Context) error
}
