package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestGuard_AcquireAndRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	guard := NewGuard(client, 2)
	ctx := context.Background()

	lease, err := guard.Acquire(ctx, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lease.Slot != 0 {
		t.Errorf("slot = %d, want 0", lease.Slot)
	}
	if lease.OwnerID != guard.OwnerID() {
		t.Errorf("owner = %s, want %s", lease.OwnerID, guard.OwnerID())
	}

	if err := guard.Release(ctx, lease); err != nil {
		t.Fatalf("release: %v", err)
	}

	// The slot is reusable after release.
	again, err := guard.Acquire(ctx, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if again.Slot != 0 {
		t.Errorf("slot = %d, want 0 after release", again.Slot)
	}
}

func TestGuard_CapacityBound(t *testing.T) {
	client, _ := setupTestRedis(t)
	guard := NewGuard(client, 2)
	ctx := context.Background()

	first, err := guard.Acquire(ctx, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	second, err := guard.Acquire(ctx, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if first.Slot == second.Slot {
		t.Errorf("both leases got slot %d", first.Slot)
	}

	if _, err := guard.Acquire(ctx, 10*time.Second, 0); !errors.Is(err, domain.ErrAcquireTimeout) {
		t.Fatalf("expected acquire timeout with all slots held, got: %v", err)
	}
}

func TestGuard_AcquireWaitsForFreeSlot(t *testing.T) {
	client, _ := setupTestRedis(t)
	guard := NewGuard(client, 1)
	ctx := context.Background()

	lease, err := guard.Acquire(ctx, 10*time.Second, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	released := make(chan struct{})
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = guard.Release(ctx, lease)
		close(released)
	}()

	waited, err := guard.Acquire(ctx, 10*time.Second, 2*time.Second)
	if err != nil {
		t.Fatalf("acquire with timeout: %v", err)
	}
	<-released
	if waited.Slot != 0 {
		t.Errorf("slot = %d, want 0", waited.Slot)
	}
}

func TestGuard_ExpiredSlotIsReclaimed(t *testing.T) {
	client, mr := setupTestRedis(t)
	guard := NewGuard(client, 1)
	ctx := context.Background()

	if _, err := guard.Acquire(ctx, 5*time.Second, 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := guard.Acquire(ctx, 5*time.Second, 0); !errors.Is(err, domain.ErrAcquireTimeout) {
		t.Fatalf("expected slot to be held, got: %v", err)
	}

	// A crashed holder never releases; the key expiring frees the slot.
	mr.FastForward(6 * time.Second)

	if _, err := guard.Acquire(ctx, 5*time.Second, 0); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
}

func TestGuard_HeartbeatExtendsTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	guard := NewGuard(client, 1)
	ctx := context.Background()

	lease, err := guard.Acquire(ctx, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	mr.FastForward(4 * time.Second)
	if err := guard.Heartbeat(ctx, lease); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	// Without the heartbeat the lease would have expired by now.
	mr.FastForward(4 * time.Second)
	if _, err := guard.Acquire(ctx, 5*time.Second, 0); !errors.Is(err, domain.ErrAcquireTimeout) {
		t.Fatalf("expected slot still held after heartbeat, got: %v", err)
	}
}

func TestGuard_HeartbeatAfterExpiryReportsLeaseLost(t *testing.T) {
	client, mr := setupTestRedis(t)
	guard := NewGuard(client, 1)
	ctx := context.Background()

	lease, err := guard.Acquire(ctx, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	mr.FastForward(6 * time.Second)

	if err := guard.Heartbeat(ctx, lease); !errors.Is(err, domain.ErrLeaseNotHeld) {
		t.Fatalf("expected lease not held, got: %v", err)
	}
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	client, _ := setupTestRedis(t)
	guard := NewGuard(client, 1)
	ctx := context.Background()

	lease, err := guard.Acquire(ctx, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := guard.Release(ctx, lease); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := guard.Release(ctx, lease); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestGuard_ReleaseDoesNotStealReclaimedSlot(t *testing.T) {
	client, mr := setupTestRedis(t)
	first := NewGuard(client, 1)
	second := NewGuard(client, 1)
	ctx := context.Background()

	stale, err := first.Acquire(ctx, 5*time.Second, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// The first holder's lease expires and the slot is reclaimed.
	mr.FastForward(6 * time.Second)
	if _, err := second.Acquire(ctx, 5*time.Second, 0); err != nil {
		t.Fatalf("reclaim: %v", err)
	}

	// Releasing the stale lease must not free the new holder's slot.
	if err := first.Release(ctx, stale); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if _, err := first.Acquire(ctx, 5*time.Second, 0); !errors.Is(err, domain.ErrAcquireTimeout) {
		t.Fatalf("expected slot still held by second guard, got: %v", err)
	}
}

func TestGuard_OwnerIDUnique(t *testing.T) {
	client, _ := setupTestRedis(t)

	if NewGuard(client, 1).OwnerID() == NewGuard(client, 1).OwnerID() {
		t.Error("expected unique owner IDs")
	}
}
