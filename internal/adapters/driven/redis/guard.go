package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ConcurrencyGuard = (*Guard)(nil)

const (
	slotPrefix = "warehouse:sync:slot:"

	// acquirePollInterval is how often Acquire retries while waiting for a
	// slot to free up.
	acquirePollInterval = 250 * time.Millisecond
)

// Guard implements ConcurrencyGuard as a set of Redis slot keys. Each slot
// is a SETNX key with a TTL; a lease is held by owning one slot key.
// Crashed holders are reclaimed by natural key expiry, so a worker that
// dies without releasing frees its slot after one TTL.
type Guard struct {
	client   *redis.Client
	capacity int
	ownerID  string
}

// NewGuard creates a Redis-backed concurrency guard with the given slot
// capacity. The owner ID uniquely identifies this process instance.
func NewGuard(client *redis.Client, capacity int) *Guard {
	if capacity <= 0 {
		capacity = 2
	}
	return &Guard{
		client:   client,
		capacity: capacity,
		ownerID:  generateOwnerID(),
	}
}

// generateOwnerID creates a unique identifier for this guard instance.
// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

func slotKey(slot int) string {
	return fmt.Sprintf("%s%d", slotPrefix, slot)
}

// Acquire claims a free slot with the given TTL. With timeout zero or
// negative a single pass is made over the slots; otherwise acquisition is
// retried until the timeout elapses. Returns domain.ErrAcquireTimeout when
// no slot frees up in time.
func (g *Guard) Acquire(ctx context.Context, ttl, timeout time.Duration) (*domain.ConcurrencyLease, error) {
	deadline := time.Now().Add(timeout)

	for {
		lease, err := g.tryAcquire(ctx, ttl)
		if err != nil {
			return nil, err
		}
		if lease != nil {
			return lease, nil
		}
		if timeout <= 0 || time.Now().After(deadline) {
			return nil, domain.ErrAcquireTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}
}

// tryAcquire makes one pass over the slots. Returns nil lease when all
// slots are taken.
func (g *Guard) tryAcquire(ctx context.Context, ttl time.Duration) (*domain.ConcurrencyLease, error) {
	for slot := 0; slot < g.capacity; slot++ {
		ok, err := g.client.SetNX(ctx, slotKey(slot), g.ownerID, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("claim slot %d: %w", slot, err)
		}
		if ok {
			now := time.Now()
			return &domain.ConcurrencyLease{
				Slot:            slot,
				OwnerID:         g.ownerID,
				AcquiredAt:      now,
				LastHeartbeatAt: now,
				TTL:             ttl,
			}, nil
		}
	}
	return nil, nil
}

// heartbeatScript extends the slot TTL only while this owner still holds
// it, so a reclaimed slot is never resurrected by a stale heartbeat.
var heartbeatScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Heartbeat renews the lease TTL. Returns domain.ErrLeaseNotHeld when the
// slot expired and may have been claimed by another worker.
func (g *Guard) Heartbeat(ctx context.Context, lease *domain.ConcurrencyLease) error {
	result, err := heartbeatScript.Run(ctx, g.client,
		[]string{slotKey(lease.Slot)}, lease.OwnerID, lease.TTL.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("heartbeat slot %d: %w", lease.Slot, err)
	}
	if result.(int64) == 0 {
		return domain.ErrLeaseNotHeld
	}
	lease.LastHeartbeatAt = time.Now()
	return nil
}

// releaseScript deletes the slot key only when held by this owner.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release frees the slot. Idempotent: releasing an expired or already
// released lease is not an error.
func (g *Guard) Release(ctx context.Context, lease *domain.ConcurrencyLease) error {
	_, err := releaseScript.Run(ctx, g.client,
		[]string{slotKey(lease.Slot)}, lease.OwnerID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot %d: %w", lease.Slot, err)
	}
	return nil
}

// Capacity returns the configured slot count.
func (g *Guard) Capacity() int {
	return g.capacity
}

// Ping checks if the Redis backend is healthy.
func (g *Guard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// OwnerID returns the unique identifier for this guard instance.
func (g *Guard) OwnerID() string {
	return g.ownerID
}
