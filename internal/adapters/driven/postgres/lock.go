package postgres

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SchedulerLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements SchedulerLock using PostgreSQL advisory locks.
//
// Advisory locks are session-scoped, so the lock pins a dedicated
// connection for as long as it is held. Losing the connection releases the
// lock, which is the behavior the scheduler wants: a crashed instance
// never wedges schedule polling.
type AdvisoryLock struct {
	db   *DB
	name string

	mu   sync.Mutex
	conn *sql.Conn // pinned while the lock is held
}

// NewAdvisoryLock creates an advisory lock with the given name.
func NewAdvisoryLock(db *DB, name string) *AdvisoryLock {
	return &AdvisoryLock{db: db, name: name}
}

// hashLockName converts the lock name to the 64-bit key PostgreSQL advisory
// locks use. FNV-1a gives consistent, well-distributed values.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("warehouse:lock:" + name))
	return int64(h.Sum64())
}

// TryLock attempts to acquire the lock without blocking. Returns false when
// another instance holds it.
func (l *AdvisoryLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		// Already held by this instance.
		return true, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(l.name)).Scan(&acquired)
	if err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Unlock releases the lock and returns its connection to the pool. Safe to
// call when the lock is not held.
func (l *AdvisoryLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}

	var released bool
	err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(l.name)).Scan(&released)
	closeErr := l.conn.Close()
	l.conn = nil

	if err != nil {
		return err
	}
	return closeErr
}
