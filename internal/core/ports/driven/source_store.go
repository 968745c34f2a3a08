package driven

import (
	"context"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// SourceStore persists registered record sources.
type SourceStore interface {
	// Get retrieves a source by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Source, error)

	// List returns all registered sources.
	List(ctx context.Context) ([]*domain.Source, error)

	// Save creates or updates a source.
	Save(ctx context.Context, source *domain.Source) error

	// Delete removes a source registration.
	Delete(ctx context.Context, id string) error
}

// ScheduleStore persists recurring sync schedules.
type ScheduleStore interface {
	// Get retrieves a schedule by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.SyncSchedule, error)

	// List returns all schedules.
	List(ctx context.Context) ([]*domain.SyncSchedule, error)

	// Save creates or updates a schedule.
	Save(ctx context.Context, schedule *domain.SyncSchedule) error

	// MarkRun records the last enqueue time and error for a schedule.
	MarkRun(ctx context.Context, id string, lastError string) error

	// Delete removes a schedule.
	Delete(ctx context.Context, id string) error
}

// SchedulerLock serializes schedule polling across instances so a due
// schedule is enqueued once per cycle. Connection-scoped; TryLock returns
// false when another instance holds the lock.
type SchedulerLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}
