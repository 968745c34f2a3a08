package driven

import (
	"context"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// RunFilter narrows a history listing. Zero values match everything.
type RunFilter struct {
	Source     string
	EntityType string
	Status     domain.RunStatus
	Since      *time.Time // runs that started at or after this time
	Limit      int
}

// RunPatch is a partial update applied to an existing run. Nil fields are
// left untouched.
type RunPatch struct {
	Status       *domain.RunStatus
	EndTime      *time.Time
	Counts       *domain.RunCounts
	ErrorMessage *string
	Performance  *domain.PerformanceMetrics
}

// SyncHistoryStore persists one record per sync run. Append-only from the
// coordinator's perspective: once a run reaches a terminal status it is
// never mutated again, and runs are never deleted.
type SyncHistoryStore interface {
	// Create persists a new run.
	Create(ctx context.Context, run *domain.SyncRun) error

	// Update applies a partial update to a run by id.
	Update(ctx context.Context, id string, patch RunPatch) error

	// FindLastSuccess returns the most recent successful run for the
	// (source, entityType) pair, or domain.ErrNotFound.
	FindLastSuccess(ctx context.Context, source, entityType string) (*domain.SyncRun, error)

	// List returns runs matching the filter, most recent first.
	List(ctx context.Context, filter RunFilter) ([]*domain.SyncRun, error)

	// Ping checks store health.
	Ping(ctx context.Context) error
}
