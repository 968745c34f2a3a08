package driven

import (
	"context"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// TaskQueue distributes sync tasks across the worker fleet.
type TaskQueue interface {
	// Enqueue adds a task for processing.
	Enqueue(ctx context.Context, task *domain.SyncTask) error

	// DequeueWithTimeout pops the next task, waiting up to timeoutSeconds.
	// Returns nil when no task became available.
	DequeueWithTimeout(ctx context.Context, timeoutSeconds int) (*domain.SyncTask, error)

	// Ack marks a task as successfully processed.
	Ack(ctx context.Context, taskID string) error

	// Nack returns a task to the queue for retry, recording the reason.
	Nack(ctx context.Context, taskID string, reason string) error

	// Ping checks queue health.
	Ping(ctx context.Context) error
}
