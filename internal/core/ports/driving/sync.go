package driving

import (
	"context"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// SyncService is the HTTP-facing surface for triggering and inspecting syncs.
type SyncService interface {
	// Enqueue queues a sync for one (source, entityType) pair and returns
	// the queued task.
	Enqueue(ctx context.Context, sourceID, entityType string, opts domain.SyncOptions) (*domain.SyncTask, error)

	// ListRuns returns run history matching the filter, most recent first.
	ListRuns(ctx context.Context, filter driven.RunFilter) ([]*domain.SyncRun, error)
}

// AuthService validates dashboard API credentials.
type AuthService interface {
	// ExchangeAPIKey trades the configured admin API key for a service token.
	ExchangeAPIKey(ctx context.Context, apiKey string) (token string, err error)

	// ValidateToken verifies a bearer token and returns its subject.
	ValidateToken(ctx context.Context, token string) (subject string, err error)
}
