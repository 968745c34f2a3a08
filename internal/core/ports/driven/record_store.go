package driven

import (
	"context"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// RecordStore is the warehouse table the reconciliation writer targets.
// Records are keyed by (source, entityType, externalID); all writes are
// idempotent upserts against that key.
type RecordStore interface {
	// ExistingIDs returns which of the given external ids already exist
	// for the (source, entityType) pair, in a single read.
	ExistingIDs(ctx context.Context, source, entityType string, externalIDs []string) (map[string]bool, error)

	// BulkInsert inserts all records in one statement. A failure applies
	// to the whole sub-batch; callers fall back to per-record writes.
	BulkInsert(ctx context.Context, source string, records []*domain.ExternalRecord) error

	// BulkUpdate updates all records in one statement. With replace set,
	// stored fields absent from the incoming record are cleared; otherwise
	// incoming fields are merged over the stored ones.
	BulkUpdate(ctx context.Context, source string, records []*domain.ExternalRecord, replace bool) error

	// Insert writes a single record.
	Insert(ctx context.Context, source string, record *domain.ExternalRecord) error

	// Update writes a single existing record.
	Update(ctx context.Context, source string, record *domain.ExternalRecord, replace bool) error

	// Ping checks store health.
	Ping(ctx context.Context) error
}
