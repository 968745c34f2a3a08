package driven

import (
	"context"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// Page is one page of records returned by a connector.
type Page struct {
	// Records are already transformed to the intermediate shape.
	Records []*domain.ExternalRecord

	// NextPageToken is empty when no further pages exist.
	NextPageToken string
}

// SourceConnector fetches records from an external system.
// Connectors are created by ConnectorBuilder per source; they own the
// per-source field mapping and produce the fixed intermediate record shape,
// keeping the fetch and reconciliation pipeline source-agnostic.
type SourceConnector interface {
	// Kind returns the connector kind, e.g. "rest".
	Kind() string

	// FetchPage fetches one page of records modified at or after since.
	// A nil since means a full fetch with no time filtering. Pass an empty
	// pageToken for the first page. Implementations classify failures as
	// domain.TransientError (retryable by window subdivision) or
	// domain.PermanentError (aborts the run).
	FetchPage(ctx context.Context, entityType string, since *time.Time, pageToken string) (*Page, error)

	// Validate checks a single transformed record. A non-nil error is a
	// domain.ValidationError: the record is skipped and counted, the run
	// continues.
	Validate(record *domain.ExternalRecord) error

	// TestConnection verifies the source is reachable and credentials work.
	TestConnection(ctx context.Context) error
}

// ConnectorBuilder creates connector instances for a specific kind.
type ConnectorBuilder interface {
	// Kind returns the connector kind this builder creates.
	Kind() string

	// Build creates a connector bound to the given source.
	Build(ctx context.Context, source *domain.Source) (SourceConnector, error)
}

// ConnectorFactory manages connector builders and creates connectors.
type ConnectorFactory interface {
	// Register registers a builder for its kind.
	Register(builder ConnectorBuilder)

	// Create creates a connector for the given source.
	// Returns domain.ErrConnectorNotFound for unregistered kinds.
	Create(ctx context.Context, source *domain.Source) (SourceConnector, error)

	// SupportedKinds returns all registered connector kinds.
	SupportedKinds() []string
}
