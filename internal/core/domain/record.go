package domain

import "time"

// ExternalRecord is the fixed intermediate shape produced by connectors.
// Ownership is transient: a record belongs to the fetch/reconcile pipeline
// for the duration of one batch and is not retained after commit.
type ExternalRecord struct {
	ExternalID string         `json:"external_id"`
	EntityType string         `json:"entity_type"`
	ModifiedAt time.Time      `json:"modified_at"`
	Fields     map[string]any `json:"fields"`
}

// WriteMode controls how the reconciliation writer treats existing records.
type WriteMode string

const (
	// WriteModeMerge updates only the supplied fields on existing records.
	WriteModeMerge WriteMode = "merge"

	// WriteModeReplace clears fields not present in the incoming record.
	WriteModeReplace WriteMode = "replace"
)
