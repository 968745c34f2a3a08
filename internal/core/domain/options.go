package domain

import "time"

// SyncOptions configures a single sync run.
type SyncOptions struct {
	// Since forces the fetch window to start at this timestamp.
	// Takes priority over Full and ForceOverwrite.
	Since *time.Time `json:"since,omitempty"`

	// Full requests a full refetch from the beginning of time with
	// merge semantics on write.
	Full bool `json:"full,omitempty"`

	// ForceOverwrite requests a full refetch with replace semantics:
	// fields absent from incoming records are cleared on write.
	ForceOverwrite bool `json:"force_overwrite,omitempty"`

	// DryRun fetches but never writes to the store.
	DryRun bool `json:"dry_run,omitempty"`

	// MaxRecords stops the run after this many fetched records.
	// Zero means unlimited.
	MaxRecords int `json:"max_records,omitempty"`

	// BatchSize caps how many records a single fetch page may carry.
	BatchSize int `json:"batch_size,omitempty"`
}

// WriteMode returns the reconciliation mode implied by the options.
func (o SyncOptions) WriteMode() WriteMode {
	if o.ForceOverwrite {
		return WriteModeReplace
	}
	return WriteModeMerge
}
