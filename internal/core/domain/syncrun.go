package domain

import "time"

// RunStatus represents the lifecycle state of a sync run
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusPartial RunStatus = "partial"
)

// Terminal reports whether the status is a final state.
// A run that reached a terminal state is never mutated again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailed, RunStatusPartial:
		return true
	}
	return false
}

// RunCounts holds record-level counters for a sync run
type RunCounts struct {
	Fetched        int `json:"records_fetched"`
	Created        int `json:"records_created"`
	Updated        int `json:"records_updated"`
	Failed         int `json:"records_failed"`
	SkippedWindows int `json:"skipped_windows,omitempty"`
}

// Add accumulates counts from another counter set.
func (c *RunCounts) Add(other RunCounts) {
	c.Fetched += other.Fetched
	c.Created += other.Created
	c.Updated += other.Updated
	c.Failed += other.Failed
	c.SkippedWindows += other.SkippedWindows
}

// PerformanceMetrics is the structured performance blob attached to a
// finished run. MemoryRSSBytes is a point-in-time sample of the worker
// process taken at finalization.
type PerformanceMetrics struct {
	DurationSeconds  float64 `json:"duration_seconds"`
	RecordsPerSecond float64 `json:"records_per_second"`
	MemoryRSSBytes   uint64  `json:"memory_rss_bytes"`
}

// SyncRun records one sync invocation for a (source, entityType) pair.
// Runs are appended by the coordinator and never deleted; the history is
// the single source of truth for what was last synced successfully.
type SyncRun struct {
	ID           string              `json:"id"`
	Source       string              `json:"source"`
	EntityType   string              `json:"entity_type"`
	Status       RunStatus           `json:"status"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      *time.Time          `json:"end_time,omitempty"`
	Counts       RunCounts           `json:"counts"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Performance  *PerformanceMetrics `json:"performance,omitempty"`
}
