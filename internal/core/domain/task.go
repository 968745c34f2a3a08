package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the work a queued task requests.
type TaskType string

const (
	// TaskTypeSync runs the coordinator for one (source, entityType) pair.
	TaskTypeSync TaskType = "sync"
)

// SyncTask is one unit of work pulled from the task queue by a worker.
type SyncTask struct {
	ID         string      `json:"id"`
	Type       TaskType    `json:"type"`
	SourceID   string      `json:"source_id"`
	EntityType string      `json:"entity_type"`
	Options    SyncOptions `json:"options"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	Attempts   int         `json:"attempts"`
}

// NewSyncTask creates a sync task with a generated id.
func NewSyncTask(sourceID, entityType string, opts SyncOptions) *SyncTask {
	return &SyncTask{
		ID:         uuid.NewString(),
		Type:       TaskTypeSync,
		SourceID:   sourceID,
		EntityType: entityType,
		Options:    opts,
		EnqueuedAt: time.Now(),
	}
}
