package domain

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Source is a registered external record system.
type Source struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"` // connector kind, e.g. "rest"
	BaseURL     string    `json:"base_url"`
	EntityTypes []string  `json:"entity_types"`
	Enabled     bool      `json:"enabled"`
	PageSize    int       `json:"page_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasEntityType reports whether the source exposes the given entity type.
func (s *Source) HasEntityType(entityType string) bool {
	for _, et := range s.EntityTypes {
		if et == entityType {
			return true
		}
	}
	return false
}

// SyncSchedule describes a recurring sync for one (source, entityType) pair.
type SyncSchedule struct {
	ID         string      `json:"id"`
	SourceID   string      `json:"source_id"`
	EntityType string      `json:"entity_type"`
	CronExpr   string      `json:"cron_expr"`
	Options    SyncOptions `json:"options"`
	Enabled    bool        `json:"enabled"`
	LastRunAt  *time.Time  `json:"last_run_at,omitempty"`
	LastError  string      `json:"last_error,omitempty"`
}

// IsDue reports whether the schedule should fire at now, based on the cron
// expression and the last enqueue time. Invalid expressions never fire.
func (s *SyncSchedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	sched, err := cron.ParseStandard(s.CronExpr)
	if err != nil {
		return false
	}
	last := now.Add(-24 * time.Hour)
	if s.LastRunAt != nil {
		last = *s.LastRunAt
	}
	next := sched.Next(last)
	return !next.After(now)
}
