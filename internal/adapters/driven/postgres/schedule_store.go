package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ScheduleStore = (*ScheduleStore)(nil)

// ScheduleStore implements driven.ScheduleStore using PostgreSQL
type ScheduleStore struct {
	db *DB
}

// NewScheduleStore creates a new ScheduleStore
func NewScheduleStore(db *DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Save creates or updates a schedule
func (s *ScheduleStore) Save(ctx context.Context, schedule *domain.SyncSchedule) error {
	optionsJSON, err := json.Marshal(schedule.Options)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sync_schedules (id, source_id, entity_type, cron_expr, options, enabled, last_run_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			entity_type = EXCLUDED.entity_type,
			cron_expr = EXCLUDED.cron_expr,
			options = EXCLUDED.options,
			enabled = EXCLUDED.enabled
	`

	_, err = s.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.SourceID,
		schedule.EntityType,
		schedule.CronExpr,
		optionsJSON,
		schedule.Enabled,
		NullTime(schedule.LastRunAt),
		NullString(schedule.LastError),
	)
	return err
}

// Get retrieves a schedule by ID
func (s *ScheduleStore) Get(ctx context.Context, id string) (*domain.SyncSchedule, error) {
	query := scheduleSelect + ` WHERE id = $1`

	schedule, err := scanSchedule(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return schedule, err
}

// List retrieves all schedules
func (s *ScheduleStore) List(ctx context.Context) ([]*domain.SyncSchedule, error) {
	query := scheduleSelect + ` ORDER BY source_id, entity_type`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.SyncSchedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// MarkRun records the last enqueue time and error for a schedule
func (s *ScheduleStore) MarkRun(ctx context.Context, id string, lastError string) error {
	query := `
		UPDATE sync_schedules
		SET last_run_at = $2, last_error = $3
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, time.Now(), NullString(lastError))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a schedule
func (s *ScheduleStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_schedules WHERE id = $1`, id)
	return err
}

const scheduleSelect = `
	SELECT id, source_id, entity_type, cron_expr, options, enabled, last_run_at, last_error
	FROM sync_schedules`

func scanSchedule(row rowScanner) (*domain.SyncSchedule, error) {
	var schedule domain.SyncSchedule
	var lastRunAt sql.NullTime
	var lastError sql.NullString
	var optionsJSON []byte

	err := row.Scan(
		&schedule.ID,
		&schedule.SourceID,
		&schedule.EntityType,
		&schedule.CronExpr,
		&optionsJSON,
		&schedule.Enabled,
		&lastRunAt,
		&lastError,
	)
	if err != nil {
		return nil, err
	}

	schedule.LastRunAt = TimePtr(lastRunAt)
	schedule.LastError = lastError.String
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &schedule.Options); err != nil {
			return nil, err
		}
	}
	return &schedule, nil
}
