package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SyncHistoryStore = (*SyncHistoryStore)(nil)

// SyncHistoryStore implements driven.SyncHistoryStore using PostgreSQL
type SyncHistoryStore struct {
	db *DB
}

// NewSyncHistoryStore creates a new SyncHistoryStore
func NewSyncHistoryStore(db *DB) *SyncHistoryStore {
	return &SyncHistoryStore{db: db}
}

// Create persists a new sync run
func (s *SyncHistoryStore) Create(ctx context.Context, run *domain.SyncRun) error {
	countsJSON, err := json.Marshal(run.Counts)
	if err != nil {
		return err
	}

	var perfJSON []byte
	if run.Performance != nil {
		perfJSON, err = json.Marshal(run.Performance)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO sync_runs (id, source, entity_type, status, start_time, end_time, counts, error_message, performance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.Source,
		run.EntityType,
		string(run.Status),
		run.StartTime,
		NullTime(run.EndTime),
		countsJSON,
		NullString(run.ErrorMessage),
		perfJSON,
	)
	return err
}

// Update applies a partial update to a run. Nil patch fields leave the
// stored column untouched.
func (s *SyncHistoryStore) Update(ctx context.Context, id string, patch driven.RunPatch) error {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.Counts != nil {
		countsJSON, err := json.Marshal(patch.Counts)
		if err != nil {
			return err
		}
		add("counts", countsJSON)
	}
	if patch.ErrorMessage != nil {
		add("error_message", NullString(*patch.ErrorMessage))
	}
	if patch.Performance != nil {
		perfJSON, err := json.Marshal(patch.Performance)
		if err != nil {
			return err
		}
		add("performance", perfJSON)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE sync_runs SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
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

// FindLastSuccess returns the most recent successful run for the pair
func (s *SyncHistoryStore) FindLastSuccess(ctx context.Context, source, entityType string) (*domain.SyncRun, error) {
	query := `
		SELECT id, source, entity_type, status, start_time, end_time, counts, error_message, performance
		FROM sync_runs
		WHERE source = $1 AND entity_type = $2 AND status = $3
		ORDER BY start_time DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, source, entityType, string(domain.RunStatusSuccess))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

// List returns runs matching the filter, most recent first
func (s *SyncHistoryStore) List(ctx context.Context, filter driven.RunFilter) ([]*domain.SyncRun, error) {
	var conds []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}

	if filter.Source != "" {
		add("source = $%d", filter.Source)
	}
	if filter.EntityType != "" {
		add("entity_type = $%d", filter.EntityType)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Since != nil {
		add("start_time >= $%d", *filter.Since)
	}

	query := `
		SELECT id, source, entity_type, status, start_time, end_time, counts, error_message, performance
		FROM sync_runs
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_time DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Ping checks if the store is reachable
func (s *SyncHistoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var endTime sql.NullTime
	var errorMessage sql.NullString
	var countsJSON, perfJSON []byte

	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.EntityType,
		&run.Status,
		&run.StartTime,
		&endTime,
		&countsJSON,
		&errorMessage,
		&perfJSON,
	)
	if err != nil {
		return nil, err
	}

	run.EndTime = TimePtr(endTime)
	run.ErrorMessage = errorMessage.String
	if len(countsJSON) > 0 {
		if err := json.Unmarshal(countsJSON, &run.Counts); err != nil {
			return nil, err
		}
	}
	if len(perfJSON) > 0 {
		run.Performance = &domain.PerformanceMetrics{}
		if err := json.Unmarshal(perfJSON, run.Performance); err != nil {
			return nil, err
		}
	}
	return &run, nil
}
