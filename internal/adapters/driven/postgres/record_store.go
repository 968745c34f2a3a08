package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore on the warehouse_records table.
// Bulk operations are single statements; the reconciliation writer falls
// back to Insert/Update when a bulk statement fails.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// ExistingIDs returns which of the given external ids are already stored
// for the (source, entityType) pair.
func (s *RecordStore) ExistingIDs(ctx context.Context, source, entityType string, externalIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(externalIDs))
	if len(externalIDs) == 0 {
		return existing, nil
	}

	query := `
		SELECT external_id
		FROM warehouse_records
		WHERE source = $1 AND entity_type = $2 AND external_id = ANY($3)
	`

	rows, err := s.db.QueryContext(ctx, query, source, entityType, pq.Array(externalIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// BulkInsert inserts all records in one multi-row statement.
func (s *RecordStore) BulkInsert(ctx context.Context, source string, records []*domain.ExternalRecord) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO warehouse_records (source, entity_type, external_id, modified_at, fields)
		VALUES `)

	args := make([]any, 0, len(records)*5)
	for i, rec := range records {
		fieldsJSON, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields for %s: %w", rec.ExternalID, err)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := len(args)
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, source, rec.EntityType, rec.ExternalID, rec.ModifiedAt, fieldsJSON)
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// BulkUpdate updates all records in one statement. Merge mode overlays the
// incoming fields on the stored jsonb; replace mode discards stored fields.
func (s *RecordStore) BulkUpdate(ctx context.Context, source string, records []*domain.ExternalRecord, replace bool) error {
	if len(records) == 0 {
		return nil
	}

	fieldsExpr := "w.fields || v.fields"
	if replace {
		fieldsExpr = "v.fields"
	}

	var values strings.Builder
	args := []any{source}
	for i, rec := range records {
		fieldsJSON, err := json.Marshal(rec.Fields)
		if err != nil {
			return fmt.Errorf("marshal fields for %s: %w", rec.ExternalID, err)
		}
		if i > 0 {
			values.WriteString(", ")
		}
		base := len(args)
		values.WriteString(fmt.Sprintf("($%d, $%d, $%d::timestamptz, $%d::jsonb)",
			base+1, base+2, base+3, base+4))
		args = append(args, rec.EntityType, rec.ExternalID, rec.ModifiedAt, fieldsJSON)
	}

	query := fmt.Sprintf(`
		UPDATE warehouse_records w
		SET fields = %s,
		    modified_at = v.modified_at,
		    synced_at = NOW()
		FROM (VALUES %s) AS v(entity_type, external_id, modified_at, fields)
		WHERE w.source = $1
		  AND w.entity_type = v.entity_type
		  AND w.external_id = v.external_id
	`, fieldsExpr, values.String())

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Insert writes a single record.
func (s *RecordStore) Insert(ctx context.Context, source string, record *domain.ExternalRecord) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO warehouse_records (source, entity_type, external_id, modified_at, fields)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.db.ExecContext(ctx, query,
		source, record.EntityType, record.ExternalID, record.ModifiedAt, fieldsJSON)
	return err
}

// Update writes a single existing record.
func (s *RecordStore) Update(ctx context.Context, source string, record *domain.ExternalRecord, replace bool) error {
	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}

	fieldsExpr := "fields || $5::jsonb"
	if replace {
		fieldsExpr = "$5::jsonb"
	}

	query := fmt.Sprintf(`
		UPDATE warehouse_records
		SET fields = %s, modified_at = $4, synced_at = NOW()
		WHERE source = $1 AND entity_type = $2 AND external_id = $3
	`, fieldsExpr)

	result, err := s.db.ExecContext(ctx, query,
		source, record.EntityType, record.ExternalID, record.ModifiedAt, fieldsJSON)
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

// Ping checks if the store is reachable
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
