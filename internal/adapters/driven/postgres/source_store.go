package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore implements driven.SourceStore using PostgreSQL
type SourceStore struct {
	db *DB
}

// NewSourceStore creates a new SourceStore
func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

// Save creates or updates a source
func (s *SourceStore) Save(ctx context.Context, source *domain.Source) error {
	query := `
		INSERT INTO sources (id, name, kind, base_url, entity_types, enabled, page_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			base_url = EXCLUDED.base_url,
			entity_types = EXCLUDED.entity_types,
			enabled = EXCLUDED.enabled,
			page_size = EXCLUDED.page_size,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		source.ID,
		source.Name,
		source.Kind,
		source.BaseURL,
		pq.Array(source.EntityTypes),
		source.Enabled,
		source.PageSize,
		source.CreatedAt,
		source.UpdatedAt,
	)
	return err
}

// Get retrieves a source by ID
func (s *SourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	query := `
		SELECT id, name, kind, base_url, entity_types, enabled, page_size, created_at, updated_at
		FROM sources
		WHERE id = $1
	`

	var source domain.Source
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&source.ID,
		&source.Name,
		&source.Kind,
		&source.BaseURL,
		pq.Array(&source.EntityTypes),
		&source.Enabled,
		&source.PageSize,
		&source.CreatedAt,
		&source.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// List retrieves all sources
func (s *SourceStore) List(ctx context.Context) ([]*domain.Source, error) {
	query := `
		SELECT id, name, kind, base_url, entity_types, enabled, page_size, created_at, updated_at
		FROM sources
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		var source domain.Source
		err := rows.Scan(
			&source.ID,
			&source.Name,
			&source.Kind,
			&source.BaseURL,
			pq.Array(&source.EntityTypes),
			&source.Enabled,
			&source.PageSize,
			&source.CreatedAt,
			&source.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &source)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// Delete removes a source
func (s *SourceStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	return err
}
