package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// MockRecordStore is an in-memory RecordStore for testing. Error hooks let
// tests force bulk or per-record failures.
type MockRecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.ExternalRecord // key: source/entityType/externalID

	BulkInsertErr error
	BulkUpdateErr error
	LookupErr     error

	// InsertErrFor / UpdateErrFor fail individual records by external id.
	InsertErrFor map[string]error
	UpdateErrFor map[string]error

	BulkInsertCalls int
	BulkUpdateCalls int
	InsertCalls     int
	UpdateCalls     int
}

// NewMockRecordStore creates an empty in-memory record store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records:      make(map[string]*domain.ExternalRecord),
		InsertErrFor: make(map[string]error),
		UpdateErrFor: make(map[string]error),
	}
}

func recordKey(source, entityType, externalID string) string {
	return fmt.Sprintf("%s/%s/%s", source, entityType, externalID)
}

func (m *MockRecordStore) ExistingIDs(ctx context.Context, source, entityType string, externalIDs []string) (map[string]bool, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	existing := make(map[string]bool)
	for _, id := range externalIDs {
		if _, ok := m.records[recordKey(source, entityType, id)]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (m *MockRecordStore) BulkInsert(ctx context.Context, source string, records []*domain.ExternalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkInsertCalls++
	if m.BulkInsertErr != nil {
		return m.BulkInsertErr
	}
	for _, rec := range records {
		m.records[recordKey(source, rec.EntityType, rec.ExternalID)] = cloneRecord(rec)
	}
	return nil
}

func (m *MockRecordStore) BulkUpdate(ctx context.Context, source string, records []*domain.ExternalRecord, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BulkUpdateCalls++
	if m.BulkUpdateErr != nil {
		return m.BulkUpdateErr
	}
	for _, rec := range records {
		m.apply(source, rec, replace)
	}
	return nil
}

func (m *MockRecordStore) Insert(ctx context.Context, source string, record *domain.ExternalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if err := m.InsertErrFor[record.ExternalID]; err != nil {
		return err
	}
	m.records[recordKey(source, record.EntityType, record.ExternalID)] = cloneRecord(record)
	return nil
}

func (m *MockRecordStore) Update(ctx context.Context, source string, record *domain.ExternalRecord, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if err := m.UpdateErrFor[record.ExternalID]; err != nil {
		return err
	}
	m.apply(source, record, replace)
	return nil
}

func (m *MockRecordStore) Ping(ctx context.Context) error { return nil }

// Get returns a stored record, or nil. Test inspection helper.
func (m *MockRecordStore) Get(source, entityType, externalID string) *domain.ExternalRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[recordKey(source, entityType, externalID)]
}

// Len returns how many records the store holds. Test inspection helper.
func (m *MockRecordStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// apply mirrors merge/replace semantics: merge overlays incoming fields on
// stored ones, replace discards stored fields.
func (m *MockRecordStore) apply(source string, rec *domain.ExternalRecord, replace bool) {
	key := recordKey(source, rec.EntityType, rec.ExternalID)
	existing, ok := m.records[key]
	if !ok || replace {
		m.records[key] = cloneRecord(rec)
		return
	}
	merged := cloneRecord(existing)
	merged.ModifiedAt = rec.ModifiedAt
	for k, v := range rec.Fields {
		merged.Fields[k] = v
	}
	m.records[key] = merged
}

func cloneRecord(rec *domain.ExternalRecord) *domain.ExternalRecord {
	clone := *rec
	clone.Fields = make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		clone.Fields[k] = v
	}
	return &clone
}
