package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// MockConnector is a scriptable SourceConnector for testing.
// FetchFunc, when set, fully controls page responses; otherwise pages are
// served from Records with PageSize records per page.
type MockConnector struct {
	mu sync.Mutex

	KindValue     string
	Records       []*domain.ExternalRecord
	PageSize      int
	FetchFunc     func(ctx context.Context, entityType string, since *time.Time, pageToken string) (*driven.Page, error)
	ValidateFunc  func(record *domain.ExternalRecord) error
	ConnectionErr error

	FetchCalls int
}

// NewMockConnector creates a mock connector serving the given records.
func NewMockConnector(records ...*domain.ExternalRecord) *MockConnector {
	return &MockConnector{
		KindValue: "mock",
		Records:   records,
		PageSize:  100,
	}
}

func (m *MockConnector) Kind() string {
	if m.KindValue == "" {
		return "mock"
	}
	return m.KindValue
}

func (m *MockConnector) FetchPage(ctx context.Context, entityType string, since *time.Time, pageToken string) (*driven.Page, error) {
	m.mu.Lock()
	m.FetchCalls++
	fetchFunc := m.FetchFunc
	m.mu.Unlock()

	if fetchFunc != nil {
		return fetchFunc(ctx, entityType, since, pageToken)
	}

	// Serve records matching the since filter, paged.
	var matched []*domain.ExternalRecord
	for _, rec := range m.Records {
		if since == nil || !rec.ModifiedAt.Before(*since) {
			matched = append(matched, rec)
		}
	}

	offset := 0
	if pageToken != "" {
		for i, rec := range matched {
			if rec.ExternalID == pageToken {
				offset = i + 1
				break
			}
		}
	}

	end := offset + m.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	page := &driven.Page{Records: matched[offset:end]}
	if end < len(matched) && end > offset {
		page.NextPageToken = matched[end-1].ExternalID
	}
	return page, nil
}

func (m *MockConnector) Validate(record *domain.ExternalRecord) error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(record)
	}
	if record.ExternalID == "" {
		return &domain.ValidationError{Reason: "missing external id"}
	}
	return nil
}

func (m *MockConnector) TestConnection(ctx context.Context) error {
	return m.ConnectionErr
}

// MockConnectorFactory returns a fixed connector for every source.
type MockConnectorFactory struct {
	Connector driven.SourceConnector
	CreateErr error
}

// NewMockConnectorFactory creates a factory serving the given connector.
func NewMockConnectorFactory(connector driven.SourceConnector) *MockConnectorFactory {
	return &MockConnectorFactory{Connector: connector}
}

func (f *MockConnectorFactory) Register(builder driven.ConnectorBuilder) {}

func (f *MockConnectorFactory) Create(ctx context.Context, source *domain.Source) (driven.SourceConnector, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.Connector == nil {
		return nil, domain.ErrConnectorNotFound
	}
	return f.Connector, nil
}

func (f *MockConnectorFactory) SupportedKinds() []string {
	return []string{"mock"}
}
