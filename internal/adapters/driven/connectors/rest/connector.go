package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SourceConnector = (*Connector)(nil)

const (
	// KindREST is the connector kind handled by this package.
	KindREST = "rest"

	defaultPageSize = 100
)

// Config holds settings shared by all connectors this builder creates.
type Config struct {
	// IDField is the response field holding the record's external id.
	IDField string

	// ModifiedField is the response field holding the RFC 3339 last
	// modified timestamp.
	ModifiedField string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns the conventional field names.
func DefaultConfig() *Config {
	return &Config{
		IDField:       "id",
		ModifiedField: "modified_at",
		Timeout:       30 * time.Second,
	}
}

// Connector fetches records from a paginated JSON REST API. Entity types
// map to collection paths under the source's base URL; each collection
// supports modified_since, page_token, and page_size query parameters and
// responds with a results array plus an optional next_page_token.
type Connector struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
	config     *Config
}

// NewConnector creates a REST connector bound to one source.
func NewConnector(source *domain.Source, token string, config *Config) *Connector {
	if config == nil {
		config = DefaultConfig()
	}
	pageSize := source.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Connector{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    strings.TrimSuffix(source.BaseURL, "/"),
		token:      token,
		pageSize:   pageSize,
		config:     config,
	}
}

// Kind returns the connector kind.
func (c *Connector) Kind() string {
	return KindREST
}

// page is the wire shape of one collection response.
type page struct {
	Results       []map[string]any `json:"results"`
	NextPageToken string           `json:"next_page_token"`
}

// FetchPage fetches one page of an entity collection.
func (c *Connector) FetchPage(ctx context.Context, entityType string, since *time.Time, pageToken string) (*driven.Page, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if since != nil {
		query.Set("modified_since", since.UTC().Format(time.RFC3339))
	}
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(entityType), query.Encode())
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &domain.PermanentError{
			Op:  fmt.Sprintf("decode %s page", entityType),
			Err: err,
		}
	}

	records := make([]*domain.ExternalRecord, 0, len(p.Results))
	for _, fields := range p.Results {
		records = append(records, c.transform(entityType, fields))
	}

	return &driven.Page{
		Records:       records,
		NextPageToken: p.NextPageToken,
	}, nil
}

// transform maps one response object to the intermediate record shape. The
// id and modified fields are lifted out; everything else rides along in
// Fields and is validated later.
func (c *Connector) transform(entityType string, fields map[string]any) *domain.ExternalRecord {
	record := &domain.ExternalRecord{
		EntityType: entityType,
		Fields:     fields,
	}

	if id, ok := fields[c.config.IDField]; ok {
		switch v := id.(type) {
		case string:
			record.ExternalID = v
		case float64:
			record.ExternalID = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	if raw, ok := fields[c.config.ModifiedField].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			record.ModifiedAt = ts
		}
	}

	return record
}

// Validate checks the transformed record carries the fields the
// reconciliation pipeline keys on.
func (c *Connector) Validate(record *domain.ExternalRecord) error {
	if record.ExternalID == "" {
		return &domain.ValidationError{
			Reason: fmt.Sprintf("missing %s field", c.config.IDField),
		}
	}
	if record.ModifiedAt.IsZero() {
		return &domain.ValidationError{
			ExternalID: record.ExternalID,
			Reason:     fmt.Sprintf("missing or unparsable %s field", c.config.ModifiedField),
		}
	}
	return nil
}

// TestConnection verifies the source answers with our credentials.
func (c *Connector) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransientError{Op: "test connection", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.PermanentError{
			Op:  "test connection",
			Err: fmt.Errorf("authentication rejected with status %d", resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return &domain.TransientError{
			Op:  "test connection",
			Err: fmt.Errorf("source unavailable with status %d", resp.StatusCode),
		}
	}
	// Any other status means the host answered and accepted the
	// credentials; the root path itself need not exist.
	return nil
}

// get performs one GET and classifies failures. Transient failures are not
// retried here; the adaptive fetcher retries by subdividing the window.
func (c *Connector) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.TransientError{Op: "fetch " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransientError{Op: "read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Connector) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

// classifyStatus maps an HTTP error status to the domain error taxonomy.
// Rate limiting and server errors are worth retrying on a smaller window;
// client errors are not.
func classifyStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	err := fmt.Errorf("status %d: %s", status, detail)

	if status == http.StatusTooManyRequests || status >= 500 {
		return &domain.TransientError{Op: "fetch", Err: err}
	}
	return &domain.PermanentError{Op: "fetch", Err: err}
}
