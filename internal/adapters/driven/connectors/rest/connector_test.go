package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

func testSource(baseURL string) *domain.Source {
	return &domain.Source{
		ID:       "crm",
		Name:     "CRM",
		Kind:     KindREST,
		BaseURL:  baseURL,
		PageSize: 2,
	}
}

func TestConnector_FetchPage(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		fmt.Fprint(w, `{
			"results": [
				{"id": "c-1", "modified_at": "2026-03-01T10:00:00Z", "name": "Ada"},
				{"id": 42, "modified_at": "2026-03-01T11:00:00Z", "name": "Grace"}
			],
			"next_page_token": "tok-2"
		}`)
	}))
	defer server.Close()

	connector := NewConnector(testSource(server.URL), "secret", nil)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	page, err := connector.FetchPage(context.Background(), "contacts", &since, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/contacts" {
		t.Errorf("path = %s, want /contacts", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if got := gotQuery["modified_since"]; len(got) != 1 || got[0] != "2026-03-01T00:00:00Z" {
		t.Errorf("modified_since = %v", got)
	}
	if got := gotQuery["page_size"]; len(got) != 1 || got[0] != "2" {
		t.Errorf("page_size = %v", got)
	}

	if page.NextPageToken != "tok-2" {
		t.Errorf("next page token = %q, want tok-2", page.NextPageToken)
	}
	if len(page.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(page.Records))
	}
	if page.Records[0].ExternalID != "c-1" {
		t.Errorf("record 0 id = %q", page.Records[0].ExternalID)
	}
	// Numeric ids are stringified.
	if page.Records[1].ExternalID != "42" {
		t.Errorf("record 1 id = %q", page.Records[1].ExternalID)
	}
	if page.Records[0].Fields["name"] != "Ada" {
		t.Errorf("record fields not carried: %+v", page.Records[0].Fields)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !page.Records[0].ModifiedAt.Equal(want) {
		t.Errorf("modified at = %v, want %v", page.Records[0].ModifiedAt, want)
	}
}

func TestConnector_FetchPagePassesPageToken(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("page_token")
		fmt.Fprint(w, `{"results": []}`)
	}))
	defer server.Close()

	connector := NewConnector(testSource(server.URL), "", nil)
	page, err := connector.FetchPage(context.Background(), "contacts", nil, "tok-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "tok-2" {
		t.Errorf("page_token = %q, want tok-2", gotToken)
	}
	if page.NextPageToken != "" {
		t.Errorf("expected final page, got token %q", page.NextPageToken)
	}
}

func TestConnector_ErrorClassification(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer server.Close()

			connector := NewConnector(testSource(server.URL), "", nil)
			_, err := connector.FetchPage(context.Background(), "contacts", nil, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.transient && !domain.IsTransient(err) {
				t.Errorf("status %d should be transient, got: %v", tc.status, err)
			}
			if !tc.transient && !domain.IsPermanent(err) {
				t.Errorf("status %d should be permanent, got: %v", tc.status, err)
			}
		})
	}
}

func TestConnector_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse subsequent connections

	connector := NewConnector(testSource(server.URL), "", nil)
	_, err := connector.FetchPage(context.Background(), "contacts", nil, "")
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got: %v", err)
	}
}

func TestConnector_Validate(t *testing.T) {
	connector := NewConnector(testSource("http://example.invalid"), "", nil)

	ok := &domain.ExternalRecord{ExternalID: "c-1", ModifiedAt: time.Now()}
	if err := connector.Validate(ok); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	noID := &domain.ExternalRecord{ModifiedAt: time.Now()}
	if err := connector.Validate(noID); !domain.IsValidation(err) {
		t.Errorf("expected validation error for missing id, got: %v", err)
	}

	noModified := &domain.ExternalRecord{ExternalID: "c-1"}
	if err := connector.Validate(noModified); !domain.IsValidation(err) {
		t.Errorf("expected validation error for missing timestamp, got: %v", err)
	}
}

func TestConnector_TestConnection(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound) // root path absent is fine
		}))
		defer server.Close()

		connector := NewConnector(testSource(server.URL), "", nil)
		if err := connector.TestConnection(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		connector := NewConnector(testSource(server.URL), "wrong", nil)
		if err := connector.TestConnection(context.Background()); !domain.IsPermanent(err) {
			t.Errorf("expected permanent error, got: %v", err)
		}
	})
}
