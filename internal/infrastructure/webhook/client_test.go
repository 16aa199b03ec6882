package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"UploadWatcher/internal/config"
	"UploadWatcher/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(config.WebhookConfig{URL: url, Token: "tkn"}, time.UTC)
}

func TestFetchWorkItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Errorf("missing bearer token, got %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"Article number": "A1", "Done by": "X", "Date": "24/08/2026", "Pages": 12, "Status": "sent"},
			{"Article number": 42, "Done by": "Y", "Date": "26/08/2026"},
			{"Done by": "Z", "Date": "26/08/2026"},
			{"Article number": "  ", "Done by": "Z"}
		]`))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).FetchWorkItems(context.Background())
	if err != nil {
		t.Fatalf("FetchWorkItems error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (blank article numbers skipped), got %d", len(items))
	}

	if items[0].ArticleID != "A1" || items[0].Assignee != "X" || items[0].Pages != 12 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	want := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	if !items[0].AssignedAt.Equal(want) {
		t.Fatalf("unexpected assigned date: %v", items[0].AssignedAt)
	}

	// Numeric article numbers are tolerated and read as strings.
	if items[1].ArticleID != "42" {
		t.Fatalf("unexpected second id: %s", items[1].ArticleID)
	}
}

func TestFetchWorkItemsMalformedPayload(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops": true`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchWorkItems(context.Background())
	if !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestFetchWorkItemsHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchWorkItems(context.Background())
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if errors.Is(err, domain.ErrParse) {
		t.Fatal("HTTP failure must not be reported as a parse error")
	}
}

func TestFetchWorkItemsBadDateIgnored(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"Article number": "A1", "Done by": "X", "Date": "2026-08-24"}]`))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).FetchWorkItems(context.Background())
	if err != nil {
		t.Fatalf("FetchWorkItems error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !items[0].AssignedAt.IsZero() {
		t.Fatalf("unparseable date must stay zero, got %v", items[0].AssignedAt)
	}
}
