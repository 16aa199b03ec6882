package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/usecase"
)

type staticItems struct{}

func (staticItems) FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	return []domain.WorkItem{{ArticleID: "A1", Assignee: "X"}}, nil
}

type staticPortal struct{}

func (staticPortal) Snapshot(ctx context.Context) (domain.PortalSnapshot, error) {
	return domain.PortalSnapshot{
		ArticleIDs:   map[string]struct{}{"A1": {}},
		QAPendingIDs: map[string]struct{}{},
	}, nil
}

type recordingScheduler struct {
	mu  sync.Mutex
	ctx context.Context
}

func (s *recordingScheduler) Start(ctx context.Context, every time.Duration, job func(time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return nil
}

func (s *recordingScheduler) Stop(ctx context.Context) error { return nil }

func (s *recordingScheduler) startedWith() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

type memorySettings struct {
	mu       sync.Mutex
	settings domain.Settings
	saved    bool
}

func (m *memorySettings) LoadSettings(ctx context.Context) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return domain.Settings{Assignee: domain.AllAssignees}.Clamp(), nil
	}
	return m.settings, nil
}

func (m *memorySettings) SaveSettings(ctx context.Context, s domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	m.saved = true
	return nil
}

func newTestServer(t *testing.T) (*Server, *usecase.Controller, *recordingScheduler) {
	t.Helper()

	runner := usecase.NewCheckRunner(usecase.CheckDeps{
		Items:  staticItems{},
		Portal: staticPortal{},
	})
	driver := &recordingScheduler{}
	controller := usecase.NewController(runner, &memorySettings{}, driver, nil)
	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("controller start: %v", err)
	}
	return NewServer(controller, runner, nil, nil), controller, driver
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %s", resp.Status)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State != "idle" {
		t.Fatalf("expected idle state, got %s", body.State)
	}
	if body.Settings.IntervalHours != domain.DefaultIntervalHours {
		t.Fatalf("unexpected settings: %+v", body.Settings)
	}
}

func TestPutSettingsArmsLoop(t *testing.T) {
	t.Parallel()

	server, controller, driver := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	payload := `{"assignee":"X","enabled":true,"intervalHours":99}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put settings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %s", resp.Status)
	}

	var applied domain.Settings
	if err := json.NewDecoder(resp.Body).Decode(&applied); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if applied.IntervalHours != domain.MaxIntervalHours {
		t.Fatalf("interval not clamped in response: %d", applied.IntervalHours)
	}

	state, _ := controller.Status()
	if state != usecase.StateArmed {
		t.Fatalf("expected armed, got %s", state)
	}

	// The request context dies with the response; the armed loop must not.
	armedCtx := driver.startedWith()
	if armedCtx == nil {
		t.Fatal("driver never started")
	}
	if err := armedCtx.Err(); err != nil {
		t.Fatalf("armed loop bound to the request context: %v", err)
	}
}

func TestPutSettingsRejectsBadPayload(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put settings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %s", resp.Status)
	}
}

func TestTriggerCheckEndpoint(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/check", "application/json", nil)
	if err != nil {
		t.Fatalf("post check: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %s", resp.Status)
	}

	var record domain.CheckRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.Status != domain.CheckOK {
		t.Fatalf("unexpected record status: %s", record.Status)
	}
	if record.NotUploaded != 1 {
		t.Fatalf("expected 1 not-uploaded article, got %d", record.NotUploaded)
	}
}
