package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"UploadWatcher/internal/domain"
)

type recordingSink struct {
	got []domain.Notification
	err error
}

func (r *recordingSink) Notify(ctx context.Context, n domain.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

type fakeSlots struct {
	tags map[string]int
}

func (f *fakeSlots) ReplaceSlot(ctx context.Context, n domain.Notification) (bool, error) {
	if f.tags == nil {
		f.tags = map[string]int{}
	}
	f.tags[n.Tag]++
	return f.tags[n.Tag] > 1, nil
}

func TestRouterFansOutAndTracksSlots(t *testing.T) {
	t.Parallel()

	slots := &fakeSlots{}
	healthy := &recordingSink{}
	broken := &recordingSink{err: errors.New("sink down")}

	router := NewRouter(slots, nil, broken, healthy)
	n := domain.Notification{Tag: "unuploaded/X", Title: "Unuploaded files", Body: "A1"}

	if err := router.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify must be best-effort, got %v", err)
	}
	if err := router.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(healthy.got) != 2 {
		t.Fatalf("healthy sink expected 2 deliveries, got %d", len(healthy.got))
	}
	if len(broken.got) != 2 {
		t.Fatalf("broken sink must still be attempted, got %d", len(broken.got))
	}
	if slots.tags["unuploaded/X"] != 2 {
		t.Fatalf("slot not tracked: %v", slots.tags)
	}
}

func TestWebhookSinkSignsPayload(t *testing.T) {
	t.Parallel()

	const secret = "hmac-key"
	var (
		gotBody []byte
		gotSig  string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, secret)
	n := domain.Notification{Tag: "unuploaded/X", Title: "Unuploaded files", Body: "A1 (1 days)"}

	if err := sink.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["tag"] != "unuploaded/X" || payload["body"] != "A1 (1 days)" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	if want := hex.EncodeToString(mac.Sum(nil)); gotSig != want {
		t.Fatalf("signature mismatch: got %s want %s", gotSig, want)
	}
}

func TestWebhookSinkReportsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	sink := NewWebhookSink(server.URL, "")
	err := sink.Notify(context.Background(), domain.Notification{Tag: "t"})
	if err == nil {
		t.Fatal("expected error on 422")
	}
}
