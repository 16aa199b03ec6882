package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// WebhookSink POSTs notifications as JSON to an external receiver. The tag
// travels in the payload so the receiver can implement its own replacement.
// When a secret is configured, the body is signed with HMAC-SHA256 in the
// X-Signature-256 header.
type WebhookSink struct {
	url        string
	secret     string
	httpClient *http.Client
}

var _ ports.Notifier = (*WebhookSink)(nil)

// NewWebhookSink builds the outbound webhook sink.
func NewWebhookSink(url, secret string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify POSTs the notification payload.
func (s *WebhookSink) Notify(ctx context.Context, n domain.Notification) error {
	if s.url == "" {
		return fmt.Errorf("webhook sink misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"tag":    n.Tag,
		"title":  n.Title,
		"body":   n.Body,
		"sentAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set("X-Signature-256", sign(s.secret, body))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook sink error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
