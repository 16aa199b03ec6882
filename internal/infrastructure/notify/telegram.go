package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// TelegramNotifier sends notifications to a Telegram chat via bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier registers bot token and chat identifier.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts the notification as a Markdown message to Telegram.
func (t *TelegramNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if t.botToken == "" || t.chatID == "" || t.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	text := n.Title
	if n.Body != "" {
		text = fmt.Sprintf("*%s*\n\n%s", n.Title, n.Body)
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
