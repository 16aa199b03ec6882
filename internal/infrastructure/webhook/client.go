// Package webhook fetches the assignment list from the external JSON
// endpoint. The payload is a flat array of objects keyed by human-facing
// column names ("Article number", "Done by", "Date").
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"UploadWatcher/internal/config"
	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

const (
	fieldArticle  = "Article number"
	fieldAssignee = "Done by"
	fieldDate     = "Date"
	fieldPages    = "Pages"

	dateLayout  = "02/01/2006"
	maxBodySize = 10 * 1024 * 1024
)

// Client implements ports.WorkItemSource over the assignments webhook.
type Client struct {
	url    string
	token  string
	loc    *time.Location
	client *http.Client
}

var _ ports.WorkItemSource = (*Client)(nil)

// NewClient builds a client from configuration. Assignment dates are parsed
// in loc (nil means UTC).
func NewClient(cfg config.WebhookConfig, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		url:   cfg.URL,
		token: cfg.Token,
		loc:   loc,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// FetchWorkItems downloads and decodes the current assignment list.
// Items without an article number are skipped silently; a malformed
// top-level payload reports domain.ErrParse.
func (c *Client) FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	if c.url == "" {
		return nil, fmt.Errorf("webhook url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch work items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("webhook returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", domain.ErrParse)
	}

	items := make([]domain.WorkItem, 0, len(raw))
	for _, obj := range raw {
		id := strings.TrimSpace(asString(obj[fieldArticle]))
		if id == "" {
			continue
		}

		item := domain.WorkItem{
			ArticleID: id,
			Assignee:  strings.TrimSpace(asString(obj[fieldAssignee])),
			Pages:     asInt(obj[fieldPages]),
		}
		if assigned, ok := c.parseDate(asString(obj[fieldDate])); ok {
			item.AssignedAt = assigned
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Client) parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation(dateLayout, value, c.loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// asString reads a JSON value as a string whatever its wire type.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}
