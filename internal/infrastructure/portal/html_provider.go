package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/snapshot"
)

// HTMLProvider captures the portal queue with a plain HTTP GET. It is enough
// for portals that render the table server-side.
type HTMLProvider struct {
	client *http.Client
}

var _ snapshot.Provider = (*HTMLProvider)(nil)

// NewHTMLProvider wires an HTTP client; a nil client gets a 20s timeout default.
func NewHTMLProvider(client *http.Client) *HTMLProvider {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLProvider{client: client}
}

// Name identifies the strategy inside the registry.
func (p *HTMLProvider) Name() string {
	return "html"
}

// Snapshot fetches the portal page and extracts the article/action columns.
func (p *HTMLProvider) Snapshot(ctx context.Context, req snapshot.Request) (domain.PortalSnapshot, error) {
	doc, err := p.fetchDocument(ctx, req.URL)
	if err != nil {
		return domain.PortalSnapshot{}, err
	}
	return extractSnapshot(doc, req)
}

func (p *HTMLProvider) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "UploadWatcher/1.0")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request portal page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse portal page: %w", err)
	}

	return doc, nil
}

// extractSnapshot locates the table carrying the configured headers and reads
// the article ID and action text of every data row. Rows without an article
// ID are skipped silently.
func extractSnapshot(doc *goquery.Document, req snapshot.Request) (domain.PortalSnapshot, error) {
	snap := domain.PortalSnapshot{
		ArticleIDs:   map[string]struct{}{},
		QAPendingIDs: map[string]struct{}{},
		CapturedAt:   time.Now().UTC(),
	}

	var (
		found      bool
		articleIdx int
		actionIdx  int
	)

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		header := table.Find("tr").First()
		articleIdx = headerIndex(header, req.ArticleHeader)
		actionIdx = headerIndex(header, req.ActionHeader)
		if articleIdx < 0 {
			return true
		}
		found = true

		table.Find("tr").Each(func(j int, row *goquery.Selection) {
			// Row 0 is the header; with td-based headers it would
			// otherwise be read as data.
			if j == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() <= articleIdx {
				return
			}

			id := strings.TrimSpace(cells.Eq(articleIdx).Text())
			if id == "" {
				return
			}
			snap.ArticleIDs[id] = struct{}{}

			if actionIdx >= 0 && cells.Length() > actionIdx {
				action := cells.Eq(actionIdx).Text()
				if containsFold(action, req.QAPendingText) {
					snap.QAPendingIDs[id] = struct{}{}
				}
			}
		})
		return false
	})

	if !found {
		return domain.PortalSnapshot{}, fmt.Errorf("header %q: %w", req.ArticleHeader, domain.ErrMissingColumn)
	}
	if actionIdx < 0 {
		return domain.PortalSnapshot{}, fmt.Errorf("header %q: %w", req.ActionHeader, domain.ErrMissingColumn)
	}

	return snap, nil
}

// headerIndex returns the position of the first header cell matching name,
// case-insensitively, or -1. Both th and td header rows are accepted.
func headerIndex(headerRow *goquery.Selection, name string) int {
	idx := -1
	cells := headerRow.Find("th")
	if cells.Length() == 0 {
		cells = headerRow.Find("td")
	}
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if containsFold(cell.Text(), name) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
