package portal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/snapshot"
)

// BrowserProvider renders the portal page in headless Chrome before
// extraction. Needed when the portal builds its table with JavaScript.
type BrowserProvider struct {
	remoteURL string
	timeout   time.Duration
	logger    *slog.Logger
}

var _ snapshot.Provider = (*BrowserProvider)(nil)

// NewBrowserProvider builds a provider. remoteURL is the DevTools WebSocket
// URL of an external Chrome; empty launches a local headless instance per
// snapshot.
func NewBrowserProvider(remoteURL string, timeout time.Duration, logger *slog.Logger) *BrowserProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserProvider{remoteURL: remoteURL, timeout: timeout, logger: logger}
}

// Name identifies the strategy inside the registry.
func (p *BrowserProvider) Name() string {
	return "browser"
}

// Snapshot navigates to the portal page, waits for it to load, and extracts
// the table from the rendered HTML.
func (p *BrowserProvider) Snapshot(ctx context.Context, req snapshot.Request) (domain.PortalSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	controlURL := p.remoteURL
	var lnch *launcher.Launcher
	if controlURL == "" {
		lnch = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		launched, err := lnch.Context(ctx).Launch()
		if err != nil {
			return domain.PortalSnapshot{}, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = launched
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			p.logger.Warn("close browser", "error", err)
		}
		if lnch != nil {
			lnch.Cleanup()
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("open page: %w", err)
	}
	page = page.Context(ctx)

	if err := page.Navigate(req.URL); err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("navigate %s: %w", req.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("read rendered html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("parse rendered html: %w", err)
	}

	return extractSnapshot(doc, req)
}
