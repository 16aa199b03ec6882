package portal

import (
	"context"
	"errors"
	"log/slog"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/snapshot"
)

// AutoProvider tries the cheap HTTP path first and escalates to the browser
// when the fetched HTML is insufficient: either the expected table is absent
// (server-side rendering not available) or it carries no rows.
type AutoProvider struct {
	direct    snapshot.Provider
	escalated snapshot.Provider
	logger    *slog.Logger
}

var _ snapshot.Provider = (*AutoProvider)(nil)

// NewAutoProvider wires the HTTP-first acquisition policy.
func NewAutoProvider(direct, escalated snapshot.Provider, logger *slog.Logger) *AutoProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoProvider{direct: direct, escalated: escalated, logger: logger}
}

// Name identifies the strategy inside the registry.
func (p *AutoProvider) Name() string {
	return "auto"
}

// Snapshot runs the direct provider and escalates on insufficiency.
func (p *AutoProvider) Snapshot(ctx context.Context, req snapshot.Request) (domain.PortalSnapshot, error) {
	snap, err := p.direct.Snapshot(ctx, req)

	if !p.shouldEscalate(snap, err) || p.escalated == nil {
		return snap, err
	}

	p.logger.Debug("direct snapshot insufficient, escalating to browser",
		"url", req.URL, "rows", len(snap.ArticleIDs), "error", err)
	return p.escalated.Snapshot(ctx, req)
}

func (p *AutoProvider) shouldEscalate(snap domain.PortalSnapshot, err error) bool {
	if errors.Is(err, domain.ErrMissingColumn) {
		return true
	}
	return err == nil && len(snap.ArticleIDs) == 0
}
