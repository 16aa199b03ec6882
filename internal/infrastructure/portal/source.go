package portal

import (
	"context"
	"fmt"
	"log/slog"

	"UploadWatcher/internal/config"
	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
	"UploadWatcher/internal/snapshot"
)

// Source implements ports.PortalSource by resolving the configured
// acquisition strategy from the provider registry.
type Source struct {
	registry *snapshot.Registry
	cfg      config.PortalConfig
	logger   *slog.Logger
}

var _ ports.PortalSource = (*Source)(nil)

// NewSource wires the provider registry with the portal configuration.
func NewSource(reg *snapshot.Registry, cfg config.PortalConfig, log *slog.Logger) *Source {
	return &Source{
		registry: reg,
		cfg:      cfg,
		logger:   log,
	}
}

// Snapshot captures the portal work queue with the configured strategy.
func (s *Source) Snapshot(ctx context.Context) (domain.PortalSnapshot, error) {
	if s.registry == nil {
		return domain.PortalSnapshot{}, fmt.Errorf("snapshot registry is not configured")
	}
	if s.cfg.URL == "" {
		return domain.PortalSnapshot{}, fmt.Errorf("portal url is not configured")
	}

	strategy := s.cfg.Strategy
	if strategy == "" {
		strategy = "auto"
	}

	provider, err := s.registry.Resolve(strategy)
	if err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("portal strategy %s: %w", strategy, err)
	}

	req := snapshot.Request{
		URL:           s.cfg.URL,
		ArticleHeader: s.cfg.ArticleHeader,
		ActionHeader:  s.cfg.ActionHeader,
		QAPendingText: s.cfg.QAPendingText,
	}

	snap, err := provider.Snapshot(ctx, req)
	if err != nil {
		return domain.PortalSnapshot{}, fmt.Errorf("snapshot via %s: %w", strategy, err)
	}

	s.debug("portal snapshot captured", "strategy", strategy,
		"articles", len(snap.ArticleIDs), "qa_pending", len(snap.QAPendingIDs))
	return snap, nil
}

func (s *Source) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
