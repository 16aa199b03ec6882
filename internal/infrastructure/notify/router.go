// Package notify delivers check results to the configured sinks: desktop
// notifications, Telegram, and an outbound webhook. All sinks share the
// tag-based replacement contract: one slot per tag, the latest body wins.
package notify

import (
	"context"
	"log/slog"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// Router fans one notification out to every registered sink and records the
// slot replacement. A failing sink is logged and skipped; delivery is
// best-effort and never fails the check.
type Router struct {
	sinks  []ports.Notifier
	slots  ports.SlotStore
	logger *slog.Logger
}

var _ ports.Notifier = (*Router)(nil)

// NewRouter builds a router over the given sinks. slots may be nil.
func NewRouter(slots ports.SlotStore, logger *slog.Logger, sinks ...ports.Notifier) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, slots: slots, logger: logger}
}

// Notify records the slot for n.Tag and delivers n to every sink.
func (r *Router) Notify(ctx context.Context, n domain.Notification) error {
	if r.slots != nil {
		replaced, err := r.slots.ReplaceSlot(ctx, n)
		if err != nil {
			r.logger.Warn("record notification slot", "tag", n.Tag, "error", err)
		} else if replaced {
			r.logger.Debug("notification slot replaced", "tag", n.Tag)
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			r.logger.Warn("notification sink failed", "tag", n.Tag, "error", err)
		}
	}
	return nil
}
