package ports

import (
	"context"
	"time"

	"UploadWatcher/internal/domain"
)

// WorkItemSource pulls the current assignment list from the webhook.
type WorkItemSource interface {
	FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error)
}

// PortalSource captures the portal work queue as an ID snapshot.
type PortalSource interface {
	Snapshot(ctx context.Context) (domain.PortalSnapshot, error)
}

// Notifier delivers one notification. Implementations honor tag-based
// replacement: a later notification with the same tag supersedes the
// earlier one instead of stacking.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// SettingsStore persists the runtime check-loop settings.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) error
}

// SlotStore tracks notification slots keyed by tag.
type SlotStore interface {
	// ReplaceSlot upserts the slot for n.Tag and reports whether an
	// earlier notification occupied it.
	ReplaceSlot(ctx context.Context, n domain.Notification) (bool, error)
}

// CheckLog records check runs for observability.
type CheckLog interface {
	RecordCheck(ctx context.Context, rec domain.CheckRecord) error
	RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error)
}

// Scheduler drives the periodic check job while armed.
type Scheduler interface {
	Start(ctx context.Context, every time.Duration, job func(time.Time)) error
	Stop(ctx context.Context) error
}
