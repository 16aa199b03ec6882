package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"UploadWatcher/internal/classify"
	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// CheckDeps wires all driven adapters into the check workflow.
type CheckDeps struct {
	Items    ports.WorkItemSource
	Portal   ports.PortalSource
	Notifier ports.Notifier
	Log      ports.CheckLog
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

// CheckResult is the outcome of one check run.
type CheckResult struct {
	Record          domain.CheckRecord
	Classifications []domain.Classification
}

// Stats are point-in-time check counters.
type Stats struct {
	Checks        int64 `json:"checks"`
	Failures      int64 `json:"failures"`
	Notifications int64 `json:"notifications"`
}

// CheckRunner executes the reconciliation check: joint fetch of webhook and
// portal state, per-assignee classification, and notification dispatch.
// Concurrent triggers share one outstanding run instead of issuing duplicate
// fetches.
type CheckRunner struct {
	items    ports.WorkItemSource
	portal   ports.PortalSource
	notifier ports.Notifier
	log      ports.CheckLog
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time

	group singleflight.Group

	checks        atomic.Int64
	failures      atomic.Int64
	notifications atomic.Int64
}

// NewCheckRunner constructs the check workflow component.
func NewCheckRunner(deps CheckDeps) *CheckRunner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CheckRunner{
		items:    deps.Items,
		portal:   deps.Portal,
		notifier: deps.Notifier,
		log:      deps.Log,
		logger:   logger,
		loc:      loc,
		now:      now,
	}
}

// Stats returns the current counters.
func (r *CheckRunner) Stats() Stats {
	return Stats{
		Checks:        r.checks.Load(),
		Failures:      r.failures.Load(),
		Notifications: r.notifications.Load(),
	}
}

// RunCheck performs one check for the given settings. A caller arriving
// while a run for the same profile is in flight awaits that run's result
// rather than starting a second fetch pair.
func (r *CheckRunner) RunCheck(ctx context.Context, settings domain.Settings) (CheckResult, error) {
	v, err, _ := r.group.Do("check/"+settings.Assignee, func() (interface{}, error) {
		return r.runOnce(ctx, settings)
	})

	result, _ := v.(CheckResult)
	return result, err
}

func (r *CheckRunner) runOnce(ctx context.Context, settings domain.Settings) (CheckResult, error) {
	r.checks.Add(1)
	start := r.now()
	rec := domain.CheckRecord{
		ID:        uuid.NewString(),
		StartedAt: start,
	}

	var (
		items         []domain.WorkItem
		snap          domain.PortalSnapshot
		missingColumn bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetched, err := r.items.FetchWorkItems(gctx)
		if errors.Is(err, domain.ErrParse) {
			r.logger.Warn("webhook payload malformed, treating as empty", "error", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch work items: %w", err)
		}
		items = fetched
		return nil
	})
	g.Go(func() error {
		captured, err := r.portal.Snapshot(gctx)
		if errors.Is(err, domain.ErrMissingColumn) {
			r.logger.Warn("portal table layout changed, skipping this check", "error", err)
			missingColumn = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("portal snapshot: %w", err)
		}
		snap = captured
		return nil
	})

	if err := g.Wait(); err != nil {
		r.failures.Add(1)
		rec.Status = domain.CheckFailed
		rec.Error = err.Error()
		rec.Duration = r.now().Sub(start)
		r.record(ctx, rec)
		return CheckResult{Record: rec}, err
	}

	rec.WebhookItems = len(items)
	rec.PortalRows = len(snap.ArticleIDs)

	if missingColumn {
		rec.Status = domain.CheckSkipped
		rec.Duration = r.now().Sub(start)
		r.record(ctx, rec)
		return CheckResult{Record: rec}, nil
	}

	var classifications []domain.Classification
	if settings.Assignee == "" || settings.Assignee == domain.AllAssignees {
		classifications = classify.All(items, snap)
	} else {
		classifications = []domain.Classification{
			classify.Assignee(settings.Assignee, items, snap),
		}
	}

	for _, cls := range classifications {
		rec.NotUploaded += len(cls.NotUploaded)
		if len(cls.NotUploaded) == 0 || r.notifier == nil {
			continue
		}

		n := r.buildNotification(cls, items, start)
		if err := r.notifier.Notify(ctx, n); err != nil {
			r.logger.Warn("notify", "assignee", cls.Assignee, "error", err)
			continue
		}
		rec.Notifications++
		r.notifications.Add(1)
	}

	rec.Status = domain.CheckOK
	rec.Duration = r.now().Sub(start)
	r.record(ctx, rec)

	r.logger.Debug("check complete",
		"webhook_items", rec.WebhookItems,
		"portal_rows", rec.PortalRows,
		"not_uploaded", rec.NotUploaded,
		"notifications", rec.Notifications)

	return CheckResult{Record: rec, Classifications: classifications}, nil
}

// buildNotification renders one per-assignee notification. The tag is stable
// per assignee so a later check replaces the prior slot instead of stacking.
func (r *CheckRunner) buildNotification(cls domain.Classification, items []domain.WorkItem, now time.Time) domain.Notification {
	assignedAt := map[string]time.Time{}
	for _, item := range items {
		if item.Assignee == cls.Assignee {
			assignedAt[item.ArticleID] = item.AssignedAt
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d file(s) awaiting upload:\n", len(cls.NotUploaded))
	for _, id := range cls.NotUploaded {
		at, ok := assignedAt[id]
		if !ok || at.IsZero() {
			fmt.Fprintf(&b, "%s\n", id)
			continue
		}

		delay := classify.FormatDelay(classify.WholeHours(at, now))
		if classify.PastDue(at, now, r.loc) {
			fmt.Fprintf(&b, "%s (past due, %s)\n", id, delay)
		} else {
			fmt.Fprintf(&b, "%s (%s)\n", id, delay)
		}
	}

	return domain.Notification{
		Tag:   "unuploaded/" + cls.Assignee,
		Title: "Unuploaded files: " + cls.Assignee,
		Body:  strings.TrimRight(b.String(), "\n"),
	}
}

func (r *CheckRunner) record(ctx context.Context, rec domain.CheckRecord) {
	if r.log == nil {
		return
	}
	if err := r.log.RecordCheck(ctx, rec); err != nil {
		r.logger.Warn("record check", "id", rec.ID, "error", err)
	}
}
