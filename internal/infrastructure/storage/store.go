package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// Store implements the settings, slot, and check-log ports over one SQLite
// database.
type Store struct {
	db *sql.DB
}

var _ ports.SettingsStore = (*Store)(nil)
var _ ports.SlotStore = (*Store)(nil)
var _ ports.CheckLog = (*Store)(nil)

// NewStore wraps an already-opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadSettings returns the persisted runtime settings, or clamped defaults
// when none were saved yet.
func (s *Store) LoadSettings(ctx context.Context) (domain.Settings, error) {
	query, args, err := sq.Select("assignee", "enabled", "interval_hours").
		From("settings").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("build settings query: %w", err)
	}

	var (
		settings domain.Settings
		enabled  int
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&settings.Assignee, &enabled, &settings.IntervalHours); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{Assignee: domain.AllAssignees}.Clamp(), nil
		}
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings.Enabled = enabled != 0

	return settings.Clamp(), nil
}

// SaveSettings clamps and upserts the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	settings = settings.Clamp()

	enabled := 0
	if settings.Enabled {
		enabled = 1
	}

	query, args, err := sq.Insert("settings").
		Columns("id", "assignee", "enabled", "interval_hours", "updated_at").
		Values(1, settings.Assignee, enabled, settings.IntervalHours, time.Now().UnixMilli()).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			assignee = excluded.assignee,
			enabled = excluded.enabled,
			interval_hours = excluded.interval_hours,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// EnsureSettings seeds the settings row from configuration when the
// database has none yet. Existing settings win over the seed.
func (s *Store) EnsureSettings(ctx context.Context, seed domain.Settings) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		return fmt.Errorf("count settings: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.SaveSettings(ctx, seed)
}

// ReplaceSlot upserts the notification slot for n.Tag and reports whether an
// earlier notification occupied it.
func (s *Store) ReplaceSlot(ctx context.Context, n domain.Notification) (bool, error) {
	var existing int
	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("notification_slots").
		Where(sq.Eq{"tag": n.Tag}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build slot lookup: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&existing); err != nil {
		return false, fmt.Errorf("lookup slot %s: %w", n.Tag, err)
	}

	query, args, err := sq.Insert("notification_slots").
		Columns("tag", "title", "body", "sent_at", "replaced_count").
		Values(n.Tag, n.Title, n.Body, time.Now().UnixMilli(), 0).
		Suffix(`ON CONFLICT(tag) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			sent_at = excluded.sent_at,
			replaced_count = notification_slots.replaced_count + 1`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build slot upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("replace slot %s: %w", n.Tag, err)
	}

	return existing > 0, nil
}

// RecordCheck appends one check run to the log.
func (s *Store) RecordCheck(ctx context.Context, rec domain.CheckRecord) error {
	query, args, err := sq.Insert("check_log").
		Columns("id", "started_at", "duration_ms", "status", "error",
			"webhook_items", "portal_rows", "not_uploaded", "notifications").
		Values(rec.ID, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
			string(rec.Status), rec.Error,
			rec.WebhookItems, rec.PortalRows, rec.NotUploaded, rec.Notifications).
		ToSql()
	if err != nil {
		return fmt.Errorf("build check insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record check %s: %w", rec.ID, err)
	}
	return nil
}

// RecentChecks returns the latest check runs, newest first.
func (s *Store) RecentChecks(ctx context.Context, limit int) ([]domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select("id", "started_at", "duration_ms", "status", "error",
		"webhook_items", "portal_rows", "not_uploaded", "notifications").
		From("check_log").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build check query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var records []domain.CheckRecord
	for rows.Next() {
		var (
			rec        domain.CheckRecord
			startedAt  int64
			durationMs int64
			status     string
		)
		if err := rows.Scan(&rec.ID, &startedAt, &durationMs, &status, &rec.Error,
			&rec.WebhookItems, &rec.PortalRows, &rec.NotUploaded, &rec.Notifications); err != nil {
			return nil, fmt.Errorf("scan check row: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedAt).UTC()
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.Status = domain.CheckStatus(status)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return records, nil
}
