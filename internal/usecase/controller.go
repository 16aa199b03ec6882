package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/ports"
)

// State is the periodic-check loop state.
type State string

const (
	StateIdle  State = "idle"
	StateArmed State = "armed"
)

// Controller owns the IDLE/ARMED state machine of the periodic check loop.
// Enabled settings with a selected assignee arm the interval driver; a
// disable or a cleared assignee disarms it. Applying new settings re-arms
// with the new interval. A failed tick never disarms the timer.
type Controller struct {
	runner   *CheckRunner
	settings ports.SettingsStore
	driver   ports.Scheduler
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	current domain.Settings
	// runCtx is the daemon lifecycle context captured at Start. Armed
	// loops and their scheduled checks run under it, never under the
	// short-lived context of the Apply caller.
	runCtx context.Context
}

// NewController wires the check runner with the settings store and the
// interval driver.
func NewController(runner *CheckRunner, settings ports.SettingsStore, driver ports.Scheduler, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		runner:   runner,
		settings: settings,
		driver:   driver,
		logger:   logger,
		state:    StateIdle,
	}
}

// Start loads the persisted settings and arms the loop if they call for it.
// ctx must be the daemon lifecycle context: it outlives any single request
// and cancels only on shutdown.
func (c *Controller) Start(ctx context.Context) error {
	if c.settings == nil {
		return fmt.Errorf("settings store is not configured")
	}

	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	settings, err := c.settings.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	return c.rearm(settings)
}

// Apply persists new settings and transitions the loop accordingly. ctx
// governs only the settings save; the re-armed loop keeps running on the
// lifecycle context after the caller returns.
func (c *Controller) Apply(ctx context.Context, settings domain.Settings) error {
	settings = settings.Clamp()

	if c.settings != nil {
		if err := c.settings.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}

	return c.rearm(settings)
}

// Stop disarms the loop.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disarmLocked(ctx)
}

// Status reports the loop state and the settings it runs with.
func (c *Controller) Status() (State, domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.current
}

// TriggerCheck runs one check immediately with the current settings,
// regardless of the loop state. Concurrent triggers share the in-flight run.
func (c *Controller) TriggerCheck(ctx context.Context) (CheckResult, error) {
	c.mu.Lock()
	settings := c.current
	c.mu.Unlock()

	if settings.Assignee == "" {
		settings.Assignee = domain.AllAssignees
	}
	return c.runner.RunCheck(ctx, settings.Clamp())
}

func (c *Controller) rearm(settings domain.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	runCtx := c.lifecycleLocked()

	if err := c.disarmLocked(runCtx); err != nil {
		return err
	}
	c.current = settings

	if !settings.Armed() {
		c.logger.Info("check loop idle", "enabled", settings.Enabled, "assignee", settings.Assignee)
		return nil
	}

	every := time.Duration(settings.IntervalHours) * time.Hour
	job := func(trigger time.Time) {
		if _, err := c.runner.RunCheck(runCtx, settings); err != nil {
			// Retried on the next tick, no backoff.
			c.logger.Warn("scheduled check failed", "error", err)
		}
	}

	if err := c.driver.Start(runCtx, every, job); err != nil {
		return fmt.Errorf("arm check loop: %w", err)
	}

	c.state = StateArmed
	c.logger.Info("check loop armed", "assignee", settings.Assignee, "interval_hours", settings.IntervalHours)
	return nil
}

func (c *Controller) lifecycleLocked() context.Context {
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

func (c *Controller) disarmLocked(ctx context.Context) error {
	if c.state == StateIdle {
		return nil
	}
	if err := c.driver.Stop(ctx); err != nil {
		return fmt.Errorf("disarm check loop: %w", err)
	}
	c.state = StateIdle
	return nil
}
