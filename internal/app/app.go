package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"UploadWatcher/internal/config"
	"UploadWatcher/internal/domain"
	"UploadWatcher/internal/infrastructure/httpapi"
	"UploadWatcher/internal/infrastructure/notify"
	"UploadWatcher/internal/infrastructure/portal"
	"UploadWatcher/internal/infrastructure/scheduler"
	"UploadWatcher/internal/infrastructure/storage"
	"UploadWatcher/internal/infrastructure/webhook"
	"UploadWatcher/internal/logging"
	"UploadWatcher/internal/ports"
	"UploadWatcher/internal/snapshot"
	"UploadWatcher/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	store      *storage.Store
	runner     *usecase.CheckRunner
	controller *usecase.Controller
	api        *httpapi.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	store := storage.NewStore(db)

	registry := snapshot.NewRegistry()
	htmlProvider := portal.NewHTMLProvider(nil)
	browserProvider := portal.NewBrowserProvider(
		cfg.Portal.Browser.RemoteURL,
		time.Duration(cfg.Portal.Browser.TimeoutSeconds)*time.Second,
		baseLogger.With("component", "portal.browser"),
	)
	registry.Register(htmlProvider)
	registry.Register(browserProvider)
	registry.Register(portal.NewAutoProvider(htmlProvider, browserProvider, baseLogger.With("component", "portal.auto")))

	source := portal.NewSource(registry, cfg.Portal, baseLogger.With("component", "portal"))
	items := webhook.NewClient(cfg.Webhook, cfg.Check.Location())

	var sinks []ports.Notifier
	if cfg.Notify.DesktopEnabled() {
		sinks = append(sinks, notify.NewDesktopNotifier())
	}
	if cfg.Notify.Telegram.BotToken != "" && cfg.Notify.Telegram.ChatID != "" {
		sinks = append(sinks, notify.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	}
	if cfg.Notify.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.Webhook.URL, cfg.Notify.Webhook.Secret))
	}
	router := notify.NewRouter(store, baseLogger.With("component", "notify"), sinks...)

	runner := usecase.NewCheckRunner(usecase.CheckDeps{
		Items:    items,
		Portal:   source,
		Notifier: router,
		Log:      store,
		Logger:   baseLogger.With("component", "check"),
		Location: cfg.Check.Location(),
	})

	controller := usecase.NewController(runner, store,
		scheduler.NewIntervalScheduler(), baseLogger.With("component", "controller"))

	api := httpapi.NewServer(controller, runner, store, baseLogger.With("component", "http"))

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		store:      store,
		runner:     runner,
		controller: controller,
		api:        api,
	}, nil
}

// Run seeds settings, arms the check loop if configured, and serves the
// status API until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.store.EnsureSettings(ctx, a.cfg.Check.Settings()); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	if err := a.controller.Start(ctx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	defer func() {
		if err := a.controller.Stop(context.Background()); err != nil {
			a.logger.Warn("stop controller", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("status api listening", "addr", a.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// RunOnce performs a single check with the persisted settings and returns
// the result. Used by the check subcommand.
func (a *Application) RunOnce(ctx context.Context) (usecase.CheckResult, error) {
	defer a.db.Close()

	if err := a.store.EnsureSettings(ctx, a.cfg.Check.Settings()); err != nil {
		return usecase.CheckResult{}, fmt.Errorf("seed settings: %w", err)
	}

	settings, err := a.store.LoadSettings(ctx)
	if err != nil {
		return usecase.CheckResult{}, fmt.Errorf("load settings: %w", err)
	}
	if settings.Assignee == "" {
		settings.Assignee = domain.AllAssignees
	}

	return a.runner.RunCheck(ctx, settings)
}
