package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"UploadWatcher/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "UPLOAD_WATCHER_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	httpAddrEnv       = "HTTP_ADDR"
	webhookURLEnv     = "WEBHOOK_URL"
	webhookTokenEnv   = "WEBHOOK_TOKEN"
	portalURLEnv      = "PORTAL_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Portal   PortalConfig   `yaml:"portal"`
	Check    CheckConfig    `yaml:"check"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the SQLite state database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig describes the status/admin API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WebhookConfig wires the inbound assignments webhook.
type WebhookConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout resolves the configured webhook timeout.
func (w WebhookConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// PortalConfig describes the portal page and its table layout.
type PortalConfig struct {
	URL           string        `yaml:"url"`
	Strategy      string        `yaml:"strategy"`
	ArticleHeader string        `yaml:"articleHeader"`
	ActionHeader  string        `yaml:"actionHeader"`
	QAPendingText string        `yaml:"qaPendingText"`
	Browser       BrowserConfig `yaml:"browser"`
}

// BrowserConfig tunes the headless-browser snapshot provider.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local headless instance.
	RemoteURL      string `yaml:"remoteUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// CheckConfig seeds the runtime check-loop settings on first start.
// Enabled is a pointer so a file can set it either way and absence is
// distinguishable from false.
type CheckConfig struct {
	Assignee      string         `yaml:"assignee"`
	Enabled       *bool          `yaml:"enabled"`
	IntervalHours int            `yaml:"intervalHours"`
	Timezone      string         `yaml:"timezone"`
	location      *time.Location `yaml:"-"`
}

// IsEnabled reports the seed enable flag; unset means disabled.
func (c CheckConfig) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// Location resolves the check timezone string to a time.Location.
func (c CheckConfig) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Settings converts the seed config into clamped runtime settings.
func (c CheckConfig) Settings() domain.Settings {
	return domain.Settings{
		Assignee:      c.Assignee,
		Enabled:       c.IsEnabled(),
		IntervalHours: c.IntervalHours,
	}.Clamp()
}

// NotifyConfig enumerates outbound notification sinks. Desktop is a
// pointer so a file can switch the default-on sink off.
type NotifyConfig struct {
	Desktop  *bool             `yaml:"desktop"`
	Telegram TelegramConfig    `yaml:"telegram"`
	Webhook  WebhookSinkConfig `yaml:"webhook"`
}

// DesktopEnabled reports whether the desktop sink is active; unset means on.
func (n NotifyConfig) DesktopEnabled() bool {
	return n.Desktop == nil || *n.Desktop
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// WebhookSinkConfig describes the outbound notification webhook.
type WebhookSinkConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// Load reads .env, then YAML configuration (if present), and applies
// environment overrides on top.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.Check.IntervalHours = cfg.Check.Settings().IntervalHours

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Webhook.URL = v
	}

	if v := os.Getenv(webhookTokenEnv); v != "" {
		c.Webhook.Token = v
	}

	if v := os.Getenv(portalURLEnv); v != "" {
		c.Portal.URL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notify.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notify.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Check.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Check.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}

	if override.Webhook.URL != "" {
		base.Webhook.URL = override.Webhook.URL
	}
	if override.Webhook.Token != "" {
		base.Webhook.Token = override.Webhook.Token
	}
	if override.Webhook.TimeoutSeconds > 0 {
		base.Webhook.TimeoutSeconds = override.Webhook.TimeoutSeconds
	}

	if override.Portal.URL != "" {
		base.Portal.URL = override.Portal.URL
	}
	if override.Portal.Strategy != "" {
		base.Portal.Strategy = override.Portal.Strategy
	}
	if override.Portal.ArticleHeader != "" {
		base.Portal.ArticleHeader = override.Portal.ArticleHeader
	}
	if override.Portal.ActionHeader != "" {
		base.Portal.ActionHeader = override.Portal.ActionHeader
	}
	if override.Portal.QAPendingText != "" {
		base.Portal.QAPendingText = override.Portal.QAPendingText
	}
	if override.Portal.Browser.RemoteURL != "" {
		base.Portal.Browser.RemoteURL = override.Portal.Browser.RemoteURL
	}
	if override.Portal.Browser.TimeoutSeconds > 0 {
		base.Portal.Browser.TimeoutSeconds = override.Portal.Browser.TimeoutSeconds
	}

	if override.Check.Assignee != "" {
		base.Check.Assignee = override.Check.Assignee
	}
	if override.Check.Enabled != nil {
		base.Check.Enabled = override.Check.Enabled
	}
	if override.Check.IntervalHours > 0 {
		base.Check.IntervalHours = override.Check.IntervalHours
	}
	if override.Check.Timezone != "" {
		base.Check.Timezone = override.Check.Timezone
	}

	if override.Notify.Desktop != nil {
		base.Notify.Desktop = override.Notify.Desktop
	}
	if override.Notify.Telegram.BotToken != "" {
		base.Notify.Telegram.BotToken = override.Notify.Telegram.BotToken
	}
	if override.Notify.Telegram.ChatID != "" {
		base.Notify.Telegram.ChatID = override.Notify.Telegram.ChatID
	}
	if override.Notify.Webhook.URL != "" {
		base.Notify.Webhook.URL = override.Notify.Webhook.URL
	}
	if override.Notify.Webhook.Secret != "" {
		base.Notify.Webhook.Secret = override.Notify.Webhook.Secret
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "uploadwatcher.db"},
		HTTP:     HTTPConfig{Addr: ":8666"},
		Webhook:  WebhookConfig{TimeoutSeconds: 20},
		Portal: PortalConfig{
			Strategy:      "auto",
			ArticleHeader: "Article ID",
			ActionHeader:  "Action",
			QAPendingText: "pending QA validation",
		},
		Check: CheckConfig{
			Assignee:      domain.AllAssignees,
			IntervalHours: domain.DefaultIntervalHours,
			Timezone:      defaultTimezone,
			location:      tz,
		},
		Notify: NotifyConfig{},
	}
}
