// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabasePath is the SQLite database file (e.g. ./codebrick.db).
	DatabasePath string `mapstructure:"DATABASE_PATH"`
	// PublicDir holds the static site (index.html, admin.html, admin-login.html, ...).
	PublicDir string `mapstructure:"PUBLIC_DIR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"LOG_FORMAT"`
	// CORSAllowedOrigins is a comma-separated list of origins; "*" allows any.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// SessionSecret is the HMAC key for admin session tokens. Required in production.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	// SessionTTLRaw is the admin session lifetime (e.g. "12h").
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// AdminUsername is the single admin login name.
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	// AdminPasswordHash is the bcrypt hash of the admin password (see cmd/adminpass).
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// SMTP transport for quote notifications. Email is disabled when SMTPHost is empty.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	// NotifyFrom and NotifyTo are the envelope sender and the comma-separated recipients.
	NotifyFrom     string `mapstructure:"NOTIFY_FROM"`
	NotifyTo       string `mapstructure:"NOTIFY_TO"`
	NotifySubject  string `mapstructure:"NOTIFY_SUBJECT"`
	NotifySiteName string `mapstructure:"NOTIFY_SITE_NAME"`
	NotifyFooter   string `mapstructure:"NOTIFY_FOOTER"`
	// NotifyTimeoutRaw bounds a single detached notification (e.g. "30s").
	NotifyTimeoutRaw string `mapstructure:"NOTIFY_TIMEOUT"`

	// KafkaBrokers is a comma-separated list of brokers. When set, the server publishes quote
	// events to NotifyKafkaTopic and cmd/worker sends the emails.
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"`
	NotifyKafkaTopic string `mapstructure:"NOTIFY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the notification worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint enables OpenTelemetry export when non-empty (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_PATH", "./codebrick.db")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("NOTIFY_FROM", "")
	v.SetDefault("NOTIFY_TO", "")
	v.SetDefault("NOTIFY_SUBJECT", "New Quote Request Received - Code Brick")
	v.SetDefault("NOTIFY_SITE_NAME", "Code Brick")
	v.SetDefault("NOTIFY_FOOTER", "Brick And (PTY) LTD Construction and Projects")
	v.SetDefault("NOTIFY_TIMEOUT", "30s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("NOTIFY_KAFKA_TOPIC", "codebrick-quotes")
	v.SetDefault("KAFKA_GROUP_ID", "codebrick-notifier")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "codebrick-site")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DatabasePath == "" {
		return nil, errors.New("config: DATABASE_PATH must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.SessionSecret == "" && cfg.IsProduction() {
		return nil, errors.New("config: SESSION_SECRET must be set when APP_ENV=production")
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return nil, errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("config: LOG_FORMAT must be text or json")
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// SessionTTL parses SessionTTLRaw as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// NotifyTimeout parses NotifyTimeoutRaw as a time.Duration. Returns 30s if unset or invalid.
func (c *Config) NotifyTimeout() time.Duration {
	d, err := time.ParseDuration(c.NotifyTimeoutRaw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the queued notification path is enabled (non-empty list).
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.KafkaBrokers)
}

// NotifyRecipients returns the notification recipients from the comma-separated NOTIFY_TO.
func (c *Config) NotifyRecipients() []string {
	if c == nil {
		return nil
	}
	return splitList(c.NotifyTo)
}

// AllowedOrigins returns the CORS origins; defaults to "*" when empty.
func (c *Config) AllowedOrigins() []string {
	if c == nil {
		return []string{"*"}
	}
	out := splitList(c.CORSAllowedOrigins)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// EmailEnabled reports whether SMTP delivery is configured well enough to send.
func (c *Config) EmailEnabled() bool {
	return c != nil && c.SMTPHost != "" && c.NotifyFrom != "" && len(c.NotifyRecipients()) > 0
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
