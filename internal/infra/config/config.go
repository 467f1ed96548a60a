package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	CronSecret  string `env:"CRON_SECRET"` // bearer secret the external scheduler presents

	// Reference timezone for every "today"/"current hour" computation.
	ReferenceUTCOffsetMinutes int `env:"REFERENCE_UTC_OFFSET_MINUTES" envDefault:"180"`
	ActiveWindowDays          int `env:"ACTIVE_WINDOW_DAYS" envDefault:"7"`

	SchedulerEnabled      bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	CronSpecReminders     string        `env:"CRON_SPEC_REMINDERS" envDefault:"0 * * * *"`
	CronSpecAnnouncements string        `env:"CRON_SPEC_ANNOUNCEMENTS" envDefault:"*/15 * * * *"`
	CronSpecStreaks       string        `env:"CRON_SPEC_STREAKS" envDefault:"0 20 * * *"`
	JobTimeout            time.Duration `env:"JOB_TIMEOUT" envDefault:"10m"`

	// Firebase Cloud Messaging. One of the two credential sources must be set.
	FCMServiceAccountFile string        `env:"FCM_SERVICE_ACCOUNT_FILE"`
	FCMServiceAccountJSON string        `env:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMAndroidChannelID   string        `env:"FCM_ANDROID_CHANNEL_ID" envDefault:"silah_reminders"`
	SendInterval          time.Duration `env:"SEND_INTERVAL" envDefault:"50ms"`
	SendTimeout           time.Duration `env:"SEND_TIMEOUT" envDefault:"5s"`

	// Optional Redis job lock. Empty address disables it.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"silah"`
	JobLockTTL    time.Duration `env:"JOB_LOCK_TTL" envDefault:"15m"`

	// Optional Telegram ops chat.
	TelegramToken   string `env:"TELEGRAM_TOKEN"`
	AdminTelegramID int64  `env:"ADMIN_TELEGRAM_ID"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *AppConfig) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.FCMServiceAccountFile == "" && c.FCMServiceAccountJSON == "" {
		return fmt.Errorf("FCM_SERVICE_ACCOUNT_FILE or FCM_SERVICE_ACCOUNT_JSON must be set")
	}
	if c.ReferenceUTCOffsetMinutes < -12*60 || c.ReferenceUTCOffsetMinutes > 14*60 {
		return fmt.Errorf("invalid REFERENCE_UTC_OFFSET_MINUTES: %d", c.ReferenceUTCOffsetMinutes)
	}
	if c.ActiveWindowDays <= 0 {
		return fmt.Errorf("invalid ACTIVE_WINDOW_DAYS: %d", c.ActiveWindowDays)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("invalid SEND_TIMEOUT: %s", c.SendTimeout)
	}
	if c.SendInterval < 0 {
		return fmt.Errorf("invalid SEND_INTERVAL: %s", c.SendInterval)
	}
	if c.SchedulerEnabled {
		specs := map[string]string{
			"CRON_SPEC_REMINDERS":     c.CronSpecReminders,
			"CRON_SPEC_ANNOUNCEMENTS": c.CronSpecAnnouncements,
			"CRON_SPEC_STREAKS":       c.CronSpecStreaks,
		}
		for name, spec := range specs {
			if _, err := cron.ParseStandard(spec); err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, spec, err)
			}
		}
	}
	if c.TelegramToken != "" && c.AdminTelegramID == 0 {
		return fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// ReferenceZone returns the fixed zone built from ReferenceUTCOffsetMinutes.
func (c *AppConfig) ReferenceZone() *time.Location {
	offset := c.ReferenceUTCOffsetMinutes
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	name := fmt.Sprintf("UTC%s%d", sign, offset/60)
	if offset%60 != 0 {
		name = fmt.Sprintf("UTC%s%d:%02d", sign, offset/60, offset%60)
	}
	return time.FixedZone(name, c.ReferenceUTCOffsetMinutes*60)
}

// ActiveWindow is the trailing window used by the "active" target rule.
func (c *AppConfig) ActiveWindow() time.Duration {
	return time.Duration(c.ActiveWindowDays) * 24 * time.Hour
}

// TelegramEnabled reports whether the ops chat should be started.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.AdminTelegramID != 0
}
