package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string
	OpsListenAddr string
	LogLevel      string
	Environment   string

	// Timezone governs every "what day is it" computation the jobs make.
	Timezone *time.Location

	// Cron specs, evaluated in Timezone.
	CronSpecMaterialize string // evening job: creates tomorrow's reminders
	CronSpecDispatch    string // morning job: sends today's reminders
	CronSpecSweep       string // off-peak job: deletes old sent reminders

	RetentionDays  int
	DispatchPacing time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables, and a missing
	// .env file is not an error.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	tzName := os.Getenv("BOT_TIMEZONE")
	if tzName == "" {
		tzName = "Africa/Lagos" // original deployment timezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid BOT_TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	cfg.OpsListenAddr = os.Getenv("OPS_LISTEN_ADDR")
	if cfg.OpsListenAddr == "" {
		cfg.OpsListenAddr = ":8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecMaterialize = os.Getenv("CRON_SPEC_MATERIALIZE")
	if cfg.CronSpecMaterialize == "" {
		cfg.CronSpecMaterialize = "0 21 * * *" // 9 PM: materialize tomorrow's reminders
	}
	cfg.CronSpecDispatch = os.Getenv("CRON_SPEC_DISPATCH")
	if cfg.CronSpecDispatch == "" {
		cfg.CronSpecDispatch = "0 7 * * *" // 7 AM: send today's reminders
	}
	cfg.CronSpecSweep = os.Getenv("CRON_SPEC_SWEEP")
	if cfg.CronSpecSweep == "" {
		cfg.CronSpecSweep = "30 2 * * *" // 2:30 AM: retention sweep
	}

	cfg.RetentionDays, err = intFromEnv("RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}
	if cfg.RetentionDays < 1 {
		return nil, fmt.Errorf("RETENTION_DAYS must be positive, got %d", cfg.RetentionDays)
	}

	pacingMs, err := intFromEnv("DISPATCH_PACING_MS", 1500)
	if err != nil {
		return nil, err
	}
	if pacingMs < 0 {
		return nil, fmt.Errorf("DISPATCH_PACING_MS must not be negative, got %d", pacingMs)
	}
	cfg.DispatchPacing = time.Duration(pacingMs) * time.Millisecond

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
