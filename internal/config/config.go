package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the organizer.
type Config struct {
	TelegramToken string
	OwnerChatID   int64
	DatabaseURL   string
	Location      *time.Location

	DuePollInterval time.Duration
	NotifyWindow    time.Duration
	DigestTime      string

	PredictionMaxPerTitle int

	AssistantURL    string
	ExpenseSyncURL  string
	ReminderSyncURL string
	GroceryPlanURL  string
	PushURL         string
	ExpenseGroupID  string
	ProxyTimeout    time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first; real environment
// variables win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		TelegramToken:   get("TELEGRAM_TOKEN"),
		DatabaseURL:     get("DATABASE_URL"),
		DigestTime:      get("DIGEST_TIME"),
		AssistantURL:    get("ASSISTANT_URL"),
		ExpenseSyncURL:  get("EXPENSE_SYNC_URL"),
		ReminderSyncURL: get("REMINDER_SYNC_URL"),
		GroceryPlanURL:  get("GROCERY_PLAN_URL"),
		PushURL:         get("PUSH_URL"),
		ExpenseGroupID:  get("EXPENSE_GROUP_ID"),
		LogLevel:        strings.ToLower(get("LOG_LEVEL")),
		LogFormat:       strings.ToLower(get("LOG_FORMAT")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "life_organizer.db"
	}
	switch strings.ToLower(cfg.DigestTime) {
	case "":
		cfg.DigestTime = "08:00"
	case "off":
		cfg.DigestTime = ""
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	var err error
	if raw := get("OWNER_CHAT_ID"); raw != "" {
		if cfg.OwnerChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return cfg, fmt.Errorf("OWNER_CHAT_ID: %w", err)
		}
	}
	if raw := get("PREDICTION_MAX_PER_TITLE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("PREDICTION_MAX_PER_TITLE must be a non-negative integer, got %q", raw)
		}
		cfg.PredictionMaxPerTitle = n
	}

	cfg.Location = time.Local
	if raw := get("TIMEZONE"); raw != "" {
		if cfg.Location, err = time.LoadLocation(raw); err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
	}

	if cfg.DuePollInterval, err = parseDuration(get("DUE_POLL_INTERVAL"), time.Minute); err != nil {
		return cfg, fmt.Errorf("DUE_POLL_INTERVAL: %w", err)
	}
	if cfg.NotifyWindow, err = parseDuration(get("NOTIFY_WINDOW"), time.Hour); err != nil {
		return cfg, fmt.Errorf("NOTIFY_WINDOW: %w", err)
	}
	if cfg.ProxyTimeout, err = parseDuration(get("PROXY_TIMEOUT"), 20*time.Second); err != nil {
		return cfg, fmt.Errorf("PROXY_TIMEOUT: %w", err)
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}
