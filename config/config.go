package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var (
	ErrMissingBotToken    = errors.New("BOT_TOKEN required")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL required")
)

type Config struct {
	AppEnv      string
	BotToken    string
	DatabaseURL string
	AdminIDs    []int64
	DefaultLang string
	MiniAppURL  string
	LogLevel    string
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
	SendTimeout time.Duration
	// Workers is the number of update handlers running in parallel.
	Workers     int
	MigrateOnly bool

	// Warnings collects non-fatal problems found before a logger exists.
	Warnings []string
}

// LoadConfig reads the .env file, the environment and then command-line
// overrides, in that order of increasing precedence.
func LoadConfig(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("regionchatbot", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file to load")
	databaseURL := flags.String("database-url", "", "postgres:// or sqlite:// url, overrides DATABASE_URL")
	logLevel := flags.String("log-level", "", "debug, info, warn or error, overrides LOG_LEVEL")
	migrateOnly := flags.Bool("migrate-only", false, "apply migrations and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := godotenv.Load(*envFile); err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("no env file loaded from %s", *envFile))
	}

	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.BotToken = getEnv("BOT_TOKEN", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.DefaultLang = getEnv("DEFAULT_LANG", "en")
	cfg.MiniAppURL = getEnv("MINI_APP_URL", "https://example.com")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.MigrateOnly = *migrateOnly

	var err error
	if cfg.AdminIDs, err = parseIDs(getEnv("ADMIN_IDS", "")); err != nil {
		return nil, err
	}
	if cfg.PollTimeout, err = strconv.Atoi(getEnv("POLL_TIMEOUT", "60")); err != nil {
		return nil, fmt.Errorf("invalid POLL_TIMEOUT: %w", err)
	}
	if cfg.SendTimeout, err = time.ParseDuration(getEnv("SEND_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SEND_TIMEOUT: %w", err)
	}
	if cfg.Workers, err = strconv.Atoi(getEnv("WORKERS", "8")); err != nil {
		return nil, fmt.Errorf("invalid WORKERS: %w", err)
	}

	if flags.Changed("database-url") {
		cfg.DatabaseURL = *databaseURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}

	if cfg.BotToken == "" && !cfg.MigrateOnly {
		return nil, ErrMissingBotToken
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

// IsAdmin reports whether id is listed in ADMIN_IDS.
func (c *Config) IsAdmin(id int64) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
