package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/runnerr0/cpi/internal/cpi"
)

// Validate checks the configuration for values the program cannot run
// with.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.SQLiteFile == "" {
		return fmt.Errorf("storage.sqlite_file is required")
	}
	switch strings.ToLower(c.Storage.SQLiteJournalMode) {
	case "", "delete", "truncate", "persist", "memory", "wal", "off":
	default:
		return fmt.Errorf("storage.sqlite_journal_mode %q is not a SQLite journal mode", c.Storage.SQLiteJournalMode)
	}

	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.base_url must be an http(s) URL, got %q", c.Source.BaseURL)
	}
	if c.Source.TimeoutSeconds < 0 {
		return fmt.Errorf("source.timeout_seconds must not be negative")
	}
	if c.Source.Workers < 0 {
		return fmt.Errorf("source.workers must not be negative")
	}

	if c.Defaults.SeriesID == "" {
		return fmt.Errorf("defaults.series_id is required")
	}
	if _, err := cpi.ParsePeriodicity(c.Defaults.Periodicity); err != nil {
		return fmt.Errorf("defaults.periodicity: %w", err)
	}

	if c.Retention.RefreshLogDays < 0 {
		return fmt.Errorf("retention.refresh_log_days must not be negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "plain":
	default:
		return fmt.Errorf("logging.format %q must be text or plain", c.Logging.Format)
	}

	return nil
}
