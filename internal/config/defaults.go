package config

import (
	"github.com/runnerr0/cpi/internal/bls"
	"github.com/runnerr0/cpi/internal/cpi"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	std := cpi.StandardDefaults()
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/cpi",
			SQLiteFile:        "cpi.db",
			SQLiteJournalMode: "wal",
		},
		Source: SourceConfig{
			BaseURL:        bls.DefaultBaseURL,
			UserAgent:      bls.DefaultUserAgent,
			TimeoutSeconds: int(bls.DefaultTimeout.Seconds()),
			Workers:        bls.DefaultWorkers,
		},
		Defaults: DefaultsConfig{
			SeriesID:    std.SeriesID,
			Survey:      std.Survey,
			Area:        std.Area,
			Items:       std.Item,
			Periodicity: std.Periodicity.String(),
		},
		Retention: RetentionConfig{
			RefreshLogDays: 365,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8722,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
