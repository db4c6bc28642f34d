package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/runnerr0/cpi/internal/config"
	"github.com/runnerr0/cpi/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string          `json:"version"`
	DatabasePath      string          `json:"database_path"`
	DatabaseSizeBytes int64           `json:"database_size_bytes"`
	TotalSeries       int64           `json:"total_series"`
	TotalObservations int64           `json:"total_observations"`
	TotalAreas        int64           `json:"total_areas"`
	TotalItems        int64           `json:"total_items"`
	FirstYear         int             `json:"first_year,omitempty"`
	LastYear          int             `json:"last_year,omitempty"`
	LastRefresh       *refreshJSON    `json:"last_refresh,omitempty"`
	DefaultSeries     string          `json:"default_series"`
	RetentionDays     int             `json:"refresh_log_retention_days"`
	TopAreas          []areaCountJSON `json:"top_areas"`
	ServerRunning     bool            `json:"server_running"`
}

type refreshJSON struct {
	Version      string `json:"version"`
	Source       string `json:"source"`
	Series       int64  `json:"series"`
	Observations int64  `json:"observations"`
	RefreshedAt  string `json:"refreshed_at"`
}

type areaCountJSON struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Series int64  `json:"series"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, sess.db, sess.cfg, sess.dbPath)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store *storage.SQLiteStore, db *sql.DB, cfg *config.Config, dbPath string) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}
	stats.DatabaseSizeBytes = getDatabaseSize(db, dbPath)

	serverRunning := checkServer(cfg.Addr())

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, cfg, dbPath, serverRunning)
	}
	return c.printStatusHuman(stats, cfg, dbPath, serverRunning)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, cfg *config.Config, dbPath string, serverRunning bool) error {
	fmt.Println("CPI Status")
	fmt.Println("==========")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(stats.DatabaseSizeBytes))
	fmt.Printf("Series:        %s\n", formatNumber(stats.TotalSeries))
	fmt.Printf("Observations:  %s\n", formatNumber(stats.TotalObservations))
	fmt.Printf("Areas:         %s\n", formatNumber(stats.TotalAreas))
	fmt.Printf("Items:         %s\n", formatNumber(stats.TotalItems))

	if stats.TotalObservations > 0 {
		fmt.Printf("Years:         %d to %d\n", stats.FirstYear, stats.LastYear)
	}

	if r := stats.LastRefresh; r != nil {
		fmt.Printf("Last refresh:  %s from %s\n", r.RefreshedAt.Local().Format("2006-01-02 15:04"), r.Source)
		fmt.Printf("Snapshot:      %s\n", r.Version)
	} else {
		fmt.Println("Last refresh:  never (run `cpi update`)")
	}

	fmt.Printf("Default:       %s\n", cfg.Defaults.SeriesID)
	fmt.Printf("Refresh log:   %d days\n", cfg.Retention.RefreshLogDays)

	if len(stats.TopAreas) > 0 {
		fmt.Println()
		fmt.Println("Top Areas:")
		for _, a := range stats.TopAreas {
			fmt.Printf("  %-40s %s\n", a.Name, formatNumber(a.Count))
		}
	}

	fmt.Println()
	if serverRunning {
		fmt.Printf("Server:        running on %s\n", cfg.Addr())
	} else {
		fmt.Println("Server:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, cfg *config.Config, dbPath string, serverRunning bool) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		TotalSeries:       stats.TotalSeries,
		TotalObservations: stats.TotalObservations,
		TotalAreas:        stats.TotalAreas,
		TotalItems:        stats.TotalItems,
		FirstYear:         stats.FirstYear,
		LastYear:          stats.LastYear,
		DefaultSeries:     cfg.Defaults.SeriesID,
		RetentionDays:     cfg.Retention.RefreshLogDays,
		TopAreas:          make([]areaCountJSON, len(stats.TopAreas)),
		ServerRunning:     serverRunning,
	}

	if r := stats.LastRefresh; r != nil {
		out.LastRefresh = &refreshJSON{
			Version:      r.Version,
			Source:       r.Source,
			Series:       r.SeriesCount,
			Observations: r.ObservationCount,
			RefreshedAt:  r.RefreshedAt.UTC().Format(time.RFC3339),
		}
	}

	for i, a := range stats.TopAreas {
		out.TopAreas[i] = areaCountJSON{Code: a.Code, Name: a.Name, Series: a.Count}
	}

	return printJSON(out)
}

// checkServer attempts an HTTP GET to the local API status endpoint.
// Returns true if the server responds within 1 second.
func checkServer(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
