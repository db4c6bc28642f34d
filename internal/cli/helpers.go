package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/cpi/internal/config"
	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/logger"
	"github.com/runnerr0/cpi/internal/storage"
)

// loadConfig reads the config named by --config, or the default config
// (created on first use). It also initializes logging.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals != nil && globals.Config != "" {
		path, perr := config.ExpandPath(globals.Config)
		if perr != nil {
			return nil, perr
		}
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if globals != nil && globals.Verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Logging.Format)
	return cfg, nil
}

// resolveDBPath returns --db-path when set, else the configured path.
func resolveDBPath(cfg *config.Config, globals *GlobalFlags) (string, error) {
	if globals != nil && globals.DBPath != "" {
		return config.ExpandPath(globals.DBPath)
	}
	return cfg.DBPath()
}

// openStore opens the SQLite database at dbPath, runs migrations, and
// returns a ready-to-use store and the underlying *sql.DB.
func openStore(dbPath, journalMode string) (*storage.SQLiteStore, *sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(journalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// session is everything a command needs once the config is loaded and the
// store is open.
type session struct {
	cfg    *config.Config
	dbPath string
	store  *storage.SQLiteStore
	db     *sql.DB
}

func (s *session) Close() {
	s.store.Close()
	s.db.Close()
}

func openSession(globals *GlobalFlags) (*session, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg, globals)
	if err != nil {
		return nil, err
	}
	store, db, err := openStore(dbPath, cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened dataset store %s", dbPath)
	return &session{cfg: cfg, dbPath: dbPath, store: store, db: db}, nil
}

// loadSnapshot builds a snapshot from the stored dataset, versioned with the
// id of the refresh that wrote it.
func loadSnapshot(ctx context.Context, store storage.Store, defaults cpi.Defaults) (*cpi.Snapshot, error) {
	records, refresh, err := store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	version := ""
	if refresh != nil {
		version = refresh.Version
	}
	return cpi.NewVersionedSnapshot(records, defaults, version)
}

// openService opens the configured store and returns a Service over its
// dataset. The store is closed before returning; the snapshot is in memory.
func openService(globals *GlobalFlags) (*cpi.Service, error) {
	sess, err := openSession(globals)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	snap, err := loadSnapshot(context.Background(), sess.store, sess.cfg.SeriesDefaults())
	if err != nil {
		if errors.Is(err, storage.ErrNoDataset) {
			return nil, err
		}
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return cpi.NewService(snap), nil
}

// parsePeriodArg parses a period argument, naming the argument on failure.
func parsePeriodArg(name, s string) (cpi.Period, error) {
	p, err := cpi.ParsePeriod(s)
	if err != nil {
		return cpi.Period{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatValue prints an index value or amount without trailing zeros.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
