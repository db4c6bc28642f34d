package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/cpi/internal/cpi"
)

// ErrNoDataset is returned by LoadRecords when nothing has been stored yet.
var ErrNoDataset = errors.New("no cpi dataset stored; run `cpi update` first")

// Store defines the interface for CPI dataset persistence.
type Store interface {
	ReplaceDataset(ctx context.Context, records *cpi.Records, source string) (*Refresh, error)
	LoadRecords(ctx context.Context) (*cpi.Records, *Refresh, error)
	SearchSeries(ctx context.Context, query SeriesQuery) ([]SeriesRow, error)
	LatestRefresh(ctx context.Context) (*Refresh, error)
	ListRefreshes(ctx context.Context, limit int) ([]Refresh, error)
	PruneRefreshes(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	insertArea        *sql.Stmt
	insertItem        *sql.Stmt
	insertSeries      *sql.Stmt
	insertObservation *sql.Stmt
	insertRefresh     *sql.Stmt
	latestRefresh     *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertArea, err = s.db.Prepare(`INSERT OR REPLACE INTO areas (code, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}

	s.insertItem, err = s.db.Prepare(`INSERT OR REPLACE INTO items (code, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}

	s.insertSeries, err = s.db.Prepare(`
		INSERT INTO series (id, title, survey_code, seasonal, periodicity_code, area_code, item_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertObservation, err = s.db.Prepare(`
		INSERT OR REPLACE INTO observations (series_id, year, period, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertRefresh, err = s.db.Prepare(`
		INSERT INTO refreshes (version, source, series_count, observation_count, refreshed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.latestRefresh, err = s.db.Prepare(`
		SELECT id, version, source, series_count, observation_count, refreshed_at
		FROM refreshes ORDER BY id DESC LIMIT 1
	`)
	if err != nil {
		return err
	}

	return nil
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999-07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// ReplaceDataset swaps the stored dataset for records in a single
// transaction and logs the refresh. Seasonally adjusted series are stored
// too; they are dropped when a catalog is built. Observations for series
// not present in records are skipped.
func (s *SQLiteStore) ReplaceDataset(ctx context.Context, records *cpi.Records, source string) (*Refresh, error) {
	if records == nil || len(records.Series) == 0 {
		return nil, fmt.Errorf("refusing to store an empty dataset")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM observations",
		"DELETE FROM series",
		"DELETE FROM items",
		"DELETE FROM areas",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("clear dataset (%s): %w", stmt, err)
		}
	}

	areaStmt := tx.StmtContext(ctx, s.insertArea)
	for _, a := range records.Areas {
		if _, err := areaStmt.ExecContext(ctx, a.Code, a.Name); err != nil {
			return nil, fmt.Errorf("insert area %s: %w", a.Code, err)
		}
	}

	itemStmt := tx.StmtContext(ctx, s.insertItem)
	for _, i := range records.Items {
		if _, err := itemStmt.ExecContext(ctx, i.Code, i.Name); err != nil {
			return nil, fmt.Errorf("insert item %s: %w", i.Code, err)
		}
	}

	known := make(map[string]bool, len(records.Series))
	seriesStmt := tx.StmtContext(ctx, s.insertSeries)
	for _, r := range records.Series {
		if _, err := seriesStmt.ExecContext(ctx,
			r.ID, r.Title, r.SurveyCode, r.Seasonal, r.PeriodicityCode, r.AreaCode, r.ItemCode,
		); err != nil {
			return nil, fmt.Errorf("insert series %s: %w", r.ID, err)
		}
		known[r.ID] = true
	}

	obsStmt := tx.StmtContext(ctx, s.insertObservation)
	for _, o := range records.Observations {
		if !known[o.SeriesID] {
			continue
		}
		if _, err := obsStmt.ExecContext(ctx, o.SeriesID, o.Year, o.PeriodCode, o.Value); err != nil {
			return nil, fmt.Errorf("insert observation %s %d %s: %w", o.SeriesID, o.Year, o.PeriodCode, err)
		}
	}

	// Repeated rows collapse on the primary key, so count what landed.
	var observations int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM observations").Scan(&observations); err != nil {
		return nil, fmt.Errorf("count observations: %w", err)
	}

	refresh := &Refresh{
		Version:          uuid.NewString(),
		Source:           source,
		SeriesCount:      int64(len(records.Series)),
		ObservationCount: observations,
		RefreshedAt:      time.Now().UTC(),
	}
	res, err := tx.StmtContext(ctx, s.insertRefresh).ExecContext(ctx,
		refresh.Version, refresh.Source, refresh.SeriesCount, refresh.ObservationCount,
		refresh.RefreshedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record refresh: %w", err)
	}
	if refresh.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return refresh, nil
}

// LoadRecords reads the whole stored dataset together with the refresh that
// wrote it. It returns ErrNoDataset when the store is empty.
func (s *SQLiteStore) LoadRecords(ctx context.Context) (*cpi.Records, *Refresh, error) {
	refresh, err := s.LatestRefresh(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := &cpi.Records{}

	if err := s.queryEach(ctx, "SELECT code, name FROM areas ORDER BY code", func(rows *sql.Rows) error {
		var a cpi.Area
		if err := rows.Scan(&a.Code, &a.Name); err != nil {
			return err
		}
		records.Areas = append(records.Areas, a)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("load areas: %w", err)
	}

	if err := s.queryEach(ctx, "SELECT code, name FROM items ORDER BY code", func(rows *sql.Rows) error {
		var i cpi.Item
		if err := rows.Scan(&i.Code, &i.Name); err != nil {
			return err
		}
		records.Items = append(records.Items, i)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("load items: %w", err)
	}

	if err := s.queryEach(ctx, `
		SELECT id, title, survey_code, seasonal, periodicity_code, area_code, item_code
		FROM series ORDER BY id
	`, func(rows *sql.Rows) error {
		var r cpi.SeriesRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.SurveyCode, &r.Seasonal, &r.PeriodicityCode, &r.AreaCode, &r.ItemCode); err != nil {
			return err
		}
		records.Series = append(records.Series, r)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("load series: %w", err)
	}

	if len(records.Series) == 0 {
		return nil, nil, ErrNoDataset
	}

	if err := s.queryEach(ctx, `
		SELECT series_id, year, period, value
		FROM observations ORDER BY series_id, year, period
	`, func(rows *sql.Rows) error {
		var o cpi.ObservationRecord
		if err := rows.Scan(&o.SeriesID, &o.Year, &o.PeriodCode, &o.Value); err != nil {
			return err
		}
		records.Observations = append(records.Observations, o)
		return nil
	}); err != nil {
		return nil, nil, fmt.Errorf("load observations: %w", err)
	}

	return records, refresh, nil
}

// queryEach runs query and calls scan for every row.
func (s *SQLiteStore) queryEach(ctx context.Context, query string, scan func(*sql.Rows) error, args ...interface{}) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SearchSeries queries stored series with optional filters. Seasonally
// adjusted series are never returned.
func (s *SQLiteStore) SearchSeries(ctx context.Context, q SeriesQuery) ([]SeriesRow, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	clauses := []string{"s.seasonal <> 'S'"}
	var args []interface{}

	for _, word := range strings.Fields(q.Query) {
		clauses = append(clauses, "s.title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(word)+"%")
	}
	if q.AreaCode != "" {
		clauses = append(clauses, "s.area_code = ?")
		args = append(args, q.AreaCode)
	}
	if q.ItemCode != "" {
		clauses = append(clauses, "s.item_code = ?")
		args = append(args, q.ItemCode)
	}
	if q.Periodicity != "" {
		clauses = append(clauses, "s.periodicity_code = ?")
		args = append(args, strings.ToUpper(q.Periodicity))
	}

	fullQuery := `
		SELECT s.id, s.title, s.survey_code, s.periodicity_code,
		       s.area_code, COALESCE(a.name, ''), s.item_code, COALESCE(i.name, ''),
		       (SELECT COUNT(*) FROM observations o WHERE o.series_id = s.id)
		FROM series s
		LEFT JOIN areas a ON a.code = s.area_code
		LEFT JOIN items i ON i.code = s.item_code
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY s.id LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	results := []SeriesRow{}
	err := s.queryEach(ctx, fullQuery, func(rows *sql.Rows) error {
		var r SeriesRow
		if err := rows.Scan(
			&r.ID, &r.Title, &r.SurveyCode, &r.PeriodicityCode,
			&r.AreaCode, &r.AreaName, &r.ItemCode, &r.ItemName, &r.ObservationCount,
		); err != nil {
			return fmt.Errorf("scan series: %w", err)
		}
		results = append(results, r)
		return nil
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	return results, nil
}

// escapeLike escapes the LIKE wildcards in a search term.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanRefresh(scan func(dest ...interface{}) error) (*Refresh, error) {
	var r Refresh
	var tsStr string
	if err := scan(&r.ID, &r.Version, &r.Source, &r.SeriesCount, &r.ObservationCount, &tsStr); err != nil {
		return nil, err
	}
	r.RefreshedAt, _ = parseTimestamp(tsStr)
	return &r, nil
}

// LatestRefresh returns the most recent refresh, or ErrNoDataset.
func (s *SQLiteStore) LatestRefresh(ctx context.Context) (*Refresh, error) {
	r, err := scanRefresh(s.latestRefresh.QueryRowContext(ctx).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDataset
		}
		return nil, fmt.Errorf("latest refresh: %w", err)
	}
	return r, nil
}

// ListRefreshes returns up to limit refreshes, newest first.
func (s *SQLiteStore) ListRefreshes(ctx context.Context, limit int) ([]Refresh, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []Refresh{}
	err := s.queryEach(ctx, `
		SELECT id, version, source, series_count, observation_count, refreshed_at
		FROM refreshes ORDER BY id DESC LIMIT ?
	`, func(rows *sql.Rows) error {
		r, err := scanRefresh(rows.Scan)
		if err != nil {
			return err
		}
		out = append(out, *r)
		return nil
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("list refreshes: %w", err)
	}
	return out, nil
}

// PruneRefreshes deletes refresh log entries older than olderThan. The
// latest refresh is always kept since it describes the stored dataset.
func (s *SQLiteStore) PruneRefreshes(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM refreshes
		WHERE refreshed_at < ? AND id <> (SELECT MAX(id) FROM refreshes)
	`, olderThan.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune refreshes: %w", err)
	}
	return res.RowsAffected()
}

// CountPrunable reports how many refreshes PruneRefreshes would delete.
func (s *SQLiteStore) CountPrunable(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM refreshes
		WHERE refreshed_at < ? AND id <> (SELECT MAX(id) FROM refreshes)
	`, olderThan.UTC().Format(time.RFC3339)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count prunable refreshes: %w", err)
	}
	return n, nil
}

// PurgeAll deletes the stored dataset and the refresh log.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DELETE FROM observations",
		"DELETE FROM series",
		"DELETE FROM items",
		"DELETE FROM areas",
		"DELETE FROM refreshes",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return tx.Commit()
}

// GetStats returns aggregate statistics about the stored dataset.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM series WHERE seasonal <> 'S'", &stats.TotalSeries},
		{"SELECT COUNT(*) FROM observations", &stats.TotalObservations},
		{"SELECT COUNT(*) FROM areas", &stats.TotalAreas},
		{"SELECT COUNT(*) FROM items", &stats.TotalItems},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats (%s): %w", c.query, err)
		}
	}

	// Year range (handle empty DB)
	if stats.TotalObservations > 0 {
		err := s.db.QueryRowContext(ctx, "SELECT MIN(year), MAX(year) FROM observations").
			Scan(&stats.FirstYear, &stats.LastYear)
		if err != nil {
			return nil, fmt.Errorf("year range: %w", err)
		}
	}

	refresh, err := s.LatestRefresh(ctx)
	switch {
	case err == nil:
		stats.LastRefresh = refresh
	case !errors.Is(err, ErrNoDataset):
		return nil, err
	}

	// Areas with the most series
	err = s.queryEach(ctx, `
		SELECT s.area_code, COALESCE(a.name, ''), COUNT(*) AS cnt
		FROM series s LEFT JOIN areas a ON a.code = s.area_code
		WHERE s.seasonal <> 'S'
		GROUP BY s.area_code ORDER BY cnt DESC, s.area_code LIMIT 10
	`, func(rows *sql.Rows) error {
		var ac AreaCount
		if err := rows.Scan(&ac.Code, &ac.Name, &ac.Count); err != nil {
			return err
		}
		stats.TopAreas = append(stats.TopAreas, ac)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("top areas: %w", err)
	}

	return stats, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.insertArea, s.insertItem, s.insertSeries,
		s.insertObservation, s.insertRefresh, s.latestRefresh,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
