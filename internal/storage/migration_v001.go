package storage

import "database/sql"

// migrateV001 creates the dataset schema: the area and item code lists,
// series metadata and observations. Every statement uses IF NOT EXISTS for
// idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS areas (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS series (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL DEFAULT '',
			survey_code      TEXT NOT NULL,
			seasonal         TEXT NOT NULL DEFAULT 'U',
			periodicity_code TEXT NOT NULL CHECK (periodicity_code IN ('R', 'S')),
			area_code        TEXT NOT NULL,
			item_code        TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS observations (
			series_id TEXT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
			year      INTEGER NOT NULL,
			period    TEXT NOT NULL,
			value     REAL NOT NULL,
			PRIMARY KEY (series_id, year, period)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_series_area     ON series(area_code)`,
		`CREATE INDEX IF NOT EXISTS idx_series_item     ON series(item_code)`,
		`CREATE INDEX IF NOT EXISTS idx_series_lookup   ON series(survey_code, area_code, item_code, periodicity_code)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_yr ON observations(year)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
