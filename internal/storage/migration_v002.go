package storage

import "database/sql"

// migrateV002 adds the refresh log.
func migrateV002(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refreshes (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			version           TEXT NOT NULL UNIQUE,
			source            TEXT NOT NULL DEFAULT '',
			series_count      INTEGER NOT NULL DEFAULT 0,
			observation_count INTEGER NOT NULL DEFAULT 0,
			refreshed_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refreshes_ts ON refreshes(refreshed_at)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
