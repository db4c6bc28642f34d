package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/cpi/internal/cpi/cpitest"
	"github.com/runnerr0/cpi/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := storage.NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	return db
}

// setupStore returns an empty migrated store and its db.
func setupStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	db := openTestDB(t)

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, db
}

// seededStore returns a store holding the fixture dataset.
func seededStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	store, db := setupStore(t)
	_, err := store.ReplaceDataset(context.Background(), cpitest.Records(), "fixture")
	require.NoError(t, err)
	return store, db
}
