package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/cpi/internal/cpi/cpitest"
	"github.com/runnerr0/cpi/internal/storage"
)

// setupPruneTest logs oldCount refreshes from 60 days ago, then stores the
// fixture dataset, so the newest refresh is recent.
func setupPruneTest(t *testing.T, oldCount int) (*PruneCommand, *storage.SQLiteStore) {
	t.Helper()
	store, db := setupStore(t)

	old := time.Now().Add(-60 * 24 * time.Hour).UTC().Format(time.RFC3339)
	for i := 0; i < oldCount; i++ {
		_, err := db.Exec(`INSERT INTO refreshes (version, source, series_count, observation_count, refreshed_at)
			VALUES (?, 'old', 1, 1, ?)`, fmt.Sprintf("old-%d", i), old)
		require.NoError(t, err)
	}

	_, err := store.ReplaceDataset(context.Background(), cpitest.Records(), "fixture")
	require.NoError(t, err)

	cmd := &PruneCommand{
		globals: &GlobalFlags{},
		version: "test",
	}
	return cmd, store
}

func countRefreshes(t *testing.T, store *storage.SQLiteStore) int {
	t.Helper()
	refreshes, err := store.ListRefreshes(context.Background(), 100)
	require.NoError(t, err)
	return len(refreshes)
}

// --- Prune with configured retention ---

func TestPrune_DefaultRetention(t *testing.T) {
	cmd, store := setupPruneTest(t, 5)

	output := captureOutput(t, func() {
		err := cmd.executeWithStore(store, 30)
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Pruned 5 refresh log entries older than 30 days")
	assert.Equal(t, 1, countRefreshes(t, store))

	// The dataset itself is untouched.
	_, _, err := store.LoadRecords(context.Background())
	require.NoError(t, err)
}

// --- Prune with custom --older-than ---

func TestPrune_CustomOlderThan(t *testing.T) {
	cmd, store := setupPruneTest(t, 5)
	cmd.OlderThan = "12w"

	output := captureOutput(t, func() {
		err := cmd.executeWithStore(store, 30)
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Pruned 0 refresh log entries older than 84 days")
	assert.Equal(t, 6, countRefreshes(t, store))
}

// --- Dry run shows count without deleting ---

func TestPrune_DryRun(t *testing.T) {
	cmd, store := setupPruneTest(t, 5)
	cmd.DryRun = true

	output := captureOutput(t, func() {
		err := cmd.executeWithStore(store, 30)
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Would prune 5 refresh log entries")
	assert.Equal(t, 6, countRefreshes(t, store))
}

// --- The latest refresh always survives ---

func TestPrune_KeepsLatestRefresh(t *testing.T) {
	store, db := seededStore(t)
	latest, err := store.LatestRefresh(context.Background())
	require.NoError(t, err)

	// Backdate the only refresh past the retention period.
	_, err = db.Exec(`UPDATE refreshes SET refreshed_at = ?`,
		time.Now().Add(-400*24*time.Hour).UTC().Format(time.RFC3339))
	require.NoError(t, err)

	cmd := &PruneCommand{globals: &GlobalFlags{}, version: "test"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, 30))
	})
	assert.Contains(t, output, "Pruned 0 refresh log entries")

	after, err := store.LatestRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, latest.Version, after.Version)
}

// --- JSON output ---

func TestPrune_JSONOutput(t *testing.T) {
	cmd, store := setupPruneTest(t, 5)
	cmd.globals.JSON = true

	output := captureOutput(t, func() {
		err := cmd.executeWithStore(store, 30)
		require.NoError(t, err)
	})

	var result map[string]interface{}
	err := json.Unmarshal([]byte(strings.TrimSpace(output)), &result)
	require.NoError(t, err, "output should be valid JSON: %s", output)

	assert.Equal(t, float64(5), result["refreshes"])
	assert.Equal(t, false, result["dry_run"])
	assert.Equal(t, "30 days", result["older_than"])
}

func TestPrune_JSONDryRun(t *testing.T) {
	cmd, store := setupPruneTest(t, 3)
	cmd.DryRun = true
	cmd.globals.JSON = true

	output := captureOutput(t, func() {
		err := cmd.executeWithStore(store, 30)
		require.NoError(t, err)
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &result))

	assert.Equal(t, float64(3), result["refreshes"])
	assert.Equal(t, true, result["dry_run"])
}

// --- Invalid retention ---

func TestPrune_InvalidOlderThan(t *testing.T) {
	cmd, store := setupPruneTest(t, 1)
	cmd.OlderThan = "invalid"

	err := cmd.executeWithStore(store, 30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestPrune_ZeroRetention(t *testing.T) {
	cmd, store := setupPruneTest(t, 1)

	err := cmd.executeWithStore(store, 0)
	assert.ErrorContains(t, err, "retention must be positive")
}

// --- parseDuration tests ---

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30d": 30 * 24 * time.Hour,
		"24h": 24 * time.Hour,
		"2w":  14 * 24 * time.Hour,
		"90m": 90 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "d", "abc", "10y", "-5d"} {
		_, err := parseDuration(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "1m0s", formatDurationHuman(time.Minute))
}
