package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/cpi/internal/cpi/cpitest"
)

func newSearch() *SearchCommand {
	return &SearchCommand{globals: &GlobalFlags{}, version: "test", Limit: 10}
}

func TestSearch_ByTitle(t *testing.T) {
	store, _ := seededStore(t)
	cmd := newSearch()

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"Los", "Angeles"}))
	})

	assert.Contains(t, output, `Found 3 series for "Los Angeles"`)
	assert.Contains(t, output, cpitest.LosAngelesID)
	assert.Contains(t, output, cpitest.LASemiannual)
	assert.Contains(t, output, cpitest.LAEnergyID)
	assert.Contains(t, output, "annual")
	assert.NotContains(t, output, cpitest.DefaultID)
}

func TestSearch_ItemFilter(t *testing.T) {
	store, _ := seededStore(t)
	cmd := newSearch()
	cmd.Items = "SA0E"

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	assert.Contains(t, output, "Found 1 series")
	assert.Contains(t, output, cpitest.LAEnergyID)
	assert.Contains(t, output, "2 observations")
}

func TestSearch_SkipsSeasonallyAdjusted(t *testing.T) {
	store, _ := seededStore(t)
	cmd := newSearch()

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"seasonally"}))
	})

	assert.NotContains(t, output, cpitest.AdjustedID)
}

func TestSearch_NoResults(t *testing.T) {
	store, _ := seededStore(t)
	cmd := newSearch()

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"Atlantis"}))
	})

	assert.Contains(t, output, `No series found for "Atlantis"`)
}

func TestSearch_JSONOutput(t *testing.T) {
	store, _ := seededStore(t)
	cmd := newSearch()
	cmd.globals.JSON = true
	cmd.Area = "S49A"
	cmd.Limit = 2

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	var out jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &out), output)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.Equal(t, "S49A", r.AreaCode)
		assert.Equal(t, cpitest.LosAngeles, r.AreaName)
	}
}
