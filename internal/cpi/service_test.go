package cpi_test

import (
	"bytes"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/cpi/cpitest"
	"github.com/runnerr0/cpi/internal/logger"
)

func TestService_NotConfigured(t *testing.T) {
	svc := cpi.NewService(nil)

	_, err := svc.Get(cpi.Year(1950), cpi.Filter{})
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))

	_, err = svc.Inflate(100, cpi.Year(1950), nil, cpi.Filter{})
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))

	_, err = svc.ResolveSeries(cpi.Filter{SeriesID: cpitest.DefaultID})
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))

	_, err = svc.ListAreas()
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))

	_, err = svc.ListItems()
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))

	_, err = svc.Snapshot()
	assert.True(t, errors.Is(err, cpi.ErrNotConfigured))
}

func TestService_Get(t *testing.T) {
	svc := cpitest.Service(t)

	v, err := svc.Get(cpi.Year(1950), cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 24.1, v)

	v, err = svc.Get(cpi.Year(2000), cpi.Filter{Area: cpitest.LosAngeles})
	require.NoError(t, err)
	assert.Equal(t, 171.6, v)

	_, err = svc.Get(cpi.Year(1950), cpi.Filter{SeriesID: "UNKNOWN"})
	assert.True(t, errors.Is(err, cpi.ErrSeriesNotFound))
}

func TestService_Inflate(t *testing.T) {
	svc := cpitest.Service(t)

	got, err := svc.Inflate(100, cpi.Year(1950), nil, cpi.Filter{})
	require.NoError(t, err)
	assert.InDelta(t, 100*313.689/24.1, got, 1e-9)

	to := cpi.Year(1960)
	got, err = svc.Inflate(100, cpi.Year(1950), &to, cpi.Filter{})
	require.NoError(t, err)
	assert.InDelta(t, 122.82157676348547, got, 1e-9)

	d, err := svc.InflateDecimal(decimal.NewFromInt(100), cpi.Year(1950), &to, cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "122.82", d.StringFixed(2))
}

func TestService_InvalidPeriodIsNotFound(t *testing.T) {
	svc := cpitest.Service(t)

	_, err := svc.Get(cpi.Year(-5), cpi.Filter{})
	assert.ErrorIs(t, err, cpi.ErrPeriodNotFound)
	assert.True(t, cpi.IsLookupFault(err))

	_, err = svc.Get(cpi.Month(1950, 13), cpi.Filter{})
	assert.ErrorIs(t, err, cpi.ErrPeriodNotFound)

	zero := cpi.Year(0)
	_, err = svc.Inflate(100, cpi.Year(1950), &zero, cpi.Filter{})
	assert.ErrorIs(t, err, cpi.ErrPeriodNotFound)
}

func TestService_LatestAndLists(t *testing.T) {
	svc := cpitest.Service(t)

	y, err := svc.LatestYear(cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, cpi.Year(2024), y.Period)

	m, err := svc.LatestMonth(cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, cpi.Month(2025, time.March), m.Period)

	_, err = svc.LatestMonth(cpi.Filter{Area: cpitest.LosAngeles, Periodicity: "annual"})
	assert.True(t, errors.Is(err, cpi.ErrPeriodMismatch))

	areas, err := svc.ListAreas()
	require.NoError(t, err)
	assert.Len(t, slices.Collect(areas), 3)

	items, err := svc.ListItems()
	require.NoError(t, err)
	assert.Len(t, slices.Collect(items), 3)

	def, err := svc.Default()
	require.NoError(t, err)
	assert.Equal(t, cpitest.DefaultID, def.ID)
}

func TestService_ReloadSwapsSnapshot(t *testing.T) {
	svc := cpi.NewService(nil)
	first := cpitest.Snapshot(t)

	prev := svc.Reload(first)
	assert.Nil(t, prev)

	v, err := svc.Get(cpi.Year(1950), cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 24.1, v)

	records := cpitest.Records()
	for i := range records.Observations {
		if records.Observations[i].SeriesID == cpitest.DefaultID {
			records.Observations[i].Value *= 2
		}
	}
	second, err := cpi.NewSnapshot(records, cpi.StandardDefaults())
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)

	prev = svc.Reload(second)
	assert.Same(t, first, prev)

	v, err = svc.Get(cpi.Year(1950), cpi.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 48.2, v)

	// The replaced snapshot is untouched.
	old, err := first.Catalog.Default()
	require.NoError(t, err)
	v, err = old.ValueAt(cpi.Year(1950))
	require.NoError(t, err)
	assert.Equal(t, 24.1, v)
}

func TestService_ConcurrentReadsDuringReload(t *testing.T) {
	svc := cpitest.Service(t)
	to := cpi.Year(1960)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, err := svc.Inflate(100, cpi.Year(1950), &to, cpi.Filter{})
				if assert.NoError(t, err) {
					assert.InDelta(t, 122.82157676348547, got, 1e-9)
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		svc.Reload(cpitest.Snapshot(t))
	}
	wg.Wait()
}

func TestService_LogsIntegrityFaults(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("info", "json", &buf)
	t.Cleanup(func() { logger.InitWithWriter("error", "json", &bytes.Buffer{}) })

	records := cpitest.Records()
	records.Series = append(records.Series, cpi.SeriesRecord{
		ID: "CUUR0100SA0X", SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "0100", ItemCode: "SA0",
	})
	snap, err := cpi.NewSnapshot(records, cpi.StandardDefaults())
	require.NoError(t, err)
	svc := cpi.NewService(snap)

	_, err = svc.Get(cpi.Year(2000), cpi.Filter{Area: cpitest.Northeast})
	require.True(t, errors.Is(err, cpi.ErrAmbiguousSeries))
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), snap.Version)

	buf.Reset()
	_, err = svc.Get(cpi.Year(1900), cpi.Filter{})
	require.True(t, errors.Is(err, cpi.ErrPeriodNotFound))
	assert.NotContains(t, buf.String(), "[ERROR]")
}
