package cpi_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/cpi/cpitest"
)

func ptr(p cpi.Period) *cpi.Period { return &p }

func defaultSeries(t *testing.T) *cpi.Series {
	t.Helper()
	s, err := buildFixture(t).Default()
	require.NoError(t, err)
	return s
}

// --- ValueAt ---

func TestValueAt_RoundTrip(t *testing.T) {
	cat := buildFixture(t)
	for s := range cat.All() {
		for _, o := range s.Observations() {
			v, err := s.ValueAt(o.Period)
			require.NoError(t, err, "%s %s", s.ID, o.Period)
			assert.Equal(t, o.Value, v)
		}
		for _, o := range s.AnnualAverages() {
			v, err := s.ValueAt(o.Period)
			require.NoError(t, err, "%s %s", s.ID, o.Period)
			assert.Equal(t, o.Value, v)
		}
	}
}

func TestValueAt_YearOnMonthlyUsesAnnualAverage(t *testing.T) {
	s := defaultSeries(t)

	v, err := s.ValueAt(cpi.Year(1950))
	require.NoError(t, err)
	assert.Equal(t, 24.1, v)

	v, err = s.ValueAt(cpi.Month(1950, time.January))
	require.NoError(t, err)
	assert.Equal(t, 23.5, v)
}

func TestValueAt_OutOfRange(t *testing.T) {
	s := defaultSeries(t)

	for _, p := range []cpi.Period{cpi.Year(1900), cpi.Year(2018), cpi.Month(2030, time.January), cpi.Month(1950, time.February)} {
		_, err := s.ValueAt(p)
		assert.True(t, errors.Is(err, cpi.ErrPeriodNotFound), p.String())
	}
}

func TestValueAt_MonthOnAnnualSeries(t *testing.T) {
	cat := buildFixture(t)
	s, err := cat.Series(cpitest.LASemiannual)
	require.NoError(t, err)

	_, err = s.ValueAt(cpi.Month(2000, time.January))
	assert.True(t, errors.Is(err, cpi.ErrPeriodMismatch))

	v, err := s.ValueAt(cpi.Year(2001))
	require.NoError(t, err)
	assert.Equal(t, 177.3, v)
}

// --- Adjust ---

func TestAdjust_Identity(t *testing.T) {
	s := defaultSeries(t)

	for _, p := range []cpi.Period{cpi.Year(1950), cpi.Month(1960, time.July), cpi.Year(2024)} {
		got, err := cpi.Adjust(s, 123.45, p, ptr(p))
		require.NoError(t, err)
		assert.Equal(t, 123.45, got)
	}
}

func TestAdjust_IdentityStillRequiresPeriod(t *testing.T) {
	s := defaultSeries(t)

	_, err := cpi.Adjust(s, 100, cpi.Year(1900), ptr(cpi.Year(1900)))
	assert.True(t, errors.Is(err, cpi.ErrPeriodNotFound))
}

func TestAdjust_InverseRoundTrip(t *testing.T) {
	s := defaultSeries(t)

	pairs := [][2]cpi.Period{
		{cpi.Year(1950), cpi.Year(2024)},
		{cpi.Month(1950, time.January), cpi.Month(2025, time.March)},
		{cpi.Year(1960), cpi.Month(2000, time.January)},
	}
	for _, pair := range pairs {
		there, err := cpi.Adjust(s, 100, pair[0], ptr(pair[1]))
		require.NoError(t, err)
		back, err := cpi.Adjust(s, there, pair[1], ptr(pair[0]))
		require.NoError(t, err)
		assert.InDelta(t, 100, back, 1e-9)
	}
}

func TestAdjust_YearToYear(t *testing.T) {
	s := defaultSeries(t)

	got, err := cpi.Adjust(s, 100, cpi.Year(1950), ptr(cpi.Year(1960)))
	require.NoError(t, err)
	assert.InDelta(t, 122.82157676348547, got, 1e-9)
}

func TestAdjust_MonthToMonth(t *testing.T) {
	s := defaultSeries(t)

	got, err := cpi.Adjust(s, 100, cpi.Month(1950, time.January), ptr(cpi.Month(1960, time.January)))
	require.NoError(t, err)
	assert.InDelta(t, 124.68085106382979, got, 1e-9)
}

func TestAdjust_MixedGranularity(t *testing.T) {
	s := defaultSeries(t)

	got, err := cpi.Adjust(s, 100, cpi.Year(1950), ptr(cpi.Month(2025, time.March)))
	require.NoError(t, err)
	assert.InDelta(t, 100*319.799/24.1, got, 1e-9)
}

func TestAdjust_DefaultTarget(t *testing.T) {
	s := defaultSeries(t)

	// A year lands on the latest annual average.
	got, err := cpi.Adjust(s, 100, cpi.Year(1950), nil)
	require.NoError(t, err)
	assert.InDelta(t, 100*313.689/24.1, got, 1e-9)

	// A month lands on the latest month.
	got, err = cpi.Adjust(s, 100, cpi.Month(1950, time.January), nil)
	require.NoError(t, err)
	assert.InDelta(t, 100*319.799/23.5, got, 1e-9)

}

func TestAdjust_InvalidPeriods(t *testing.T) {
	s := defaultSeries(t)

	cases := []struct {
		name string
		p    cpi.Period
	}{
		{"zero", cpi.Period{}},
		{"year zero", cpi.Year(0)},
		{"negative year", cpi.Year(-5)},
		{"month 13", cpi.Month(1950, 13)},
	}
	for _, tc := range cases {
		t.Run(tc.name+" source", func(t *testing.T) {
			_, err := cpi.Adjust(s, 100, tc.p, ptr(cpi.Year(1960)))
			require.Error(t, err)
			assert.ErrorIs(t, err, cpi.ErrPeriodNotFound)
			assert.True(t, cpi.IsLookupFault(err))
		})
		t.Run(tc.name+" target", func(t *testing.T) {
			_, err := cpi.Adjust(s, 100, cpi.Year(1950), ptr(tc.p))
			require.Error(t, err, "a set target is never replaced by the default")
			assert.ErrorIs(t, err, cpi.ErrPeriodNotFound)
		})
	}

	_, err := s.ValueAt(cpi.Month(1950, 13))
	assert.ErrorContains(t, err, "1950-13")
}

func TestDefaultTarget_FallsBackToLatest(t *testing.T) {
	cat := buildFixture(t)
	energy, err := cat.Series(cpitest.LAEnergyID)
	require.NoError(t, err)

	p, err := cpi.DefaultTarget(energy, cpi.Year(2000))
	require.NoError(t, err)
	assert.Equal(t, cpi.Year(2000), p)

	noAverages := &cpi.Records{
		Series: []cpi.SeriesRecord{{ID: "CUURX000SA0", SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "X000", ItemCode: "SA0"}},
		Observations: []cpi.ObservationRecord{
			{SeriesID: "CUURX000SA0", Year: 2001, PeriodCode: "M02", Value: 101},
		},
	}
	c2, err := cpi.Build(noAverages, cpi.Defaults{SeriesID: "CUURX000SA0"})
	require.NoError(t, err)
	s, err := c2.Default()
	require.NoError(t, err)

	p, err = cpi.DefaultTarget(s, cpi.Year(2001))
	require.NoError(t, err)
	assert.Equal(t, cpi.Month(2001, time.February), p)
}

func TestAdjust_LosAngelesMissingPeriod(t *testing.T) {
	cat := buildFixture(t)
	la, err := cpi.Resolve(cat, cpi.Filter{Area: cpitest.LosAngeles})
	require.NoError(t, err)

	// 1950 is published for the nation but not for Los Angeles.
	_, err = cpi.Adjust(la, 100, cpi.Year(1950), nil)
	assert.True(t, errors.Is(err, cpi.ErrPeriodNotFound))

	_, err = cpi.Adjust(la, 100, cpi.Month(1950, time.January), nil)
	assert.True(t, errors.Is(err, cpi.ErrPeriodNotFound))

	got, err := cpi.Adjust(la, 100, cpi.Year(2000), ptr(cpi.Year(2024)))
	require.NoError(t, err)
	assert.InDelta(t, 100*335.6/171.6, got, 1e-9)
}

func TestAdjust_AnnualSeriesRejectsMonth(t *testing.T) {
	cat := buildFixture(t)
	s, err := cat.Series(cpitest.LASemiannual)
	require.NoError(t, err)

	_, err = cpi.Adjust(s, 100, cpi.Month(2000, time.January), nil)
	assert.True(t, errors.Is(err, cpi.ErrPeriodMismatch))

	_, err = cpi.Adjust(s, 100, cpi.Year(2000), ptr(cpi.Month(2001, time.January)))
	assert.True(t, errors.Is(err, cpi.ErrPeriodMismatch))

	got, err := cpi.Adjust(s, 100, cpi.Year(2000), nil)
	require.NoError(t, err)
	assert.InDelta(t, 100*177.3/171.6, got, 1e-9)
}

func TestAdjust_InvalidIndexValue(t *testing.T) {
	for _, bad := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		records := &cpi.Records{
			Series: []cpi.SeriesRecord{{ID: "CUURX000SA0", SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "X000", ItemCode: "SA0"}},
			Observations: []cpi.ObservationRecord{
				{SeriesID: "CUURX000SA0", Year: 2000, PeriodCode: "M13", Value: bad},
				{SeriesID: "CUURX000SA0", Year: 2001, PeriodCode: "M13", Value: 110},
			},
		}
		cat, err := cpi.Build(records, cpi.Defaults{SeriesID: "CUURX000SA0"})
		require.NoError(t, err)
		s, err := cat.Default()
		require.NoError(t, err)

		_, err = cpi.Adjust(s, 100, cpi.Year(2000), ptr(cpi.Year(2001)))
		assert.True(t, errors.Is(err, cpi.ErrInvalidIndexValue), "value %v", bad)
		assert.True(t, cpi.IsIntegrityFault(err))
	}
}

func TestAdjust_EmptySeries(t *testing.T) {
	records := &cpi.Records{
		Series: []cpi.SeriesRecord{{ID: "CUURX000SA0", SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "X000", ItemCode: "SA0"}},
	}
	cat, err := cpi.Build(records, cpi.Defaults{SeriesID: "CUURX000SA0"})
	require.NoError(t, err)
	s, err := cat.Default()
	require.NoError(t, err)

	_, err = cpi.Adjust(s, 100, cpi.Year(2000), nil)
	assert.True(t, errors.Is(err, cpi.ErrEmptySeries))
}

// --- AdjustDecimal ---

func TestAdjustDecimal(t *testing.T) {
	s := defaultSeries(t)

	got, err := cpi.AdjustDecimal(s, decimal.NewFromInt(100), cpi.Year(1950), ptr(cpi.Year(1960)))
	require.NoError(t, err)
	assert.Equal(t, "122.82", got.StringFixed(2))

	same, err := cpi.AdjustDecimal(s, decimal.RequireFromString("19.99"), cpi.Year(1950), ptr(cpi.Year(1950)))
	require.NoError(t, err)
	assert.Equal(t, "19.99", same.String())

	f, err := cpi.Adjust(s, 100, cpi.Month(1950, time.July), ptr(cpi.Year(2017)))
	require.NoError(t, err)
	d, err := cpi.AdjustDecimal(s, decimal.NewFromInt(100), cpi.Month(1950, time.July), ptr(cpi.Year(2017)))
	require.NoError(t, err)
	assert.InDelta(t, f, d.InexactFloat64(), 1e-9)
}
