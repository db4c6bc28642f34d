// Package cpitest provides a small CPI dataset for tests.
package cpitest

import (
	"testing"

	"github.com/runnerr0/cpi/internal/cpi"
)

// Series ids present in Records.
const (
	DefaultID     = "CUUR0000SA0"
	AdjustedID    = "CUSR0000SA0" // seasonally adjusted, dropped on build
	LosAngelesID  = "CUURS49ASA0"
	LASemiannual  = "CUUSS49ASA0"
	LAEnergyID    = "CUURS49ASA0E"
	NortheastID   = "CUUR0100SA0"
	LosAngeles    = "Los Angeles-Long Beach-Anaheim, CA"
	Northeast     = "Northeast"
	USCityAverage = "U.S. city average"
)

// Records returns a fresh copy of the fixture dataset. Values follow the
// published CPI-U where the tests rely on them.
func Records() *cpi.Records {
	return &cpi.Records{
		Areas: []cpi.Area{
			{Code: "0000", Name: USCityAverage},
			{Code: "0100", Name: Northeast},
			{Code: "S49A", Name: LosAngeles},
			{Code: "0000", Name: USCityAverage},
		},
		Items: []cpi.Item{
			{Code: "SA0", Name: "All items"},
			{Code: "SA0E", Name: "Energy"},
			{Code: "SAT", Name: "Transportation"},
		},
		Series: []cpi.SeriesRecord{
			{ID: DefaultID, Title: "All items in U.S. city average, all urban consumers, not seasonally adjusted",
				SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "0000", ItemCode: "SA0"},
			{ID: AdjustedID, Title: "All items in U.S. city average, all urban consumers, seasonally adjusted",
				SurveyCode: "CU", Seasonal: "S", PeriodicityCode: "R", AreaCode: "0000", ItemCode: "SA0"},
			{ID: LosAngelesID, Title: "All items in Los Angeles-Long Beach-Anaheim, CA, all urban consumers, not seasonally adjusted",
				SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "S49A", ItemCode: "SA0"},
			{ID: LASemiannual, Title: "All items in Los Angeles-Long Beach-Anaheim, CA, all urban consumers, not seasonally adjusted, semiannual",
				SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "S", AreaCode: "S49A", ItemCode: "SA0"},
			{ID: LAEnergyID, Title: "Energy in Los Angeles-Long Beach-Anaheim, CA, all urban consumers, not seasonally adjusted",
				SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "S49A", ItemCode: "SA0E"},
			{ID: NortheastID, Title: "All items in Northeast urban, all urban consumers, not seasonally adjusted",
				SurveyCode: "CU", Seasonal: "U", PeriodicityCode: "R", AreaCode: "0100", ItemCode: "SA0"},
		},
		Observations: []cpi.ObservationRecord{
			{SeriesID: DefaultID, Year: 1950, PeriodCode: "M01", Value: 23.5},
			{SeriesID: DefaultID, Year: 1950, PeriodCode: "M07", Value: 24.1},
			{SeriesID: DefaultID, Year: 1950, PeriodCode: "M13", Value: 24.1},
			{SeriesID: DefaultID, Year: 1960, PeriodCode: "M01", Value: 29.3},
			{SeriesID: DefaultID, Year: 1960, PeriodCode: "M07", Value: 29.6},
			{SeriesID: DefaultID, Year: 1960, PeriodCode: "M13", Value: 29.6},
			{SeriesID: DefaultID, Year: 2000, PeriodCode: "M01", Value: 168.8},
			{SeriesID: DefaultID, Year: 2000, PeriodCode: "M13", Value: 172.2},
			{SeriesID: DefaultID, Year: 2017, PeriodCode: "M01", Value: 242.839},
			{SeriesID: DefaultID, Year: 2017, PeriodCode: "M13", Value: 245.120},
			{SeriesID: DefaultID, Year: 2018, PeriodCode: "M01", Value: 247.867},
			{SeriesID: DefaultID, Year: 2024, PeriodCode: "M12", Value: 315.605},
			{SeriesID: DefaultID, Year: 2024, PeriodCode: "M13", Value: 313.689},
			{SeriesID: DefaultID, Year: 2025, PeriodCode: "M01", Value: 317.671},
			{SeriesID: DefaultID, Year: 2025, PeriodCode: "M03", Value: 319.799},
			// exact duplicate row, dropped on build
			{SeriesID: DefaultID, Year: 2025, PeriodCode: "M03", Value: 319.799},

			{SeriesID: AdjustedID, Year: 1950, PeriodCode: "M01", Value: 23.51},

			{SeriesID: LosAngelesID, Year: 2000, PeriodCode: "M01", Value: 167.9},
			{SeriesID: LosAngelesID, Year: 2000, PeriodCode: "M13", Value: 171.6},
			{SeriesID: LosAngelesID, Year: 2024, PeriodCode: "M12", Value: 337.1},
			{SeriesID: LosAngelesID, Year: 2024, PeriodCode: "M13", Value: 335.6},

			{SeriesID: LASemiannual, Year: 2000, PeriodCode: "S01", Value: 170.5},
			{SeriesID: LASemiannual, Year: 2000, PeriodCode: "S02", Value: 172.7},
			{SeriesID: LASemiannual, Year: 2000, PeriodCode: "S03", Value: 171.6},
			{SeriesID: LASemiannual, Year: 2001, PeriodCode: "S03", Value: 177.3},

			{SeriesID: LAEnergyID, Year: 2000, PeriodCode: "M13", Value: 132.0},
			{SeriesID: LAEnergyID, Year: 2000, PeriodCode: "M06", Value: 131.2},

			{SeriesID: NortheastID, Year: 2000, PeriodCode: "M13", Value: 179.4},
			{SeriesID: NortheastID, Year: 2000, PeriodCode: "M01", Value: 174.8},
		},
	}
}

// Snapshot builds the fixture snapshot with the standard defaults.
func Snapshot(t testing.TB) *cpi.Snapshot {
	t.Helper()
	snap, err := cpi.NewSnapshot(Records(), cpi.StandardDefaults())
	if err != nil {
		t.Fatalf("build fixture snapshot: %v", err)
	}
	return snap
}

// Service returns a Service serving the fixture snapshot.
func Service(t testing.TB) *cpi.Service {
	t.Helper()
	return cpi.NewService(Snapshot(t))
}
