package cpi

import (
	"strconv"
	"strings"
	"time"
)

// Records is a parsed, validated dataset as produced by a loader. It is the
// only input from which catalogs are built.
type Records struct {
	Areas        []Area
	Items        []Item
	Series       []SeriesRecord
	Observations []ObservationRecord
}

// SeriesRecord is one row of the series table.
type SeriesRecord struct {
	ID              string
	Title           string
	SurveyCode      string
	Seasonal        string // "S" seasonally adjusted, "U" not adjusted
	PeriodicityCode string // "R" monthly, "S" semi-annual
	AreaCode        string
	ItemCode        string
}

// SeasonallyAdjusted reports whether the record describes an adjusted series.
func (r SeriesRecord) SeasonallyAdjusted() bool {
	return strings.EqualFold(r.Seasonal, "S")
}

// ObservationRecord is one row of the observations table. PeriodCode uses
// the BLS convention: M01-M12 months, M13 annual average, S01/S02 half
// years, S03 annual.
type ObservationRecord struct {
	SeriesID   string
	Year       int
	PeriodCode string
	Value      float64
}

// Surveys maps survey codes to their published names.
var Surveys = map[string]string{
	"CU": "All urban consumers",
	"CW": "Urban wage earners and clerical workers",
}

// ParseSeriesID splits a BLS series identifier into its parts:
// survey[0:2] seasonal[2] periodicity[3] area[4:8] item[8:].
func ParseSeriesID(id string) (SeriesRecord, bool) {
	id = strings.TrimSpace(id)
	if len(id) < 9 {
		return SeriesRecord{}, false
	}
	return SeriesRecord{
		ID:              id,
		SurveyCode:      id[:2],
		Seasonal:        id[2:3],
		PeriodicityCode: id[3:4],
		AreaCode:        id[4:8],
		ItemCode:        id[8:],
	}, true
}

type periodKind int

const (
	monthlyValue periodKind = iota
	annualValue
	halfYearValue
)

// periodFromCode converts a BLS year and period code into a Period.
func periodFromCode(year int, code string) (Period, periodKind, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 || year <= 0 {
		return Period{}, 0, false
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil {
		return Period{}, 0, false
	}

	switch code[0] {
	case 'M':
		switch {
		case n >= 1 && n <= 12:
			return Month(year, time.Month(n)), monthlyValue, true
		case n == 13:
			return Year(year), annualValue, true
		}
	case 'S':
		switch n {
		case 1, 2:
			return Year(year), halfYearValue, true
		case 3:
			return Year(year), annualValue, true
		}
	}
	return Period{}, 0, false
}

// PeriodCode returns the BLS period code for p on a series of the given
// periodicity.
func PeriodCode(p Period, periodicity Periodicity) string {
	if !p.IsYear() {
		return "M" + twoDigits(int(p.Month))
	}
	if periodicity == Annual {
		return "S03"
	}
	return "M13"
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
