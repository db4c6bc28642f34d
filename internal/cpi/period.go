package cpi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthLayout is the text form of a monthly period.
const MonthLayout = "2006-01"

// Periodicity is the sampling interval of a series.
type Periodicity int

const (
	// Monthly series publish one value per calendar month, plus an annual
	// average for each complete year.
	Monthly Periodicity = iota
	// Annual series publish one value per year. BLS semi-annual series
	// load as Annual; their half-year values are not kept.
	Annual
)

func (p Periodicity) String() string {
	switch p {
	case Monthly:
		return "Monthly"
	case Annual:
		return "Annual"
	default:
		return fmt.Sprintf("Periodicity(%d)", int(p))
	}
}

// Code returns the BLS periodicity code used in series identifiers.
func (p Periodicity) Code() string {
	if p == Annual {
		return "S"
	}
	return "R"
}

// ParsePeriodicity accepts a periodicity name or a BLS periodicity code.
func ParsePeriodicity(s string) (Periodicity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly", "r", "m":
		return Monthly, nil
	case "annual", "semi-annual", "semiannual", "s", "a":
		return Annual, nil
	default:
		return 0, fmt.Errorf("unknown periodicity %q", s)
	}
}

// Period is either a bare year (Month == 0) or a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// Year returns the bare-year period y.
func Year(y int) Period {
	return Period{Year: y}
}

// Month returns the monthly period for y and m.
func Month(y int, m time.Month) Period {
	return Period{Year: y, Month: m}
}

// FromTime returns the monthly period containing t. The day is ignored.
func FromTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// IsYear reports whether p is a bare year.
func (p Period) IsYear() bool {
	return p.Month == 0
}

// Valid reports whether p names a real year or month.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 0 && p.Month <= time.December
}

// Compare orders periods by year, then month. A bare year sorts before
// the months of the same year.
func (p Period) Compare(q Period) int {
	switch {
	case p.Year < q.Year:
		return -1
	case p.Year > q.Year:
		return 1
	case p.Month < q.Month:
		return -1
	case p.Month > q.Month:
		return 1
	}
	return 0
}

// Time returns the first instant of the period in UTC.
func (p Period) Time() time.Time {
	m := p.Month
	if m == 0 {
		m = time.January
	}
	return time.Date(p.Year, m, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	if p.IsYear() {
		return strconv.Itoa(p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		// Time would roll the month over into a neighboring year.
		return fmt.Sprintf("%d-%02d", p.Year, int(p.Month))
	}
	return p.Time().Format(MonthLayout)
}

// periodLayouts are tried in order when a period is not a bare year.
var periodLayouts = []string{
	MonthLayout,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"Jan 2006",
	"January 2006",
}

// ParsePeriod parses "1950" as a year and any supported date form
// ("1950-01", "1950-01-11", "1950-01-01 00:00:00", ...) as a month.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, fmt.Errorf("invalid period: empty string")
	}

	if isDigits(s) {
		y, err := strconv.Atoi(s)
		if err != nil || y <= 0 {
			return Period{}, fmt.Errorf("invalid period: %q", s)
		}
		return Year(y), nil
	}

	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Period{}, fmt.Errorf("invalid period: %q (use a year like 1950 or a date like 1950-01-01)", s)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Coerce maps a caller-supplied period onto a series' granularity:
//
//	Year  on Annual  -> the year
//	Month on Monthly -> the month
//	Year  on Monthly -> the year, read from the published annual average
//	Month on Annual  -> ErrPeriodMismatch
//
// A period no series can hold (year <= 0, month outside 1-12) is
// ErrPeriodNotFound.
func Coerce(p Period, periodicity Periodicity) (Period, error) {
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: invalid period %s", ErrPeriodNotFound, p)
	}
	if periodicity == Annual && !p.IsYear() {
		return Period{}, fmt.Errorf("%w: %s requested from an annual series", ErrPeriodMismatch, p)
	}
	return p, nil
}
