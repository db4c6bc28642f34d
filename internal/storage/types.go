package storage

import "time"

// Refresh records one replacement of the stored dataset.
type Refresh struct {
	ID               int64
	Version          string
	Source           string // base URL or directory the files came from
	SeriesCount      int64
	ObservationCount int64
	RefreshedAt      time.Time
}

// SeriesQuery defines filters for searching stored series.
type SeriesQuery struct {
	Query       string // matched against the series title
	AreaCode    string
	ItemCode    string
	Periodicity string // BLS code, "R" or "S"
	Limit       int
	Offset      int
}

// SeriesRow is one stored series joined with its area and item names.
type SeriesRow struct {
	ID               string
	Title            string
	SurveyCode       string
	PeriodicityCode  string
	AreaCode         string
	AreaName         string
	ItemCode         string
	ItemName         string
	ObservationCount int64
}

// Stats holds aggregate statistics about the stored dataset.
type Stats struct {
	TotalSeries       int64
	TotalObservations int64
	TotalAreas        int64
	TotalItems        int64
	FirstYear         int
	LastYear          int
	LastRefresh       *Refresh
	DatabaseSizeBytes int64
	TopAreas          []AreaCount
}

// AreaCount pairs an area with its number of series.
type AreaCount struct {
	Code  string
	Name  string
	Count int64
}
