package bls

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/runnerr0/cpi/internal/cpi"
)

// table is a parsed flat file: a header and its rows, every cell trimmed.
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

// readTable parses a tab separated BLS file. The files pad cells with
// spaces and occasionally carry a trailing empty column, so cells are
// trimmed and rows may be ragged.
func readTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", name)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	t := &table{name: name, columns: make(map[string]int, len(header))}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col != "" {
			t.columns[col] = i
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// require checks that every named column exists.
func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.columns[c]; !ok {
			return fmt.Errorf("%s: missing column %q", t.name, c)
		}
	}
	return nil
}

// get returns the named cell of row, or "" when the row is short.
func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseAreas reads cu.area.
func ParseAreas(r io.Reader) ([]cpi.Area, error) {
	t, err := readTable(AreaFile, r)
	if err != nil {
		return nil, err
	}
	if err := t.require("area_code", "area_name"); err != nil {
		return nil, err
	}
	out := make([]cpi.Area, 0, len(t.rows))
	for _, row := range t.rows {
		code := t.get(row, "area_code")
		if code == "" {
			continue
		}
		out = append(out, cpi.Area{Code: code, Name: t.get(row, "area_name")})
	}
	return out, nil
}

// ParseItems reads cu.item.
func ParseItems(r io.Reader) ([]cpi.Item, error) {
	t, err := readTable(ItemFile, r)
	if err != nil {
		return nil, err
	}
	if err := t.require("item_code", "item_name"); err != nil {
		return nil, err
	}
	out := make([]cpi.Item, 0, len(t.rows))
	for _, row := range t.rows {
		code := t.get(row, "item_code")
		if code == "" {
			continue
		}
		out = append(out, cpi.Item{Code: code, Name: t.get(row, "item_name")})
	}
	return out, nil
}

// ParseSeries reads cu.series. The survey comes from the series id; the
// other attributes come from their own columns, falling back to the id
// when a column is blank.
func ParseSeries(r io.Reader) ([]cpi.SeriesRecord, error) {
	t, err := readTable(SeriesFile, r)
	if err != nil {
		return nil, err
	}
	if err := t.require("series_id"); err != nil {
		return nil, err
	}

	out := make([]cpi.SeriesRecord, 0, len(t.rows))
	for _, row := range t.rows {
		parsed, ok := cpi.ParseSeriesID(t.get(row, "series_id"))
		if !ok {
			continue
		}
		parsed.Title = t.get(row, "series_title")
		if v := t.get(row, "seasonal"); v != "" {
			parsed.Seasonal = v
		}
		if v := t.get(row, "periodicity_code"); v != "" {
			parsed.PeriodicityCode = v
		}
		if v := t.get(row, "area_code"); v != "" {
			parsed.AreaCode = v
		}
		if v := t.get(row, "item_code"); v != "" {
			parsed.ItemCode = v
		}
		out = append(out, parsed)
	}
	return out, nil
}

// ParseObservations reads one cu.data.* file. Rows whose value is not a
// positive number are dropped and counted in skipped.
func ParseObservations(name string, r io.Reader) (obs []cpi.ObservationRecord, skipped int, err error) {
	t, err := readTable(name, r)
	if err != nil {
		return nil, 0, err
	}
	if err := t.require("series_id", "year", "period", "value"); err != nil {
		return nil, 0, err
	}

	obs = make([]cpi.ObservationRecord, 0, len(t.rows))
	for _, row := range t.rows {
		year, err := strconv.Atoi(t.get(row, "year"))
		if err != nil || year <= 0 {
			skipped++
			continue
		}
		value, err := strconv.ParseFloat(t.get(row, "value"), 64)
		if err != nil || value <= 0 || math.IsInf(value, 0) || math.IsNaN(value) {
			skipped++
			continue
		}
		obs = append(obs, cpi.ObservationRecord{
			SeriesID:   t.get(row, "series_id"),
			Year:       year,
			PeriodCode: t.get(row, "period"),
			Value:      value,
		})
	}
	return obs, skipped, nil
}
