package cpi

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// DefaultSeriesID is the CPI for all urban consumers, all items, U.S. city
// average, not seasonally adjusted.
const DefaultSeriesID = "CUUR0000SA0"

// Defaults are the filter values used when a caller leaves a field empty.
type Defaults struct {
	SeriesID    string
	Survey      string
	Area        string
	Item        string
	Periodicity Periodicity
}

// StandardDefaults returns the defaults of the published CPI-U.
func StandardDefaults() Defaults {
	return Defaults{
		SeriesID:    DefaultSeriesID,
		Survey:      "All urban consumers",
		Area:        "U.S. city average",
		Item:        "All items",
		Periodicity: Monthly,
	}
}

// Filter is a partial description of a series. A non-empty SeriesID takes
// precedence over every other field. Survey, Area and Item match either a
// code or a name exactly; Periodicity accepts a name or a BLS code.
type Filter struct {
	SeriesID    string
	Survey      string
	Area        string
	Item        string
	Periodicity string
}

type seriesKey struct {
	survey      string
	area        string
	item        string
	periodicity Periodicity
}

// Catalog indexes every series of one snapshot. It is never mutated after
// Build returns.
type Catalog struct {
	defaults Defaults

	series map[string]*Series
	ids    []string
	byKey  map[seriesKey][]string

	surveys []Survey
	areas   []Area
	items   []Item
}

// Defaults returns the catalog-wide filter defaults.
func (c *Catalog) Defaults() Defaults {
	return c.defaults
}

// Len returns the number of series.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Series returns the series with the given identifier.
func (c *Catalog) Series(id string) (*Series, error) {
	s, ok := c.series[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSeriesNotFound, id)
	}
	return s, nil
}

// Default returns the canonical series.
func (c *Catalog) Default() (*Series, error) {
	return c.Series(c.defaults.SeriesID)
}

// Find returns the one series matching f. With a SeriesID the lookup is
// direct and the other fields are ignored. Otherwise empty fields take the
// catalog defaults and the remaining fields are intersected.
func (c *Catalog) Find(f Filter) (*Series, error) {
	if f.SeriesID != "" {
		return c.Series(f.SeriesID)
	}

	survey := cmp.Or(f.Survey, c.defaults.Survey)
	area := cmp.Or(f.Area, c.defaults.Area)
	item := cmp.Or(f.Item, c.defaults.Item)

	periodicity := c.defaults.Periodicity
	if f.Periodicity != "" {
		p, err := ParsePeriodicity(f.Periodicity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSeriesNotFound, err)
		}
		periodicity = p
	}

	surveyCodes := matchCodes(c.surveys, survey, func(s Survey) (string, string) { return s.Code, s.Name })
	areaCodes := matchCodes(c.areas, area, func(a Area) (string, string) { return a.Code, a.Name })
	itemCodes := matchCodes(c.items, item, func(i Item) (string, string) { return i.Code, i.Name })

	var matches []string
	for _, s := range surveyCodes {
		for _, a := range areaCodes {
			for _, i := range itemCodes {
				matches = append(matches, c.byKey[seriesKey{s, a, i, periodicity}]...)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: survey=%q area=%q items=%q periodicity=%s",
			ErrSeriesNotFound, survey, area, item, periodicity)
	case 1:
		return c.series[matches[0]], nil
	default:
		slices.Sort(matches)
		return nil, fmt.Errorf("%w: survey=%q area=%q items=%q periodicity=%s: %s",
			ErrAmbiguousSeries, survey, area, item, periodicity, strings.Join(matches, ", "))
	}
}

// matchCodes returns the codes of every entry whose code or name equals v.
func matchCodes[T any](entries []T, v string, fields func(T) (code, name string)) []string {
	var codes []string
	for _, e := range entries {
		code, name := fields(e)
		if code == v || name == v {
			codes = append(codes, code)
		}
	}
	return codes
}

// All yields every series in identifier order.
func (c *Catalog) All() iter.Seq[*Series] {
	return func(yield func(*Series) bool) {
		for _, id := range c.ids {
			if !yield(c.series[id]) {
				return
			}
		}
	}
}

// Areas yields each distinct area once, in code order. The sequence can be
// ranged over any number of times.
func (c *Catalog) Areas() iter.Seq[Area] {
	return slices.Values(c.areas)
}

// Items yields each distinct item once, in code order.
func (c *Catalog) Items() iter.Seq[Item] {
	return slices.Values(c.items)
}

// Surveys yields each survey present in the catalog.
func (c *Catalog) Surveys() iter.Seq[Survey] {
	return slices.Values(c.surveys)
}

// Build indexes records into a catalog. Seasonally adjusted series and
// half-year observations are skipped. Two records with the same series id,
// or two different values for the same period of one series, fail the
// build. Series sharing a survey, area, item and periodicity are kept and
// reported as ambiguous by Find.
func Build(records *Records, defaults Defaults) (*Catalog, error) {
	c := &Catalog{
		defaults: defaults,
		series:   make(map[string]*Series, len(records.Series)),
		byKey:    make(map[seriesKey][]string, len(records.Series)),
	}

	areas := make(map[string]Area, len(records.Areas))
	for _, a := range records.Areas {
		if _, dup := areas[a.Code]; !dup {
			areas[a.Code] = a
		}
	}
	items := make(map[string]Item, len(records.Items))
	for _, i := range records.Items {
		if _, dup := items[i.Code]; !dup {
			items[i.Code] = i
		}
	}
	surveys := make(map[string]Survey)

	for _, r := range records.Series {
		if r.SeasonallyAdjusted() {
			continue
		}
		if _, dup := c.series[r.ID]; dup {
			return nil, fmt.Errorf("duplicate series id %q", r.ID)
		}

		periodicity, err := ParsePeriodicity(r.PeriodicityCode)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", r.ID, err)
		}

		survey := Survey{Code: r.SurveyCode, Name: cmp.Or(Surveys[r.SurveyCode], r.SurveyCode)}
		surveys[survey.Code] = survey

		area, ok := areas[r.AreaCode]
		if !ok {
			area = Area{Code: r.AreaCode}
			areas[r.AreaCode] = area
		}
		item, ok := items[r.ItemCode]
		if !ok {
			item = Item{Code: r.ItemCode}
			items[r.ItemCode] = item
		}

		s := &Series{
			ID:          r.ID,
			Title:       r.Title,
			Survey:      survey,
			Periodicity: periodicity,
			Area:        area,
			Item:        item,
		}
		c.series[s.ID] = s
		c.ids = append(c.ids, s.ID)

		key := seriesKey{survey.Code, area.Code, item.Code, periodicity}
		c.byKey[key] = append(c.byKey[key], s.ID)
	}

	for _, o := range records.Observations {
		s, ok := c.series[o.SeriesID]
		if !ok {
			continue
		}
		p, kind, ok := periodFromCode(o.Year, o.PeriodCode)
		if !ok {
			continue
		}
		obs := Observation{Period: p, Value: o.Value}
		switch {
		case kind == monthlyValue && s.Periodicity == Monthly:
			s.observations = append(s.observations, obs)
		case kind == annualValue && s.Periodicity == Monthly:
			s.averages = append(s.averages, obs)
		case kind == annualValue && s.Periodicity == Annual:
			s.observations = append(s.observations, obs)
		}
	}

	for _, s := range c.series {
		var err error
		if s.observations, err = sortObservations(s.ID, s.observations); err != nil {
			return nil, err
		}
		if s.averages, err = sortObservations(s.ID, s.averages); err != nil {
			return nil, err
		}
	}

	slices.Sort(c.ids)
	c.surveys = sortedValues(surveys, func(s Survey) string { return s.Code })
	c.areas = sortedValues(areas, func(a Area) string { return a.Code })
	c.items = sortedValues(items, func(i Item) string { return i.Code })

	return c, nil
}

// sortObservations orders obs by period and drops exact duplicates.
func sortObservations(seriesID string, obs []Observation) ([]Observation, error) {
	if len(obs) == 0 {
		return nil, nil
	}
	slices.SortStableFunc(obs, func(a, b Observation) int {
		return a.Period.Compare(b.Period)
	})

	out := obs[:1]
	for _, o := range obs[1:] {
		last := out[len(out)-1]
		if o.Period.Compare(last.Period) != 0 {
			out = append(out, o)
			continue
		}
		if o.Value != last.Value {
			return nil, fmt.Errorf("series %s: conflicting values for %s (%v, %v)",
				seriesID, o.Period, last.Value, o.Value)
		}
	}
	return slices.Clip(out), nil
}

func sortedValues[T any](m map[string]T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int {
		return strings.Compare(key(a), key(b))
	})
	return out
}
