package cpi

import (
	"fmt"
	"slices"
)

// Area is a geographical area where prices are gathered.
type Area struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Item is a good or group of goods whose price is tracked.
type Item struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Survey is the population a series is drawn from.
type Survey struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Observation is one index value for one period.
type Observation struct {
	Period Period
	Value  float64
}

// Series is one time-indexed sequence of index values for a survey, area,
// item and periodicity. A Series is immutable once built and is shared by
// every query against its snapshot.
type Series struct {
	ID          string
	Title       string
	Survey      Survey
	Periodicity Periodicity
	Area        Area
	Item        Item

	// Chronological, unique periods, all of the series' periodicity.
	observations []Observation
	// Published annual averages of a monthly series, chronological.
	averages []Observation
}

// Len returns the number of observations at the series' own periodicity.
func (s *Series) Len() int {
	return len(s.observations)
}

// Observations returns a copy of the series' observations in order.
func (s *Series) Observations() []Observation {
	return slices.Clone(s.observations)
}

// AnnualAverages returns a copy of the published annual averages of a
// monthly series. Annual series return nil.
func (s *Series) AnnualAverages() []Observation {
	return slices.Clone(s.averages)
}

// ValueAt returns the index value for p after coercing it to the series'
// periodicity (see Coerce).
func (s *Series) ValueAt(p Period) (float64, error) {
	key, err := Coerce(p, s.Periodicity)
	if err != nil {
		return 0, fmt.Errorf("series %s: %w", s.ID, err)
	}

	obs := s.observations
	if key.IsYear() && s.Periodicity == Monthly {
		obs = s.averages
	}

	i, found := slices.BinarySearchFunc(obs, key, func(o Observation, target Period) int {
		return o.Period.Compare(target)
	})
	if !found {
		return 0, fmt.Errorf("%w: series %s has no value for %s", ErrPeriodNotFound, s.ID, key)
	}
	return obs[i].Value, nil
}

// Latest returns the observation with the greatest period.
func (s *Series) Latest() (Observation, error) {
	if len(s.observations) == 0 {
		return Observation{}, fmt.Errorf("%w: %s", ErrEmptySeries, s.ID)
	}
	return s.observations[len(s.observations)-1], nil
}

// LatestYear returns the most recent annual value: the last observation of
// an annual series, or the last published annual average of a monthly one.
func (s *Series) LatestYear() (Observation, error) {
	if s.Periodicity == Annual {
		return s.Latest()
	}
	if len(s.averages) == 0 {
		return Observation{}, fmt.Errorf("%w: series %s has no annual averages", ErrPeriodNotFound, s.ID)
	}
	return s.averages[len(s.averages)-1], nil
}

// LatestMonth returns the most recent monthly observation.
func (s *Series) LatestMonth() (Observation, error) {
	if s.Periodicity == Annual {
		return Observation{}, fmt.Errorf("%w: series %s is annual", ErrPeriodMismatch, s.ID)
	}
	return s.Latest()
}

// Info is the serializable descriptor of a series.
type Info struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Survey       Survey `json:"survey"`
	Periodicity  string `json:"periodicity"`
	Area         Area   `json:"area"`
	Item         Item   `json:"items"`
	Observations int    `json:"observations"`
	First        string `json:"first,omitempty"`
	Latest       string `json:"latest,omitempty"`
	LatestYear   string `json:"latest_year,omitempty"`
}

// Info describes the series without its observations.
func (s *Series) Info() Info {
	info := Info{
		ID:           s.ID,
		Title:        s.Title,
		Survey:       s.Survey,
		Periodicity:  s.Periodicity.String(),
		Area:         s.Area,
		Item:         s.Item,
		Observations: len(s.observations),
	}
	if len(s.observations) > 0 {
		info.First = s.observations[0].Period.String()
		info.Latest = s.observations[len(s.observations)-1].Period.String()
	}
	if y, err := s.LatestYear(); err == nil {
		info.LatestYear = y.Period.String()
	}
	return info
}

func (s *Series) String() string {
	return s.ID + ": " + s.Title
}
