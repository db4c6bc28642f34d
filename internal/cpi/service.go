package cpi

import (
	"iter"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/runnerr0/cpi/internal/logger"
)

// Service answers queries against the current snapshot. Each call reads the
// snapshot handle once, so a call running during Reload sees either the old
// or the new dataset in full. Service never mutates a snapshot.
type Service struct {
	current atomic.Pointer[Snapshot]
}

// NewService returns a Service serving snap. A nil snap leaves the service
// unconfigured until Reload is called.
func NewService(snap *Snapshot) *Service {
	s := &Service{}
	if snap != nil {
		s.current.Store(snap)
	}
	return s
}

// Reload swaps in snap and returns the snapshot it replaced, if any.
func (s *Service) Reload(snap *Snapshot) *Snapshot {
	prev := s.current.Swap(snap)
	if snap != nil {
		logger.Info("serving cpi snapshot %s (%d series)", snap.Version, snap.Catalog.Len())
	}
	return prev
}

// Snapshot returns the snapshot currently served.
func (s *Service) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotConfigured
	}
	return snap, nil
}

func (s *Service) catalog() (*Catalog, string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, "", err
	}
	return snap.Catalog, snap.Version, nil
}

// observe logs integrity faults, which signal a broken dataset rather than
// a bad request, and returns err unchanged.
func observe(version string, err error) error {
	if err != nil && IsIntegrityFault(err) {
		logger.Error("cpi dataset integrity fault (snapshot %s): %v", version, err)
	}
	return err
}

// Default returns the canonical series.
func (s *Service) Default() (*Series, error) {
	cat, version, err := s.catalog()
	if err != nil {
		return nil, err
	}
	series, err := cat.Default()
	return series, observe(version, err)
}

// ResolveSeries returns the series selected by f.
func (s *Service) ResolveSeries(f Filter) (*Series, error) {
	cat, version, err := s.catalog()
	if err != nil {
		return nil, err
	}
	series, err := Resolve(cat, f)
	return series, observe(version, err)
}

// Get returns the index value for p in the series selected by f.
func (s *Service) Get(p Period, f Filter) (float64, error) {
	cat, version, err := s.catalog()
	if err != nil {
		return 0, err
	}
	series, err := Resolve(cat, f)
	if err != nil {
		return 0, observe(version, err)
	}
	v, err := series.ValueAt(p)
	return v, observe(version, err)
}

// Inflate adjusts amount from source to target (latest when nil) in the
// series selected by f.
func (s *Service) Inflate(amount float64, source Period, target *Period, f Filter) (float64, error) {
	cat, version, err := s.catalog()
	if err != nil {
		return 0, err
	}
	series, err := Resolve(cat, f)
	if err != nil {
		return 0, observe(version, err)
	}
	v, err := Adjust(series, amount, source, target)
	return v, observe(version, err)
}

// InflateDecimal is Inflate in decimal arithmetic.
func (s *Service) InflateDecimal(amount decimal.Decimal, source Period, target *Period, f Filter) (decimal.Decimal, error) {
	cat, version, err := s.catalog()
	if err != nil {
		return decimal.Zero, err
	}
	series, err := Resolve(cat, f)
	if err != nil {
		return decimal.Zero, observe(version, err)
	}
	v, err := AdjustDecimal(series, amount, source, target)
	return v, observe(version, err)
}

// LatestYear returns the most recent annual value of the series selected by f.
func (s *Service) LatestYear(f Filter) (Observation, error) {
	series, err := s.ResolveSeries(f)
	if err != nil {
		return Observation{}, err
	}
	return series.LatestYear()
}

// LatestMonth returns the most recent monthly value of the series selected by f.
func (s *Service) LatestMonth(f Filter) (Observation, error) {
	series, err := s.ResolveSeries(f)
	if err != nil {
		return Observation{}, err
	}
	return series.LatestMonth()
}

// ListAreas yields the areas of the current snapshot.
func (s *Service) ListAreas() (iter.Seq[Area], error) {
	cat, _, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return cat.Areas(), nil
}

// ListItems yields the items of the current snapshot.
func (s *Service) ListItems() (iter.Seq[Item], error) {
	cat, _, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return cat.Items(), nil
}
