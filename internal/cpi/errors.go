package cpi

import "errors"

// Configuration faults.
var (
	// ErrNotConfigured is returned when no dataset snapshot has been loaded.
	ErrNotConfigured = errors.New("cpi dataset not loaded")
)

// Lookup faults. The caller can correct these by changing filters or periods.
var (
	ErrSeriesNotFound = errors.New("series not found")
	ErrPeriodNotFound = errors.New("period not found")
	ErrPeriodMismatch = errors.New("period does not match series periodicity")
)

// Integrity faults. These mean the loaded dataset is malformed.
var (
	ErrAmbiguousSeries   = errors.New("more than one series matches")
	ErrEmptySeries       = errors.New("series has no observations")
	ErrInvalidIndexValue = errors.New("invalid index value")
)

// IsLookupFault reports whether err is a caller-correctable lookup fault.
func IsLookupFault(err error) bool {
	return errors.Is(err, ErrSeriesNotFound) ||
		errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrPeriodMismatch)
}

// IsIntegrityFault reports whether err points at a broken dataset rather
// than at bad caller input.
func IsIntegrityFault(err error) bool {
	return errors.Is(err, ErrAmbiguousSeries) ||
		errors.Is(err, ErrEmptySeries) ||
		errors.Is(err, ErrInvalidIndexValue)
}
