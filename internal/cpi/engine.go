package cpi

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DecimalDivisionPrecision is the number of decimal places kept by the
// division in AdjustDecimal.
const DecimalDivisionPrecision = 16

// DefaultTarget returns the period an adjustment from source lands on when
// the caller gives no target: the latest year for a bare-year source, the
// latest month for a monthly source, and the series' latest observation
// when the series has nothing at the source's granularity.
func DefaultTarget(s *Series, source Period) (Period, error) {
	var (
		latest Observation
		err    error
	)
	if source.IsYear() {
		latest, err = s.LatestYear()
	} else {
		latest, err = s.LatestMonth()
	}
	if err != nil {
		latest, err = s.Latest()
		if err != nil {
			return Period{}, err
		}
	}
	return latest.Period, nil
}

// ratioInputs looks up the two index values of an adjustment.
func ratioInputs(s *Series, source Period, target *Period) (from, to float64, same bool, err error) {
	var dst Period
	if target != nil {
		dst = *target
	} else {
		dst, err = DefaultTarget(s, source)
		if err != nil {
			return 0, 0, false, err
		}
	}

	from, err = s.ValueAt(source)
	if err != nil {
		return 0, 0, false, err
	}
	to, err = s.ValueAt(dst)
	if err != nil {
		return 0, 0, false, err
	}

	if from <= 0 || math.IsNaN(from) || math.IsInf(from, 0) {
		return 0, 0, false, fmt.Errorf("%w: series %s has %v for %s", ErrInvalidIndexValue, s.ID, from, source)
	}
	if to < 0 || math.IsNaN(to) || math.IsInf(to, 0) {
		return 0, 0, false, fmt.Errorf("%w: series %s has %v for %s", ErrInvalidIndexValue, s.ID, to, dst)
	}
	return from, to, source == dst, nil
}

// Adjust converts amount from the price level of source to the price level
// of target using s. A nil target means the latest available period (see
// DefaultTarget). Source and target are coerced to the series' periodicity
// independently, so a year may be adjusted to a month and the reverse.
// The result is not rounded.
func Adjust(s *Series, amount float64, source Period, target *Period) (float64, error) {
	from, to, same, err := ratioInputs(s, source, target)
	if err != nil {
		return 0, err
	}
	if same {
		return amount, nil
	}
	return amount * (to / from), nil
}

// AdjustDecimal is Adjust in decimal arithmetic. The multiplication is
// exact and the division keeps DecimalDivisionPrecision places.
func AdjustDecimal(s *Series, amount decimal.Decimal, source Period, target *Period) (decimal.Decimal, error) {
	from, to, same, err := ratioInputs(s, source, target)
	if err != nil {
		return decimal.Zero, err
	}
	if same {
		return amount, nil
	}
	num := amount.Mul(decimal.NewFromFloat(to))
	return num.DivRound(decimal.NewFromFloat(from), DecimalDivisionPrecision), nil
}
