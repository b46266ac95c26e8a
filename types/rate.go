// Package types provides common types used across Rebate.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Rate represents a commission/rebate percentage in hundredths of a percent.
// All arithmetic is integer-only — no floating point.
//
// Examples:
//   - Percent(8) = 8.00% (800 hundredths)
//   - MustRate(12.5) = 12.50% (1250 hundredths)
//
// Valid rates lie in [0, 100] with at most two decimal places, which is
// exactly the set of values Rate can represent without loss.
type Rate int64

// Rate bounds in hundredths of a percent.
const (
	MinRate Rate = 0
	MaxRate Rate = 10000 // 100.00%
)

// Percent creates a Rate from a whole-number percentage.
func Percent(p int64) Rate { return Rate(p * 100) }

// Hundredths creates a Rate from hundredths of a percent.
func Hundredths(h int64) Rate { return Rate(h) }

// NewRate converts a float percentage (e.g. 8.5) into a Rate.
// It returns an error when the value is outside [0, 100] or carries more
// than two decimal places.
func NewRate(percent float64) (Rate, error) {
	scaled := percent * 100
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, fmt.Errorf("rate: %v has more than two decimal places", percent)
	}

	r := Rate(rounded)
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return r, nil
}

// MustRate is like NewRate but panics on error. Use for hardcoded values.
func MustRate(percent float64) Rate {
	r, err := NewRate(percent)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate reports whether the rate lies in [0, 100].
func (r Rate) Validate() error {
	if r < MinRate || r > MaxRate {
		return fmt.Errorf("rate: %s%% out of range [0, 100]", r.FormatPercent())
	}
	return nil
}

// Float64 returns the rate as a float percentage (8.50% -> 8.5).
func (r Rate) Float64() float64 { return float64(r) / 100 }

// IsZero returns true if the rate is zero.
func (r Rate) IsZero() bool { return r == 0 }

// Equal returns true if both rates are equal.
func (r Rate) Equal(other Rate) bool { return r == other }

// LessThan returns true if this rate is less than other.
func (r Rate) LessThan(other Rate) bool { return r < other }

// GreaterThan returns true if this rate is greater than other.
func (r Rate) GreaterThan(other Rate) bool { return r > other }

// Max returns the larger of two rates.
func (r Rate) Max(other Rate) Rate {
	if r > other {
		return r
	}
	return other
}

// FormatPercent returns the percentage without the "%" suffix: "8.50".
func (r Rate) FormatPercent() string {
	neg := r < 0
	abs := int64(r)
	if neg {
		abs = -abs
	}

	major := abs / 100
	minor := abs % 100

	result := fmt.Sprintf("%d.%02d", major, minor)
	if neg {
		return "-" + result
	}
	return result
}

// String returns a human-readable percentage: "8.50%".
func (r Rate) String() string {
	return r.FormatPercent() + "%"
}

// MarshalJSON implements json.Marshaler. Rates serialize as plain decimal
// numbers (8.5, 12, 0.25) to match the request/response contract.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(r.Float64(), 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler. It rejects values that Rate
// cannot represent exactly (more than two decimal places); range checking
// is left to Validate so callers can distinguish shape from policy errors.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("rate: %w", err)
	}

	scaled := f * 100
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return fmt.Errorf("rate: %v has more than two decimal places", f)
	}

	*r = Rate(rounded)
	return nil
}

// MaxOf returns the maximum of multiple rates. Returns 0 for no arguments.
func MaxOf(rates ...Rate) Rate {
	var result Rate
	for i, r := range rates {
		if i == 0 || r > result {
			result = r
		}
	}
	return result
}
