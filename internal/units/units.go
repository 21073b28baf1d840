// Package units provides shared constants and validation for angular units.
//
// Scenario files may declare joint limits in degrees or revolutions; the
// solver works exclusively in SI (radians, seconds), so every limit is
// converted once at load time.
package units

import "math"

// Unit constants
const (
	Rad = "rad"
	Deg = "deg"
	Rev = "rev"
	RPM = "rpm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Rad, Deg, Rev, RPM}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "rad, deg, rev, rpm"
}

// ToRadians converts an angle in the given unit to radians. RPM is treated
// as a rate unit: the angular part is one revolution.
func ToRadians(value float64, unit string) float64 {
	switch unit {
	case Deg:
		return value * math.Pi / 180
	case Rev, RPM:
		return value * 2 * math.Pi
	default:
		return value
	}
}

// RateToSI converts an angular rate in the given unit to rad/s. Deg means
// deg/s, Rev means rev/s, RPM means rev/min.
func RateToSI(value float64, unit string) float64 {
	switch unit {
	case Deg:
		return value * math.Pi / 180
	case Rev:
		return value * 2 * math.Pi
	case RPM:
		return value * 2 * math.Pi / 60
	default:
		return value
	}
}

// RateSlice converts a slice of limits in place-free fashion, returning a new
// slice in rad/s. A nil input stays nil.
func RateSlice(values []float64, unit string) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = RateToSI(v, unit)
	}
	return out
}
