package units

import (
	"math"
	"testing"
)

func TestRateToSI(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"180 deg/s to rad/s", 180.0, Deg, math.Pi},
		{"1 rev/s to rad/s", 1.0, Rev, 2 * math.Pi},
		{"60 rpm to rad/s", 60.0, RPM, 2 * math.Pi},
		{"rad passes through", 2.5, Rad, 2.5},
		{"unknown units pass through", 2.5, "unknown", 2.5},
		{"zero", 0.0, Deg, 0.0},
		{"servo limit 3000 rpm", 3000.0, RPM, 314.159265},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RateToSI(tt.value, tt.unit)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("RateToSI(%f, %s) = %f, want %f", tt.value, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestToRadians(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		expected float64
	}{
		{"90 deg", 90.0, Deg, math.Pi / 2},
		{"half rev", 0.5, Rev, math.Pi},
		{"rad passes through", 1.25, Rad, 1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRadians(tt.value, tt.unit)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ToRadians(%f, %s) = %f, want %f", tt.value, tt.unit, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid rad", Rad, true},
		{"valid deg", Deg, true},
		{"valid rev", Rev, true},
		{"valid rpm", RPM, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "DEG", false},
		{"case sensitive", "Rpm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "rad, deg, rev, rpm"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestRateSlice(t *testing.T) {
	if RateSlice(nil, Deg) != nil {
		t.Error("nil input should stay nil")
	}

	in := []float64{90, 180}
	out := RateSlice(in, Deg)
	if math.Abs(out[0]-math.Pi/2) > 1e-9 || math.Abs(out[1]-math.Pi) > 1e-9 {
		t.Errorf("RateSlice(%v, deg) = %v", in, out)
	}
	if in[0] != 90 {
		t.Error("input slice must not be mutated")
	}
}
