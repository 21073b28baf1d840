// Package reach implements time-optimal path parameterization by
// reachability analysis: a backward pass computing controllable sets of
// squared path velocities, a forward pass computing reachable sets, and a
// greedy extraction of the optimal velocity profile, all driven by stagewise
// linear programs over canonical constraint rows.
package reach

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/solver"
)

// Interval is a closed interval of squared path velocities. The empty
// interval is represented with NaN endpoints so emptiness survives
// arithmetic and marshaling.
type Interval struct {
	Lo, Hi float64
}

// Empty reports whether the interval contains no points.
func (iv Interval) Empty() bool {
	return math.IsNaN(iv.Lo) || math.IsNaN(iv.Hi) || iv.Lo > iv.Hi
}

// Contains reports whether v lies in the interval, widened by tol on both
// sides.
func (iv Interval) Contains(v, tol float64) bool {
	return !iv.Empty() && v >= iv.Lo-tol && v <= iv.Hi+tol
}

// Intersect returns the overlap of two intervals, empty when they are
// disjoint.
func (iv Interval) Intersect(other Interval) Interval {
	if iv.Empty() || other.Empty() {
		return emptyInterval()
	}
	out := Interval{math.Max(iv.Lo, other.Lo), math.Min(iv.Hi, other.Hi)}
	if out.Lo > out.Hi {
		return emptyInterval()
	}
	return out
}

// Clamp returns v forced into the interval.
func (iv Interval) Clamp(v float64) float64 {
	return math.Min(iv.Hi, math.Max(iv.Lo, v))
}

func emptyInterval() Interval {
	return Interval{math.NaN(), math.NaN()}
}

// MarshalJSON encodes the interval as [lo, hi], or null when empty: NaN has
// no JSON representation.
func (iv Interval) MarshalJSON() ([]byte, error) {
	if iv.Empty() {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{iv.Lo, iv.Hi})
}

// UnmarshalJSON decodes null as the empty interval and [lo, hi] otherwise.
func (iv *Interval) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*iv = emptyInterval()
		return nil
	}
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("reach: interval: %w", err)
	}
	iv.Lo, iv.Hi = pair[0], pair[1]
	return nil
}

// Boundary fixes the profile's endpoint velocities, as squared path
// velocities. FreeEnd releases the terminal condition: the profile may end
// at any controllable velocity, and the extraction will end as fast as the
// constraints allow.
type Boundary struct {
	XStart  float64
	XEnd    float64
	FreeEnd bool
}

// AnalyzerConfig carries the tunables of an Analyzer. The zero value is
// usable: defaults are filled at construction.
type AnalyzerConfig struct {
	// Solver is the stagewise LP backend. Defaults to solver.NewSeidel().
	Solver solver.Stagewise
	// BoundaryTol is the tolerance for accepting boundary velocities
	// against computed sets.
	BoundaryTol float64
	// RetrySlack is added to every row constant when retrying a
	// numerically degenerate stage LP.
	RetrySlack float64
}

// DefaultAnalyzerConfig returns the standard tunables.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Solver:      solver.NewSeidel(),
		BoundaryTol: 1e-8,
		RetrySlack:  1e-8,
	}
}

// Result is a completed parameterization. Slices are owned by the caller;
// successive Solve calls never alias.
type Result struct {
	// Gridpoints is the path-position grid the profile lives on.
	Gridpoints []float64 `json:"gridpoints"`
	// X is the squared-velocity profile, one value per grid point.
	X []float64 `json:"x"`
	// Velocity is sqrt(X), the path velocity profile.
	Velocity []float64 `json:"velocity"`
	// Accel is the constant path acceleration over each stage.
	Accel []float64 `json:"accel"`
	// Controllable are the controllable sets the profile was extracted
	// against.
	Controllable []Interval `json:"controllable"`
	// Solver names the LP backend used.
	Solver string `json:"solver"`
	// Warnings records recovered numerical degeneracies.
	Warnings []string `json:"warnings,omitempty"`
}

// objEps is the tie-break weight on u in the min/max velocity objectives,
// keeping degenerate vertices deterministic without biasing the x optimum.
const objEps = 1e-9
