// Package solver implements the two-variable stagewise linear programs at the
// heart of the reachability passes. Each stage solve minimizes a linear
// objective over the decision pair (u, x) subject to canonical constraint rows
// and box bounds on both variables.
//
// Two interchangeable backends are provided: Seidel, an exact incremental
// planar LP specialised to the two-variable case, and Simplex, which maps the
// stage problem onto gonum's general simplex solver. Both are stateless and
// safe for concurrent use.
package solver

import "math"

// BigBound replaces infinite box bounds before a solve. A variable whose
// optimum lands on this artificial wall indicates the underlying problem is
// unbounded in that direction; callers test for it with AtCap.
const BigBound = 1e8

// DefaultTol is the feasibility tolerance used when a backend is constructed
// with no explicit tolerance.
const DefaultTol = 1e-9

// Status reports how a stage solve ended.
type Status int

const (
	// StatusOptimal means an optimal vertex was found.
	StatusOptimal Status = iota
	// StatusInfeasible means the constraint rows and bounds admit no point.
	StatusInfeasible
	// StatusUnbounded means the backend proved the objective unbounded. With
	// BigBound substitution this only arises from backend internals.
	StatusUnbounded
	// StatusNumericalError means the solve failed within the degeneracy band
	// and may succeed with relaxed rows.
	StatusNumericalError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusNumericalError:
		return "numerical-error"
	default:
		return "unknown"
	}
}

// StageProblem is one two-variable LP:
//
//	minimize  ObjU*u + ObjX*x
//	subject to RowU[k]*u + RowX[k]*x + RowC[k] <= 0   for all k
//	           ULo <= u <= UHi, XLo <= x <= XHi
//
// Infinite bounds are permitted and are capped at ±BigBound.
type StageProblem struct {
	ObjU, ObjX float64

	RowU, RowX, RowC []float64

	ULo, UHi float64
	XLo, XHi float64
}

// Solution is the outcome of one stage solve. U and X are meaningful only
// when Status is StatusOptimal.
type Solution struct {
	Status Status
	U, X   float64
}

// Stagewise is the solve contract shared by all backends.
type Stagewise interface {
	// Name identifies the backend in logs and stored results.
	Name() string
	// Solve runs one stage LP. It never mutates the problem.
	Solve(p StageProblem) Solution
}

// AtCap reports whether v sits on an artificial BigBound wall, meaning the
// true problem did not bound it.
func AtCap(v float64) bool {
	return math.Abs(v) >= BigBound*(1-1e-6)
}

// capBounds applies BigBound to infinite or oversized box bounds. The second
// return is false when a bound pair is crossed and the problem is trivially
// infeasible.
func capBounds(p StageProblem) (uLo, uHi, xLo, xHi float64, ok bool) {
	uLo = math.Max(p.ULo, -BigBound)
	uHi = math.Min(p.UHi, BigBound)
	xLo = math.Max(p.XLo, -BigBound)
	xHi = math.Min(p.XHi, BigBound)
	if math.IsNaN(uLo) || math.IsNaN(uHi) || math.IsNaN(xLo) || math.IsNaN(xHi) {
		return 0, 0, 0, 0, false
	}
	if uLo > uHi || xLo > xHi {
		return 0, 0, 0, 0, false
	}
	return uLo, uHi, xLo, xHi, true
}
