// Package constraint canonicalizes kinematic and dynamic limits into the
// linear row form the stagewise solver consumes.
//
// Every constraint model reduces, at each grid point, to rows
//
//	A[i][k]*u + B[i][k]*x + C[i][k] <= 0
//
// over the path acceleration u and squared path velocity x. Velocity-style
// limits emit rows with zero A coefficients; acceleration-style limits couple
// u and x through the path derivatives.
package constraint

import (
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// Discretization selects how point-wise rows approximate the continuous
// constraint between grid points.
type Discretization int

const (
	// Collocation enforces rows at the grid points only.
	Collocation Discretization = iota
	// Interpolation additionally enforces the next point's rows expressed
	// through the stage transition, tightening the approximation at the
	// cost of twice the rows.
	Interpolation
)

func (d Discretization) String() string {
	switch d {
	case Collocation:
		return "collocation"
	case Interpolation:
		return "interpolation"
	default:
		return "unknown"
	}
}

// Params holds canonical rows per grid point. The three matrices always
// share shape: len(A[i]) == len(B[i]) == len(C[i]) for every point i.
type Params struct {
	A, B, C [][]float64
}

// Constraint produces canonical rows for a path sampled on grid points.
type Constraint interface {
	// Name identifies the constraint in errors and diagnostics.
	Name() string
	// Discretization reports how the rows should be applied across stages.
	Discretization() Discretization
	// Params evaluates the canonical rows at every grid point.
	Params(p geompath.Path, gridpoints []float64) (*Params, error)
}

// Error reports a malformed constraint evaluation: non-finite or
// inconsistent coefficients at a specific grid index.
type Error struct {
	Constraint string
	Index      int
	Msg        string
}

func (e *Error) Error() string {
	return fmt.Sprintf("constraint %q at grid index %d: %s", e.Constraint, e.Index, e.Msg)
}

// Validate checks a Params against the expected grid length: matching outer
// lengths, consistent row counts, finite coefficients.
func (p *Params) Validate(name string, gridLen int) error {
	if len(p.A) != gridLen || len(p.B) != gridLen || len(p.C) != gridLen {
		return &Error{Constraint: name, Index: -1,
			Msg: fmt.Sprintf("params cover %d/%d/%d points, want %d", len(p.A), len(p.B), len(p.C), gridLen)}
	}
	for i := 0; i < gridLen; i++ {
		if len(p.A[i]) != len(p.B[i]) || len(p.A[i]) != len(p.C[i]) {
			return &Error{Constraint: name, Index: i,
				Msg: fmt.Sprintf("row count mismatch: %d/%d/%d", len(p.A[i]), len(p.B[i]), len(p.C[i]))}
		}
		for k := range p.A[i] {
			if !finite(p.A[i][k]) || !finite(p.B[i][k]) || !finite(p.C[i][k]) {
				return &Error{Constraint: name, Index: i, Msg: "non-finite coefficient"}
			}
		}
	}
	return nil
}

// Interpolated rewrites collocation rows into the first-order interpolation
// form: stage i additionally carries the next point's rows with the stage
// transition x_{i+1} = x + 2*delta*u substituted. The final point keeps its
// collocation rows unchanged.
func Interpolated(p *Params, deltas []float64) *Params {
	n := len(p.A)
	out := &Params{
		A: make([][]float64, n),
		B: make([][]float64, n),
		C: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		if i == n-1 {
			out.A[i] = append([]float64(nil), p.A[i]...)
			out.B[i] = append([]float64(nil), p.B[i]...)
			out.C[i] = append([]float64(nil), p.C[i]...)
			continue
		}
		rows := len(p.A[i]) + len(p.A[i+1])
		out.A[i] = make([]float64, 0, rows)
		out.B[i] = make([]float64, 0, rows)
		out.C[i] = make([]float64, 0, rows)
		out.A[i] = append(out.A[i], p.A[i]...)
		out.B[i] = append(out.B[i], p.B[i]...)
		out.C[i] = append(out.C[i], p.C[i]...)
		for k := range p.A[i+1] {
			out.A[i] = append(out.A[i], p.A[i+1][k]+2*deltas[i]*p.B[i+1][k])
			out.B[i] = append(out.B[i], p.B[i+1][k])
			out.C[i] = append(out.C[i], p.C[i+1][k])
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
