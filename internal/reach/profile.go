package reach

import (
	"context"
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/solver"
)

// Solve computes the time-optimal squared-velocity profile for the given
// boundary. It runs the backward pass, verifies the start boundary against
// the resulting controllable set, then extracts the profile greedily: at
// each stage the largest acceleration whose landing point stays
// controllable. The profile is maximal pointwise, which is what makes it
// time optimal.
//
// Solve either returns a complete profile or an error; it never returns a
// prefix. Errors are *ConfigError for malformed problems and
// *InfeasibleError when the constraints and boundary admit no profile.
func (a *Analyzer) Solve(ctx context.Context, b Boundary) (*Result, error) {
	sets, warnings, err := a.ControllableSets(ctx, b)
	if err != nil {
		return nil, err
	}
	if i, empty := highestEmpty(sets); empty {
		return nil, &InfeasibleError{Index: i, Lo: math.NaN(), Hi: math.NaN(), X: math.NaN()}
	}
	if !sets[0].Contains(b.XStart, a.cfg.BoundaryTol) {
		return nil, &InfeasibleError{Index: 0, Lo: sets[0].Lo, Hi: sets[0].Hi, X: b.XStart}
	}

	xs, accel, gw, err := a.greedy(ctx, b.XStart, sets)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, gw...)

	vel := make([]float64, len(xs))
	for i, x := range xs {
		vel[i] = math.Sqrt(x)
	}
	return &Result{
		Gridpoints:   a.Gridpoints(),
		X:            xs,
		Velocity:     vel,
		Accel:        accel,
		Controllable: sets,
		Solver:       a.cfg.Solver.Name(),
		Warnings:     warnings,
	}, nil
}

// greedy walks the grid forward, maximizing the stage acceleration with the
// current x pinned and the landing point constrained into the next
// controllable set. A stage LP that fails numerically does not abort the
// solve: the walk continues from the floor of the next set, which is
// controllable by construction, and the event is recorded as a warning.
func (a *Analyzer) greedy(ctx context.Context, xStart float64, sets []Interval) (xs, accel []float64, warnings []string, err error) {
	n := len(a.points)
	xs = make([]float64, n)
	accel = make([]float64, n-1)
	xs[0] = sets[0].Clamp(xStart)
	for i := 0; i+1 < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, warnings, err
		}
		d2 := 2 * a.deltas[i]
		prob := a.stageProblem(i, -1, 0, true, sets[i+1].Lo, sets[i+1].Hi)
		prob.XLo, prob.XHi = xs[i], xs[i]
		sol := a.solveStage(i, prob, &warnings)
		if sol.Status != solver.StatusOptimal {
			msg := fmt.Sprintf("grid index %d: greedy stage LP %v; continuing from controllable floor", i, sol.Status)
			warnings = append(warnings, msg)
			xs[i+1] = sets[i+1].Lo
		} else {
			xs[i+1] = sets[i+1].Clamp(xs[i] + d2*sol.U)
		}
		accel[i] = (xs[i+1] - xs[i]) / d2
	}
	return xs, accel, warnings, nil
}

// highestEmpty returns the largest grid index with an empty set. Emptiness
// propagates backward, so this is the point where controllability is first
// lost.
func highestEmpty(sets []Interval) (int, bool) {
	for i := len(sets) - 1; i >= 0; i-- {
		if sets[i].Empty() {
			return i, true
		}
	}
	return 0, false
}
