package reach

import (
	"context"
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/solver"
)

// ReachableSets runs the forward pass. R[i] is the interval of squared
// velocities at grid point i that some feasible trajectory from the start
// boundary can attain, pruned against the controllable sets so that every
// retained value also leads to the goal. The sweep is a diagnostic
// companion to Solve, which reaches the same pruning through its greedy
// clamp; an empty R[i] pinpoints where the start boundary and a downstream
// bound conflict.
func (a *Analyzer) ReachableSets(ctx context.Context, b Boundary, controllable []Interval) ([]Interval, []string, error) {
	n := len(a.points)
	if len(controllable) != n {
		return nil, nil, &ConfigError{Msg: fmt.Sprintf("controllable sets length %d does not match grid length %d", len(controllable), n)}
	}
	if b.XStart < 0 {
		return nil, nil, &ConfigError{Msg: fmt.Sprintf("start squared velocity %g is negative", b.XStart)}
	}

	var warnings []string
	sets := make([]Interval, n)
	seed := Interval{Lo: b.XStart, Hi: b.XStart}
	sets[0] = seed.Intersect(controllable[0])
	for i := 0; i+1 < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		if sets[i].Empty() {
			sets[i+1] = emptyInterval()
			continue
		}
		next, err := a.forwardStep(i, sets[i], &warnings)
		if err != nil {
			return nil, warnings, err
		}
		sets[i+1] = next.Intersect(controllable[i+1])
	}
	logWarnings("reachable", warnings)
	return sets, warnings, nil
}

// forwardStep computes the one-step image of cur under the stage dynamics
// x_next = x + 2*delta_i*u, restricted to the constraint polytope at point
// i. Two LPs, one per endpoint of the image interval.
func (a *Analyzer) forwardStep(i int, cur Interval, warnings *[]string) (Interval, error) {
	d2 := 2 * a.deltas[i]

	prob := a.stageProblem(i, -d2, -1, false, 0, 0)
	prob.XLo, prob.XHi = cur.Lo, cur.Hi
	maxSol := a.solveStage(i, prob, warnings)
	switch maxSol.Status {
	case solver.StatusOptimal:
	case solver.StatusInfeasible:
		return emptyInterval(), nil
	default:
		return Interval{}, &ConfigError{Msg: fmt.Sprintf("grid index %d: forward stage LP failed: %v", i, maxSol.Status)}
	}

	prob = a.stageProblem(i, d2, 1, false, 0, 0)
	prob.XLo, prob.XHi = cur.Lo, cur.Hi
	minSol := a.solveStage(i, prob, warnings)
	if minSol.Status != solver.StatusOptimal {
		return emptyInterval(), nil
	}

	lo := minSol.X + d2*minSol.U
	hi := maxSol.X + d2*maxSol.U
	return Interval{Lo: math.Max(0, lo), Hi: hi}, nil
}
