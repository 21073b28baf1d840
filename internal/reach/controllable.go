package reach

import (
	"context"
	"fmt"
	"math"
)

// ControllableSets runs the backward pass. K[i] is the interval of squared
// velocities at grid point i from which the final point can be reached while
// satisfying every constraint along the way. The sweep starts from the
// terminal set implied by the boundary and walks to index 0. Once a set
// comes up empty, every earlier set is empty as well and no further LPs are
// solved.
func (a *Analyzer) ControllableSets(ctx context.Context, b Boundary) ([]Interval, []string, error) {
	var warnings []string
	terminal, err := a.terminalSet(b, &warnings)
	if err != nil {
		return nil, warnings, err
	}
	sets, err := a.backward(ctx, terminal, &warnings)
	if err != nil {
		return nil, warnings, err
	}
	logWarnings("controllable", warnings)
	return sets, warnings, nil
}

// terminalSet resolves the boundary into the set at the last grid point. A
// pinned end is the degenerate interval at XEnd, first checked against the
// point's own feasible interval. A free end takes the whole feasible
// interval, which must be bounded for the backward sweep to mean anything.
func (a *Analyzer) terminalSet(b Boundary, warnings *[]string) (Interval, error) {
	if b.XStart < 0 {
		return Interval{}, &ConfigError{Msg: fmt.Sprintf("start squared velocity %g is negative", b.XStart)}
	}
	feasible, err := a.terminalFeasible(warnings)
	if err != nil {
		return Interval{}, err
	}
	last := len(a.points) - 1
	if feasible.Empty() {
		return Interval{}, &InfeasibleError{Index: last, X: math.NaN()}
	}

	if b.FreeEnd {
		if math.IsInf(feasible.Hi, 1) {
			return Interval{}, &ConfigError{Msg: "terminal velocity unbounded; free-end solves need a velocity constraint"}
		}
		return feasible, nil
	}

	if b.XEnd < 0 {
		return Interval{}, &ConfigError{Msg: fmt.Sprintf("end squared velocity %g is negative", b.XEnd)}
	}
	if b.XEnd < feasible.Lo-a.cfg.BoundaryTol || (!math.IsInf(feasible.Hi, 1) && b.XEnd > feasible.Hi+a.cfg.BoundaryTol) {
		return Interval{}, &InfeasibleError{Index: last, Lo: feasible.Lo, Hi: feasible.Hi, X: b.XEnd}
	}
	return Interval{Lo: b.XEnd, Hi: b.XEnd}, nil
}

// backward sweeps the one-step controllable sets from the terminal interval
// down to index 0.
func (a *Analyzer) backward(ctx context.Context, terminal Interval, warnings *[]string) ([]Interval, error) {
	n := len(a.points)
	sets := make([]Interval, n)
	sets[n-1] = terminal
	for i := n - 2; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sets[i+1].Empty() {
			sets[i] = emptyInterval()
			continue
		}
		iv, err := a.pointInterval(i, true, sets[i+1], warnings)
		if err != nil {
			return nil, err
		}
		if math.IsInf(iv.Hi, 1) {
			return nil, &ConfigError{Msg: fmt.Sprintf("grid index %d: controllable set unbounded; add a velocity constraint", i)}
		}
		sets[i] = iv
	}
	return sets, nil
}
