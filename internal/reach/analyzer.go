package reach

import (
	"context"
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/constraint"
	"github.com/indivisibleatom/toppra/internal/geompath"
	"github.com/indivisibleatom/toppra/internal/grid"
	"github.com/indivisibleatom/toppra/internal/monitoring"
	"github.com/indivisibleatom/toppra/internal/solver"
)

// Analyzer runs reachability analysis for one path, constraint set, and
// grid. It is immutable after construction: the canonical rows are evaluated
// once, so concurrent Solve calls only share read-only state and the
// stateless LP backend.
type Analyzer struct {
	path   geompath.Path
	points []float64
	deltas []float64

	// Concatenated canonical rows per grid point, all constraints merged,
	// discretization transforms already applied.
	rowA, rowB, rowC [][]float64

	cfg AnalyzerConfig
}

// NewAnalyzer validates the inputs and evaluates every constraint on the
// grid. Constraint evaluation errors surface here, before any sweep runs.
func NewAnalyzer(path geompath.Path, constraints []constraint.Constraint, gridpoints []float64, cfg AnalyzerConfig) (*Analyzer, error) {
	if path == nil {
		return nil, &ConfigError{Msg: "nil path"}
	}
	if len(constraints) == 0 {
		return nil, &ConfigError{Msg: "no constraints"}
	}
	lo, hi := path.Domain()
	if err := grid.Validate(gridpoints, lo, hi); err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}

	if cfg.Solver == nil {
		cfg.Solver = solver.NewSeidel()
	}
	if cfg.BoundaryTol <= 0 {
		cfg.BoundaryTol = DefaultAnalyzerConfig().BoundaryTol
	}
	if cfg.RetrySlack <= 0 {
		cfg.RetrySlack = DefaultAnalyzerConfig().RetrySlack
	}

	n := len(gridpoints)
	a := &Analyzer{
		path:   path,
		points: append([]float64(nil), gridpoints...),
		deltas: grid.Deltas(gridpoints),
		rowA:   make([][]float64, n),
		rowB:   make([][]float64, n),
		rowC:   make([][]float64, n),
		cfg:    cfg,
	}
	for _, c := range constraints {
		params, err := c.Params(path, a.points)
		if err != nil {
			return nil, fmt.Errorf("reach: evaluating constraint %q: %w", c.Name(), err)
		}
		if err := params.Validate(c.Name(), n); err != nil {
			return nil, fmt.Errorf("reach: %w", err)
		}
		if c.Discretization() == constraint.Interpolation {
			params = constraint.Interpolated(params, a.deltas)
		}
		for i := 0; i < n; i++ {
			a.rowA[i] = append(a.rowA[i], params.A[i]...)
			a.rowB[i] = append(a.rowB[i], params.B[i]...)
			a.rowC[i] = append(a.rowC[i], params.C[i]...)
		}
	}
	return a, nil
}

// Gridpoints returns a copy of the analysis grid.
func (a *Analyzer) Gridpoints() []float64 {
	return append([]float64(nil), a.points...)
}

// SolverName reports the configured LP backend.
func (a *Analyzer) SolverName() string {
	return a.cfg.Solver.Name()
}

// stageProblem assembles the LP at grid index i. With transition set, two
// extra rows couple the stage to the next interval:
// nextLo <= x + 2*delta_i*u <= nextHi.
func (a *Analyzer) stageProblem(i int, objU, objX float64, transition bool, nextLo, nextHi float64) solver.StageProblem {
	ra, rb, rc := a.rowA[i], a.rowB[i], a.rowC[i]
	if transition {
		d2 := 2 * a.deltas[i]
		ra = append(append(make([]float64, 0, len(ra)+2), ra...), d2, -d2)
		rb = append(append(make([]float64, 0, len(rb)+2), rb...), 1, -1)
		rc = append(append(make([]float64, 0, len(rc)+2), rc...), -nextHi, nextLo)
	}
	return solver.StageProblem{
		ObjU: objU, ObjX: objX,
		RowU: ra, RowX: rb, RowC: rc,
		ULo: math.Inf(-1), UHi: math.Inf(1),
		XLo: 0, XHi: math.Inf(1),
	}
}

// solveStage runs one LP with the degenerate-retry policy: a numerical
// failure gets one more attempt with every row loosened by RetrySlack, and a
// recovery is recorded as a warning. A retry that still cannot conclude is
// reported as infeasible rather than letting a near-empty set pass silently.
func (a *Analyzer) solveStage(i int, p solver.StageProblem, warnings *[]string) solver.Solution {
	sol := a.cfg.Solver.Solve(p)
	if sol.Status != solver.StatusNumericalError {
		return sol
	}

	relaxed := p
	relaxed.RowC = make([]float64, len(p.RowC))
	for k, c := range p.RowC {
		relaxed.RowC[k] = c - a.cfg.RetrySlack
	}
	sol = a.cfg.Solver.Solve(relaxed)
	switch sol.Status {
	case solver.StatusOptimal:
		msg := fmt.Sprintf("grid index %d: degenerate stage LP recovered with slack %g", i, a.cfg.RetrySlack)
		monitoring.Debugf("%s", msg)
		*warnings = append(*warnings, msg)
	case solver.StatusNumericalError:
		sol.Status = solver.StatusInfeasible
	}
	return sol
}

// pointInterval computes the min and max feasible x at grid index i, with
// optional transition rows into the next set. An upper optimum on the
// artificial cap is returned as +Inf.
func (a *Analyzer) pointInterval(i int, transition bool, next Interval, warnings *[]string) (Interval, error) {
	var nextLo, nextHi float64
	if transition {
		nextLo, nextHi = next.Lo, next.Hi
	}

	maxSol := a.solveStage(i, a.stageProblem(i, objEps, -1, transition, nextLo, nextHi), warnings)
	switch maxSol.Status {
	case solver.StatusOptimal:
	case solver.StatusInfeasible:
		return emptyInterval(), nil
	case solver.StatusUnbounded:
		return Interval{}, &ConfigError{Msg: fmt.Sprintf("grid index %d: velocity unbounded above", i)}
	default:
		return Interval{}, &ConfigError{Msg: fmt.Sprintf("grid index %d: stage LP failed: %v", i, maxSol.Status)}
	}

	minSol := a.solveStage(i, a.stageProblem(i, objEps, 1, transition, nextLo, nextHi), warnings)
	if minSol.Status != solver.StatusOptimal {
		// The max solve proved the polytope non-empty; treat disagreement
		// as degeneracy-driven emptiness.
		return emptyInterval(), nil
	}

	iv := Interval{Lo: math.Max(0, minSol.X), Hi: maxSol.X}
	if solver.AtCap(maxSol.X) {
		iv.Hi = math.Inf(1)
	}
	return iv, nil
}

// FeasibleSets computes, at every grid point, the interval of squared
// velocities satisfying that point's rows alone, with no coupling between
// stages. An unbounded-above point is reported with Hi = +Inf. Useful as a
// diagnostic and as the terminal set in free-end solves.
func (a *Analyzer) FeasibleSets(ctx context.Context) ([]Interval, error) {
	var warnings []string
	sets := make([]Interval, len(a.points))
	for i := range a.points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iv, err := a.pointInterval(i, false, Interval{}, &warnings)
		if err != nil {
			return nil, err
		}
		sets[i] = iv
	}
	logWarnings("feasible", warnings)
	return sets, nil
}

// terminalFeasible is the feasible interval at the last grid point.
func (a *Analyzer) terminalFeasible(warnings *[]string) (Interval, error) {
	return a.pointInterval(len(a.points)-1, false, Interval{}, warnings)
}

func logWarnings(pass string, warnings []string) {
	for _, w := range warnings {
		monitoring.Logf("reach: %s pass: %s", pass, w)
	}
}
