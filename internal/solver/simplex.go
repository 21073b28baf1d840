package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex maps stage problems onto gonum's standard-form simplex solver. It
// exists to cross-check the Seidel backend and as an escape hatch when a
// constraint set trips Seidel's degeneracy handling. Roughly an order of
// magnitude slower per stage, identical answers within tolerance.
//
// The stage problem is encoded directly in standard form: both variables
// are shifted by their lower bounds so they are nonnegative, the upper
// bounds become two extra rows, and each inequality row gets its own slack
// variable. Encoding by hand rather than through lp.Convert keeps every
// column distinct; Convert splits free variables into positive and negative
// parts, and the duplicated columns make Phase I basis extraction singular
// on pinned-variable problems.
type Simplex struct {
	// Tol is passed through to lp.Simplex. Zero selects the library default.
	Tol float64
}

// NewSimplex returns a Simplex backend using gonum's default tolerance.
func NewSimplex() *Simplex {
	return &Simplex{}
}

// Name implements Stagewise.
func (s *Simplex) Name() string { return "simplex" }

// Solve implements Stagewise. Panics inside the library surface as
// StatusNumericalError, so one ill-conditioned stage is retried with slack
// instead of taking the whole solve down.
func (s *Simplex) Solve(p StageProblem) (sol Solution) {
	defer func() {
		if r := recover(); r != nil {
			sol = Solution{Status: StatusNumericalError}
		}
	}()

	uLo, uHi, xLo, xHi, ok := capBounds(p)
	if !ok {
		return Solution{Status: StatusInfeasible}
	}

	// A pinned variable collapses the stage to a closed-form 1-D solve; the
	// greedy pass pins x at every stage, so this is the hot case.
	if xLo == xHi {
		u, status := solveInterval(p.ObjU, p.RowU, rowOffsets(p.RowX, p.RowC, xLo), uLo, uHi)
		return Solution{Status: status, U: u, X: xLo}
	}
	if uLo == uHi {
		x, status := solveInterval(p.ObjX, p.RowX, rowOffsets(p.RowU, p.RowC, uLo), xLo, xHi)
		return Solution{Status: status, U: uLo, X: x}
	}

	// Standard form over nonnegative v = (u - uLo, x - xLo, slacks): one
	// equality per caller row, then the two upper-bound rows.
	n := len(p.RowU)
	m := n + 2
	cols := 2 + m
	c := make([]float64, cols)
	c[0], c[1] = p.ObjU, p.ObjX
	a := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	for k := 0; k < n; k++ {
		a.Set(k, 0, p.RowU[k])
		a.Set(k, 1, p.RowX[k])
		a.Set(k, 2+k, 1)
		b[k] = -p.RowC[k] - p.RowU[k]*uLo - p.RowX[k]*xLo
	}
	a.Set(n, 0, 1)
	a.Set(n, 2+n, 1)
	b[n] = uHi - uLo
	a.Set(n+1, 1, 1)
	a.Set(n+1, 2+n+1, 1)
	b[n+1] = xHi - xLo

	_, opt, err := lp.Simplex(c, a, b, s.Tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return Solution{Status: StatusInfeasible}
	case err != nil:
		// The upper-bound rows box both variables and every slack, so the
		// polytope is bounded; an unbounded verdict here is a Phase I
		// artifact, retryable like any other numerical failure. True
		// unboundedness of the stage problem is what AtCap detects.
		return Solution{Status: StatusNumericalError}
	}

	return Solution{
		Status: StatusOptimal,
		U:      opt[0] + uLo,
		X:      opt[1] + xLo,
	}
}

// rowOffsets folds the pinned variable into each row's constant term.
func rowOffsets(coef, rc []float64, pinned float64) []float64 {
	off := make([]float64, len(rc))
	for k := range rc {
		off[k] = coef[k]*pinned + rc[k]
	}
	return off
}

// solveInterval minimizes obj*v over [lo, hi] intersected with the
// half-lines coef[k]*v + off[k] <= 0. Closed form: each row tightens one
// end of the interval.
func solveInterval(obj float64, coef, off []float64, lo, hi float64) (float64, Status) {
	for k := range coef {
		a := coef[k]
		switch {
		case math.Abs(a) <= directionEps:
			if off[k] > DefaultTol {
				return 0, StatusInfeasible
			}
		case a > 0:
			hi = math.Min(hi, -off[k]/a)
		default:
			lo = math.Max(lo, -off[k]/a)
		}
	}
	if lo > hi {
		if lo-hi <= DefaultTol {
			lo = hi
		} else {
			return 0, StatusInfeasible
		}
	}
	if obj < 0 {
		return hi, StatusOptimal
	}
	return lo, StatusOptimal
}
