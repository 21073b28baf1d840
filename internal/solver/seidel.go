package solver

import "math"

// Seidel solves stage problems with an incremental planar LP in the style of
// Seidel's algorithm, specialised to two variables and made deterministic by
// processing rows in their given order.
//
// The algorithm:
//  1. Cap infinite box bounds at ±BigBound and start from the box corner that
//     minimizes the objective.
//  2. Walk the half-planes (box walls first, then caller rows). A half-plane
//     already satisfied by the current vertex leaves it unchanged.
//  3. A violated half-plane pins the new optimum to its boundary line. The
//     problem collapses to one dimension: intersect every earlier half-plane
//     with the line to get a parameter interval, then move to the interval
//     end favoured by the objective.
//  4. An empty parameter interval proves the whole intersection empty. An
//     emptiness margin inside the degeneracy band is reported as
//     StatusNumericalError so the caller can retry with relaxed rows.
//
// Processing order is fixed, so identical inputs always produce identical
// vertices. Worst case is quadratic in the row count, which stays trivial at
// the row counts the reachability passes produce.
type Seidel struct {
	// Tol is the feasibility tolerance for accepting a vertex against a row.
	Tol float64
	// DegenBand is the emptiness margin treated as numerical degeneracy
	// rather than hard infeasibility.
	DegenBand float64
}

// NewSeidel returns a Seidel backend with default tolerances.
func NewSeidel() *Seidel {
	return &Seidel{Tol: DefaultTol, DegenBand: 1e-7}
}

// Name implements Stagewise.
func (s *Seidel) Name() string { return "seidel" }

// directionEps guards against degenerate row normals and zero objective
// slopes along a boundary line.
const directionEps = 1e-12

// Solve implements Stagewise.
func (s *Seidel) Solve(p StageProblem) Solution {
	uLo, uHi, xLo, xHi, ok := capBounds(p)
	if !ok {
		return Solution{Status: StatusInfeasible}
	}

	// Box walls as rows, ahead of the caller rows so the 1-D recourse sees
	// them. The starting corner satisfies all four exactly.
	n := len(p.RowU)
	ru := make([]float64, 0, n+4)
	rx := make([]float64, 0, n+4)
	rc := make([]float64, 0, n+4)
	ru = append(ru, 1, -1, 0, 0)
	rx = append(rx, 0, 0, 1, -1)
	rc = append(rc, -uHi, uLo, -xHi, xLo)
	ru = append(ru, p.RowU...)
	rx = append(rx, p.RowX...)
	rc = append(rc, p.RowC...)

	u := uLo
	if p.ObjU < 0 {
		u = uHi
	}
	x := xLo
	if p.ObjX < 0 {
		x = xHi
	}

	for k := range ru {
		if ru[k]*u+rx[k]*x+rc[k] <= s.Tol {
			continue
		}
		a, b, c := ru[k], rx[k], rc[k]
		n2 := a*a + b*b
		if n2 <= directionEps {
			// Degenerate normal: the row is a pure constant. It was just
			// found violated, so classify by margin.
			if c <= s.DegenBand {
				return Solution{Status: StatusNumericalError}
			}
			return Solution{Status: StatusInfeasible}
		}

		// New optimum lies on the line a*u + b*x + c = 0. Parameterize by t
		// along the line from its closest point to the origin.
		p0u := -c * a / n2
		p0x := -c * b / n2
		du, dx := -b, a

		tLo, tHi := math.Inf(-1), math.Inf(1)
		for j := 0; j < k; j++ {
			g := ru[j]*du + rx[j]*dx
			r := ru[j]*p0u + rx[j]*p0x + rc[j]
			if math.Abs(g) <= directionEps {
				if r > s.Tol {
					// The line never enters half-plane j.
					if r <= s.DegenBand {
						return Solution{Status: StatusNumericalError}
					}
					return Solution{Status: StatusInfeasible}
				}
				continue
			}
			t := -r / g
			if g > 0 {
				if t < tHi {
					tHi = t
				}
			} else {
				if t > tLo {
					tLo = t
				}
			}
		}
		if tLo > tHi {
			// A crossing within Tol is an exactly binding interval: the
			// feasible set is the single point, an optimum. Only a gap
			// beyond Tol but inside the band counts as degeneracy.
			switch gap := tLo - tHi; {
			case gap <= s.Tol:
				tHi = tLo
			case gap <= s.DegenBand:
				return Solution{Status: StatusNumericalError}
			default:
				return Solution{Status: StatusInfeasible}
			}
		}

		slope := p.ObjU*du + p.ObjX*dx
		var t float64
		switch {
		case slope > directionEps:
			t = tLo
		case slope < -directionEps:
			t = tHi
		default:
			// Flat objective along the line: stay nearest the foot point.
			t = math.Min(math.Max(0, tLo), tHi)
		}
		u = p0u + t*du
		x = p0x + t*dx
	}

	return Solution{Status: StatusOptimal, U: u, X: x}
}
