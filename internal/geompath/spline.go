package geompath

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CubicSpline is a piecewise-cubic interpolating path through waypoints.
// Natural boundary conditions leave the curvature free at the ends; clamped
// boundary conditions pin the end velocities, which is what most robot
// trajectories want (start and stop at rest).
//
// Construction solves one tridiagonal system per DOF for the knot
// curvatures, then evaluation is closed-form per segment.
type CubicSpline struct {
	knots []float64
	ys    [][]float64 // ys[j][i]: DOF j at knot i
	m     [][]float64 // m[j][i]: second derivative of DOF j at knot i
	dof   int
}

// NewCubicSpline interpolates the waypoints with natural boundary conditions
// (zero curvature at both ends). waypoints[i] is the configuration at
// knots[i].
func NewCubicSpline(knots []float64, waypoints [][]float64) (*CubicSpline, error) {
	return newSpline(knots, waypoints, nil, nil)
}

// NewClampedCubicSpline interpolates the waypoints with the configuration
// velocities pinned to startVel and endVel at the path ends.
func NewClampedCubicSpline(knots []float64, waypoints [][]float64, startVel, endVel []float64) (*CubicSpline, error) {
	if startVel == nil || endVel == nil {
		return nil, fmt.Errorf("geompath: clamped spline needs both end velocities")
	}
	return newSpline(knots, waypoints, startVel, endVel)
}

func newSpline(knots []float64, waypoints [][]float64, startVel, endVel []float64) (*CubicSpline, error) {
	n := len(knots)
	if n < 2 {
		return nil, fmt.Errorf("geompath: spline needs at least 2 knots, got %d", n)
	}
	if len(waypoints) != n {
		return nil, fmt.Errorf("geompath: %d knots but %d waypoints", n, len(waypoints))
	}
	dof := len(waypoints[0])
	if dof == 0 {
		return nil, fmt.Errorf("geompath: empty waypoint")
	}
	for i := 1; i < n; i++ {
		if !(knots[i] > knots[i-1]) {
			return nil, fmt.Errorf("geompath: knots not strictly increasing at index %d", i)
		}
		if len(waypoints[i]) != dof {
			return nil, fmt.Errorf("geompath: waypoint %d has %d coordinates, want %d", i, len(waypoints[i]), dof)
		}
	}
	if startVel != nil && (len(startVel) != dof || len(endVel) != dof) {
		return nil, fmt.Errorf("geompath: end velocity length mismatch")
	}

	sp := &CubicSpline{
		knots: append([]float64(nil), knots...),
		ys:    make([][]float64, dof),
		m:     make([][]float64, dof),
		dof:   dof,
	}
	for j := 0; j < dof; j++ {
		sp.ys[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			sp.ys[j][i] = waypoints[i][j]
		}
	}

	// Knot curvatures M solve a tridiagonal system: interior rows are the
	// cubic-spline continuity equations, boundary rows encode natural
	// (M = 0) or clamped (velocity) conditions.
	h := make([]float64, n-1)
	for i := range h {
		h[i] = knots[i+1] - knots[i]
	}
	for j := 0; j < dof; j++ {
		// Fresh diagonals per DOF: Tridiag adopts these slices as backing.
		dl := make([]float64, n-1)
		d := make([]float64, n)
		du := make([]float64, n-1)
		rhs := make([]float64, n)
		y := sp.ys[j]
		for i := 1; i < n-1; i++ {
			dl[i-1] = h[i-1] / 6
			d[i] = (h[i-1] + h[i]) / 3
			du[i] = h[i] / 6
			rhs[i] = (y[i+1]-y[i])/h[i] - (y[i]-y[i-1])/h[i-1]
		}
		if startVel == nil {
			d[0], du[0], rhs[0] = 1, 0, 0
			d[n-1], dl[n-2], rhs[n-1] = 1, 0, 0
		} else {
			d[0], du[0] = h[0]/3, h[0]/6
			rhs[0] = (y[1]-y[0])/h[0] - startVel[j]
			dl[n-2], d[n-1] = h[n-2]/6, h[n-2]/3
			rhs[n-1] = endVel[j] - (y[n-1]-y[n-2])/h[n-2]
		}

		a := mat.NewTridiag(n, dl, d, du)
		var sol mat.VecDense
		if err := a.SolveVecTo(&sol, false, mat.NewVecDense(n, rhs)); err != nil {
			return nil, fmt.Errorf("geompath: spline system for DOF %d: %w", j, err)
		}
		sp.m[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			sp.m[j][i] = sol.AtVec(i)
		}
	}
	return sp, nil
}

// Eval implements Path.
func (sp *CubicSpline) Eval(s float64) []float64 {
	return sp.Deriv(s, 0)
}

// Deriv implements Path.
func (sp *CubicSpline) Deriv(s float64, order int) []float64 {
	if order < 0 || order > 2 {
		panic(fmt.Sprintf("geompath: unsupported derivative order %d", order))
	}
	i := sp.segment(s)
	h := sp.knots[i+1] - sp.knots[i]
	lo, hi := s-sp.knots[i], sp.knots[i+1]-s

	out := make([]float64, sp.dof)
	for j := 0; j < sp.dof; j++ {
		y, m := sp.ys[j], sp.m[j]
		switch order {
		case 0:
			out[j] = m[i]*hi*hi*hi/(6*h) + m[i+1]*lo*lo*lo/(6*h) +
				(y[i]-m[i]*h*h/6)*hi/h + (y[i+1]-m[i+1]*h*h/6)*lo/h
		case 1:
			out[j] = -m[i]*hi*hi/(2*h) + m[i+1]*lo*lo/(2*h) +
				(y[i+1]-y[i])/h - (m[i+1]-m[i])*h/6
		case 2:
			out[j] = m[i]*hi/h + m[i+1]*lo/h
		}
	}
	return out
}

// Domain implements Path.
func (sp *CubicSpline) Domain() (lo, hi float64) {
	return sp.knots[0], sp.knots[len(sp.knots)-1]
}

// Dof implements Path.
func (sp *CubicSpline) Dof() int {
	return sp.dof
}

// segment returns the index i with knots[i] <= s < knots[i+1], clamping
// positions outside the domain onto the end segments.
func (sp *CubicSpline) segment(s float64) int {
	n := len(sp.knots)
	i := sort.SearchFloat64s(sp.knots, s)
	// SearchFloat64s returns the first index with knots[i] >= s.
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i
}
