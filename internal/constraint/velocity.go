package constraint

import (
	"fmt"
	"math"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// derivEps is the path-derivative magnitude below which a DOF contributes no
// velocity bound at a point.
const derivEps = 1e-10

// JointVelocity bounds each configuration velocity: lower[j] <= qd_j <=
// upper[j]. Along a path, qd_j = q'_j(s) * sdot, so the limits collapse to a
// per-point cap on squared path velocity.
type JointVelocity struct {
	lower, upper []float64
}

// NewJointVelocity builds a joint velocity constraint. Each DOF must satisfy
// lower[j] <= 0 <= upper[j]: the path is traversed forward, so a strictly
// positive lower bound could never hold at rest.
func NewJointVelocity(lower, upper []float64) (*JointVelocity, error) {
	if len(lower) != len(upper) || len(lower) == 0 {
		return nil, fmt.Errorf("constraint: velocity limits need matching non-empty bounds, got %d/%d", len(lower), len(upper))
	}
	for j := range lower {
		if !finite(lower[j]) || !finite(upper[j]) {
			return nil, fmt.Errorf("constraint: non-finite velocity limit for DOF %d", j)
		}
		if lower[j] > 0 || upper[j] < 0 {
			return nil, fmt.Errorf("constraint: velocity limits for DOF %d must satisfy lower <= 0 <= upper, got [%g, %g]", j, lower[j], upper[j])
		}
	}
	return &JointVelocity{
		lower: append([]float64(nil), lower...),
		upper: append([]float64(nil), upper...),
	}, nil
}

// NewSymmetricJointVelocity builds ±limits bounds per DOF.
func NewSymmetricJointVelocity(limits []float64) (*JointVelocity, error) {
	lower := make([]float64, len(limits))
	for j, v := range limits {
		if v < 0 {
			return nil, fmt.Errorf("constraint: negative symmetric velocity limit for DOF %d", j)
		}
		lower[j] = -v
	}
	return NewJointVelocity(lower, limits)
}

// Name implements Constraint.
func (c *JointVelocity) Name() string { return "joint-velocity" }

// Discretization implements Constraint. Velocity caps are exact at the grid
// points, so collocation suffices.
func (c *JointVelocity) Discretization() Discretization { return Collocation }

// Params implements Constraint.
func (c *JointVelocity) Params(p geompath.Path, gridpoints []float64) (*Params, error) {
	if p.Dof() != len(c.upper) {
		return nil, fmt.Errorf("constraint: velocity limits cover %d DOFs, path has %d", len(c.upper), p.Dof())
	}
	n := len(gridpoints)
	out := &Params{
		A: make([][]float64, n),
		B: make([][]float64, n),
		C: make([][]float64, n),
	}
	for i, s := range gridpoints {
		qd := p.Deriv(s, 1)
		sdMax := math.Inf(1)
		for j, dq := range qd {
			var bound float64
			switch {
			case dq > derivEps:
				bound = c.upper[j] / dq
			case dq < -derivEps:
				bound = c.lower[j] / dq
			default:
				continue
			}
			sdMax = math.Min(sdMax, bound)
		}
		if math.IsInf(sdMax, 1) {
			// Path momentarily stationary in every DOF: no cap here.
			out.A[i], out.B[i], out.C[i] = []float64{}, []float64{}, []float64{}
			continue
		}
		out.A[i] = []float64{0}
		out.B[i] = []float64{1}
		out.C[i] = []float64{-sdMax * sdMax}
	}
	return out, nil
}

// PathVelocity bounds the scalar path velocity directly through a caller
// function returning [lo, hi] bounds on sdot at each position. A positive lo
// forces the profile to keep moving through that region.
type PathVelocity struct {
	fn func(s float64) (lo, hi float64)
}

// NewPathVelocity wraps a scalar velocity limit function.
func NewPathVelocity(fn func(s float64) (lo, hi float64)) (*PathVelocity, error) {
	if fn == nil {
		return nil, fmt.Errorf("constraint: nil path velocity function")
	}
	return &PathVelocity{fn: fn}, nil
}

// Name implements Constraint.
func (c *PathVelocity) Name() string { return "path-velocity" }

// Discretization implements Constraint.
func (c *PathVelocity) Discretization() Discretization { return Collocation }

// Params implements Constraint.
func (c *PathVelocity) Params(p geompath.Path, gridpoints []float64) (*Params, error) {
	n := len(gridpoints)
	out := &Params{
		A: make([][]float64, n),
		B: make([][]float64, n),
		C: make([][]float64, n),
	}
	for i, s := range gridpoints {
		lo, hi := c.fn(s)
		if !finite(lo) || !finite(hi) || hi < 0 || lo > hi {
			return nil, &Error{Constraint: c.Name(), Index: i,
				Msg: fmt.Sprintf("invalid sdot bounds [%g, %g]", lo, hi)}
		}
		if lo > 0 {
			out.A[i] = []float64{0, 0}
			out.B[i] = []float64{1, -1}
			out.C[i] = []float64{-hi * hi, lo * lo}
		} else {
			out.A[i] = []float64{0}
			out.B[i] = []float64{1}
			out.C[i] = []float64{-hi * hi}
		}
	}
	return out, nil
}
