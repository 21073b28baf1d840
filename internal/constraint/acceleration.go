package constraint

import (
	"fmt"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// JointAcceleration bounds each configuration acceleration: lower[j] <=
// qdd_j <= upper[j]. Along a path, qdd_j = q'_j(s)*u + q''_j(s)*x, giving
// two canonical rows per DOF per point.
type JointAcceleration struct {
	lower, upper []float64
	disc         Discretization
}

// NewJointAcceleration builds a joint acceleration constraint with the
// default interpolation discretization.
func NewJointAcceleration(lower, upper []float64) (*JointAcceleration, error) {
	if len(lower) != len(upper) || len(lower) == 0 {
		return nil, fmt.Errorf("constraint: acceleration limits need matching non-empty bounds, got %d/%d", len(lower), len(upper))
	}
	for j := range lower {
		if !finite(lower[j]) || !finite(upper[j]) {
			return nil, fmt.Errorf("constraint: non-finite acceleration limit for DOF %d", j)
		}
		if lower[j] > upper[j] {
			return nil, fmt.Errorf("constraint: crossed acceleration limits for DOF %d: [%g, %g]", j, lower[j], upper[j])
		}
	}
	return &JointAcceleration{
		lower: append([]float64(nil), lower...),
		upper: append([]float64(nil), upper...),
		disc:  Interpolation,
	}, nil
}

// NewSymmetricJointAcceleration builds ±limits bounds per DOF.
func NewSymmetricJointAcceleration(limits []float64) (*JointAcceleration, error) {
	lower := make([]float64, len(limits))
	for j, v := range limits {
		if v < 0 {
			return nil, fmt.Errorf("constraint: negative symmetric acceleration limit for DOF %d", j)
		}
		lower[j] = -v
	}
	return NewJointAcceleration(lower, limits)
}

// SetDiscretization overrides the default interpolation scheme.
func (c *JointAcceleration) SetDiscretization(d Discretization) { c.disc = d }

// Name implements Constraint.
func (c *JointAcceleration) Name() string { return "joint-acceleration" }

// Discretization implements Constraint.
func (c *JointAcceleration) Discretization() Discretization { return c.disc }

// Params implements Constraint.
func (c *JointAcceleration) Params(p geompath.Path, gridpoints []float64) (*Params, error) {
	dof := p.Dof()
	if dof != len(c.upper) {
		return nil, fmt.Errorf("constraint: acceleration limits cover %d DOFs, path has %d", len(c.upper), dof)
	}
	n := len(gridpoints)
	out := &Params{
		A: make([][]float64, n),
		B: make([][]float64, n),
		C: make([][]float64, n),
	}
	for i, s := range gridpoints {
		qd := p.Deriv(s, 1)
		qdd := p.Deriv(s, 2)
		a := make([]float64, 0, 2*dof)
		b := make([]float64, 0, 2*dof)
		cc := make([]float64, 0, 2*dof)
		for j := 0; j < dof; j++ {
			// qd[j]*u + qdd[j]*x <= upper[j]
			a = append(a, qd[j])
			b = append(b, qdd[j])
			cc = append(cc, -c.upper[j])
			// lower[j] <= qd[j]*u + qdd[j]*x
			a = append(a, -qd[j])
			b = append(b, -qdd[j])
			cc = append(cc, c.lower[j])
		}
		out.A[i], out.B[i], out.C[i] = a, b, cc
	}
	return out, nil
}
