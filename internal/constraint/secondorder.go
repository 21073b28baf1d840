package constraint

import (
	"fmt"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// SecondOrder is the generic plug point for dynamics-derived limits such as
// torque bounds: the caller supplies a function producing canonical row
// coefficients directly. The function owns the inverse dynamics; this
// package only validates and relays its rows.
type SecondOrder struct {
	name string
	disc Discretization
	fn   func(s float64) (a, b, c []float64)
}

// NewSecondOrder wraps a canonical row function with the default
// interpolation discretization.
func NewSecondOrder(name string, fn func(s float64) (a, b, c []float64)) (*SecondOrder, error) {
	if name == "" {
		return nil, fmt.Errorf("constraint: second-order constraint needs a name")
	}
	if fn == nil {
		return nil, fmt.Errorf("constraint: nil row function for %q", name)
	}
	return &SecondOrder{name: name, disc: Interpolation, fn: fn}, nil
}

// SetDiscretization overrides the default interpolation scheme.
func (c *SecondOrder) SetDiscretization(d Discretization) { c.disc = d }

// Name implements Constraint.
func (c *SecondOrder) Name() string { return c.name }

// Discretization implements Constraint.
func (c *SecondOrder) Discretization() Discretization { return c.disc }

// Params implements Constraint.
func (c *SecondOrder) Params(p geompath.Path, gridpoints []float64) (*Params, error) {
	n := len(gridpoints)
	out := &Params{
		A: make([][]float64, n),
		B: make([][]float64, n),
		C: make([][]float64, n),
	}
	for i, s := range gridpoints {
		a, b, cc := c.fn(s)
		if len(a) != len(b) || len(a) != len(cc) {
			return nil, &Error{Constraint: c.name, Index: i,
				Msg: fmt.Sprintf("row count mismatch: %d/%d/%d", len(a), len(b), len(cc))}
		}
		out.A[i] = append([]float64(nil), a...)
		out.B[i] = append([]float64(nil), b...)
		out.C[i] = append([]float64(nil), cc...)
	}
	if err := out.Validate(c.name, n); err != nil {
		return nil, err
	}
	return out, nil
}
