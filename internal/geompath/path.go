// Package geompath provides geometric path representations: smooth maps from
// a scalar path position to configuration-space coordinates, with first and
// second derivatives.
//
// The parameterization solver never constructs paths itself; it consumes the
// Path interface. CubicSpline and Polynomial are the shipped implementations.
package geompath

import "fmt"

// Path is a twice-differentiable geometric path q(s) on a closed scalar
// domain. Implementations must be safe for concurrent calls.
type Path interface {
	// Eval returns the configuration q(s), one element per DOF.
	Eval(s float64) []float64

	// Deriv returns the order-th derivative of q at s. Order 0 is Eval,
	// order 1 is q'(s), order 2 is q''(s). Other orders panic: asking a
	// twice-differentiable path for a third derivative is a programming
	// error, not a runtime condition.
	Deriv(s float64, order int) []float64

	// Domain returns the closed interval of valid path positions.
	Domain() (lo, hi float64)

	// Dof returns the number of configuration coordinates.
	Dof() int
}

// Polynomial is a fixed-degree polynomial path: one coefficient row per DOF,
// ascending powers of s.
type Polynomial struct {
	coef   [][]float64
	lo, hi float64
}

// NewPolynomial builds a polynomial path on [lo, hi]. Every DOF must carry
// at least one coefficient; rows may have different degrees.
func NewPolynomial(coef [][]float64, lo, hi float64) (*Polynomial, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("geompath: polynomial needs at least one DOF")
	}
	if !(lo < hi) {
		return nil, fmt.Errorf("geompath: invalid domain [%g, %g]", lo, hi)
	}
	c := make([][]float64, len(coef))
	for j, row := range coef {
		if len(row) == 0 {
			return nil, fmt.Errorf("geompath: DOF %d has no coefficients", j)
		}
		c[j] = append([]float64(nil), row...)
	}
	return &Polynomial{coef: c, lo: lo, hi: hi}, nil
}

// Eval implements Path.
func (p *Polynomial) Eval(s float64) []float64 {
	return p.Deriv(s, 0)
}

// Deriv implements Path.
func (p *Polynomial) Deriv(s float64, order int) []float64 {
	if order < 0 || order > 2 {
		panic(fmt.Sprintf("geompath: unsupported derivative order %d", order))
	}
	out := make([]float64, len(p.coef))
	for j, row := range p.coef {
		out[j] = polyDeriv(row, s, order)
	}
	return out
}

// Domain implements Path.
func (p *Polynomial) Domain() (lo, hi float64) {
	return p.lo, p.hi
}

// Dof implements Path.
func (p *Polynomial) Dof() int {
	return len(p.coef)
}

// polyDeriv evaluates the order-th derivative of a coefficient row by Horner
// on the differentiated coefficients.
func polyDeriv(row []float64, s float64, order int) float64 {
	if len(row) <= order {
		return 0
	}
	// factor[k] accumulates k*(k-1)*... for the differentiation.
	var v float64
	for k := len(row) - 1; k >= order; k-- {
		factor := 1.0
		for d := 0; d < order; d++ {
			factor *= float64(k - d)
		}
		v = v*s + factor*row[k]
	}
	return v
}
