package geompath

import (
	"math"
	"testing"
)

func TestPolynomialEvalDeriv(t *testing.T) {
	p, err := NewPolynomial([][]float64{
		{1, 2, 3},    // 1 + 2s + 3s^2
		{0, 0, 0, 4}, // 4s^3
	}, 0, 3)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}

	if got := p.Dof(); got != 2 {
		t.Fatalf("Dof = %d, want 2", got)
	}
	lo, hi := p.Domain()
	if lo != 0 || hi != 3 {
		t.Fatalf("Domain = [%g, %g], want [0, 3]", lo, hi)
	}

	q := p.Eval(2)
	if math.Abs(q[0]-17) > 1e-12 || math.Abs(q[1]-32) > 1e-12 {
		t.Errorf("Eval(2) = %v, want [17 32]", q)
	}
	qd := p.Deriv(2, 1)
	if math.Abs(qd[0]-14) > 1e-12 || math.Abs(qd[1]-48) > 1e-12 {
		t.Errorf("Deriv(2, 1) = %v, want [14 48]", qd)
	}
	qdd := p.Deriv(2, 2)
	if math.Abs(qdd[0]-6) > 1e-12 || math.Abs(qdd[1]-48) > 1e-12 {
		t.Errorf("Deriv(2, 2) = %v, want [6 48]", qdd)
	}
}

func TestPolynomialDerivPastDegree(t *testing.T) {
	p, err := NewPolynomial([][]float64{{5}}, 0, 1)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	if got := p.Deriv(0.5, 1)[0]; got != 0 {
		t.Errorf("derivative of constant = %g, want 0", got)
	}
	if got := p.Deriv(0.5, 2)[0]; got != 0 {
		t.Errorf("second derivative of constant = %g, want 0", got)
	}
}

func TestPolynomialValidation(t *testing.T) {
	if _, err := NewPolynomial(nil, 0, 1); err == nil {
		t.Error("expected error for no DOFs")
	}
	if _, err := NewPolynomial([][]float64{{1}}, 1, 1); err == nil {
		t.Error("expected error for empty domain")
	}
	if _, err := NewPolynomial([][]float64{{1}, {}}, 0, 1); err == nil {
		t.Error("expected error for empty coefficient row")
	}
}

func TestPolynomialDerivOrderPanics(t *testing.T) {
	p, err := NewPolynomial([][]float64{{1, 1}}, 0, 1)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for order 3")
		}
	}()
	p.Deriv(0.5, 3)
}
