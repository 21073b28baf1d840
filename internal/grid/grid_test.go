package grid

import (
	"math"
	"testing"

	"github.com/indivisibleatom/toppra/internal/geompath"
	"github.com/indivisibleatom/toppra/internal/testutil"
)

func TestUniform(t *testing.T) {
	g, err := Uniform(5, 0, 2)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceClose(t, g, []float64{0, 0.5, 1, 1.5, 2}, 1e-12)

	if _, err := Uniform(1, 0, 1); err == nil {
		t.Error("expected error for n < 2")
	}
	if _, err := Uniform(5, 1, 1); err == nil {
		t.Error("expected error for empty span")
	}
}

func TestFromPoints(t *testing.T) {
	in := []float64{0, 0.3, 1}
	g, err := FromPoints(in)
	testutil.AssertNoError(t, err)

	in[1] = 99 // caller mutation must not leak in
	testutil.AssertSliceClose(t, g, []float64{0, 0.3, 1}, 0)

	if _, err := FromPoints([]float64{0}); err == nil {
		t.Error("expected error for single point")
	}
	if _, err := FromPoints([]float64{0, 0.5, 0.5, 1}); err == nil {
		t.Error("expected error for repeated point")
	}
}

func TestValidate(t *testing.T) {
	testutil.AssertNoError(t, Validate([]float64{0, 0.5, 1}, 0, 1))
	testutil.AssertError(t, Validate([]float64{0, 0.5, 1}, 0, 2))
	testutil.AssertError(t, Validate([]float64{0, 0.5, 0.4, 1}, 0, 1))
	testutil.AssertError(t, Validate([]float64{0.5}, 0, 1))
}

func TestDeltas(t *testing.T) {
	d := Deltas([]float64{0, 0.2, 0.7, 1})
	testutil.AssertSliceClose(t, d, []float64{0.2, 0.5, 0.3}, 1e-12)
}

func TestAutoRefinesUntilCriteria(t *testing.T) {
	// Quartic: curvature grows toward s = 1, so refinement must end with
	// every stage satisfying both the width and error criteria.
	p, err := geompath.NewPolynomial([][]float64{{0, 0, 0, 0, 1}}, 0, 1)
	testutil.AssertNoError(t, err)

	cfg := DefaultAutoConfig()
	g, err := Auto(p, cfg)
	testutil.AssertNoError(t, err)

	lo, hi := p.Domain()
	testutil.AssertNoError(t, Validate(g, lo, hi))
	if len(g) < cfg.MinPoints {
		t.Fatalf("grid has %d points, want at least %d", len(g), cfg.MinPoints)
	}
	for i := 0; i+1 < len(g); i++ {
		width := g[i+1] - g[i]
		if width > cfg.MaxSegLength+1e-12 {
			t.Errorf("stage %d width %g exceeds %g", i, width, cfg.MaxSegLength)
		}
		if e := segmentErr(p, g[i], g[i+1]); e > cfg.MaxErr+1e-12 {
			t.Errorf("stage %d error estimate %g exceeds %g", i, e, cfg.MaxErr)
		}
	}
}

func TestAutoDensifiesWhereCurved(t *testing.T) {
	p, err := geompath.NewPolynomial([][]float64{{0, 0, 0, 0, 1}}, 0, 1)
	testutil.AssertNoError(t, err)

	cfg := AutoConfig{MaxErr: 1e-4, MaxSegLength: 0.5, MinPoints: 2, MaxIter: 100}
	g, err := Auto(p, cfg)
	testutil.AssertNoError(t, err)

	var flatMax, curvedMin float64
	curvedMin = math.Inf(1)
	for i := 0; i+1 < len(g); i++ {
		width := g[i+1] - g[i]
		mid := (g[i] + g[i+1]) / 2
		if mid < 0.1 {
			flatMax = math.Max(flatMax, width)
		}
		if mid > 0.9 {
			curvedMin = math.Min(curvedMin, width)
		}
	}
	if !(curvedMin < flatMax) {
		t.Errorf("expected finer stages near the curved end: flat max %g, curved min %g", flatMax, curvedMin)
	}
}

func TestAutoMinPoints(t *testing.T) {
	p, err := geompath.NewPolynomial([][]float64{{0, 1}}, 0, 1) // straight line
	testutil.AssertNoError(t, err)

	g, err := Auto(p, AutoConfig{MaxErr: 1, MaxSegLength: 10, MinPoints: 64, MaxIter: 5})
	testutil.AssertNoError(t, err)
	if len(g) < 64 {
		t.Errorf("grid has %d points, want at least 64", len(g))
	}
	lo, hi := p.Domain()
	testutil.AssertNoError(t, Validate(g, lo, hi))
}

func TestAutoValidation(t *testing.T) {
	p, err := geompath.NewPolynomial([][]float64{{0, 1}}, 0, 1)
	testutil.AssertNoError(t, err)

	if _, err := Auto(p, AutoConfig{MaxErr: 0, MaxSegLength: 1, MinPoints: 2, MaxIter: 1}); err == nil {
		t.Error("expected error for zero MaxErr")
	}
	if _, err := Auto(p, AutoConfig{MaxErr: 1, MaxSegLength: 1, MinPoints: 1, MaxIter: 1}); err == nil {
		t.Error("expected error for MinPoints < 2")
	}
	if _, err := Auto(p, AutoConfig{MaxErr: 1, MaxSegLength: 1, MinPoints: 2, MaxIter: 0}); err == nil {
		t.Error("expected error for MaxIter < 1")
	}
}
