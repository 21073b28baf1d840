package reach

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indivisibleatom/toppra/internal/constraint"
	"github.com/indivisibleatom/toppra/internal/solver"
	"github.com/indivisibleatom/toppra/internal/testutil"
)

// trapezoidX is the hand-computed optimal profile for unit velocity and
// acceleration limits on the unit line with ten 0.1 stages: ramp up at the
// acceleration limit, saturate at the velocity limit, ramp down.
var trapezoidX = []float64{0, 0.2, 0.4, 0.6, 0.8, 1, 0.8, 0.6, 0.4, 0.2, 0}

func TestSolveTrapezoid(t *testing.T) {
	a := trapezoidAnalyzer(t)
	res, err := a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)

	testutil.AssertSliceClose(t, res.X, trapezoidX, 1e-9)
	assert.Equal(t, 0.0, res.X[0])
	assert.Equal(t, 0.0, res.X[10])
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "seidel", res.Solver)

	for i, x := range res.X {
		if x < 0 {
			t.Errorf("X[%d] = %g, squared velocity below zero", i, x)
		}
		testutil.AssertClose(t, res.Velocity[i], math.Sqrt(x), 1e-12)
	}

	// Every stage must be realizable by an in-bounds acceleration.
	wantU := []float64{1, 1, 1, 1, 1, -1, -1, -1, -1, -1}
	testutil.AssertSliceClose(t, res.Accel, wantU, 1e-9)

	require.Len(t, res.Controllable, 11)
	for i, iv := range res.Controllable {
		if !iv.Contains(res.X[i], 1e-9) {
			t.Errorf("X[%d] = %g escapes controllable set [%g, %g]", i, res.X[i], iv.Lo, iv.Hi)
		}
	}
}

func TestSolveFreeEnd(t *testing.T) {
	a := trapezoidAnalyzer(t)
	res, err := a.Solve(context.Background(), Boundary{XStart: 0, FreeEnd: true})
	require.NoError(t, err)

	want := []float64{0, 0.2, 0.4, 0.6, 0.8, 1, 1, 1, 1, 1, 1}
	testutil.AssertSliceClose(t, res.X, want, 1e-9)
}

func TestSolveVelocityOnlyJump(t *testing.T) {
	a, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{velocityLimit(t, 2)},
		unitGrid(t), AnalyzerConfig{})
	require.NoError(t, err)

	res, err := a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)

	// With no acceleration rows the profile snaps to the velocity ceiling
	// in a single stage and back down in the last one.
	want := []float64{0, 4, 4, 4, 4, 4, 4, 4, 4, 4, 0}
	testutil.AssertSliceClose(t, res.X, want, 1e-9)
	testutil.AssertClose(t, res.Accel[0], 20, 1e-6)
	testutil.AssertClose(t, res.Accel[9], -20, 1e-6)
}

func TestSolveAccelOnlyPinned(t *testing.T) {
	a, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{accelLimit(t, 1)},
		unitGrid(t), AnalyzerConfig{})
	require.NoError(t, err)

	res, err := a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)
	testutil.AssertSliceClose(t, res.X, trapezoidX, 1e-9)
}

func TestSolveAccelOnlyFreeEndUnbounded(t *testing.T) {
	a, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{accelLimit(t, 1)},
		unitGrid(t), AnalyzerConfig{})
	require.NoError(t, err)

	_, err = a.Solve(context.Background(), Boundary{XStart: 0, FreeEnd: true})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.True(t, strings.Contains(ce.Msg, "unbounded"), "got %q", ce.Msg)
}

func TestSolveInfeasibleMidVelocity(t *testing.T) {
	slow, err := constraint.NewPathVelocity(func(s float64) (float64, float64) {
		if s > 0.85 && s < 0.95 {
			return 0, 0.1
		}
		return 0, 10
	})
	require.NoError(t, err)
	a, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{slow, accelLimit(t, 1)},
		unitGrid(t), AnalyzerConfig{})
	require.NoError(t, err)

	// Ending at sdot = 2 demands x = 3.8 one stage before the end, but the
	// bound at s = 0.9 allows at most 0.01 there.
	_, err = a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 4})
	var ie *InfeasibleError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 9, ie.Index)
	assert.True(t, math.IsNaN(ie.X))
}

func TestSolveStartOutsideControllable(t *testing.T) {
	a := trapezoidAnalyzer(t)
	_, err := a.Solve(context.Background(), Boundary{XStart: 9, XEnd: 0})
	var ie *InfeasibleError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 0, ie.Index)
	assert.Equal(t, 9.0, ie.X)
	testutil.AssertClose(t, ie.Hi, 1, 1e-9)
}

func TestSolveEndOutsideFeasible(t *testing.T) {
	a := trapezoidAnalyzer(t)
	_, err := a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 9})
	var ie *InfeasibleError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 10, ie.Index)
	assert.Equal(t, 9.0, ie.X)
	testutil.AssertClose(t, ie.Hi, 1, 1e-9)
}

func TestSolveNegativeBoundary(t *testing.T) {
	a := trapezoidAnalyzer(t)
	var ce *ConfigError

	_, err := a.Solve(context.Background(), Boundary{XStart: -1, XEnd: 0})
	require.ErrorAs(t, err, &ce)

	_, err = a.Solve(context.Background(), Boundary{XStart: 0, XEnd: -1})
	require.ErrorAs(t, err, &ce)
}

func TestSolveBackendsAgree(t *testing.T) {
	seidel := trapezoidAnalyzer(t)
	simplex, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{velocityLimit(t, 1), accelLimit(t, 1)},
		unitGrid(t), AnalyzerConfig{Solver: solver.NewSimplex()})
	require.NoError(t, err)

	res1, err := seidel.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)
	res2, err := simplex.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)

	assert.Equal(t, "simplex", res2.Solver)
	testutil.AssertSliceClose(t, res2.X, res1.X, 1e-6)
	// A clean trapezoid must solve without degeneracy retries on either
	// backend; the greedy pass pins x at every stage and both backends
	// have to take that in stride.
	assert.Empty(t, res1.Warnings)
	assert.Empty(t, res2.Warnings)
}

func TestSolveIdempotent(t *testing.T) {
	a := trapezoidAnalyzer(t)
	b := Boundary{XStart: 0, XEnd: 0}

	res1, err := a.Solve(context.Background(), b)
	require.NoError(t, err)
	res2, err := a.Solve(context.Background(), b)
	require.NoError(t, err)

	if diff := cmp.Diff(res1, res2); diff != "" {
		t.Errorf("solve is not deterministic (-first +second):\n%s", diff)
	}
}

func TestSolveZeroVelocityProfileStalls(t *testing.T) {
	pinned, err := constraint.NewPathVelocity(func(s float64) (float64, float64) {
		return 0, 0
	})
	require.NoError(t, err)
	a, err := NewAnalyzer(straightPath(t),
		[]constraint.Constraint{pinned}, unitGrid(t), AnalyzerConfig{})
	require.NoError(t, err)

	res, err := a.Solve(context.Background(), Boundary{XStart: 0, XEnd: 0})
	require.NoError(t, err)
	for i, x := range res.X {
		assert.Equal(t, 0.0, x, "X[%d]", i)
	}

	// The profile exists but never moves: integration has no finite time.
	_, err = NewTrajectory(straightPath(t), res)
	var se *StalledError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Stage)
}
