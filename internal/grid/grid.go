// Package grid builds and validates the discretization grids the
// reachability passes run on.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/indivisibleatom/toppra/internal/geompath"
)

// Uniform returns n evenly spaced points spanning [lo, hi].
func Uniform(n int, lo, hi float64) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("grid: need at least 2 points, got %d", n)
	}
	if !(lo < hi) {
		return nil, fmt.Errorf("grid: invalid span [%g, %g]", lo, hi)
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}

// FromPoints validates and copies caller-supplied grid points.
func FromPoints(points []float64) ([]float64, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("grid: need at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !(points[i] > points[i-1]) {
			return nil, fmt.Errorf("grid: points not strictly increasing at index %d", i)
		}
	}
	return append([]float64(nil), points...), nil
}

// Validate checks that the grid is usable against a path domain: at least 2
// strictly increasing points whose ends coincide with the domain.
func Validate(points []float64, lo, hi float64) error {
	if len(points) < 2 {
		return fmt.Errorf("grid: need at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !(points[i] > points[i-1]) {
			return fmt.Errorf("grid: points not strictly increasing at index %d", i)
		}
	}
	const endTol = 1e-9
	if math.Abs(points[0]-lo) > endTol || math.Abs(points[len(points)-1]-hi) > endTol {
		return fmt.Errorf("grid: span [%g, %g] does not match path domain [%g, %g]",
			points[0], points[len(points)-1], lo, hi)
	}
	return nil
}

// Deltas returns the stage widths between consecutive grid points.
func Deltas(points []float64) []float64 {
	d := make([]float64, len(points)-1)
	for i := range d {
		d[i] = points[i+1] - points[i]
	}
	return d
}

// AutoConfig tunes curvature-driven grid refinement.
type AutoConfig struct {
	// MaxErr is the largest acceptable mid-segment interpolation error
	// estimate, in configuration units.
	MaxErr float64
	// MaxSegLength caps stage width regardless of curvature.
	MaxSegLength float64
	// MinPoints is the smallest acceptable grid size.
	MinPoints int
	// MaxIter bounds the refinement rounds.
	MaxIter int
}

// DefaultAutoConfig returns refinement settings that behave well on
// unit-length path domains.
func DefaultAutoConfig() AutoConfig {
	return AutoConfig{
		MaxErr:       1e-3,
		MaxSegLength: 0.05,
		MinPoints:    50,
		MaxIter:      100,
	}
}

// Auto proposes grid points for the path by bisecting segments whose
// curvature makes linear interpolation too coarse. Each segment's error
// estimate is the second-order Taylor remainder at its midpoint; segments
// beyond MaxErr or MaxSegLength split, until a round splits nothing.
func Auto(p geompath.Path, cfg AutoConfig) ([]float64, error) {
	if cfg.MaxErr <= 0 || cfg.MaxSegLength <= 0 {
		return nil, fmt.Errorf("grid: MaxErr and MaxSegLength must be positive")
	}
	if cfg.MinPoints < 2 {
		return nil, fmt.Errorf("grid: MinPoints must be at least 2, got %d", cfg.MinPoints)
	}
	if cfg.MaxIter < 1 {
		return nil, fmt.Errorf("grid: MaxIter must be at least 1, got %d", cfg.MaxIter)
	}

	lo, hi := p.Domain()
	points := []float64{lo, hi}
	for iter := 0; iter < cfg.MaxIter; iter++ {
		refined := make([]float64, 0, 2*len(points))
		split := false
		for i := 0; i+1 < len(points); i++ {
			a, b := points[i], points[i+1]
			refined = append(refined, a)
			if b-a > cfg.MaxSegLength || segmentErr(p, a, b) > cfg.MaxErr {
				refined = append(refined, (a+b)/2)
				split = true
			}
		}
		refined = append(refined, points[len(points)-1])
		points = refined
		if !split {
			break
		}
	}

	// Top up sparse grids by halving every stage.
	for len(points) < cfg.MinPoints {
		dense := make([]float64, 0, 2*len(points))
		for i := 0; i+1 < len(points); i++ {
			dense = append(dense, points[i], (points[i]+points[i+1])/2)
		}
		dense = append(dense, points[len(points)-1])
		points = dense
	}
	return points, nil
}

// segmentErr estimates the linear-interpolation error over [a, b] from the
// midpoint curvature.
func segmentErr(p geompath.Path, a, b float64) float64 {
	half := (b - a) / 2
	qdd := p.Deriv(a+half, 2)
	var worst float64
	for _, v := range qdd {
		worst = math.Max(worst, math.Abs(v))
	}
	return 0.5 * worst * half * half
}
