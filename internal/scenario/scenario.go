// Package scenario loads parameterization problems from JSON files. A
// scenario bundles a geometric path, joint limits with their units, grid
// settings, and boundary velocities; Build turns it into the objects the
// reach package consumes. Fields omitted from the JSON keep their defaults,
// so partial files are safe.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/indivisibleatom/toppra/internal/constraint"
	"github.com/indivisibleatom/toppra/internal/geompath"
	"github.com/indivisibleatom/toppra/internal/grid"
	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/solver"
	"github.com/indivisibleatom/toppra/internal/units"
)

// Path kinds accepted in scenario files.
const (
	PathSpline     = "spline"
	PathPolynomial = "polynomial"
)

// Solver backends accepted in scenario files.
const (
	SolverSeidel  = "seidel"
	SolverSimplex = "simplex"
)

// Scenario is the root of a problem file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Path     PathSpec     `json:"path"`
	Limits   LimitsSpec   `json:"limits"`
	Grid     GridSpec     `json:"grid"`
	Boundary BoundarySpec `json:"boundary"`

	// Solver selects the LP backend, "seidel" by default.
	Solver string `json:"solver,omitempty"`
}

// PathSpec describes the geometric path. Kind "spline" interpolates
// waypoints with a cubic spline over the knots; kind "polynomial" takes
// per-DOF coefficient rows in ascending powers over an explicit domain.
type PathSpec struct {
	Kind string `json:"kind"`

	// Spline fields.
	Knots     []float64   `json:"knots,omitempty"`
	Waypoints [][]float64 `json:"waypoints,omitempty"`
	// StartVelocity/EndVelocity switch the spline to clamped end
	// conditions; both must be present together.
	StartVelocity []float64 `json:"start_velocity,omitempty"`
	EndVelocity   []float64 `json:"end_velocity,omitempty"`

	// Polynomial fields.
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	Domain       *[2]float64 `json:"domain,omitempty"`
}

// LimitsSpec carries the joint limits. Units apply to the whole slice and
// default to SI (rad/s, rad/s^2). PathVelocityMax optionally caps the path
// velocity itself, independent of joint limits.
type LimitsSpec struct {
	Velocity      []float64 `json:"velocity,omitempty"`
	VelocityUnits string    `json:"velocity_units,omitempty"`

	Acceleration      []float64 `json:"acceleration,omitempty"`
	AccelerationUnits string    `json:"acceleration_units,omitempty"`

	PathVelocityMax *float64 `json:"path_velocity_max,omitempty"`
}

// GridSpec selects the discretization: a fixed uniform point count, or
// curvature-driven refinement when Auto is set.
type GridSpec struct {
	Points *int  `json:"points,omitempty"`
	Auto   *bool `json:"auto,omitempty"`

	// Auto-refinement overrides; zero values fall back to
	// grid.DefaultAutoConfig.
	MaxErr       *float64 `json:"max_err,omitempty"`
	MaxSegLength *float64 `json:"max_seg_length,omitempty"`
	MinPoints    *int     `json:"min_points,omitempty"`
}

// BoundarySpec fixes the endpoint path velocities (not squared; squaring
// happens at build time). A nil velocity means start or end at rest.
type BoundarySpec struct {
	StartVelocity *float64 `json:"start_velocity,omitempty"`
	EndVelocity   *float64 `json:"end_velocity,omitempty"`
	FreeEnd       *bool    `json:"free_end,omitempty"`
}

// Problem is a built scenario: everything Solve needs, in SI units.
type Problem struct {
	Scenario    *Scenario
	Path        geompath.Path
	Constraints []constraint.Constraint
	Gridpoints  []float64
	Boundary    reach.Boundary
	Config      reach.AnalyzerConfig
}

// maxFileSize caps scenario files; anything larger is a mistake, not a
// problem description.
const maxFileSize = 1 * 1024 * 1024

// Load reads, parses, and validates a scenario file.
func Load(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scenario file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", s.Name, err)
	}
	return &s, nil
}

// Validate checks the scenario's declarative fields. Numerical problems
// (singular splines, degenerate limits) surface later, from Build.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch s.Path.Kind {
	case PathSpline:
		if len(s.Path.Knots) < 2 {
			return fmt.Errorf("spline path needs at least 2 knots, got %d", len(s.Path.Knots))
		}
		if len(s.Path.Waypoints) != len(s.Path.Knots) {
			return fmt.Errorf("waypoint count %d does not match knot count %d",
				len(s.Path.Waypoints), len(s.Path.Knots))
		}
		if (s.Path.StartVelocity == nil) != (s.Path.EndVelocity == nil) {
			return fmt.Errorf("start_velocity and end_velocity must be set together")
		}
	case PathPolynomial:
		if len(s.Path.Coefficients) == 0 {
			return fmt.Errorf("polynomial path needs coefficient rows")
		}
		if s.Path.Domain == nil {
			return fmt.Errorf("polynomial path needs a domain")
		}
		if !(s.Path.Domain[0] < s.Path.Domain[1]) {
			return fmt.Errorf("invalid domain [%g, %g]", s.Path.Domain[0], s.Path.Domain[1])
		}
	case "":
		return fmt.Errorf("path.kind is required")
	default:
		return fmt.Errorf("unknown path kind %q", s.Path.Kind)
	}

	if len(s.Limits.Velocity) == 0 && len(s.Limits.Acceleration) == 0 && s.Limits.PathVelocityMax == nil {
		return fmt.Errorf("at least one limit is required")
	}
	if u := s.Limits.VelocityUnits; u != "" && !units.IsValid(u) {
		return fmt.Errorf("invalid velocity_units %q, must be one of: %s", u, units.GetValidUnitsString())
	}
	if u := s.Limits.AccelerationUnits; u != "" && !units.IsValid(u) {
		return fmt.Errorf("invalid acceleration_units %q, must be one of: %s", u, units.GetValidUnitsString())
	}
	if s.Limits.PathVelocityMax != nil && *s.Limits.PathVelocityMax < 0 {
		return fmt.Errorf("path_velocity_max must be non-negative, got %g", *s.Limits.PathVelocityMax)
	}

	if s.Grid.Points != nil && *s.Grid.Points < 2 {
		return fmt.Errorf("grid.points must be at least 2, got %d", *s.Grid.Points)
	}
	if v := s.Boundary.StartVelocity; v != nil && *v < 0 {
		return fmt.Errorf("boundary.start_velocity must be non-negative, got %g", *v)
	}
	if v := s.Boundary.EndVelocity; v != nil && *v < 0 {
		return fmt.Errorf("boundary.end_velocity must be non-negative, got %g", *v)
	}

	switch s.Solver {
	case "", SolverSeidel, SolverSimplex:
	default:
		return fmt.Errorf("unknown solver %q", s.Solver)
	}
	return nil
}

// GetPoints returns the uniform grid size, defaulting to 101.
func (g *GridSpec) GetPoints() int {
	if g.Points == nil {
		return 101
	}
	return *g.Points
}

// GetAuto reports whether curvature-driven refinement is requested.
func (g *GridSpec) GetAuto() bool {
	return g.Auto != nil && *g.Auto
}

func (g *GridSpec) autoConfig() grid.AutoConfig {
	cfg := grid.DefaultAutoConfig()
	if g.MaxErr != nil {
		cfg.MaxErr = *g.MaxErr
	}
	if g.MaxSegLength != nil {
		cfg.MaxSegLength = *g.MaxSegLength
	}
	if g.MinPoints != nil {
		cfg.MinPoints = *g.MinPoints
	}
	return cfg
}

// GetFreeEnd reports whether the terminal velocity is released.
func (b *BoundarySpec) GetFreeEnd() bool {
	return b.FreeEnd != nil && *b.FreeEnd
}

func velOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// buildPath constructs the geometric path from the spec.
func (s *Scenario) buildPath() (geompath.Path, error) {
	switch s.Path.Kind {
	case PathSpline:
		if s.Path.StartVelocity != nil {
			return geompath.NewClampedCubicSpline(s.Path.Knots, s.Path.Waypoints,
				s.Path.StartVelocity, s.Path.EndVelocity)
		}
		return geompath.NewCubicSpline(s.Path.Knots, s.Path.Waypoints)
	case PathPolynomial:
		return geompath.NewPolynomial(s.Path.Coefficients, s.Path.Domain[0], s.Path.Domain[1])
	default:
		return nil, fmt.Errorf("unknown path kind %q", s.Path.Kind)
	}
}

// buildConstraints converts the limits to SI and assembles the constraint
// set.
func (s *Scenario) buildConstraints() ([]constraint.Constraint, error) {
	var cs []constraint.Constraint
	if len(s.Limits.Velocity) > 0 {
		lim := units.RateSlice(s.Limits.Velocity, s.Limits.VelocityUnits)
		c, err := constraint.NewSymmetricJointVelocity(lim)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	if len(s.Limits.Acceleration) > 0 {
		lim := units.RateSlice(s.Limits.Acceleration, s.Limits.AccelerationUnits)
		c, err := constraint.NewSymmetricJointAcceleration(lim)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	if s.Limits.PathVelocityMax != nil {
		vmax := *s.Limits.PathVelocityMax
		c, err := constraint.NewPathVelocity(func(float64) (float64, float64) {
			return 0, vmax
		})
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

// Build assembles the runnable problem: path, SI constraints, grid points,
// boundary in squared velocities, and the solver backend.
func (s *Scenario) Build() (*Problem, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	path, err := s.buildPath()
	if err != nil {
		return nil, fmt.Errorf("scenario %q: building path: %w", s.Name, err)
	}
	cs, err := s.buildConstraints()
	if err != nil {
		return nil, fmt.Errorf("scenario %q: building constraints: %w", s.Name, err)
	}

	var points []float64
	if s.Grid.GetAuto() {
		points, err = grid.Auto(path, s.Grid.autoConfig())
	} else {
		lo, hi := path.Domain()
		points, err = grid.Uniform(s.Grid.GetPoints(), lo, hi)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %q: building grid: %w", s.Name, err)
	}

	sv := velOrZero(s.Boundary.StartVelocity)
	ev := velOrZero(s.Boundary.EndVelocity)
	cfg := reach.DefaultAnalyzerConfig()
	if s.Solver == SolverSimplex {
		cfg.Solver = solver.NewSimplex()
	}

	return &Problem{
		Scenario:    s,
		Path:        path,
		Constraints: cs,
		Gridpoints:  points,
		Boundary: reach.Boundary{
			XStart:  sv * sv,
			XEnd:    ev * ev,
			FreeEnd: s.Boundary.GetFreeEnd(),
		},
		Config: cfg,
	}, nil
}

// Solve runs the parameterization for the built problem.
func (p *Problem) Solve(ctx context.Context) (*reach.Result, error) {
	a, err := reach.NewAnalyzer(p.Path, p.Constraints, p.Gridpoints, p.Config)
	if err != nil {
		return nil, err
	}
	return a.Solve(ctx, p.Boundary)
}
