// Package sweep runs batches of independent parameterization solves over
// the cartesian product of grid resolutions, solver backends, and terminal
// boundary velocities. Each combination builds its own analyzer from a
// private copy of the base scenario, so solves share nothing but read-only
// inputs and can run concurrently across a bounded worker pool.
package sweep

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/indivisibleatom/toppra/internal/monitoring"
	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/scenario"
)

// Status represents the current state of a sweep run.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusCanceled Status = "canceled"
)

// Config defines the sweep dimensions. An empty dimension keeps the base
// scenario's value for that axis, contributing a single point to the
// product.
type Config struct {
	// GridPoints are uniform grid sizes to solve at.
	GridPoints []int
	// Solvers are LP backend names ("seidel", "simplex").
	Solvers []string
	// EndVelocities are terminal path velocities (not squared).
	EndVelocities []float64
	// Workers bounds concurrent solves.
	Workers int
}

// DefaultConfig returns a sweep over nothing but the base scenario, run on
// four workers.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Combo is one point of the sweep product.
type Combo struct {
	GridPoints  int     `json:"grid_points"`
	Solver      string  `json:"solver"`
	EndVelocity float64 `json:"end_velocity"`
}

// Result is the outcome of solving one combination. Infeasible or stalled
// combinations are reported through Err rather than failing the sweep:
// mapping out the feasible region is what boundary sweeps are for.
type Result struct {
	Combo
	// Duration is the trajectory traversal time in seconds.
	Duration float64 `json:"duration"`
	// PeakVelocity is the largest path velocity on the profile.
	PeakVelocity float64 `json:"peak_velocity"`
	SolveMillis  int64   `json:"solve_millis"`
	Warnings     int     `json:"warnings"`
	Err          string  `json:"error,omitempty"`
}

// Runner executes one sweep. Construct with NewRunner; Run may be called
// once. Progress is safe to poll from other goroutines while Run is active.
type Runner struct {
	base   *scenario.Scenario
	cfg    Config
	combos []Combo

	mu        sync.RWMutex
	status    Status
	completed int
}

// NewRunner validates the config against the base scenario and enumerates
// the combinations.
func NewRunner(base *scenario.Scenario, cfg Config) (*Runner, error) {
	if base == nil {
		return nil, fmt.Errorf("sweep: nil scenario")
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("sweep: base scenario: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	for _, n := range cfg.GridPoints {
		if n < 2 {
			return nil, fmt.Errorf("sweep: grid size %d, need at least 2 points", n)
		}
	}
	for _, name := range cfg.Solvers {
		switch name {
		case scenario.SolverSeidel, scenario.SolverSimplex:
		default:
			return nil, fmt.Errorf("sweep: unknown solver %q", name)
		}
	}
	for _, v := range cfg.EndVelocities {
		if v < 0 {
			return nil, fmt.Errorf("sweep: negative end velocity %g", v)
		}
	}

	r := &Runner{base: base, cfg: cfg, status: StatusIdle}
	r.combos = r.enumerate()
	return r, nil
}

// enumerate expands the cartesian product, substituting the base scenario's
// settings for empty dimensions.
func (r *Runner) enumerate() []Combo {
	grids := r.cfg.GridPoints
	if len(grids) == 0 {
		grids = []int{r.base.Grid.GetPoints()}
	}
	solvers := r.cfg.Solvers
	if len(solvers) == 0 {
		name := r.base.Solver
		if name == "" {
			name = scenario.SolverSeidel
		}
		solvers = []string{name}
	}
	ends := r.cfg.EndVelocities
	if len(ends) == 0 {
		ev := 0.0
		if r.base.Boundary.EndVelocity != nil {
			ev = *r.base.Boundary.EndVelocity
		}
		ends = []float64{ev}
	}

	combos := make([]Combo, 0, len(grids)*len(solvers)*len(ends))
	for _, g := range grids {
		for _, s := range solvers {
			for _, e := range ends {
				combos = append(combos, Combo{GridPoints: g, Solver: s, EndVelocity: e})
			}
		}
	}
	return combos
}

// Combos returns the enumerated combinations in solve order.
func (r *Runner) Combos() []Combo {
	return append([]Combo(nil), r.combos...)
}

// Progress reports completed and total combination counts and the runner
// status.
func (r *Runner) Progress() (completed, total int, status Status) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed, len(r.combos), r.status
}

// Run executes every combination and returns one Result per combo, in
// combo order. Per-combo solve failures are recorded in the results; only
// cancellation fails the sweep itself.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	r.mu.Lock()
	if r.status == StatusRunning {
		r.mu.Unlock()
		return nil, fmt.Errorf("sweep: already running")
	}
	r.status = StatusRunning
	r.completed = 0
	r.mu.Unlock()

	results := make([]Result, len(r.combos))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.solveCombo(ctx, r.combos[idx])
				r.mu.Lock()
				r.completed++
				r.mu.Unlock()
			}
		}()
	}

	canceled := false
feed:
	for i := range r.combos {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			canceled = true
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	r.mu.Lock()
	if canceled {
		r.status = StatusCanceled
	} else {
		r.status = StatusComplete
	}
	r.mu.Unlock()

	if canceled {
		return nil, ctx.Err()
	}
	return results, nil
}

// solveCombo builds and solves one combination against a private copy of
// the base scenario.
func (r *Runner) solveCombo(ctx context.Context, c Combo) Result {
	out := Result{Combo: c}

	sc := r.apply(c)
	problem, err := sc.Build()
	if err != nil {
		out.Err = err.Error()
		return out
	}

	start := time.Now()
	res, err := problem.Solve(ctx)
	out.SolveMillis = time.Since(start).Milliseconds()
	if err != nil {
		out.Err = err.Error()
		monitoring.Debugf("sweep: combo n=%d solver=%s end=%g failed: %v",
			c.GridPoints, c.Solver, c.EndVelocity, err)
		return out
	}

	out.Warnings = len(res.Warnings)
	for _, v := range res.Velocity {
		out.PeakVelocity = math.Max(out.PeakVelocity, v)
	}

	traj, err := reach.NewTrajectory(problem.Path, res)
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.Duration = traj.Duration()
	return out
}

// apply copies the base scenario with the combo's settings substituted. The
// copy shares the base's slices, which nothing downstream mutates.
func (r *Runner) apply(c Combo) *scenario.Scenario {
	sc := *r.base
	n := c.GridPoints
	sc.Grid = scenario.GridSpec{Points: &n}
	sc.Solver = c.Solver
	ev := c.EndVelocity
	bound := sc.Boundary
	bound.EndVelocity = &ev
	sc.Boundary = bound
	return &sc
}
