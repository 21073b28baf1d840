// Command toppra solves a time-optimal path parameterization scenario.
//
// The scenario file describes the geometric path, joint limits, grid, and
// boundary velocities; the result (velocity profile, stage accelerations,
// controllable sets, trajectory times) is written as JSON.
//
// Usage:
//
//	toppra -scenario scenario.json [flags]
//
// Flags:
//
//	-scenario  Scenario JSON file (required)
//	-out       Output file for the result JSON ("-" for stdout, default)
//	-db        SQLite runs database; when set, the run is persisted
//	-timeout   Abort the solve after this duration (default: none)
//	-debug     Enable solver diagnostics on stderr
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indivisibleatom/toppra/internal/monitoring"
	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/runstore"
	"github.com/indivisibleatom/toppra/internal/scenario"
	"github.com/indivisibleatom/toppra/internal/version"
)

// solveOutput is the JSON document written by the tool.
type solveOutput struct {
	Scenario    string        `json:"scenario"`
	Version     string        `json:"version"`
	Solver      string        `json:"solver"`
	Duration    float64       `json:"duration"`
	SolveMillis int64         `json:"solve_millis"`
	Result      *reach.Result `json:"result"`
	// Times are the per-gridpoint arrival times, aligned with
	// result.gridpoints; omitted when the trajectory is stalled.
	Times           []float64 `json:"times,omitempty"`
	TrajectoryError string    `json:"trajectory_error,omitempty"`
}

func main() {
	scenarioPath := flag.String("scenario", "", "Scenario JSON file (required)")
	outPath := flag.String("out", "-", "Output file for the result JSON (\"-\" for stdout)")
	dbPath := flag.String("db", "", "SQLite runs database (optional)")
	timeout := flag.Duration("timeout", 0, "Abort the solve after this duration")
	debug := flag.Bool("debug", false, "Enable solver diagnostics")
	flag.Parse()

	if *scenarioPath == "" {
		log.Fatal("Error: -scenario flag is required")
	}
	monitoring.SetDebug(*debug)

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	problem, err := sc.Build()
	if err != nil {
		log.Fatalf("Failed to build scenario: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	log.Printf("toppra %s solving %q (%d grid points, %s)",
		version.String(), sc.Name, len(problem.Gridpoints), problem.Config.Solver.Name())

	start := time.Now()
	res, solveErr := problem.Solve(ctx)
	elapsed := time.Since(start)

	if *dbPath != "" {
		persistRun(*dbPath, sc, res, solveErr, problem, elapsed)
	}
	if solveErr != nil {
		log.Fatalf("Solve failed after %s: %v", elapsed.Round(time.Millisecond), solveErr)
	}

	out := solveOutput{
		Scenario:    sc.Name,
		Version:     version.String(),
		Solver:      res.Solver,
		SolveMillis: elapsed.Milliseconds(),
		Result:      res,
	}
	traj, trajErr := reach.NewTrajectory(problem.Path, res)
	if trajErr != nil {
		out.TrajectoryError = trajErr.Error()
		log.Printf("Profile solved but not traversable: %v", trajErr)
	} else {
		out.Duration = traj.Duration()
		out.Times = traj.Times()
		log.Printf("Solved in %s: traversal time %.4fs, %d warnings",
			elapsed.Round(time.Millisecond), out.Duration, len(res.Warnings))
	}
	for _, w := range res.Warnings {
		log.Printf("Warning: %s", w)
	}

	if err := writeOutput(*outPath, &out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

// persistRun stores the solve outcome, successful or not, in the runs
// database. Storage failures are logged, not fatal: the solve result is
// still written.
func persistRun(dbPath string, sc *scenario.Scenario, res *reach.Result, solveErr error, problem *scenario.Problem, elapsed time.Duration) {
	db, err := runstore.Open(dbPath)
	if err != nil {
		log.Printf("Failed to open runs database: %v", err)
		return
	}
	defer db.Close()

	var run *runstore.Run
	if solveErr != nil {
		run = runstore.FromError(sc.Name, problem.Config.Solver.Name(), solveErr, elapsed)
	} else {
		duration := 0.0
		if traj, err := reach.NewTrajectory(problem.Path, res); err == nil {
			duration = traj.Duration()
		}
		run, err = runstore.FromResult(sc.Name, res, duration, elapsed)
		if err != nil {
			log.Printf("Failed to encode run: %v", err)
			return
		}
	}
	if err := runstore.NewStore(db).Insert(run); err != nil {
		log.Printf("Failed to store run: %v", err)
		return
	}
	log.Printf("Stored run %s", run.RunID)
}

func writeOutput(path string, out *solveOutput) error {
	blob, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	blob = append(blob, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(blob)
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
