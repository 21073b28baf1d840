// Command toppra-sweep solves one scenario across the cartesian product of
// grid sizes, solver backends, and terminal velocities, for convergence and
// benchmark studies. Results are written as CSV.
//
// Usage:
//
//	toppra-sweep -scenario scenario.json -grids 11,51,101 [flags]
//
// Flags:
//
//	-scenario        Scenario JSON file (required)
//	-grids           Comma-separated uniform grid sizes
//	-solvers         Comma-separated backends (seidel,simplex)
//	-end-velocities  Comma-separated terminal path velocities
//	-workers         Concurrent solves (default: 4)
//	-out             CSV output file ("-" for stdout, default)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/indivisibleatom/toppra/internal/scenario"
	"github.com/indivisibleatom/toppra/internal/sweep"
	"github.com/indivisibleatom/toppra/internal/version"
)

// parseCSVFloatSlice parses a comma-separated list of floats.
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseCSVIntSlice parses a comma-separated list of ints.
func parseCSVIntSlice(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseCSVStringSlice parses a comma-separated list of strings.
func parseCSVStringSlice(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func main() {
	scenarioPath := flag.String("scenario", "", "Scenario JSON file (required)")
	grids := flag.String("grids", "", "Comma-separated uniform grid sizes")
	solvers := flag.String("solvers", "", "Comma-separated backends (seidel,simplex)")
	endVels := flag.String("end-velocities", "", "Comma-separated terminal path velocities")
	workers := flag.Int("workers", 4, "Concurrent solves")
	outPath := flag.String("out", "-", "CSV output file (\"-\" for stdout)")
	flag.Parse()

	if *scenarioPath == "" {
		log.Fatal("Error: -scenario flag is required")
	}

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	gridSizes, err := parseCSVIntSlice(*grids)
	if err != nil {
		log.Fatalf("Invalid -grids: %v", err)
	}
	endVelocities, err := parseCSVFloatSlice(*endVels)
	if err != nil {
		log.Fatalf("Invalid -end-velocities: %v", err)
	}

	runner, err := sweep.NewRunner(sc, sweep.Config{
		GridPoints:    gridSizes,
		Solvers:       parseCSVStringSlice(*solvers),
		EndVelocities: endVelocities,
		Workers:       *workers,
	})
	if err != nil {
		log.Fatalf("Failed to configure sweep: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	total := len(runner.Combos())
	log.Printf("toppra-sweep %s: %q, %d combinations on %d workers",
		version.String(), sc.Name, total, *workers)

	start := time.Now()
	results, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("Sweep aborted: %v", err)
	}
	log.Printf("Sweep finished in %s", time.Since(start).Round(time.Millisecond))

	failed := 0
	for _, res := range results {
		if res.Err != "" {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d/%d combinations failed (recorded in output)", failed, total)
	}

	out := os.Stdout
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := sweep.WriteCSV(out, results); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}
}
