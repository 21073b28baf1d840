package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/runstore"
	"github.com/indivisibleatom/toppra/internal/scenario"
)

// SolveResponse is the response body for solve requests. Failed solves carry
// Error instead of Result; runs are persisted either way when a store is
// configured.
type SolveResponse struct {
	RunID           string        `json:"run_id,omitempty"`
	Scenario        string        `json:"scenario"`
	Solver          string        `json:"solver"`
	Status          string        `json:"status"`
	Duration        float64       `json:"duration"`
	SolveMillis     int64         `json:"solve_millis"`
	Warnings        []string      `json:"warnings,omitempty"`
	Result          *reach.Result `json:"result,omitempty"`
	Error           string        `json:"error,omitempty"`
	TrajectoryError string        `json:"trajectory_error,omitempty"`
}

// handleSolve solves a scenario posted as JSON.
//
// POST /api/solve
func (ws *WebServer) handleSolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var sc scenario.Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	ws.solveScenario(w, r, &sc)
}

// solveScenario builds and solves sc, persists the run when a store is
// configured, and writes the response. Shared by the body and file solve
// endpoints.
func (ws *WebServer) solveScenario(w http.ResponseWriter, r *http.Request, sc *scenario.Scenario) {
	problem, err := sc.Build()
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid scenario: %v", err))
		return
	}

	solverName := sc.Solver
	if solverName == "" {
		solverName = scenario.SolverSeidel
	}

	start := ws.clock.Now()
	res, solveErr := problem.Solve(r.Context())
	elapsed := ws.clock.Since(start)

	if solveErr != nil {
		run := runstore.FromError(sc.Name, solverName, solveErr, elapsed)
		ws.storeRun(run)

		status := http.StatusInternalServerError
		var infeasible *reach.InfeasibleError
		var config *reach.ConfigError
		switch {
		case errors.As(solveErr, &infeasible):
			status = http.StatusUnprocessableEntity
		case errors.As(solveErr, &config):
			status = http.StatusBadRequest
		}
		ws.writeJSON(w, status, SolveResponse{
			RunID:       run.RunID,
			Scenario:    sc.Name,
			Solver:      solverName,
			Status:      run.Status,
			SolveMillis: elapsed.Milliseconds(),
			Error:       solveErr.Error(),
		})
		return
	}

	duration := 0.0
	traj, trajErr := reach.NewTrajectory(problem.Path, res)
	if trajErr == nil {
		duration = traj.Duration()
	}

	run, err := runstore.FromResult(sc.Name, res, duration, elapsed)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.storeRun(run)

	resp := SolveResponse{
		RunID:       run.RunID,
		Scenario:    sc.Name,
		Solver:      res.Solver,
		Status:      runstore.StatusOK,
		Duration:    duration,
		SolveMillis: elapsed.Milliseconds(),
		Warnings:    res.Warnings,
		Result:      res,
	}
	if trajErr != nil {
		resp.TrajectoryError = trajErr.Error()
	}
	ws.writeJSON(w, http.StatusOK, resp)
}

// storeRun persists a run when a store is configured. Persistence failures
// are logged, not surfaced: the solve already happened.
func (ws *WebServer) storeRun(run *runstore.Run) {
	if ws.store == nil {
		return
	}
	if err := ws.store.Insert(run); err != nil {
		log.Printf("failed to store run for %s: %v", run.ScenarioName, err)
	}
}
