// Package runstore persists parameterization runs in sqlite: one row per
// solve with summary columns for listing and the full result as JSON for
// inspection and plotting.
package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/timeutil"
)

// Run statuses.
const (
	StatusOK         = "ok"
	StatusInfeasible = "infeasible"
	StatusError      = "error"
)

// Run is one persisted solve.
type Run struct {
	RunID        string          `json:"run_id"`
	ScenarioName string          `json:"scenario_name"`
	Solver       string          `json:"solver"`
	Status       string          `json:"status"`
	GridPoints   int             `json:"grid_points"`
	// Duration is the trajectory traversal time in seconds, zero for
	// failed runs.
	Duration     float64         `json:"duration"`
	SolveMillis  int64           `json:"solve_millis"`
	WarningCount int             `json:"warning_count"`
	ResultJSON   json.RawMessage `json:"result_json,omitempty"`
	ErrorText    string          `json:"error_text,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

// FromResult builds a Run row for a successful solve. duration is the
// trajectory traversal time; pass 0 when only the profile was computed.
func FromResult(scenarioName string, res *reach.Result, duration float64, solveTime time.Duration) (*Run, error) {
	blob, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("runstore: marshal result: %w", err)
	}
	return &Run{
		ScenarioName: scenarioName,
		Solver:       res.Solver,
		Status:       StatusOK,
		GridPoints:   len(res.Gridpoints),
		Duration:     duration,
		SolveMillis:  solveTime.Milliseconds(),
		WarningCount: len(res.Warnings),
		ResultJSON:   blob,
	}, nil
}

// FromError builds a Run row for a failed solve, classifying infeasibility
// apart from configuration and numerical failures.
func FromError(scenarioName, solverName string, solveErr error, solveTime time.Duration) *Run {
	status := StatusError
	var ie *reach.InfeasibleError
	if errors.As(solveErr, &ie) {
		status = StatusInfeasible
	}
	return &Run{
		ScenarioName: scenarioName,
		Solver:       solverName,
		Status:       status,
		SolveMillis:  solveTime.Milliseconds(),
		ErrorText:    solveErr.Error(),
	}
}

// Store provides persistence for runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: timeutil.RealClock{}}
}

// NewStoreWithClock creates a Store with an injected clock for tests.
func NewStoreWithClock(db *sql.DB, clock timeutil.Clock) *Store {
	return &Store{db: db, clock: clock}
}

// Insert persists a run. If RunID is empty, a UUID is generated; if
// CreatedAt is zero it is stamped from the store clock.
func (s *Store) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var resultStr interface{}
	if len(run.ResultJSON) > 0 {
		resultStr = string(run.ResultJSON)
	}
	var errorStr interface{}
	if run.ErrorText != "" {
		errorStr = run.ErrorText
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO runs (
				run_id, scenario_name, solver, status, grid_points,
				duration, solve_millis, warning_count, result_json,
				error_text, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.ScenarioName, run.Solver, run.Status, run.GridPoints,
			run.Duration, run.SolveMillis, run.WarningCount, resultStr,
			errorStr, run.CreatedAt,
		)
		return err
	})
}

const runColumns = `run_id, scenario_name, solver, status, grid_points,
	duration, solve_millis, warning_count, result_json, error_text, created_at`

// Get returns a single run by ID.
func (s *Store) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return collectRuns(rows)
}

// ListByScenario returns the most recent runs for one scenario, newest
// first.
func (s *Store) ListByScenario(scenarioName string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs
		WHERE scenario_name = ?
		ORDER BY created_at DESC LIMIT ?`, scenarioName, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs for %s: %w", scenarioName, err)
	}
	return collectRuns(rows)
}

// Count returns the total number of stored runs.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Delete removes a run by ID.
func (s *Store) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// Result unmarshals the stored solve result, nil for failed runs.
func (r *Run) Result() (*reach.Result, error) {
	if len(r.ResultJSON) == 0 {
		return nil, nil
	}
	var res reach.Result
	if err := json.Unmarshal(r.ResultJSON, &res); err != nil {
		return nil, fmt.Errorf("runstore: unmarshal result for %s: %w", r.RunID, err)
	}
	return &res, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var resultStr, errorStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.ScenarioName, &r.Solver, &r.Status, &r.GridPoints,
		&r.Duration, &r.SolveMillis, &r.WarningCount, &resultStr,
		&errorStr, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resultStr.Valid {
		r.ResultJSON = json.RawMessage(resultStr.String)
	}
	if errorStr.Valid {
		r.ErrorText = errorStr.String
	}
	return &r, nil
}

func collectRuns(rows *sql.Rows) ([]*Run, error) {
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// isSQLiteBusy reports whether err is a transient sqlite lock contention
// error worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries fn on lock contention with exponential backoff, up to
// five attempts. Non-busy errors fail immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
	}
	return fmt.Errorf("retries exhausted: %w", err)
}
