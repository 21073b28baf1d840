package monitor

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/indivisibleatom/toppra/internal/runstore"
)

// REST API for stored runs.
//
// Routes:
// - GET /api/runs — list runs (optional scenario filter, limit)
// - GET /api/runs/{run_id} — run detail with the full stored profile
// - DELETE /api/runs/{run_id} — delete run

// handleRuns handles /api/runs (list).
func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	var runs []*runstore.Run
	var err error
	if scenarioName := r.URL.Query().Get("scenario"); scenarioName != "" {
		runs, err = ws.store.ListByScenario(scenarioName, limit)
	} else {
		runs, err = ws.store.List(limit)
	}
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list runs: %v", err))
		return
	}

	// Summaries only; the full profile blob is on the detail endpoint.
	summaries := make([]*runstore.Run, 0, len(runs))
	for _, run := range runs {
		summary := *run
		summary.ResultJSON = nil
		summaries = append(summaries, &summary)
	}

	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  summaries,
		"count": len(summaries),
	})
}

// parseRunPath extracts the run_id from /api/runs/{run_id}.
func parseRunPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/runs/")
	if trimmed == path {
		return ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 1 {
		return ""
	}
	return parts[0]
}

// handleRunByID handles /api/runs/{run_id}.
func (ws *WebServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	runID := parseRunPath(r.URL.Path)
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing run_id in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		run, err := ws.store.Get(runID)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				ws.writeJSONError(w, http.StatusNotFound, err.Error())
			} else {
				ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get run: %v", err))
			}
			return
		}
		ws.writeJSON(w, http.StatusOK, run)
	case http.MethodDelete:
		if err := ws.store.Delete(runID); err != nil {
			if strings.Contains(err.Error(), "not found") {
				ws.writeJSONError(w, http.StatusNotFound, err.Error())
			} else {
				ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete run: %v", err))
			}
			return
		}
		ws.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "run_id": runID})
	default:
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
