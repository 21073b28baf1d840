package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/indivisibleatom/toppra/internal/scenario"
)

// ScenarioFileInfo describes a single scenario file found in the scenario
// directory.
type ScenarioFileInfo struct {
	File        string `json:"file"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	ModifiedAt  string `json:"modified_at"`
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
}

// handleScenarios scans the configured scenario directory for .json files
// and returns them as JSON, with parse results for each.
//
// GET /api/scenarios
func (ws *WebServer) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if ws.scenarioDir == "" {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "scenario directory not configured")
		return
	}

	dirAbs, err := filepath.Abs(ws.scenarioDir)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "invalid scenario directory configuration")
		return
	}

	const maxFiles = 200
	var files []ScenarioFileInfo

	_ = filepath.WalkDir(dirAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip entries we cannot read
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".json" {
			return nil
		}

		rel, relErr := filepath.Rel(dirAbs, path)
		if relErr != nil {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}

		entry := ScenarioFileInfo{
			File:       rel,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC().Format(time.RFC3339),
		}
		if sc, loadErr := scenario.Load(path); loadErr != nil {
			entry.Error = loadErr.Error()
		} else {
			entry.Valid = true
			entry.Name = sc.Name
			entry.Description = sc.Description
		}
		files = append(files, entry)

		if len(files) >= maxFiles {
			return filepath.SkipAll
		}
		return nil
	})

	if files == nil {
		files = []ScenarioFileInfo{}
	}

	ws.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario_dir": ws.scenarioDir,
		"files":        files,
		"count":        len(files),
	})
}

// parseScenarioPath extracts the file name and action from
// /api/scenarios/{file}/{action}.
func parseScenarioPath(path string) (file string, action string) {
	trimmed := strings.TrimPrefix(path, "/api/scenarios/")
	if trimmed == path {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 0 {
		return "", ""
	}
	file = parts[0]
	if len(parts) > 1 {
		action = parts[1]
	}
	return
}

// handleScenarioByFile handles /api/scenarios/{file}/* routes.
func (ws *WebServer) handleScenarioByFile(w http.ResponseWriter, r *http.Request) {
	if ws.scenarioDir == "" {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "scenario directory not configured")
		return
	}

	file, action := parseScenarioPath(r.URL.Path)
	if file == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing scenario file in path")
		return
	}
	// The file segment must be a plain name inside the scenario directory.
	if file != filepath.Base(file) || file == ".." {
		ws.writeJSONError(w, http.StatusBadRequest, "invalid scenario file name")
		return
	}

	sc, err := scenario.Load(filepath.Join(ws.scenarioDir, file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ws.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("scenario file %q not found", file))
		} else {
			ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("failed to load scenario: %v", err))
		}
		return
	}

	switch action {
	case "":
		// /api/scenarios/{file}
		if r.Method != http.MethodGet {
			ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ws.writeJSON(w, http.StatusOK, sc)
	case "solve":
		// /api/scenarios/{file}/solve
		if r.Method != http.MethodPost {
			ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ws.solveScenario(w, r, sc)
	default:
		ws.writeJSONError(w, http.StatusNotFound, "endpoint not found")
	}
}
