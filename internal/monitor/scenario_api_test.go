package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indivisibleatom/toppra/internal/runstore"
	"github.com/indivisibleatom/toppra/internal/scenario"
	"github.com/indivisibleatom/toppra/internal/timeutil"
)

// writeScenarioDir builds a temp scenario directory with one valid file, one
// broken file, and one non-JSON file.
func writeScenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	blob, err := json.Marshal(lineScenario())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.json"), blob, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a scenario"), 0644))

	return dir
}

func testServerWithScenarios(t *testing.T) *WebServer {
	t.Helper()
	return NewWebServer(WebServerConfig{
		Address:     ":0",
		ScenarioDir: writeScenarioDir(t),
		Clock:       timeutil.NewMockClock(time.Unix(1700000000, 0)),
	})
}

func TestScenarioAPI_List(t *testing.T) {
	server := testServerWithScenarios(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
	rr := httptest.NewRecorder()
	server.handleScenarios(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Files []ScenarioFileInfo `json:"files"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Count, "txt files are not scenarios")

	byFile := map[string]ScenarioFileInfo{}
	for _, f := range resp.Files {
		byFile[f.File] = f
	}
	require.Contains(t, byFile, "line.json")
	assert.True(t, byFile["line.json"].Valid)
	assert.Equal(t, "unit-line", byFile["line.json"].Name)
	require.Contains(t, byFile, "broken.json")
	assert.False(t, byFile["broken.json"].Valid)
	assert.NotEmpty(t, byFile["broken.json"].Error)
}

func TestScenarioAPI_ListNotConfigured(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
	rr := httptest.NewRecorder()
	server.handleScenarios(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "scenario directory not configured")
}

func TestScenarioAPI_GetFile(t *testing.T) {
	server := testServerWithScenarios(t)

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios/line.json", nil)
	rr := httptest.NewRecorder()
	server.handleScenarioByFile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var sc scenario.Scenario
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sc))
	assert.Equal(t, "unit-line", sc.Name)

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/ghost.json", nil)
		rr := httptest.NewRecorder()
		server.handleScenarioByFile(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("broken file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/broken.json", nil)
		rr := httptest.NewRecorder()
		server.handleScenarioByFile(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/..", nil)
		rr := httptest.NewRecorder()
		server.handleScenarioByFile(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestScenarioAPI_SolveFile(t *testing.T) {
	server := testServerWithScenarios(t)

	req := httptest.NewRequest(http.MethodPost, "/api/scenarios/line.json/solve", nil)
	rr := httptest.NewRecorder()
	server.handleScenarioByFile(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp SolveResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, runstore.StatusOK, resp.Status)
	assert.InDelta(t, 2.0, resp.Duration, 1e-6)

	t.Run("solve requires POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/line.json/solve", nil)
		rr := httptest.NewRecorder()
		server.handleScenarioByFile(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/scenarios/line.json/replay", nil)
		rr := httptest.NewRecorder()
		server.handleScenarioByFile(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
