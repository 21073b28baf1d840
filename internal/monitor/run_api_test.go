package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indivisibleatom/toppra/internal/runstore"
)

type listRunsResponse struct {
	Runs  []*runstore.Run `json:"runs"`
	Count int             `json:"count"`
}

func seedRuns(t *testing.T, server *WebServer, n int, scenarioName string) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		run := &runstore.Run{
			RunID:        fmt.Sprintf("%s-%d", scenarioName, i),
			ScenarioName: scenarioName,
			Solver:       "seidel",
			Status:       runstore.StatusOK,
			GridPoints:   11,
			ResultJSON:   json.RawMessage(`{"gridpoints":[0,1]}`),
			CreatedAt:    int64(i + 1),
		}
		require.NoError(t, server.store.Insert(run))
		ids = append(ids, run.RunID)
	}
	return ids
}

func TestRunAPI_WithoutDB(t *testing.T) {
	server := testServer(t)

	for _, target := range []string{"/api/runs", "/api/runs/some-id", "/charts/profile", "/plots/profile.png"} {
		t.Run(target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rr := httptest.NewRecorder()
			server.setupRoutes().ServeHTTP(rr, req)
			assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
			assert.Contains(t, rr.Body.String(), "database not configured")
		})
	}
}

func TestRunAPI_List(t *testing.T) {
	server := testServerWithStore(t)
	seedRuns(t, server, 3, "wrist")
	seedRuns(t, server, 1, "elbow")

	t.Run("all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rr := httptest.NewRecorder()
		server.handleRuns(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp listRunsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 4, resp.Count)
		for _, run := range resp.Runs {
			assert.Empty(t, run.ResultJSON, "list must not carry profile blobs")
		}
	})

	t.Run("scenario filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs?scenario=wrist", nil)
		rr := httptest.NewRecorder()
		server.handleRuns(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp listRunsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 3, resp.Count)
		for _, run := range resp.Runs {
			assert.Equal(t, "wrist", run.ScenarioName)
		}
	})

	t.Run("limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
		rr := httptest.NewRecorder()
		server.handleRuns(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp listRunsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
		rr := httptest.NewRecorder()
		server.handleRuns(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestRunAPI_Get(t *testing.T) {
	server := testServerWithStore(t)
	ids := seedRuns(t, server, 1, "wrist")

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+ids[0], nil)
	rr := httptest.NewRecorder()
	server.handleRunByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var run runstore.Run
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&run))
	assert.Equal(t, ids[0], run.RunID)
	assert.NotEmpty(t, run.ResultJSON, "detail carries the profile blob")

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs/no-such-run", nil)
		rr := httptest.NewRecorder()
		server.handleRunByID(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs/", nil)
		rr := httptest.NewRecorder()
		server.handleRunByID(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/runs/"+ids[0], nil)
		rr := httptest.NewRecorder()
		server.handleRunByID(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestRunAPI_Delete(t *testing.T) {
	server := testServerWithStore(t)
	ids := seedRuns(t, server, 1, "wrist")

	req := httptest.NewRequest(http.MethodDelete, "/api/runs/"+ids[0], nil)
	rr := httptest.NewRecorder()
	server.handleRunByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "deleted")

	// Deleting again reports not found.
	rr = httptest.NewRecorder()
	server.handleRunByID(rr, httptest.NewRequest(http.MethodDelete, "/api/runs/"+ids[0], nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestParseRunPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/runs/abc-123", "abc-123"},
		{"/api/runs/", ""},
		{"/api/runs/abc/extra", ""},
		{"/other/path", ""},
	}
	for _, tt := range tests {
		if got := parseRunPath(tt.path); got != tt.want {
			t.Errorf("parseRunPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
