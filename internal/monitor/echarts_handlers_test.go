package monitor

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/runstore"
)

// seedProfileRun stores a small trapezoid-shaped run and returns its ID.
func seedProfileRun(t *testing.T, server *WebServer) string {
	t.Helper()
	res := &reach.Result{
		Gridpoints:   []float64{0, 0.25, 0.5, 0.75, 1},
		X:            []float64{0, 0.5, 1, 0.5, 0},
		Velocity:     []float64{0, 0.7071, 1, 0.7071, 0},
		Accel:        []float64{1, 1, -1, -1},
		Controllable: []reach.Interval{{Lo: 0, Hi: 1}, {Lo: 0, Hi: 1}, {Lo: 0, Hi: 1}, {Lo: 0, Hi: 0.5}, {Lo: 0, Hi: 0}},
		Solver:       "seidel",
	}
	run, err := runstore.FromResult("bench-line", res, 2.0, 5*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, server.store.Insert(run))
	return run.RunID
}

func TestProfileChart(t *testing.T) {
	server := testServerWithStore(t)
	runID := seedProfileRun(t, server)

	req := httptest.NewRequest(http.MethodGet, "/charts/profile?run_id="+runID, nil)
	rr := httptest.NewRecorder()
	server.handleProfileChart(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	body := rr.Body.String()
	assert.Contains(t, body, "echarts")
	assert.Contains(t, body, "bench-line")
	assert.Contains(t, body, "controllable ceiling")
}

func TestPhaseChart(t *testing.T) {
	server := testServerWithStore(t)
	runID := seedProfileRun(t, server)

	req := httptest.NewRequest(http.MethodGet, "/charts/phase?run_id="+runID, nil)
	rr := httptest.NewRecorder()
	server.handlePhaseChart(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	assert.Contains(t, body, "squared-velocity")
	assert.Contains(t, body, "controllable hi")
}

func TestChartErrors(t *testing.T) {
	server := testServerWithStore(t)

	t.Run("missing run_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/charts/profile", nil)
		rr := httptest.NewRecorder()
		server.handleProfileChart(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown run", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/charts/profile?run_id=ghost", nil)
		rr := httptest.NewRecorder()
		server.handleProfileChart(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("run without profile", func(t *testing.T) {
		run := runstore.FromError("bench-line", "seidel", &reach.ConfigError{Msg: "no constraints"}, 0)
		require.NoError(t, server.store.Insert(run))

		req := httptest.NewRequest(http.MethodGet, "/charts/profile?run_id="+run.RunID, nil)
		rr := httptest.NewRecorder()
		server.handleProfileChart(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "no stored profile")
	})
}

func TestProfilePlotPNG(t *testing.T) {
	server := testServerWithStore(t)
	runID := seedProfileRun(t, server)

	req := httptest.NewRequest(http.MethodGet, "/plots/profile.png?run_id="+runID, nil)
	rr := httptest.NewRecorder()
	server.handleProfilePlot(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	body := rr.Body.Bytes()
	require.Greater(t, len(body), len(pngMagic))
	assert.True(t, bytes.HasPrefix(body, pngMagic), "response should be a PNG")
}

func TestGridLabels(t *testing.T) {
	labels := gridLabels([]float64{0, 0.5, 1})
	assert.Equal(t, []string{"0.000", "0.500", "1.000"}, labels)
}
