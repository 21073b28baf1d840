package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/indivisibleatom/toppra/internal/reach"
	"github.com/indivisibleatom/toppra/internal/runstore"
)

// loadRunResult fetches the run named by the run_id query parameter and
// unmarshals its stored profile. On failure it writes the error response and
// returns ok=false.
func (ws *WebServer) loadRunResult(w http.ResponseWriter, r *http.Request) (*runstore.Run, *reach.Result, bool) {
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "database not configured")
		return nil, nil, false
	}
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'run_id' parameter")
		return nil, nil, false
	}
	run, err := ws.store.Get(runID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			ws.writeJSONError(w, http.StatusNotFound, err.Error())
		} else {
			ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get run: %v", err))
		}
		return nil, nil, false
	}
	res, err := run.Result()
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	if res == nil {
		ws.writeJSONError(w, http.StatusNotFound, "run has no stored profile")
		return nil, nil, false
	}
	return run, res, true
}

func gridLabels(gridpoints []float64) []string {
	labels := make([]string, len(gridpoints))
	for i, s := range gridpoints {
		labels[i] = strconv.FormatFloat(s, 'f', 3, 64)
	}
	return labels
}

// handleProfileChart renders the extracted velocity profile against the
// controllable ceiling as an HTML line chart.
//
// GET /charts/profile?run_id=...
func (ws *WebServer) handleProfileChart(w http.ResponseWriter, r *http.Request) {
	run, res, ok := ws.loadRunResult(w, r)
	if !ok {
		return
	}

	velData := make([]opts.LineData, len(res.Velocity))
	for i, v := range res.Velocity {
		velData[i] = opts.LineData{Value: v}
	}
	capData := make([]opts.LineData, len(res.Controllable))
	for i, iv := range res.Controllable {
		capData[i] = opts.LineData{Value: math.Sqrt(iv.Hi)}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Velocity Profile", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s velocity profile", run.ScenarioName),
			Subtitle: fmt.Sprintf("run=%s solver=%s duration=%.4fs warnings=%d", run.RunID, run.Solver, run.Duration, run.WarningCount),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "path position s"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "path velocity"}),
	)
	line.SetXAxis(gridLabels(res.Gridpoints)).
		AddSeries("velocity", velData).
		AddSeries("controllable ceiling", capData).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handlePhaseChart renders the squared-velocity profile between the
// controllable bounds, the plane the reachability analysis works in.
//
// GET /charts/phase?run_id=...
func (ws *WebServer) handlePhaseChart(w http.ResponseWriter, r *http.Request) {
	run, res, ok := ws.loadRunResult(w, r)
	if !ok {
		return
	}

	xData := make([]opts.LineData, len(res.X))
	for i, x := range res.X {
		xData[i] = opts.LineData{Value: x}
	}
	loData := make([]opts.LineData, len(res.Controllable))
	hiData := make([]opts.LineData, len(res.Controllable))
	for i, iv := range res.Controllable {
		loData[i] = opts.LineData{Value: iv.Lo}
		hiData[i] = opts.LineData{Value: iv.Hi}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Phase Plane", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s squared-velocity phase plane", run.ScenarioName),
			Subtitle: fmt.Sprintf("run=%s solver=%s", run.RunID, run.Solver),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "path position s"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "x = squared velocity"}),
	)
	line.SetXAxis(gridLabels(res.Gridpoints)).
		AddSeries("profile x", xData).
		AddSeries("controllable lo", loData).
		AddSeries("controllable hi", hiData)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
