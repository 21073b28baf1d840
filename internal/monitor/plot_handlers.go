package monitor

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// handleProfilePlot renders the velocity profile and controllable ceiling
// as a PNG, suitable for reports.
//
// GET /plots/profile.png?run_id=...
func (ws *WebServer) handleProfilePlot(w http.ResponseWriter, r *http.Request) {
	run, res, ok := ws.loadRunResult(w, r)
	if !ok {
		return
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s velocity profile (%.4fs)", run.ScenarioName, run.Duration)
	p.X.Label.Text = "path position s"
	p.Y.Label.Text = "path velocity"

	velPts := make(plotter.XYs, len(res.Gridpoints))
	capPts := make(plotter.XYs, len(res.Gridpoints))
	for i, s := range res.Gridpoints {
		velPts[i] = plotter.XY{X: s, Y: res.Velocity[i]}
		capPts[i] = plotter.XY{X: s, Y: math.Sqrt(res.Controllable[i].Hi)}
	}

	velLine, err := plotter.NewLine(velPts)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("velocity line: %v", err))
		return
	}
	velLine.Width = vg.Points(1.5)
	velLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	capLine, err := plotter.NewLine(capPts)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("ceiling line: %v", err))
		return
	}
	capLine.Width = vg.Points(1)
	capLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	capLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(velLine, capLine)
	p.Legend.Add("velocity", velLine)
	p.Legend.Add("controllable ceiling", capLine)
	p.Legend.Top = true

	wt, err := p.WriterTo(12*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render plot: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		log.Printf("write plot: %v", err)
	}
}
