// Package monitor exposes the HTTP surface over scenarios and stored runs:
// a JSON API for solving and browsing, HTML charts, PNG plots, and SQL debug
// mounts on the runs database.
package monitor

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/indivisibleatom/toppra/internal/runstore"
	"github.com/indivisibleatom/toppra/internal/timeutil"
	"github.com/indivisibleatom/toppra/internal/version"
)

//go:embed status.html
var statusHTML embed.FS

// WebServer handles the HTTP interface for solving scenarios and inspecting
// stored runs.
type WebServer struct {
	address     string
	scenarioDir string
	db          *sql.DB
	store       *runstore.Store
	server      *http.Server
	clock       timeutil.Clock
	startTime   time.Time
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	// DB is the runs database; nil disables persistence and the run API.
	DB *sql.DB
	// ScenarioDir holds scenario JSON files; empty disables the scenario
	// file API.
	ScenarioDir string
	// Clock defaults to the real clock.
	Clock timeutil.Clock
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:     config.Address,
		scenarioDir: config.ScenarioDir,
		db:          config.DB,
		clock:       config.Clock,
	}
	if ws.clock == nil {
		ws.clock = timeutil.RealClock{}
	}
	if ws.db != nil {
		ws.store = runstore.NewStore(ws.db)
	}
	ws.startTime = ws.clock.Now()

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	ws.writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/api/solve", ws.handleSolve)
	mux.HandleFunc("/api/scenarios", ws.handleScenarios)
	mux.HandleFunc("/api/scenarios/", ws.handleScenarioByFile)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/runs/", ws.handleRunByID)
	mux.HandleFunc("/charts/profile", ws.handleProfileChart)
	mux.HandleFunc("/charts/phase", ws.handlePhaseChart)
	mux.HandleFunc("/plots/profile.png", ws.handleProfilePlot)
	ws.attachDebugRoutes(mux)

	return mux
}

// handleHealth handles the health check endpoint.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "toppra", "version": %q, "timestamp": %q}`,
		version.String(), ws.clock.Now().UTC().Format(time.RFC3339))
}

type recentRun struct {
	RunID        string
	ShortID      string
	ScenarioName string
	Solver       string
	Status       string
	Duration     float64
	SolveMillis  int64
	Created      string
}

// handleStatus handles the main status page endpoint.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	tmpl, err := template.ParseFS(statusHTML, "status.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var recent []recentRun
	runCount := 0
	if ws.store != nil {
		if n, err := ws.store.Count(); err == nil {
			runCount = n
		}
		runs, err := ws.store.List(10)
		if err == nil {
			for _, run := range runs {
				short := run.RunID
				if len(short) > 8 {
					short = short[:8]
				}
				recent = append(recent, recentRun{
					RunID:        run.RunID,
					ShortID:      short,
					ScenarioName: run.ScenarioName,
					Solver:       run.Solver,
					Status:       run.Status,
					Duration:     run.Duration,
					SolveMillis:  run.SolveMillis,
					Created:      time.Unix(0, run.CreatedAt).UTC().Format(time.RFC3339),
				})
			}
		}
	}

	data := struct {
		Version      string
		Address      string
		Uptime       string
		StoreEnabled bool
		RunCount     int
		Recent       []recentRun
		ScenarioDir  string
	}{
		Version:      version.String(),
		Address:      ws.address,
		Uptime:       ws.clock.Since(ws.startTime).Round(time.Second).String(),
		StoreEnabled: ws.store != nil,
		RunCount:     runCount,
		Recent:       recent,
		ScenarioDir:  ws.scenarioDir,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// Close shuts down the web server.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
