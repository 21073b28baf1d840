// Command toppra-server runs the HTTP monitor: a solve endpoint, a JSON API
// over stored runs, profile and phase-plane charts, and tailsql live SQL
// debugging against the runs database.
//
// Usage:
//
//	toppra-server [flags]
//
// Flags:
//
//	-addr       Listen address (default: localhost:8080)
//	-db         SQLite runs database path (default: runs.db)
//	-scenarios  Directory of scenario JSON files served by the file API
//	-debug      Enable solver diagnostics
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/indivisibleatom/toppra/internal/monitor"
	"github.com/indivisibleatom/toppra/internal/monitoring"
	"github.com/indivisibleatom/toppra/internal/runstore"
	"github.com/indivisibleatom/toppra/internal/version"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Listen address")
	dbPath := flag.String("db", "runs.db", "SQLite runs database path")
	scenarioDir := flag.String("scenarios", "", "Directory of scenario JSON files")
	debug := flag.Bool("debug", false, "Enable solver diagnostics")
	flag.Parse()

	monitoring.SetDebug(*debug)
	log.Printf("toppra-server %s listening on %s", version.String(), *addr)

	db, err := runstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open runs database: %v", err)
	}
	defer db.Close()

	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address:     *addr,
		DB:          db,
		ScenarioDir: *scenarioDir,
	})
	defer ws.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ws.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
