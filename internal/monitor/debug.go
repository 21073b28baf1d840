package monitor

import (
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// attachDebugRoutes mounts the tsweb debug index and a tailSQL instance
// pointed at the runs database. No-op when no database is configured.
func (ws *WebServer) attachDebugRoutes(mux *http.ServeMux) {
	if ws.db == nil {
		return
	}

	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Printf("failed to create tailsql server: %v", err)
		return
	}
	tsql.SetDB("sqlite://runs.db", ws.db, &tailsql.DBOptions{
		Label: "Runs DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
