package handlers

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/portside-sh/portside/internal/auth"
	"github.com/portside-sh/portside/internal/docker"
)

// App holds shared dependencies for all handlers.
type App struct {
	Creds          *auth.Credentials
	Sessions       *auth.SessionStore
	Docker         docker.Client
	Web            fs.FS // Embedded pages and static assets
	Version        string
	AuthEnabled    bool
	SessionTimeout time.Duration
}

// Register wires every route onto the mux. The auth gate is applied
// outside, around the whole mux, so handlers here can assume requests
// have already passed it.
func (app *App) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", app.healthz)
	mux.HandleFunc("GET /readyz", app.readyz)

	mux.HandleFunc("GET /{$}", app.dashboardPage)
	mux.Handle("GET /static/", http.FileServerFS(app.Web))

	mux.HandleFunc("GET /login", app.loginPage)
	mux.HandleFunc("POST /login", app.login)
	mux.HandleFunc("GET /logout", app.logout)
	mux.HandleFunc("POST /logout", app.logout)

	mux.HandleFunc("GET /api/version", app.version)
	mux.HandleFunc("GET /api/containers", app.listContainers)
	mux.HandleFunc("POST /api/containers", app.createContainer)
	mux.HandleFunc("POST /api/containers/{id}/start", app.startContainer)
	mux.HandleFunc("POST /api/containers/{id}/stop", app.stopContainer)
	mux.HandleFunc("POST /api/containers/{id}/restart", app.restartContainer)
	mux.HandleFunc("GET /api/containers/{id}/logs", app.containerLogs)
	mux.HandleFunc("GET /api/images", app.listImages)
	mux.HandleFunc("GET /api/images/info", app.imageInfo)
	mux.HandleFunc("GET /api/metrics", app.metrics)
}

func (app *App) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// readyz fails until the engine answers, so orchestrators don't route
// traffic to an instance that can't reach the daemon.
func (app *App) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := app.Docker.SystemMetrics(r.Context()); err != nil {
		slog.Warn("readiness probe", "err", err)
		http.Error(w, "engine unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (app *App) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": app.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineError maps an engine adapter failure onto an HTTP status:
// missing containers and images are the client's mistake, everything
// else is a bad gateway.
func engineError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "err", err)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such container") ||
		strings.Contains(msg, "no such image") ||
		strings.Contains(msg, "not found")
}
