package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/portside-sh/portside/internal/models"
)

func (app *App) listContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := app.Docker.ListRunningContainers(r.Context())
	if err != nil {
		engineError(w, "list containers", err)
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

// createContainer validates the request before any engine call so a
// malformed body never reaches the daemon.
func (app *App) createContainer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.ImageName) == "" {
		writeError(w, http.StatusBadRequest, "image_name is required")
		return
	}
	for _, ev := range req.EnvironmentVariables {
		if ev.Key == "" || strings.Contains(ev.Key, "=") {
			writeError(w, http.StatusBadRequest, "invalid environment variable key")
			return
		}
	}

	id, err := app.Docker.CreateAndStart(r.Context(), req)
	if err != nil {
		engineError(w, "create container", err)
		return
	}
	slog.Info("container created", "id", id, "image", req.ImageName)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (app *App) startContainer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := app.Docker.StartContainer(r.Context(), id); err != nil {
		engineError(w, "start container", err)
		return
	}
	slog.Info("container started", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (app *App) stopContainer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := app.Docker.StopContainer(r.Context(), id); err != nil {
		engineError(w, "stop container", err)
		return
	}
	slog.Info("container stopped", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (app *App) restartContainer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := app.Docker.RestartContainer(r.Context(), id); err != nil {
		engineError(w, "restart container", err)
		return
	}
	slog.Info("container restarted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarted"})
}

func (app *App) listImages(w http.ResponseWriter, r *http.Request) {
	images, err := app.Docker.ListImages(r.Context())
	if err != nil {
		engineError(w, "list images", err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (app *App) imageInfo(w http.ResponseWriter, r *http.Request) {
	imageRef := r.URL.Query().Get("image")
	if imageRef == "" {
		writeError(w, http.StatusBadRequest, "image query parameter is required")
		return
	}
	info, err := app.Docker.ImageInfo(r.Context(), imageRef)
	if err != nil {
		engineError(w, "image info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (app *App) metrics(w http.ResponseWriter, r *http.Request) {
	system, err := app.Docker.SystemMetrics(r.Context())
	if err != nil {
		engineError(w, "system metrics", err)
		return
	}
	containers, err := app.Docker.ContainerMetrics(r.Context())
	if err != nil {
		engineError(w, "container metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, models.MetricsResponse{
		System:     system,
		Containers: containers,
	})
}
