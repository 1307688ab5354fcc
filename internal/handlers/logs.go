package handlers

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// containerLogs serves log output for one container. Without
// follow=true it returns a plain-text snapshot of the tail; with it,
// the request upgrades to a WebSocket and lines are pushed until the
// stream ends or the client goes away.
func (app *App) containerLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tail := r.URL.Query().Get("tail")
	followParam := r.URL.Query().Get("follow")
	follow := followParam == "true" || followParam == "1"

	if !follow {
		rc, err := app.Docker.ContainerLogs(r.Context(), id, tail, false)
		if err != nil {
			engineError(w, "container logs", err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.Copy(w, rc); err != nil {
			slog.Debug("log copy ended", "id", id, "err", err)
		}
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The dashboard is served from the same origin as the API.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("ws accept", "err", err)
		return
	}
	defer ws.Close(websocket.StatusInternalError, "log stream aborted")

	// CloseRead pumps control frames and cancels the context when the
	// client disconnects, which in turn tears down the engine stream.
	ctx := ws.CloseRead(r.Context())

	rc, err := app.Docker.ContainerLogs(ctx, id, tail, true)
	if err != nil {
		slog.Error("container logs follow", "id", id, "err", err)
		ws.Close(websocket.StatusInternalError, "engine log stream failed")
		return
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ws.Write(ctx, websocket.MessageText, scanner.Bytes()); err != nil {
			slog.Debug("ws log push ended", "id", id, "err", err)
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		slog.Debug("log stream ended", "id", id, "err", err)
	}
	ws.Close(websocket.StatusNormalClosure, "")
}
