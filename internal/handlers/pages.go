package handlers

import (
	"io/fs"
	"log/slog"
	"net/http"
)

func (app *App) dashboardPage(w http.ResponseWriter, _ *http.Request) {
	app.servePage(w, "index.html")
}

func (app *App) servePage(w http.ResponseWriter, name string) {
	data, err := fs.ReadFile(app.Web, name)
	if err != nil {
		slog.Error("serve page", "name", name, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
