package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portside-sh/portside/internal/auth"
	"github.com/portside-sh/portside/internal/config"
	"github.com/portside-sh/portside/internal/docker"
	"github.com/portside-sh/portside/internal/handlers"
)

// version is set at build time via -ldflags="-X main.version=..."
var version = "0.3.0"

func main() {
	// Quick healthcheck mode — used by Docker HEALTHCHECK from the
	// scratch image, so the container needs no wget/curl.
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		port := "3000"
		if v := os.Getenv("PORTSIDE_PORT"); v != "" {
			port = v
		}
		resp, err := http.Get("http://127.0.0.1:" + port + "/healthz")
		if err != nil || resp.StatusCode != 200 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Parse()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	slog.Info("starting portside",
		"addr", cfg.Addr(),
		"mock", cfg.Mock,
		"authEnabled", cfg.AuthEnabled,
		"sessionTimeout", cfg.SessionTimeout,
		"logLevel", cfg.LogLevel,
	)

	var creds *auth.Credentials
	if cfg.AuthEnabled {
		creds, err = auth.Provision(cfg.AuthUsername, cfg.AuthPassword, cfg.AuthPasswordHash, cfg.PasswordFile)
		if err != nil {
			slog.Error("credential provisioning", "err", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("authentication disabled (--no-auth)")
		creds = auth.NewCredentials(cfg.AuthUsername, "")
	}

	sessions, err := auth.NewSessionStore(cfg.SessionTimeout)
	if err != nil {
		slog.Error("session store", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SweepInterval > 0 {
		sessions.StartSweeper(ctx, cfg.SweepInterval)
	}

	dockerClient, err := docker.NewClient(cfg.Mock, cfg.DockerSocket)
	if err != nil {
		slog.Error("docker client", "err", err)
		os.Exit(1)
	}
	defer dockerClient.Close()

	web, err := fs.Sub(webFiles, "web")
	if err != nil {
		slog.Error("embed web assets", "err", err)
		os.Exit(1)
	}

	app := &handlers.App{
		Creds:          creds,
		Sessions:       sessions,
		Docker:         dockerClient,
		Web:            web,
		Version:        version,
		AuthEnabled:    cfg.AuthEnabled,
		SessionTimeout: cfg.SessionTimeout,
	}

	mux := http.NewServeMux()
	app.Register(mux)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      auth.Gate(sessions, cfg.AuthEnabled)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
