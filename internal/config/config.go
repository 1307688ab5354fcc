package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	DockerSocket string // Explicit engine socket path (empty = SDK env defaults)
	Mock         bool   // Serve synthetic engine data (no daemon required)

	AuthEnabled      bool
	AuthUsername     string
	AuthPassword     string // Env-only, never a flag
	AuthPasswordHash string // Env-only, never a flag
	PasswordFile     string
	SessionTimeout   time.Duration
	SweepInterval    time.Duration // 0 disables the background sweeper

	LogLevel slog.Level
}

// Parse reads flags, then lets PORTSIDE_* environment variables override
// them. Credentials are accepted only from the environment so they never
// show up in a process listing.
func Parse() (*Config, error) {
	cfg := &Config{}

	var (
		logLevel string
		noAuth   bool
		timeout  int
		sweep    int
	)
	flag.StringVar(&cfg.Host, "host", "0.0.0.0", "Address to listen on")
	flag.IntVar(&cfg.Port, "port", 3000, "HTTP server port")
	flag.StringVar(&cfg.DockerSocket, "docker-socket", "", "Docker socket path (default: SDK environment)")
	flag.BoolVar(&cfg.Mock, "mock", false, "Mock mode (synthetic engine data, no daemon)")
	flag.BoolVar(&noAuth, "no-auth", false, "Disable authentication (all endpoints open)")
	flag.StringVar(&cfg.AuthUsername, "auth-username", "admin", "Login username")
	flag.StringVar(&cfg.PasswordFile, "password-file", defaultPasswordFile(), "Where a generated password is persisted")
	flag.IntVar(&timeout, "session-timeout", 3600, "Session inactivity timeout in seconds")
	flag.IntVar(&sweep, "session-sweep-interval", 0, "Expired-session sweep interval in seconds (0 = off)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.AuthEnabled = !noAuth
	cfg.SessionTimeout = time.Duration(timeout) * time.Second
	cfg.SweepInterval = time.Duration(sweep) * time.Second
	cfg.applyEnv(os.Getenv)

	if v := os.Getenv("PORTSIDE_LOG_LEVEL"); v != "" {
		logLevel = v
	}
	cfg.LogLevel = parseLogLevel(logLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides the config from the environment. getenv is
// injectable so tests don't have to mutate the process environment.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORTSIDE_HOST"); v != "" {
		c.Host = v
	}
	if v := getenv("PORTSIDE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := getenv("PORTSIDE_DOCKER_SOCKET"); v != "" {
		c.DockerSocket = v
	}
	if isTruthy(getenv("PORTSIDE_MOCK")) {
		c.Mock = true
	}
	if isTruthy(getenv("PORTSIDE_NO_AUTH")) {
		c.AuthEnabled = false
	}
	if v := getenv("PORTSIDE_AUTH_USERNAME"); v != "" {
		c.AuthUsername = v
	}
	c.AuthPassword = getenv("PORTSIDE_AUTH_PASSWORD")
	c.AuthPasswordHash = getenv("PORTSIDE_AUTH_PASSWORD_HASH")
	if v := getenv("PORTSIDE_PASSWORD_FILE"); v != "" {
		c.PasswordFile = v
	}
	if v := getenv("PORTSIDE_SESSION_TIMEOUT"); v != "" {
		if d, ok := parseSeconds(v); ok {
			c.SessionTimeout = d
		}
	}
	if v := getenv("PORTSIDE_SESSION_SWEEP_INTERVAL"); v != "" {
		if d, ok := parseSeconds(v); ok {
			c.SweepInterval = d
		}
	}
}

// Validate rejects configurations the server cannot safely start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 1-65535", c.Port)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("invalid session timeout %s: must be positive", c.SessionTimeout)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("invalid sweep interval %s: must be zero or positive", c.SweepInterval)
	}
	if c.AuthEnabled && strings.TrimSpace(c.AuthUsername) == "" {
		return fmt.Errorf("auth is enabled but username is empty")
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// defaultPasswordFile prefers a persistent volume path when running in
// a container, and the working directory otherwise.
func defaultPasswordFile() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "/data/portside_password"
	}
	return ".portside_password"
}

// parseSeconds accepts either a bare integer (seconds) or a Go duration
// string like "90m".
func parseSeconds(s string) (time.Duration, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	return 0, false
}

func isTruthy(s string) bool {
	return s == "1" || strings.EqualFold(s, "true")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
