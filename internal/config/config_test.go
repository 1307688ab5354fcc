package config

import (
	"log/slog"
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           3000,
		AuthEnabled:    true,
		AuthUsername:   "admin",
		PasswordFile:   ".portside_password",
		SessionTimeout: time.Hour,
	}
}

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.applyEnv(envMap(map[string]string{
		"PORTSIDE_HOST":                   "127.0.0.1",
		"PORTSIDE_PORT":                   "8080",
		"PORTSIDE_DOCKER_SOCKET":          "/var/run/docker.sock",
		"PORTSIDE_MOCK":                   "true",
		"PORTSIDE_NO_AUTH":                "1",
		"PORTSIDE_AUTH_USERNAME":          "operator",
		"PORTSIDE_AUTH_PASSWORD":          "hunter2",
		"PORTSIDE_PASSWORD_FILE":          "/data/pw",
		"PORTSIDE_SESSION_TIMEOUT":        "120",
		"PORTSIDE_SESSION_SWEEP_INTERVAL": "5m",
	}))

	if cfg.Host != "127.0.0.1" || cfg.Port != 8080 {
		t.Errorf("listen address not overridden: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.DockerSocket != "/var/run/docker.sock" {
		t.Errorf("DockerSocket = %q", cfg.DockerSocket)
	}
	if !cfg.Mock {
		t.Error("Mock not enabled")
	}
	if cfg.AuthEnabled {
		t.Error("PORTSIDE_NO_AUTH=1 should disable auth")
	}
	if cfg.AuthUsername != "operator" || cfg.AuthPassword != "hunter2" {
		t.Errorf("credentials not applied: %q / %q", cfg.AuthUsername, cfg.AuthPassword)
	}
	if cfg.PasswordFile != "/data/pw" {
		t.Errorf("PasswordFile = %q", cfg.PasswordFile)
	}
	if cfg.SessionTimeout != 2*time.Minute {
		t.Errorf("SessionTimeout = %s, want 2m (bare seconds)", cfg.SessionTimeout)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %s, want 5m (duration string)", cfg.SweepInterval)
	}
}

func TestApplyEnvIgnoresEmptyAndBad(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.applyEnv(envMap(map[string]string{
		"PORTSIDE_PORT":            "not-a-port",
		"PORTSIDE_SESSION_TIMEOUT": "soon",
		"PORTSIDE_NO_AUTH":         "false",
	}))

	if cfg.Port != 3000 {
		t.Errorf("bad port should be ignored, got %d", cfg.Port)
	}
	if cfg.SessionTimeout != time.Hour {
		t.Errorf("bad timeout should be ignored, got %s", cfg.SessionTimeout)
	}
	if !cfg.AuthEnabled {
		t.Error("NO_AUTH=false should leave auth enabled")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"zero timeout", func(c *Config) { c.SessionTimeout = 0 }, true},
		{"negative sweep", func(c *Config) { c.SweepInterval = -time.Second }, true},
		{"empty username with auth", func(c *Config) { c.AuthUsername = "  " }, true},
		{"empty username without auth", func(c *Config) {
			c.AuthEnabled = false
			c.AuthUsername = ""
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := &Config{Host: "127.0.0.1", Port: 9090}
	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestParseSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   time.Duration
		wantOK bool
	}{
		{"3600", time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"1h30m", 90 * time.Minute, true},
		{"soon", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSeconds(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseSeconds(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
