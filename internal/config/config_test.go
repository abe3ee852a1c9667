package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `server:
  host: "127.0.0.1"
  port: 3000
  mode: "release"
  csrf_secret: "test-csrf-secret-value"
  timeout: "30s"
backend:
  base_url: "https://catalog.example.com/"
  timeout: "5s"
  page_size: 50
  rate_limit:
    enabled: true
    rps: 20
    burst: 40
session:
  cookie_name: "admin_sid"
  idle_ttl: "1h"
log:
  level: "info"
  format: "json"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "debug"},
		Backend: BackendConfig{BaseURL: "http://localhost:5000"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.Server.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Server.Addr() = %q", got)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("Server.Mode = %q", cfg.Server.Mode)
	}
	if cfg.Backend.BaseURL != "https://catalog.example.com" {
		t.Errorf("Backend.BaseURL = %q; trailing slash should be trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutDuration() != 5*time.Second {
		t.Errorf("Backend.TimeoutDuration() = %v", cfg.Backend.TimeoutDuration())
	}
	if cfg.Backend.PageSize != 50 {
		t.Errorf("Backend.PageSize = %d", cfg.Backend.PageSize)
	}
	if !cfg.Backend.RateLimit.Enabled || cfg.Backend.RateLimit.RPS != 20 || cfg.Backend.RateLimit.Burst != 40 {
		t.Errorf("Backend.RateLimit = %+v", cfg.Backend.RateLimit)
	}
	if cfg.Session.CookieName != "admin_sid" {
		t.Errorf("Session.CookieName = %q", cfg.Session.CookieName)
	}
	if cfg.Session.IdleTTLDuration() != time.Hour {
		t.Errorf("Session.IdleTTLDuration() = %v", cfg.Session.IdleTTLDuration())
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, testYAML)

	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__BACKEND__BASE_URL", "http://10.0.0.5:5000")
	t.Setenv("APP__SESSION__IDLE_TTL", "10m")
	t.Setenv("APP__LOG__LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d; want 9090", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://10.0.0.5:5000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Session.IdleTTL != "10m" {
		t.Errorf("Session.IdleTTL = %q", cfg.Session.IdleTTL)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("APP__SERVER__HOST", "0.0.0.0")
	t.Setenv("APP__SERVER__PORT", "8080")
	t.Setenv("APP__SERVER__MODE", "test")
	t.Setenv("APP__BACKEND__BASE_URL", "http://localhost:5000")
	t.Setenv("APP__LOG__LEVEL", "debug")
	t.Setenv("APP__LOG__FORMAT", "text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Mode != "test" {
		t.Errorf("Server.Mode = %q", cfg.Server.Mode)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Backend.Timeout != DefaultBackendTimeout {
		t.Errorf("Backend.Timeout = %q", cfg.Backend.Timeout)
	}
	if cfg.Backend.PageSize != DefaultPageSize {
		t.Errorf("Backend.PageSize = %d", cfg.Backend.PageSize)
	}
	if cfg.Session.CookieName != DefaultCookieName {
		t.Errorf("Session.CookieName = %q", cfg.Session.CookieName)
	}
	if cfg.Session.IdleTTL != DefaultIdleTTL {
		t.Errorf("Session.IdleTTL = %q", cfg.Session.IdleTTL)
	}
	if cfg.Session.MaxWorkspaces != DefaultMaxWorkspaces {
		t.Errorf("Session.MaxWorkspaces = %d", cfg.Session.MaxWorkspaces)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"blank host", func(c *Config) { c.Server.Host = "  " }, "server.host"},
		{"bad server timeout", func(c *Config) { c.Server.Timeout = "soon" }, "server.timeout"},
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"base url scheme", func(c *Config) { c.Backend.BaseURL = "ftp://host" }, "backend.base_url"},
		{"base url host", func(c *Config) { c.Backend.BaseURL = "http://" }, "backend.base_url"},
		{"negative backend timeout", func(c *Config) { c.Backend.Timeout = "-1s" }, "backend.timeout"},
		{"negative page size", func(c *Config) { c.Backend.PageSize = -1 }, "backend.page_size"},
		{"rate limit rps", func(c *Config) { c.Backend.RateLimit = RateLimitConfig{Enabled: true, Burst: 1} }, "rate_limit.rps"},
		{"rate limit burst", func(c *Config) { c.Backend.RateLimit = RateLimitConfig{Enabled: true, RPS: 1} }, "rate_limit.burst"},
		{"cookie name", func(c *Config) { c.Session.CookieName = "a b" }, "session.cookie_name"},
		{"idle ttl", func(c *Config) { c.Session.IdleTTL = "0s" }, "session.idle_ttl"},
		{"max workspaces", func(c *Config) { c.Session.MaxWorkspaces = -1 }, "session.max_workspaces"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q; want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DisabledRateLimitIgnoresValues(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.RateLimit = RateLimitConfig{Enabled: false, RPS: -1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestDefaultConfigFile(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("default config not present: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("default config does not load: %v", err)
	}
}
