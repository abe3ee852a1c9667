package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the dashboard configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Backend BackendConfig `koanf:"backend"`
	Session SessionConfig `koanf:"session"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Mode       string `koanf:"mode"`
	CSRFSecret string `koanf:"csrf_secret"`
	Timeout    string `koanf:"timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BackendConfig points the dashboard at the catalog REST backend.
type BackendConfig struct {
	BaseURL   string          `koanf:"base_url"`
	Timeout   string          `koanf:"timeout"`
	PageSize  int             `koanf:"page_size"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// TimeoutDuration returns the per-request timeout. Validate must have run.
func (b BackendConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(b.Timeout)
	return d
}

// RateLimitConfig throttles requests sent to the backend.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// SessionConfig controls admin sessions and their workspaces.
type SessionConfig struct {
	CookieName    string `koanf:"cookie_name"`
	IdleTTL       string `koanf:"idle_ttl"`
	MaxWorkspaces int    `koanf:"max_workspaces"`
}

// IdleTTLDuration returns how long an unused workspace is kept. Validate must have run.
func (s SessionConfig) IdleTTLDuration() time.Duration {
	d, _ := time.ParseDuration(s.IdleTTL)
	return d
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// Defaults applied by Validate to unset fields.
const (
	DefaultBackendTimeout = "15s"
	DefaultPageSize       = 100
	DefaultCookieName     = "jetadmin_session"
	DefaultIdleTTL        = "30m"
	DefaultMaxWorkspaces  = 1024
)

const envPrefix = "APP__"

// Load reads the YAML file at path, overlays APP__ environment variables and
// validates the result. An empty path skips the file.
//
// Double underscores separate levels and single underscores stay in the key:
// APP__BACKEND__BASE_URL overrides backend.base_url.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	key := strings.TrimPrefix(s, envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// Validate normalizes the config in place, fills defaults and rejects
// unsupported values.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Backend.validate(); err != nil {
		return err
	}
	if err := c.Session.validate(); err != nil {
		return err
	}
	return c.Log.validate()
}

func (s *ServerConfig) validate() error {
	mode := strings.TrimSpace(s.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		s.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", s.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", s.Port)
	}

	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		return errors.New("server.host is required")
	}

	s.Timeout = strings.TrimSpace(s.Timeout)
	if s.Timeout != "" {
		if err := positiveDuration("server.timeout", s.Timeout); err != nil {
			return err
		}
	}
	return nil
}

func (b *BackendConfig) validate() error {
	raw := strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if raw == "" {
		return errors.New("backend.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend.base_url %q: %w", b.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend.base_url %q: scheme must be http or https", b.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend.base_url %q: host is required", b.BaseURL)
	}
	b.BaseURL = raw

	b.Timeout = strings.TrimSpace(b.Timeout)
	if b.Timeout == "" {
		b.Timeout = DefaultBackendTimeout
	}
	if err := positiveDuration("backend.timeout", b.Timeout); err != nil {
		return err
	}

	switch {
	case b.PageSize == 0:
		b.PageSize = DefaultPageSize
	case b.PageSize < 0:
		return fmt.Errorf("invalid backend.page_size %d: must be positive", b.PageSize)
	}

	if b.RateLimit.Enabled {
		if b.RateLimit.RPS <= 0 {
			return fmt.Errorf("invalid backend.rate_limit.rps %v: must be positive when rate limiting is enabled", b.RateLimit.RPS)
		}
		if b.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid backend.rate_limit.burst %d: must be positive when rate limiting is enabled", b.RateLimit.Burst)
		}
	}
	return nil
}

func (s *SessionConfig) validate() error {
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = DefaultCookieName
	}
	if strings.ContainsAny(s.CookieName, " ;,=") {
		return fmt.Errorf("invalid session.cookie_name %q", s.CookieName)
	}

	if s.MaxWorkspaces < 0 {
		return fmt.Errorf("invalid session.max_workspaces %d: must not be negative", s.MaxWorkspaces)
	}
	if s.MaxWorkspaces == 0 {
		s.MaxWorkspaces = DefaultMaxWorkspaces
	}

	s.IdleTTL = strings.TrimSpace(s.IdleTTL)
	if s.IdleTTL == "" {
		s.IdleTTL = DefaultIdleTTL
	}
	return positiveDuration("session.idle_ttl", s.IdleTTL)
}

func (l *LogConfig) validate() error {
	level := strings.ToLower(strings.TrimSpace(l.Level))
	switch level {
	case "debug", "info", "warn", "error":
		l.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", l.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(l.Format))
	switch format {
	case "text", "json", "custom":
		l.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q, %q", l.Format, "text", "json", "custom")
	}
	return nil
}

func positiveDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", field, value)
	}
	return nil
}
