// Package gateway implements the remote data gateways that talk to the catalog
// REST backend. Gateways hold no state beyond their HTTP client and never touch
// client-side collections.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jetdesk/jetadmin/internal/domain"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 8 << 20
)

// Config holds the backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RPS limits outgoing requests per second; zero disables limiting.
	RPS   float64
	Burst int
}

// Client performs envelope-aware HTTP calls against the backend origin.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("gateway: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url %q must use http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("gateway: base url %q has no host", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: slog.Default(),
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Ping checks that the backend answers HTTP at all. Any response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewAppError(domain.CodeNetwork, "backend unreachable", err)
	}
	_ = resp.Body.Close()
	return nil
}

// envelope is the backend response shape. Bulk endpoints may put the id
// lists at the top level instead of under data.
type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	DeletedIDs *[]string       `json:"deletedIds"`
	FailedIDs  *[]string       `json:"failedIds"`
}

func (e *envelope) failed() bool {
	return e.Success != nil && !*e.Success
}

func (e *envelope) message(fallback string) string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	return fallback
}

// do sends one request and decodes the envelope. Non-2xx statuses and
// transport failures come back as *domain.AppError.
func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, body domain.Body) (*envelope, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.NewAppError(domain.CodeNetwork, "request throttled", err)
		}
	}

	u := c.base.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		r, err := body.Reader()
		if err != nil {
			return nil, domain.NewAppError(domain.CodeValidation, "encode request body", err)
		}
		reader = r
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.ContentType())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("url", u.Redacted()),
			slog.Any("error", err),
		)
		return nil, domain.NewAppError(domain.CodeNetwork, "backend unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, domain.NewAppError(domain.CodeNetwork, "read response", err)
	}

	c.logger.DebugContext(ctx, "backend request",
		slog.String("method", method),
		slog.String("url", u.Redacted()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	env := &envelope{}
	decodeErr := json.Unmarshal(bytes.TrimSpace(raw), env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if decodeErr == nil {
			msg = strings.TrimSpace(env.Message)
		}
		return nil, statusError(resp.StatusCode, msg)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &envelope{}, nil
	}
	if decodeErr != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "malformed backend response", decodeErr)
	}
	return env, nil
}

// statusError maps a non-2xx status onto the error taxonomy.
func statusError(status int, msg string) error {
	text := msg
	if text == "" {
		text = strings.ToLower(http.StatusText(status))
	}
	cause := fmt.Errorf("backend status %d", status)
	switch {
	case status == http.StatusNotFound:
		return domain.NewAppError(domain.CodeNotFound, text, cause)
	case status == http.StatusConflict:
		return domain.NewAppError(domain.CodeAlreadyExists, text, cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.NewAppError(domain.CodeValidation, text, cause)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return domain.NewAppError(domain.CodeNetwork, "backend unavailable", cause)
	default:
		return domain.NewAppError(domain.CodeInternal, "backend error", cause)
	}
}

func decodeData[T any](env *envelope, what string) (T, error) {
	var out T
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return out, domain.NewAppError(domain.CodeInternal, "backend returned no "+what, nil)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, domain.NewAppError(domain.CodeInternal, "decode "+what, err)
	}
	return out, nil
}
