package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"golang.org/x/sync/errgroup"

	"github.com/jetdesk/jetadmin/internal/config"
	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/gateway"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/module/aircraft"
	"github.com/jetdesk/jetadmin/internal/module/author"
	"github.com/jetdesk/jetadmin/internal/module/brand"
	"github.com/jetdesk/jetadmin/internal/module/category"
	"github.com/jetdesk/jetadmin/internal/module/dashboard"
	"github.com/jetdesk/jetadmin/internal/workspace"
	"github.com/jetdesk/jetadmin/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine     *gin.Engine
	workspaces *workspace.Registry
	logger     *logger.Logger
	cfg        *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // aircraft uploads
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config:
// logger, backend gateways, session workspaces, screens, middleware,
// templates and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 serves templates from disk to the network")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// Backend gateways: one client, one resource per entity.
	client, err := gateway.NewClient(gatewayConfig(cfg.Backend), gateway.WithLogger(log.Logger))
	if err != nil {
		return nil, fmt.Errorf("setup backend client: %w", err)
	}
	gws := workspace.Gateways{
		Aircraft:   gateway.NewResource[domain.Aircraft](client, gateway.AircraftEndpoints),
		Brands:     gateway.NewResource[domain.Brand](client, gateway.BrandEndpoints),
		Authors:    gateway.NewResource[domain.Author](client, gateway.AuthorEndpoints),
		Categories: gateway.NewResource[domain.Category](client, gateway.CategoryEndpoints),
	}
	registry := workspace.NewRegistry(gws, workspace.Options{
		IdleTTL:        cfg.Session.IdleTTLDuration(),
		MaxWorkspaces:  cfg.Session.MaxWorkspaces,
		AircraftFilter: domain.ListFilter{Page: 1, PageSize: cfg.Backend.PageSize},
		Logger:         log.Logger,
	})
	defer func() {
		if !success {
			registry.Close()
		}
	}()

	modules := []Module{
		dashboard.NewModule(registry, gateway.NewDashboard(client), log.Logger),
		aircraft.NewModule(registry, gws.Aircraft, log.Logger),
		brand.NewModule(registry, gws.Brands, log.Logger),
		author.NewModule(registry, gws.Authors, log.Logger),
		category.NewModule(registry, gws.Categories, log.Logger),
	}

	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.Logger(log.Logger, "/static", "/health"),
		middleware.Session(middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Server.Mode == gin.ReleaseMode,
		}),
	)

	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	csrfSecret := cfg.Server.CSRFSecret
	if isPlaceholderCSRFSecret(csrfSecret) {
		if cfg.Server.Mode == gin.ReleaseMode {
			return nil, errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate csrf secret: %w", err)
		}
		csrfSecret = hex.EncodeToString(b)
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		Backend:    client,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	log.Info("backend configured",
		slog.String("base_url", client.BaseURL()),
		slog.Bool("rate_limited", cfg.Backend.RateLimit.Enabled))

	success = true
	return &App{
		engine:     engine,
		workspaces: registry,
		logger:     log,
		cfg:        cfg,
	}, nil
}

func gatewayConfig(b config.BackendConfig) gateway.Config {
	gc := gateway.Config{
		BaseURL: b.BaseURL,
		Timeout: b.TimeoutDuration(),
	}
	if b.RateLimit.Enabled {
		gc.RPS = b.RateLimit.RPS
		gc.Burst = b.RateLimit.Burst
	}
	return gc
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run serves HTTP and sweeps idle workspaces until SIGINT or SIGTERM, then
// shuts down gracefully within 5 seconds. Every workspace is closed on the
// way out so in-flight refreshes stop applying state.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := a.cfg.Server.Addr()
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if a.workspaces != nil {
		g.Go(func() error {
			return a.workspaces.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("shutdown signal received")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
		return nil
	})

	runErr := g.Wait()

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}
	return runErr
}
