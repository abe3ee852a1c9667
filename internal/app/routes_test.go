package app

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- test helpers ---

// routeTestFS returns a minimal template filesystem for route handler tests.
func routeTestFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ block "content" . }}{{ end }}{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}404{{ end }}`),
		},
		"templates/errors/500.html": &fstest.MapFile{
			Data: []byte(`{{ template "base" . }}{{ define "content" }}500:{{ .Message }}{{ end }}`),
		},
	}
}

// setupTestRouter creates a gin.Engine with the route-test template renderer.
func setupTestRouter() *gin.Engine {
	r := gin.New()
	renderer, err := NewTemplateRenderer(routeTestFS(), true)
	if err != nil {
		panic("setup renderer: " + err.Error())
	}
	r.HTMLRender = renderer
	return r
}

// pingFunc adapts a function to Pinger.
type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func getHealth(t *testing.T, backend Pinger) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET("/health", healthHandler(backend))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return w.Code, body
}

// --- Health check tests ---

func TestHealthHandler_OK(t *testing.T) {
	code, body := getHealth(t, pingFunc(func(context.Context) error { return nil }))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	comps, ok := body["components"].(map[string]any)
	if !ok {
		t.Fatal("missing components")
	}
	if comps["backend"] != "ok" {
		t.Errorf("expected backend ok, got %v", comps["backend"])
	}
}

func TestHealthHandler_BackendDown(t *testing.T) {
	code, body := getHealth(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("expected status degraded, got %v", body["status"])
	}
	if comps := body["components"].(map[string]any); comps["backend"] != "error" {
		t.Errorf("expected backend error, got %v", comps["backend"])
	}
}

func TestHealthHandler_NilBackend(t *testing.T) {
	code, _ := getHealth(t, nil)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}

func TestHealthHandler_PingIsBounded(t *testing.T) {
	blocking := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	code, _ := getHealth(t, blocking)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("health check not bounded, elapsed=%v", elapsed)
	}
}

// --- NoRoute handler tests ---

func TestNoRouteHandler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		accept   string
		htmx     bool
		wantJSON bool
		wantBody string
	}{
		{name: "explicit json", path: "/nonexistent", accept: "application/json", wantJSON: true},
		{name: "json with wildcard", path: "/nonexistent", accept: "application/json, */*", wantJSON: true},
		{name: "html", path: "/nonexistent", accept: "text/html", wantBody: "404"},
		{name: "wildcard is html", path: "/nonexistent", accept: "*/*", wantBody: "404"},
		{name: "api path prefers json", path: "/api/v1/nonexistent", accept: "*/*", wantJSON: true},
		{name: "bare /api is a page", path: "/api", accept: "*/*", wantBody: "404"},
		{name: "htmx gets a toast", path: "/brands/nope", accept: "*/*", htmx: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTestRouter()
			r.NoRoute(noRouteHandler())

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", tt.accept)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", w.Code)
			}
			switch {
			case tt.htmx:
				if !strings.Contains(w.Header().Get("HX-Trigger"), `"showToast"`) {
					t.Errorf("expected toast trigger, got %q", w.Header().Get("HX-Trigger"))
				}
				if w.Header().Get("HX-Reswap") != "none" {
					t.Errorf("expected HX-Reswap none")
				}
			case tt.wantJSON:
				var body map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if body["message"] != "not found" {
					t.Errorf("expected message 'not found', got %v", body["message"])
				}
			default:
				if !strings.Contains(w.Body.String(), tt.wantBody) {
					t.Errorf("expected body to contain %q, got %q", tt.wantBody, w.Body.String())
				}
				if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
					t.Errorf("expected HTML Content-Type, got %q", ct)
				}
			}
		})
	}
}

// --- Static routes tests ---

func hasRoute(r *gin.Engine, method, path string) bool {
	for _, route := range r.Routes() {
		if route.Method == method && route.Path == path {
			return true
		}
	}
	return false
}

func TestRegisterStaticRoutes(t *testing.T) {
	for _, mode := range []string{gin.DebugMode, gin.ReleaseMode} {
		r := gin.New()
		if err := registerStaticRoutesWithError(r, mode); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if !hasRoute(r, http.MethodGet, "/static/*filepath") {
			t.Errorf("%s: expected /static/*filepath route", mode)
		}
	}
}

func TestRegisterStaticRoutes_ReleaseServesStylesheet(t *testing.T) {
	r := gin.New()
	if err := registerStaticRoutesWithError(r, gin.ReleaseMode); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestCacheStaticHandler_SetsCacheControl(t *testing.T) {
	memFS := fstest.MapFS{
		"test.css": &fstest.MapFile{Data: []byte("body{}")},
	}

	r := gin.New()
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(memFS)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/test.css", nil))

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("expected Cache-Control 'public, max-age=86400', got %q", cc)
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestStaticFS_SubWorks(t *testing.T) {
	_, err := fs.Sub(fstest.MapFS{
		"static/css/app.css": &fstest.MapFile{Data: []byte("body{}")},
	}, "static")
	if err != nil {
		t.Fatalf("fs.Sub should not error: %v", err)
	}
}

// --- RegisterRoutes validation tests ---

// mockModule records the groups it was mounted on.
type mockModule struct {
	called bool
}

func (m *mockModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	m.called = true
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "api") })
	pages.POST("/things", func(c *gin.Context) { c.String(http.StatusOK, "created") })
}

func TestRegisterRoutes_Validation(t *testing.T) {
	tests := []struct {
		name string
		r    *gin.Engine
		deps *RouteDeps
		want string
	}{
		{name: "nil router", r: nil, deps: &RouteDeps{}, want: "router is nil"},
		{name: "nil deps", r: setupTestRouter(), deps: nil, want: "route dependencies are nil"},
		{name: "no modules", r: setupTestRouter(), deps: &RouteDeps{CSRFSecret: "s"}, want: "at least one module is required"},
		{name: "empty csrf", r: setupTestRouter(), deps: &RouteDeps{Modules: []Module{&mockModule{}}}, want: "csrf secret is required"},
		{name: "nil module", r: setupTestRouter(), deps: &RouteDeps{Modules: []Module{&mockModule{}, nil}, Mode: gin.DebugMode, CSRFSecret: "s"}, want: "module at index 1 is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RegisterRoutes(tt.r, tt.deps)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}

func TestRegisterRoutes_PagesRequireCSRF(t *testing.T) {
	m := &mockModule{}
	r := setupTestRouter()
	err := RegisterRoutes(r, &RouteDeps{
		Modules:    []Module{m},
		Mode:       gin.DebugMode,
		CSRFSecret: "route-test-secret",
	})
	if err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	if !m.called {
		t.Fatal("expected module RegisterRoutes to be called")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("api route: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("page POST without token: expected 403, got %d", w.Code)
	}
}
