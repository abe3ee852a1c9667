package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/pkg"
)

func TestAcceptsHTML(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{"text/html", "text/html", true},
		{"text/html with charset", "text/html; charset=utf-8", true},
		{"mixed with html", "application/json, text/html", true},
		{"application/json only", "application/json", false},
		{"empty accept", "", true},
		{"wildcard accept", "*/*", true},
		{"case insensitive", "Text/HTML", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				c.Request.Header.Set("Accept", tt.accept)
			}

			if got := acceptsHTML(c); got != tt.want {
				t.Fatalf("acceptsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderError_JSON(t *testing.T) {
	tests := []struct {
		name    string
		accept  string
		code    int
		message string
	}{
		{"500 internal", "application/json", 500, "internal error"},
		{"400 bad request", "application/json", 400, "bad request"},
		{"404 not found", "application/json", 404, "not found"},
		{"502 backend", "application/json", 502, "backend unreachable"},
		{"json with wildcard", "application/json, */*", 500, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)
			c.Request.Header.Set("Accept", tt.accept)

			renderError(c, tt.code, tt.message)

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			var resp pkg.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("json decode error: %v", err)
			}
			if resp.Code != tt.code || resp.Message != tt.message {
				t.Fatalf("resp = %+v, want code %d message %q", resp, tt.code, tt.message)
			}
			if resp.Data != nil {
				t.Fatalf("resp.Data = %v, want nil", resp.Data)
			}
		})
	}
}

func TestRenderError_HTMX(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/brands/confirm", nil)
	c.Request.Header.Set("HX-Request", "true")

	renderError(c, http.StatusBadRequest, `Bad "input"`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var ev struct {
		ShowToast struct {
			Level   string `json:"type"`
			Message string `json:"message"`
		} `json:"showToast"`
	}
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &ev); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if ev.ShowToast.Level != "error" || ev.ShowToast.Message != `Bad "input"` {
		t.Fatalf("toast = %+v", ev.ShowToast)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("htmx error should have an empty body, got %q", w.Body.String())
	}
}

func TestRenderError_HTML_FallsBackToPlainText(t *testing.T) {
	// With no HTML renderer configured, c.HTML panics and renderError
	// recovers into plain text.
	tests := []struct {
		name     string
		code     int
		wantBody string
	}{
		{"500 fallback", 500, "500 Internal Server Error"},
		{"400 fallback", 400, "400 Bad Request"},
		{"404 fallback", 404, "404 Not Found"},
		{"502 fallback", 502, "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set("Accept", "text/html")

			renderError(c, tt.code, "ignored for html")

			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if body := w.Body.String(); body != tt.wantBody {
				t.Fatalf("body = %q, want %q", body, tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
				t.Fatalf("Content-Type = %q, want %q", ct, "text/plain; charset=utf-8")
			}
		})
	}
}

func TestRenderError_HTML_UnmappedCodeUses500Page(t *testing.T) {
	r := setupTestRouter()
	r.GET("/boom", func(c *gin.Context) {
		renderError(c, http.StatusBadGateway, "catalog backend is unreachable")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if !strings.Contains(w.Body.String(), "500:catalog backend is unreachable") {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestErrorTemplates(t *testing.T) {
	expected := map[int]string{
		400: "errors/400.html",
		404: "errors/404.html",
		500: "errors/500.html",
	}

	for code, tmpl := range expected {
		got, ok := errorTemplates[code]
		if !ok {
			t.Fatalf("errorTemplates[%d] missing", code)
		}
		if got != tmpl {
			t.Fatalf("errorTemplates[%d] = %q, want %q", code, got, tmpl)
		}
	}
}
