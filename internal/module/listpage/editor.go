package listpage

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/gateway"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/pkg"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

// EditorConfig describes the create and edit forms of a JSON-bodied entity.
type EditorConfig[T domain.Document, F any] struct {
	Slug string
	// Noun names one document in messages, e.g. "brand".
	Noun       string
	Template   string
	Registry   *workspace.Registry
	Controller func(*workspace.Workspace) *listctl.Controller[T]
	Gateway    domain.Gateway[T]
	// Form fills an edit form from a stored document.
	Form func(T) F
	// Body encodes a bound form for the backend. Defaults to a JSON body.
	Body   func(F) domain.Body
	Logger *slog.Logger
}

// Editor serves the create and edit forms of one entity.
type Editor[T domain.Document, F any] struct {
	cfg    EditorConfig[T, F]
	logger *slog.Logger
}

// NewEditor returns form handlers for cfg. It panics on an incomplete config.
func NewEditor[T domain.Document, F any](cfg EditorConfig[T, F]) *Editor[T, F] {
	if cfg.Slug == "" || cfg.Template == "" || cfg.Registry == nil || cfg.Controller == nil ||
		cfg.Gateway == nil || cfg.Form == nil {
		panic("listpage.NewEditor: slug, template, registry, controller, gateway and form are required")
	}
	if cfg.Noun == "" {
		cfg.Noun = "item"
	}
	if cfg.Body == nil {
		cfg.Body = func(f F) domain.Body { return gateway.JSON(f) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor[T, F]{cfg: cfg, logger: logger.With(slog.String("screen", cfg.Slug))}
}

// RegisterRoutes mounts the form routes on pages.
func (e *Editor[T, F]) RegisterRoutes(pages *gin.RouterGroup) {
	base := "/" + e.cfg.Slug
	pages.GET(base+"/new", e.NewPage)
	pages.GET(base+"/:id/edit", e.EditPage)
	pages.POST(base, e.Create)
	pages.PUT(base+"/:id", e.Update)
}

func (e *Editor[T, F]) render(c *gin.Context, id string, form F, errMsg string, fields map[string]string) {
	c.HTML(http.StatusOK, e.cfg.Template, gin.H{
		"IsEdit":    id != "",
		"ID":        id,
		"Form":      form,
		"Base":      "/" + e.cfg.Slug,
		"Noun":      e.cfg.Noun,
		"Error":     errMsg,
		"Errors":    fields,
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// NewPage renders an empty form.
// GET /<slug>/new
func (e *Editor[T, F]) NewPage(c *gin.Context) {
	var form F
	e.render(c, "", form, "", nil)
}

// EditPage loads the document and renders it into the form.
// GET /<slug>/:id/edit
func (e *Editor[T, F]) EditPage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := e.cfg.Gateway.GetByID(c.Request.Context(), id)
	if err != nil {
		RenderLoadError(c, e.logger, err)
		return
	}
	e.render(c, id, e.cfg.Form(doc), "", nil)
}

// Create posts a new document and resyncs the list.
// POST /<slug>
func (e *Editor[T, F]) Create(c *gin.Context) {
	var form F
	if err := c.ShouldBind(&form); err != nil {
		e.logger.DebugContext(c.Request.Context(), "create: bind error", slog.Any("error", err))
		e.render(c, "", form, "Please check the highlighted fields", pkg.FieldErrors(err, &form))
		return
	}

	if _, err := e.cfg.Gateway.Create(c.Request.Context(), e.cfg.Body(form)); err != nil {
		e.logger.WarnContext(c.Request.Context(), "create failed", slog.Any("error", err))
		e.render(c, "", form, SafeMessage(err, "Could not create the "+e.cfg.Noun+", try again later"), nil)
		return
	}
	e.finish(c, "Created "+e.cfg.Noun)
}

// Update saves an edited document and resyncs the list.
// PUT /<slug>/:id
func (e *Editor[T, F]) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var form F
	if err := c.ShouldBind(&form); err != nil {
		e.logger.DebugContext(c.Request.Context(), "update: bind error", slog.Any("error", err), slog.String("id", id))
		e.render(c, id, form, "Please check the highlighted fields", pkg.FieldErrors(err, &form))
		return
	}

	if _, err := e.cfg.Gateway.Update(c.Request.Context(), id, e.cfg.Body(form)); err != nil {
		e.logger.WarnContext(c.Request.Context(), "update failed", slog.Any("error", err), slog.String("id", id))
		e.render(c, id, form, SafeMessage(err, "Could not save the "+e.cfg.Noun+", try again later"), nil)
		return
	}
	e.finish(c, "Saved "+e.cfg.Noun)
}

func (e *Editor[T, F]) finish(c *gin.Context, msg string) {
	ws := Workspace(c, e.cfg.Registry)
	// A failed resync is reported by the controller; the write itself succeeded.
	_ = e.cfg.Controller(ws).Refresh(c.Request.Context())
	Toast(ws.Notices, listctl.LevelSuccess, msg)
	Redirect(c, "/"+e.cfg.Slug)
}

// RenderLoadError renders the error page matching a failed document fetch.
func RenderLoadError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case domain.IsNotFound(err):
		c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
	case domain.IsNetwork(err):
		logger.WarnContext(c.Request.Context(), "backend unreachable", slog.Any("error", err))
		c.HTML(http.StatusBadGateway, "errors/500.html", gin.H{"Message": "The catalog backend is unreachable."})
	default:
		logger.ErrorContext(c.Request.Context(), "load document failed", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
	}
}
