// Package aircraft serves the aircraft listing screens: the grid, the
// multipart listing editor and the inline status change.
package aircraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/gateway"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
	"github.com/jetdesk/jetadmin/internal/pkg"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

const (
	slug         = "aircraft"
	base         = "/" + slug
	formTemplate = "aircraft/form.html"
	// maxUploadBytes bounds one editor submission including images.
	maxUploadBytes = 64 << 20
)

func controller(ws *workspace.Workspace) *listctl.Controller[domain.Aircraft] { return ws.Aircraft }

// Module implements app.Module for aircraft listings.
type Module struct {
	pages     *listpage.Pages[domain.Aircraft, Row]
	gw        domain.AircraftGateway
	registry  *workspace.Registry
	logger    *slog.Logger
	maxUpload int64
}

// NewModule wires the aircraft screens.
func NewModule(reg *workspace.Registry, gw domain.AircraftGateway, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{
		pages: listpage.New(listpage.Config[domain.Aircraft, Row]{
			Slug:       slug,
			Title:      "Aircraft",
			Noun:       "aircraft",
			Columns:    Columns,
			Registry:   reg,
			Controller: controller,
			Derive:     DeriveRows,
			Editable:   true,
			Logger:     logger,
		}),
		gw:        gw,
		registry:  reg,
		logger:    logger.With(slog.String("screen", slug)),
		maxUpload: maxUploadBytes,
	}
}

// RegisterRoutes registers the aircraft routes.
func (m *Module) RegisterRoutes(api, pages *gin.RouterGroup) {
	pages.GET(base+"/new", m.NewPage)
	pages.GET(base+"/:id/edit", m.EditPage)
	pages.POST(base, m.Create)
	pages.PUT(base+"/:id", m.Update)
	pages.POST(base+"/:id/status", m.ChangeStatus)
	m.pages.RegisterRoutes(api, pages)
}

type categoryOption struct {
	ID       string
	Name     string
	Selected bool
}

type sectionField struct {
	Key   string
	Label string
	HTML  string
}

// categories returns the select options for the editor from the session's
// category list, loading it on first use.
func (m *Module) categories(c *gin.Context, selected string) []categoryOption {
	ctl := listpage.Workspace(c, m.registry).Categories
	if !ctl.Loaded() {
		_ = ctl.Refresh(c.Request.Context())
	}
	docs := ctl.Snapshot().Items
	opts := make([]categoryOption, 0, len(docs))
	for _, d := range docs {
		opts = append(opts, categoryOption{ID: d.DocumentID(), Name: d.Name, Selected: d.DocumentID() == selected})
	}
	return opts
}

func (m *Module) render(c *gin.Context, id string, form Form, errMsg string, fields map[string]string) {
	sections := make([]sectionField, 0, len(domain.SectionKeys))
	for _, k := range domain.SectionKeys {
		sections = append(sections, sectionField{Key: k, Label: domain.SectionLabels[k], HTML: form.Sections[k]})
	}
	c.HTML(http.StatusOK, formTemplate, gin.H{
		"IsEdit":     id != "",
		"ID":         id,
		"Form":       form,
		"Kept":       keptSet(form.KeepImages),
		"Sections":   sections,
		"Statuses":   statusOptions(form.Status),
		"Categories": m.categories(c, form.Category),
		"Base":       base,
		"Error":      errMsg,
		"Errors":     fields,
		"CSRFToken":  middleware.GetCSRFToken(c),
	})
}

func keptSet(urls []string) map[string]bool {
	set := make(map[string]bool, len(urls))
	for _, u := range urls {
		set[u] = true
	}
	return set
}

// NewPage renders an empty listing editor.
// GET /aircraft/new
func (m *Module) NewPage(c *gin.Context) {
	m.render(c, "", Form{Status: string(domain.StatusForSale)}, "", nil)
}

// EditPage renders the editor for an existing listing.
// GET /aircraft/:id/edit
func (m *Module) EditPage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	doc, err := m.gw.GetByID(c.Request.Context(), id)
	if err != nil {
		listpage.RenderLoadError(c, m.logger, err)
		return
	}
	m.render(c, id, FormFromAircraft(doc), "", nil)
}

// bind reads the multipart submission. On failure it re-renders the editor
// and returns false.
func (m *Module) bind(c *gin.Context, id string) (Form, Uploads, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.maxUpload)

	var form Form
	bindErr := c.ShouldBind(&form)
	form.Sections = c.PostFormMap("sections")
	form.Images = c.PostFormArray("existingImages")
	form.Featured = c.PostForm("existingFeatured")

	if bindErr != nil {
		m.logger.DebugContext(c.Request.Context(), "listing form: bind error", slog.Any("error", bindErr), slog.String("id", id))
		fields := pkg.FieldErrors(bindErr, &form)
		if fields == nil {
			m.render(c, id, form, "The upload could not be read, check the file sizes", nil)
			return form, Uploads{}, false
		}
		m.render(c, id, form, "Please check the highlighted fields", fields)
		return form, Uploads{}, false
	}
	if fields := form.Check(); fields != nil {
		m.render(c, id, form, "Please check the highlighted fields", fields)
		return form, Uploads{}, false
	}

	var up Uploads
	if mf, err := c.MultipartForm(); err == nil {
		up.Images = mf.File["images"]
		if f := mf.File["featuredImage"]; len(f) > 0 {
			up.Featured = f[0]
		}
	}
	return form, up, true
}

// Create posts a new listing and resyncs the grid.
// POST /aircraft
func (m *Module) Create(c *gin.Context) {
	form, up, ok := m.bind(c, "")
	if !ok {
		return
	}
	body, err := form.Body(up)
	if err == nil {
		_, err = m.gw.Create(c.Request.Context(), body)
	}
	if err != nil {
		m.logger.WarnContext(c.Request.Context(), "create listing failed", slog.Any("error", err))
		m.render(c, "", form, listpage.SafeMessage(err, "Could not create the listing, try again later"), nil)
		return
	}
	m.finish(c, fmt.Sprintf("Created %q", strings.TrimSpace(form.Title)))
}

// Update saves an edited listing and resyncs the grid.
// PUT /aircraft/:id
func (m *Module) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	form, up, ok := m.bind(c, id)
	if !ok {
		return
	}
	body, err := form.Body(up)
	if err == nil {
		_, err = m.gw.Update(c.Request.Context(), id, body)
	}
	if err != nil {
		m.logger.WarnContext(c.Request.Context(), "update listing failed", slog.Any("error", err), slog.String("id", id))
		m.render(c, id, form, listpage.SafeMessage(err, "Could not save the listing, try again later"), nil)
		return
	}
	m.finish(c, fmt.Sprintf("Saved %q", strings.TrimSpace(form.Title)))
}

func (m *Module) finish(c *gin.Context, msg string) {
	ws := listpage.Workspace(c, m.registry)
	_ = ws.Aircraft.Refresh(c.Request.Context())
	listpage.Toast(ws.Notices, listctl.LevelSuccess, msg)
	listpage.Redirect(c, base)
}

// ErrUnknownStatus is returned by SetStatus for a value outside the enum.
var ErrUnknownStatus = errors.New("aircraft: unknown status")

// SetStatus updates one listing's status on the backend and patches only that
// field locally. No refresh follows.
func SetStatus(ctx context.Context, gw domain.AircraftGateway, ctl *listctl.Controller[domain.Aircraft], id, value string) (domain.Status, error) {
	st, ok := domain.ParseStatus(value)
	if !ok {
		return st, ErrUnknownStatus
	}
	body := gateway.JSON(map[string]string{"status": string(st)})
	if _, err := gw.Update(ctx, id, body); err != nil {
		return st, err
	}
	ctl.Patch(id, func(a *domain.Aircraft) { a.Status = st })
	return st, nil
}

// ChangeStatus handles the inline status select.
// POST /aircraft/:id/status
func (m *Module) ChangeStatus(c *gin.Context) {
	ws := listpage.Workspace(c, m.registry)
	id := strings.TrimSpace(c.Param("id"))

	st, err := SetStatus(c.Request.Context(), m.gw, ws.Aircraft, id, c.PostForm("status"))
	switch {
	case errors.Is(err, ErrUnknownStatus):
		listpage.Reject(c, ws.Notices, http.StatusBadRequest, listctl.LevelError, "Unknown status")
		return
	case err != nil:
		m.logger.WarnContext(c.Request.Context(), "status change failed", slog.Any("error", err), slog.String("id", id))
		listpage.Toast(ws.Notices, listctl.LevelError, listpage.SafeMessage(err, "Could not change the status"))
	default:
		listpage.Toast(ws.Notices, listctl.LevelSuccess, "Status set to "+domain.StatusLabel(string(st)))
	}
	m.pages.Grid(c)
}
