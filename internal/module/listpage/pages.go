// Package listpage serves the list screen shared by every catalog entity: the
// grid, row selection, the delete confirmation dialog and the JSON rows API.
package listpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/pkg"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

const (
	pageTemplate = "list/page.html"
	gridTemplate = "list/grid.html"
)

// Config describes one entity screen.
type Config[T domain.Document, R Row] struct {
	// Slug is the path segment, e.g. "brands".
	Slug  string
	Title string
	// Noun names one document in messages.
	Noun     string
	Columns  []Column
	Registry *workspace.Registry
	// Controller picks the entity's controller out of a workspace.
	Controller func(*workspace.Workspace) *listctl.Controller[T]
	// Derive maps documents to rows. It must be pure.
	Derive func([]T) []R
	// Editable adds "new" and "edit" links pointing at /<slug>/new and
	// /<slug>/:id/edit.
	Editable bool
	Logger   *slog.Logger
}

// Pages serves the list screen of one entity.
type Pages[T domain.Document, R Row] struct {
	cfg    Config[T, R]
	logger *slog.Logger
}

// New returns the screen handlers for cfg. It panics on an incomplete config.
func New[T domain.Document, R Row](cfg Config[T, R]) *Pages[T, R] {
	if cfg.Slug == "" || cfg.Registry == nil || cfg.Controller == nil || cfg.Derive == nil {
		panic("listpage.New: slug, registry, controller and derive are required")
	}
	if cfg.Noun == "" {
		cfg.Noun = "item"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages[T, R]{cfg: cfg, logger: logger.With(slog.String("screen", cfg.Slug))}
}

// Base returns the screen's root path.
func (p *Pages[T, R]) Base() string {
	return "/" + p.cfg.Slug
}

// RegisterRoutes mounts the screen. Page routes go on pages, the rows API on api.
func (p *Pages[T, R]) RegisterRoutes(api, pages *gin.RouterGroup) {
	base := p.Base()
	pages.GET(base, p.List)
	pages.GET(base+"/grid", p.Grid)
	pages.POST(base+"/refresh", p.Refresh)
	pages.POST(base+"/selection", p.UpdateSelection)
	pages.POST(base+"/delete-selected", p.RequestBulkDelete)
	pages.POST(base+"/confirm", p.Confirm)
	pages.POST(base+"/confirm/cancel", p.Cancel)
	pages.POST(base+"/:id/delete", p.RequestDelete)

	api.GET(base+"/rows", p.Rows)
}

type rowView struct {
	ID       string
	Cells    []Cell
	Selected bool
	EditURL  string
}

type confirmView struct {
	Title string
	Mode  listctl.Mode
	Count int
}

func (p *Pages[T, R]) view(c *gin.Context, ws *workspace.Workspace) gin.H {
	st := p.cfg.Controller(ws).Snapshot()
	derived := p.cfg.Derive(st.Items)

	rows := make([]rowView, 0, len(derived))
	for _, r := range derived {
		v := rowView{ID: r.RowID(), Cells: r.Cells(), Selected: st.Selected(r.RowID())}
		if p.cfg.Editable {
			v.EditURL = fmt.Sprintf("%s/%s/edit", p.Base(), r.RowID())
		}
		rows = append(rows, v)
	}

	data := gin.H{
		"Title":         p.cfg.Title,
		"Base":          p.Base(),
		"Columns":       p.cfg.Columns,
		"Rows":          rows,
		"SelectedCount": len(st.Selection),
		"AllSelected":   len(rows) > 0 && len(st.Selection) == len(rows),
		"Loading":       st.Loading,
		"Busy":          st.Busy,
		"Loaded":        st.Loaded,
		"Editable":      p.cfg.Editable,
		"CSRFToken":     middleware.GetCSRFToken(c),
	}
	if st.Confirmation != nil {
		data["Confirmation"] = confirmView{
			Title: st.Confirmation.Title(),
			Mode:  st.Confirmation.Mode,
			Count: len(st.Confirmation.IDs),
		}
	}
	return data
}

// List renders the full screen. The first visit of a session loads the
// collection before rendering.
// GET /<slug>
func (p *Pages[T, R]) List(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	ctl := p.cfg.Controller(ws)
	if !ctl.Loaded() {
		// Failures are already queued as notices.
		_ = ctl.Refresh(c.Request.Context())
	}
	data := p.view(c, ws)
	data["Notices"] = ws.Notices.Drain()
	c.HTML(http.StatusOK, pageTemplate, data)
}

// Grid renders the grid fragment.
// GET /<slug>/grid
func (p *Pages[T, R]) Grid(c *gin.Context) {
	p.renderGrid(c, Workspace(c, p.cfg.Registry), http.StatusOK)
}

func (p *Pages[T, R]) renderGrid(c *gin.Context, ws *workspace.Workspace, status int) {
	FlushNotices(c, ws.Notices)
	c.HTML(status, gridTemplate, p.view(c, ws))
}

// Refresh reloads the collection from the backend.
// POST /<slug>/refresh
func (p *Pages[T, R]) Refresh(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	_ = p.cfg.Controller(ws).Refresh(c.Request.Context())
	p.renderGrid(c, ws, http.StatusOK)
}

type selectionForm struct {
	IDs []string `form:"ids"`
}

// UpdateSelection replaces the selection with the posted ids.
// POST /<slug>/selection
func (p *Pages[T, R]) UpdateSelection(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	var form selectionForm
	if err := c.ShouldBind(&form); err != nil {
		Reject(c, ws.Notices, http.StatusBadRequest, listctl.LevelError, "Invalid selection")
		return
	}
	p.cfg.Controller(ws).Select(form.IDs)
	p.renderGrid(c, ws, http.StatusOK)
}

// RequestDelete opens the confirmation dialog for one row.
// POST /<slug>/:id/delete
func (p *Pages[T, R]) RequestDelete(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	ctl := p.cfg.Controller(ws)
	if !ctl.RequestDelete(c.Param("id")) {
		if ctl.Snapshot().Busy {
			Toast(ws.Notices, listctl.LevelWarning, "A delete is already in progress")
		} else {
			Toast(ws.Notices, listctl.LevelInfo, fmt.Sprintf("That %s is no longer listed", p.cfg.Noun))
		}
	}
	p.renderGrid(c, ws, http.StatusOK)
}

// RequestBulkDelete opens the confirmation dialog for the selection.
// POST /<slug>/delete-selected
func (p *Pages[T, R]) RequestBulkDelete(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	p.cfg.Controller(ws).RequestBulkDelete()
	p.renderGrid(c, ws, http.StatusOK)
}

// Confirm runs the pending delete and renders the resynced grid. The outcome
// reaches the user as a toast.
// POST /<slug>/confirm
func (p *Pages[T, R]) Confirm(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	// The delete and its resync finish even if the browser goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	out, err := p.cfg.Controller(ws).ConfirmDelete(ctx)
	switch {
	case errors.Is(err, listctl.ErrBusy):
		Reject(c, ws.Notices, http.StatusConflict, listctl.LevelWarning, "A delete is already in progress")
		return
	case errors.Is(err, listctl.ErrClosed):
		Reject(c, ws.Notices, http.StatusGone, listctl.LevelError, "Your session has expired, reload the page")
		return
	case err != nil && !errors.Is(err, listctl.ErrNoConfirmation):
		p.logger.WarnContext(ctx, "delete did not fully succeed",
			slog.Any("error", err),
			slog.Int("requested", len(out.Requested)),
			slog.Int("failed", len(out.Failed)),
		)
	}
	p.renderGrid(c, ws, http.StatusOK)
}

// Cancel closes the confirmation dialog unless a delete is in flight.
// POST /<slug>/confirm/cancel
func (p *Pages[T, R]) Cancel(c *gin.Context) {
	ws := Workspace(c, p.cfg.Registry)
	if !p.cfg.Controller(ws).CancelConfirmation() {
		Reject(c, ws.Notices, http.StatusConflict, listctl.LevelWarning, "A delete is in progress")
		return
	}
	p.renderGrid(c, ws, http.StatusOK)
}

// Rows returns the derived rows as JSON, paged in memory.
// GET /api/v1/<slug>/rows
func (p *Pages[T, R]) Rows(c *gin.Context) {
	ws, release := APIWorkspace(c, p.cfg.Registry)
	defer release()
	ctl := p.cfg.Controller(ws)
	if !ctl.Loaded() {
		if err := ctl.Refresh(c.Request.Context()); err != nil {
			pkg.Error(c, err)
			return
		}
	}
	rows := p.cfg.Derive(ctl.Snapshot().Items)
	page, err := pkg.PageSlice(c.Request.Context(), rows, pkg.ParsePageRequest(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}
