// Package brand serves the manufacturer brand screens.
package brand

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

// Form is the create and edit payload.
type Form struct {
	Title string `form:"title" json:"title" binding:"required,max=120"`
	Logo  string `form:"logo" json:"logo" binding:"omitempty,url"`
}

// Row is one brand in the grid.
type Row struct {
	ID     string `json:"id"`
	Serial int    `json:"serial"`
	Title  string `json:"title"`
	Logo   string `json:"logo"`
}

// RowID implements listpage.Row.
func (r Row) RowID() string { return r.ID }

// Cells implements listpage.Row.
func (r Row) Cells() []listpage.Cell {
	return []listpage.Cell{
		listpage.Text(strconv.Itoa(r.Serial)),
		listpage.Image(r.Logo, r.Title),
		listpage.Text(r.Title),
	}
}

// Columns of the brand grid.
var Columns = []listpage.Column{
	{Title: "#", Class: "col-narrow"},
	{Title: "Logo"},
	{Title: "Title"},
}

// DeriveRows maps brands to grid rows.
func DeriveRows(docs []domain.Brand) []Row {
	rows := make([]Row, 0, len(docs))
	for i, b := range docs {
		title := strings.TrimSpace(b.Title)
		if title == "" {
			title = domain.Placeholder
		}
		rows = append(rows, Row{
			ID:     b.DocumentID(),
			Serial: i + 1,
			Title:  title,
			Logo:   strings.TrimSpace(b.Logo),
		})
	}
	return rows
}

func controller(ws *workspace.Workspace) *listctl.Controller[domain.Brand] { return ws.Brands }

// Module implements app.Module for brands.
type Module struct {
	pages  *listpage.Pages[domain.Brand, Row]
	editor *listpage.Editor[domain.Brand, Form]
}

// NewModule wires the brand screens.
func NewModule(reg *workspace.Registry, gw domain.BrandGateway, logger *slog.Logger) *Module {
	return &Module{
		pages: listpage.New(listpage.Config[domain.Brand, Row]{
			Slug:       "brands",
			Title:      "Brands",
			Noun:       "brand",
			Columns:    Columns,
			Registry:   reg,
			Controller: controller,
			Derive:     DeriveRows,
			Editable:   true,
			Logger:     logger,
		}),
		editor: listpage.NewEditor(listpage.EditorConfig[domain.Brand, Form]{
			Slug:       "brands",
			Noun:       "brand",
			Template:   "brand/form.html",
			Registry:   reg,
			Controller: controller,
			Gateway:    gw,
			Form:       func(b domain.Brand) Form { return Form{Title: b.Title, Logo: b.Logo} },
			Logger:     logger,
		}),
	}
}

// RegisterRoutes registers the brand routes.
func (m *Module) RegisterRoutes(api, pages *gin.RouterGroup) {
	m.editor.RegisterRoutes(pages)
	m.pages.RegisterRoutes(api, pages)
}
