// Package category serves the aircraft category screens.
package category

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/gateway"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

// Form is the create and edit payload. An empty slug is derived from the name.
type Form struct {
	Name string `form:"name" json:"name" binding:"required,max=80"`
	Slug string `form:"slug" json:"slug" binding:"omitempty,max=80"`
}

// Row is one category in the grid.
type Row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RowID implements listpage.Row.
func (r Row) RowID() string { return r.ID }

// Cells implements listpage.Row.
func (r Row) Cells() []listpage.Cell {
	return []listpage.Cell{listpage.Text(r.Name), listpage.Text(r.Slug)}
}

// Columns of the category grid.
var Columns = []listpage.Column{{Title: "Name"}, {Title: "Slug"}}

// DeriveRows maps categories to grid rows.
func DeriveRows(docs []domain.Category) []Row {
	rows := make([]Row, 0, len(docs))
	for _, c := range docs {
		row := Row{ID: c.DocumentID(), Name: strings.TrimSpace(c.Name), Slug: strings.TrimSpace(c.Slug)}
		if row.Name == "" {
			row.Name = domain.Placeholder
		}
		if row.Slug == "" {
			row.Slug = domain.Placeholder
		}
		rows = append(rows, row)
	}
	return rows
}

// Slugify lowercases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func body(f Form) domain.Body {
	f.Name = strings.TrimSpace(f.Name)
	if strings.TrimSpace(f.Slug) == "" {
		f.Slug = f.Name
	}
	f.Slug = Slugify(f.Slug)
	return gateway.JSON(f)
}

func controller(ws *workspace.Workspace) *listctl.Controller[domain.Category] { return ws.Categories }

// Module implements app.Module for categories.
type Module struct {
	pages  *listpage.Pages[domain.Category, Row]
	editor *listpage.Editor[domain.Category, Form]
}

// NewModule wires the category screens.
func NewModule(reg *workspace.Registry, gw domain.CategoryGateway, logger *slog.Logger) *Module {
	return &Module{
		pages: listpage.New(listpage.Config[domain.Category, Row]{
			Slug:       "categories",
			Title:      "Categories",
			Noun:       "category",
			Columns:    Columns,
			Registry:   reg,
			Controller: controller,
			Derive:     DeriveRows,
			Editable:   true,
			Logger:     logger,
		}),
		editor: listpage.NewEditor(listpage.EditorConfig[domain.Category, Form]{
			Slug:       "categories",
			Noun:       "category",
			Template:   "category/form.html",
			Registry:   reg,
			Controller: controller,
			Gateway:    gw,
			Form:       func(c domain.Category) Form { return Form{Name: c.Name, Slug: c.Slug} },
			Body:       body,
			Logger:     logger,
		}),
	}
}

// RegisterRoutes registers the category routes.
func (m *Module) RegisterRoutes(api, pages *gin.RouterGroup) {
	m.editor.RegisterRoutes(pages)
	m.pages.RegisterRoutes(api, pages)
}
