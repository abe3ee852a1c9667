// Package author serves the blog author screens.
package author

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

const bioExcerptLen = 80

// Form is the create and edit payload.
type Form struct {
	Name        string `form:"name" json:"name" binding:"required,max=120"`
	Designation string `form:"designation" json:"designation" binding:"max=120"`
	Bio         string `form:"bio" json:"bio" binding:"max=2000"`
	Avatar      string `form:"avatar" json:"avatar" binding:"omitempty,url"`
}

// Row is one author in the grid.
type Row struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Bio         string `json:"bio"`
	BioFull     string `json:"bioFull"`
	Avatar      string `json:"avatar"`
}

// RowID implements listpage.Row.
func (r Row) RowID() string { return r.ID }

// Cells implements listpage.Row.
func (r Row) Cells() []listpage.Cell {
	return []listpage.Cell{
		listpage.Image(r.Avatar, r.Name),
		listpage.Text(r.Name),
		listpage.Text(r.Designation),
		listpage.Tooltip(r.Bio, r.BioFull),
	}
}

// Columns of the author grid.
var Columns = []listpage.Column{
	{Title: "Avatar", Class: "col-narrow"},
	{Title: "Name"},
	{Title: "Designation"},
	{Title: "Bio"},
}

// DeriveRows maps authors to grid rows.
func DeriveRows(docs []domain.Author) []Row {
	rows := make([]Row, 0, len(docs))
	for _, a := range docs {
		bio := strings.Join(strings.Fields(a.Bio), " ")
		rows = append(rows, Row{
			ID:          a.DocumentID(),
			Name:        orPlaceholder(a.Name),
			Designation: orPlaceholder(a.Designation),
			Bio:         excerpt(bio, bioExcerptLen),
			BioFull:     bio,
			Avatar:      strings.TrimSpace(a.Avatar),
		})
	}
	return rows
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.Placeholder
	}
	return s
}

func excerpt(s string, n int) string {
	if s == "" {
		return domain.Placeholder
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

func controller(ws *workspace.Workspace) *listctl.Controller[domain.Author] { return ws.Authors }

// Module implements app.Module for authors.
type Module struct {
	pages  *listpage.Pages[domain.Author, Row]
	editor *listpage.Editor[domain.Author, Form]
}

// NewModule wires the author screens.
func NewModule(reg *workspace.Registry, gw domain.AuthorGateway, logger *slog.Logger) *Module {
	return &Module{
		pages: listpage.New(listpage.Config[domain.Author, Row]{
			Slug:       "authors",
			Title:      "Authors",
			Noun:       "author",
			Columns:    Columns,
			Registry:   reg,
			Controller: controller,
			Derive:     DeriveRows,
			Editable:   true,
			Logger:     logger,
		}),
		editor: listpage.NewEditor(listpage.EditorConfig[domain.Author, Form]{
			Slug:       "authors",
			Noun:       "author",
			Template:   "author/form.html",
			Registry:   reg,
			Controller: controller,
			Gateway:    gw,
			Form: func(a domain.Author) Form {
				return Form{Name: a.Name, Designation: a.Designation, Bio: a.Bio, Avatar: a.Avatar}
			},
			Logger: logger,
		}),
	}
}

// RegisterRoutes registers the author routes.
func (m *Module) RegisterRoutes(api, pages *gin.RouterGroup) {
	m.editor.RegisterRoutes(pages)
	m.pages.RegisterRoutes(api, pages)
}
