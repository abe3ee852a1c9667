package aircraft

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
)

const excerptLen = 120

var stripTags = func() *bluemonday.Policy {
	p := bluemonday.StripTagsPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// Row is one aircraft listing in the grid.
type Row struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	Year            string                  `json:"year"`
	Price           string                  `json:"price"`
	Video           string                  `json:"video"`
	Status          domain.StatusDescriptor `json:"status"`
	Category        string                  `json:"category"`
	Airframe        string                  `json:"airframe"`
	Engine          string                  `json:"engine"`
	Propeller       string                  `json:"propeller"`
	Description     string                  `json:"desc"`
	DescriptionFull string                  `json:"descFull"`
	Location        string                  `json:"location"`
	Agent           string                  `json:"agent"`
	AgentTooltip    string                  `json:"agentTooltip"`
	Thumbnail       string                  `json:"thumbnail"`
}

// RowID implements listpage.Row.
func (r Row) RowID() string { return r.ID }

// Cells implements listpage.Row.
func (r Row) Cells() []listpage.Cell {
	video := listpage.Text(domain.Placeholder)
	if r.Video != "" {
		video = listpage.Link(r.Video, "Watch")
	}
	return []listpage.Cell{
		listpage.Image(r.Thumbnail, r.Title),
		listpage.Text(r.Title),
		listpage.Text(r.Year),
		listpage.Text(r.Price),
		video,
		listpage.Pill(r.Status.Label, string(r.Status.Tone)),
		listpage.Select("/aircraft/"+r.ID+"/status", "status", statusOptions(r.Status.Value)),
		listpage.Text(r.Category),
		listpage.Text(r.Airframe),
		listpage.Text(r.Engine),
		listpage.Tooltip(r.Description, r.DescriptionFull),
		listpage.Text(r.Location),
		listpage.Tooltip(r.Agent, r.AgentTooltip),
	}
}

// Columns of the aircraft grid, in Cells order.
var Columns = []listpage.Column{
	{Title: "", Class: "col-thumb"},
	{Title: "Title", Class: "col-wide"},
	{Title: "Year"},
	{Title: "Price"},
	{Title: "Video"},
	{Title: "Status"},
	{Title: "Set status"},
	{Title: "Category"},
	{Title: "Airframe"},
	{Title: "Engine"},
	{Title: "Description", Class: "col-wide"},
	{Title: "Location"},
	{Title: "Contact Agent"},
}

// DeriveRows maps listings to grid rows. It reads docs only and tolerates any
// missing field.
func DeriveRows(docs []domain.Aircraft) []Row {
	rows := make([]Row, 0, len(docs))
	for _, a := range docs {
		short, full := Excerpt(a.Description)
		agent, tip := Agent(a.ContactAgent)
		rows = append(rows, Row{
			ID:              a.DocumentID(),
			Title:           orPlaceholder(a.Title),
			Year:            a.Year.String(),
			Price:           a.Price.String(),
			Video:           strings.TrimSpace(a.VideoURL),
			Status:          domain.DescribeStatus(a.Status),
			Category:        orPlaceholder(a.Category.Name),
			Airframe:        a.Airframe.String(),
			Engine:          Pair(a.Engine, a.EngineTwo),
			Propeller:       Pair(a.Propeller, a.PropellerTwo),
			Description:     short,
			DescriptionFull: full,
			Location:        orPlaceholder(a.Location),
			Agent:           agent,
			AgentTooltip:    tip,
			Thumbnail:       Thumbnail(a),
		})
	}
	return rows
}

// Excerpt returns the plain text of the first non-empty description section,
// cut to 120 characters, and the untruncated text.
func Excerpt(d domain.Description) (short, full string) {
	for _, key := range domain.SectionKeys {
		text := plainText(d.SectionHTML(key))
		if text == "" {
			continue
		}
		if utf8.RuneCountInString(text) <= excerptLen {
			return text, text
		}
		return string([]rune(text)[:excerptLen]) + "…", text
	}
	return domain.Placeholder, ""
}

func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := html.UnescapeString(stripTags.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Agent returns the display name of a contact (name, else email) and a
// tooltip joining every non-empty field.
func Agent(c domain.ContactAgent) (display, tooltip string) {
	name, phone, email := strings.TrimSpace(c.Name), strings.TrimSpace(c.Phone), strings.TrimSpace(c.Email)
	display = name
	if display == "" {
		display = email
	}
	if display == "" {
		display = domain.Placeholder
	}
	var parts []string
	for _, p := range []string{name, phone, email} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return display, strings.Join(parts, " | ")
}

// Pair renders "a / b" for twin installations, or a alone.
func Pair(a, b domain.Number) string {
	if b.Valid && b.Value != 0 {
		return a.String() + " / " + b.String()
	}
	return a.String()
}

// Thumbnail picks the featured image, else the first gallery image.
func Thumbnail(a domain.Aircraft) string {
	if s := strings.TrimSpace(a.FeaturedImage); s != "" {
		return s
	}
	for _, img := range a.Images {
		if s := strings.TrimSpace(img); s != "" {
			return s
		}
	}
	return ""
}

func statusOptions(current string) []listpage.Option {
	statuses := domain.Statuses()
	opts := make([]listpage.Option, 0, len(statuses))
	for _, s := range statuses {
		d := domain.DescribeStatus(s)
		opts = append(opts, listpage.Option{Value: d.Value, Label: d.Label, Selected: d.Value == current})
	}
	return opts
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.Placeholder
	}
	return s
}
