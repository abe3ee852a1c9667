package listpage

// Cell kinds understood by the grid template.
const (
	KindText   = "text"
	KindPill   = "pill"
	KindImage  = "image"
	KindLink   = "link"
	KindSelect = "select"
)

// Column is one grid header.
type Column struct {
	Title string
	Class string
}

// Option is one choice of a KindSelect cell.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Cell is one rendered grid value. Title becomes the hover tooltip. For
// KindSelect, Href is the endpoint the chosen value is posted to.
type Cell struct {
	Kind    string
	Text    string
	Title   string
	Tone    string
	Href    string
	Src     string
	Name    string
	Options []Option
}

// Row is a derived view model of one document.
type Row interface {
	RowID() string
	Cells() []Cell
}

// Text returns a plain cell.
func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// Tooltip returns a plain cell whose full value shows on hover.
func Tooltip(s, full string) Cell {
	return Cell{Kind: KindText, Text: s, Title: full}
}

// Pill returns a coloured badge.
func Pill(label, tone string) Cell {
	return Cell{Kind: KindPill, Text: label, Tone: tone}
}

// Image returns a thumbnail cell; an empty src renders the placeholder.
func Image(src, alt string) Cell {
	return Cell{Kind: KindImage, Src: src, Text: alt}
}

// Link returns an external link cell.
func Link(href, label string) Cell {
	return Cell{Kind: KindLink, Href: href, Text: label}
}

// Select returns an inline select that posts field name to action on change.
func Select(action, name string, opts []Option) Cell {
	return Cell{Kind: KindSelect, Href: action, Name: name, Options: opts}
}
