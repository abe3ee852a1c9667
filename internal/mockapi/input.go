package mockapi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/jetdesk/jetadmin/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// BrandInput is the create and update payload of a brand.
type BrandInput struct {
	Title string `json:"title"`
	Logo  string `json:"logo"`
}

// Validate implements validation.Validatable.
func (in BrandInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Logo = strings.TrimSpace(in.Logo)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 120)),
		validation.Field(&in.Logo, is.URL, validation.Length(0, 500)),
	)
}

func (in BrandInput) apply(b *Brand) {
	b.Title = strings.TrimSpace(in.Title)
	b.Logo = strings.TrimSpace(in.Logo)
}

// AuthorInput is the create and update payload of an author.
type AuthorInput struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar"`
}

// Validate implements validation.Validatable.
func (in AuthorInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Avatar = strings.TrimSpace(in.Avatar)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 120)),
		validation.Field(&in.Designation, validation.RuneLength(0, 120)),
		validation.Field(&in.Bio, validation.RuneLength(0, 2000)),
		validation.Field(&in.Avatar, is.URL, validation.Length(0, 500)),
	)
}

func (in AuthorInput) apply(a *Author) {
	a.Name = strings.TrimSpace(in.Name)
	a.Designation = strings.TrimSpace(in.Designation)
	a.Bio = strings.TrimSpace(in.Bio)
	a.Avatar = strings.TrimSpace(in.Avatar)
}

// CategoryInput is the create and update payload of a category. An empty
// slug is derived from the name.
type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate implements validation.Validatable.
func (in CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, 80)),
		validation.Field(&in.Slug, validation.Length(0, 80), validation.Match(slugPattern).Error("must be lowercase words joined by dashes")),
	)
}

func (in CategoryInput) apply(c *Category) {
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = strings.TrimSpace(in.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

// AircraftInput is a listing submission read from a multipart form. Numbers
// arrive as text; the json names key validation errors.
type AircraftInput struct {
	Title        string              `json:"title"`
	Year         string              `json:"year"`
	Price        string              `json:"price"`
	Status       string              `json:"status"`
	Category     string              `json:"category"`
	Location     string              `json:"location"`
	Overview     string              `json:"overview"`
	VideoURL     string              `json:"videoUrl"`
	Airframe     string              `json:"airframe"`
	Engine       string              `json:"engine"`
	EngineTwo    string              `json:"engineTwo"`
	Propeller    string              `json:"propeller"`
	PropellerTwo string              `json:"propellerTwo"`
	ContactAgent domain.ContactAgent `json:"contactAgent"`
	Description  domain.Description  `json:"description"`
	// KeepImages lists the existing gallery URLs to retain; nil keeps all.
	KeepImages []string `json:"keepImages"`
}

func statusValues() []any {
	out := make([]any, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		out = append(out, string(s))
	}
	return out
}

// Validate implements validation.Validatable.
func (in AircraftInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&in.Status, validation.Required, validation.In(statusValues()...).Error("unknown status")),
		validation.Field(&in.Category, validation.Required),
		validation.Field(&in.Location, validation.RuneLength(0, 200)),
		validation.Field(&in.VideoURL, is.URL),
		validation.Field(&in.Year, validation.By(numberBetween(1900, 2100))),
		validation.Field(&in.Price, validation.By(numberBetween(0, -1))),
		validation.Field(&in.Airframe, validation.By(numberBetween(0, -1))),
		validation.Field(&in.Engine, validation.By(numberBetween(0, -1))),
		validation.Field(&in.EngineTwo, validation.By(numberBetween(0, -1))),
		validation.Field(&in.Propeller, validation.By(numberBetween(0, -1))),
		validation.Field(&in.PropellerTwo, validation.By(numberBetween(0, -1))),
		validation.Field(&in.ContactAgent, validation.By(contactRule)),
	)
}

func (in AircraftInput) apply(a *Aircraft) {
	a.Title = strings.TrimSpace(in.Title)
	a.Year = numberPtr(in.Year)
	a.Price = numberPtr(in.Price)
	a.Status = in.Status
	a.CategoryID = strings.TrimSpace(in.Category)
	a.Category = nil
	a.Location = strings.TrimSpace(in.Location)
	a.Overview = in.Overview
	a.VideoURL = strings.TrimSpace(in.VideoURL)
	a.Airframe = numberPtr(in.Airframe)
	a.Engine = numberPtr(in.Engine)
	a.EngineTwo = numberPtr(in.EngineTwo)
	a.Propeller = numberPtr(in.Propeller)
	a.PropellerTwo = numberPtr(in.PropellerTwo)
	a.ContactAgent = in.ContactAgent
	a.Description = domain.NewDescription(sectionHTML(in.Description))
}

func sectionHTML(d domain.Description) map[string]string {
	out := make(map[string]string, len(d.Sections))
	for k, s := range d.Sections {
		out[k] = s.HTML
	}
	return out
}

// numberBetween accepts an empty value or a number >= lo, and <= hi when
// hi >= lo.
func numberBetween(lo, hi float64) validation.RuleFunc {
	return func(value any) error {
		n, err := domain.ParseNumber(value.(string))
		if err != nil {
			return errors.New("must be a number")
		}
		if !n.Valid {
			return nil
		}
		switch {
		case hi >= lo && (n.Value < lo || n.Value > hi):
			return fmt.Errorf("must be between %v and %v", lo, hi)
		case n.Value < lo:
			return errors.New("must not be negative")
		}
		return nil
	}
}

func contactRule(value any) error {
	c := value.(domain.ContactAgent)
	return validation.Validate(strings.TrimSpace(c.Email), is.EmailFormat)
}

func numberPtr(s string) *float64 {
	n, err := domain.ParseNumber(s)
	if err != nil || !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// AircraftPatch is a partial JSON update, such as an inline status change.
type AircraftPatch struct {
	Title    *string        `json:"title"`
	Status   *string        `json:"status"`
	Price    *domain.Number `json:"price"`
	Location *string        `json:"location"`
}

// Validate implements validation.Validatable.
func (p AircraftPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 200)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(statusValues()...).Error("unknown status")),
		validation.Field(&p.Location, validation.RuneLength(0, 200)),
	)
}

func (p AircraftPatch) apply(a *Aircraft) {
	if p.Title != nil {
		a.Title = strings.TrimSpace(*p.Title)
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Price != nil {
		if p.Price.Valid {
			v := p.Price.Value
			a.Price = &v
		} else {
			a.Price = nil
		}
	}
	if p.Location != nil {
		a.Location = strings.TrimSpace(*p.Location)
	}
	a.Category = nil
}
