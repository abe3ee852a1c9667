package aircraft

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/gateway"
)

// Form is the listing editor payload. Numeric fields stay strings so a
// rejected form re-renders exactly what was typed.
type Form struct {
	Title        string   `form:"title" binding:"required,max=200"`
	Year         string   `form:"year"`
	Price        string   `form:"price"`
	Status       string   `form:"status" binding:"required"`
	Category     string   `form:"category" binding:"required"`
	Location     string   `form:"location" binding:"max=200"`
	Overview     string   `form:"overview" binding:"max=5000"`
	VideoURL     string   `form:"videoUrl" binding:"omitempty,url"`
	Airframe     string   `form:"airframe"`
	Engine       string   `form:"engine"`
	EngineTwo    string   `form:"engineTwo"`
	Propeller    string   `form:"propeller"`
	PropellerTwo string   `form:"propellerTwo"`
	AgentName    string   `form:"agentName" binding:"max=120"`
	AgentEmail   string   `form:"agentEmail" binding:"omitempty,email"`
	AgentPhone   string   `form:"agentPhone" binding:"max=40"`
	KeepImages   []string `form:"keepImages"`

	// Sections holds description HTML by section key; bound from sections[key].
	Sections map[string]string `form:"-"`
	// Images and Featured are the existing gallery shown in the editor.
	Images   []string `form:"-"`
	Featured string   `form:"-"`
}

// Uploads are the files attached to a form submission.
type Uploads struct {
	Images   []*multipart.FileHeader
	Featured *multipart.FileHeader
}

// FormFromAircraft fills the editor from a stored listing. Every existing
// image starts out kept.
func FormFromAircraft(a domain.Aircraft) Form {
	sections := make(map[string]string, len(domain.SectionKeys))
	for _, k := range domain.SectionKeys {
		sections[k] = a.Description.SectionHTML(k)
	}
	return Form{
		Title:        a.Title,
		Year:         numberField(a.Year),
		Price:        numberField(a.Price),
		Status:       string(a.Status),
		Category:     a.Category.ID,
		Location:     a.Location,
		Overview:     a.Overview,
		VideoURL:     a.VideoURL,
		Airframe:     numberField(a.Airframe),
		Engine:       numberField(a.Engine),
		EngineTwo:    numberField(a.EngineTwo),
		Propeller:    numberField(a.Propeller),
		PropellerTwo: numberField(a.PropellerTwo),
		AgentName:    a.ContactAgent.Name,
		AgentEmail:   a.ContactAgent.Email,
		AgentPhone:   a.ContactAgent.Phone,
		KeepImages:   append([]string(nil), a.Images...),
		Sections:     sections,
		Images:       append([]string(nil), a.Images...),
		Featured:     a.FeaturedImage,
	}
}

func numberField(n domain.Number) string {
	if !n.Valid {
		return ""
	}
	return n.String()
}

// Check validates what binding tags cannot express: numeric fields and the
// status enum. It returns field → message, or nil.
func (f *Form) Check() map[string]string {
	errs := make(map[string]string)
	numbers := []struct{ name, value string }{
		{"year", f.Year},
		{"price", f.Price},
		{"airframe", f.Airframe},
		{"engine", f.Engine},
		{"engineTwo", f.EngineTwo},
		{"propeller", f.Propeller},
		{"propellerTwo", f.PropellerTwo},
	}
	for _, n := range numbers {
		v, err := domain.ParseNumber(n.value)
		switch {
		case err != nil:
			errs[n.name] = "must be a number"
		case v.Valid && v.Value < 0:
			errs[n.name] = "must not be negative"
		}
	}
	if y, err := domain.ParseNumber(f.Year); err == nil && y.Valid && (y.Value < 1900 || y.Value > 2100) {
		errs["year"] = "must be between 1900 and 2100"
	}
	if _, ok := domain.ParseStatus(f.Status); !ok {
		errs["status"] = "unknown status"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Body encodes the form as the backend's multipart payload. Uploaded files are
// read fully before Body returns.
func (f *Form) Body(up Uploads) (domain.Body, error) {
	st, _ := domain.ParseStatus(f.Status)
	keep := f.KeepImages
	if keep == nil {
		keep = []string{}
	}

	m := gateway.NewMultipart().
		Field("title", strings.TrimSpace(f.Title)).
		Field("year", plainNumber(f.Year)).
		Field("price", plainNumber(f.Price)).
		Field("status", string(st)).
		Field("category", strings.TrimSpace(f.Category)).
		Field("location", strings.TrimSpace(f.Location)).
		Field("overview", f.Overview).
		Field("videoUrl", strings.TrimSpace(f.VideoURL)).
		OptionalField("airframe", plainNumber(f.Airframe)).
		OptionalField("engine", plainNumber(f.Engine)).
		OptionalField("engineTwo", plainNumber(f.EngineTwo)).
		OptionalField("propeller", plainNumber(f.Propeller)).
		OptionalField("propellerTwo", plainNumber(f.PropellerTwo)).
		JSONField("contactAgent", domain.ContactAgent{
			Name:  strings.TrimSpace(f.AgentName),
			Email: strings.TrimSpace(f.AgentEmail),
			Phone: strings.TrimSpace(f.AgentPhone),
		}).
		JSONField("description", domain.NewDescription(f.Sections)).
		JSONField("keepImages", keep)

	for _, fh := range up.Images {
		if err := attach(m, "images", fh); err != nil {
			return nil, err
		}
	}
	if up.Featured != nil {
		if err := attach(m, "featuredImage", up.Featured); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func attach(m *gateway.Multipart, field string, fh *multipart.FileHeader) error {
	file, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer file.Close()
	m.File(field, fh.Filename, file)
	return nil
}

// plainNumber drops thousands separators so the backend sees a bare number.
func plainNumber(s string) string {
	n, err := domain.ParseNumber(s)
	if err != nil || !n.Valid {
		return ""
	}
	return n.String()
}
