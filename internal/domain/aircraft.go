package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Aircraft is a sales listing as stored by the catalog backend.
type Aircraft struct {
	Identity
	Title         string       `json:"title"`
	Year          Number       `json:"year"`
	Price         Number       `json:"price"`
	Status        Status       `json:"status"`
	Category      CategoryRef  `json:"category"`
	Location      string       `json:"location"`
	Overview      string       `json:"overview,omitempty"`
	VideoURL      string       `json:"videoUrl,omitempty"`
	Airframe      Number       `json:"airframe"`
	Engine        Number       `json:"engine"`
	EngineTwo     Number       `json:"engineTwo"`
	Propeller     Number       `json:"propeller"`
	PropellerTwo  Number       `json:"propellerTwo"`
	Description   Description  `json:"description"`
	ContactAgent  ContactAgent `json:"contactAgent"`
	Images        []string     `json:"images"`
	FeaturedImage string       `json:"featuredImage,omitempty"`
	CreatedAt     *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time   `json:"updatedAt,omitempty"`
}

// ContactAgent is the listing's sales contact.
type ContactAgent struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DescriptionVersion is the layout version written by this dashboard.
const DescriptionVersion = 1

// SectionKeys lists the fixed description sections in display order.
var SectionKeys = []string{"airframe", "engine", "propeller", "avionics", "equipment", "interior", "exterior", "inspection"}

// SectionLabels maps section keys to their tab labels.
var SectionLabels = map[string]string{
	"airframe":   "Airframe",
	"engine":     "Engine",
	"propeller":  "Propeller",
	"avionics":   "Avionics",
	"equipment":  "Equipments",
	"interior":   "Interior",
	"exterior":   "Exterior",
	"inspection": "Inspection",
}

// Description is the versioned, sectioned rich-text description.
type Description struct {
	Version  int                `json:"version"`
	Sections map[string]Section `json:"sections"`
}

// Section holds one rich-text block.
type Section struct {
	HTML string `json:"html"`
}

// SectionHTML returns the HTML of the named section, or "" when absent.
func (d Description) SectionHTML(key string) string {
	if d.Sections == nil {
		return ""
	}
	return d.Sections[key].HTML
}

// NewDescription builds a description holding every fixed section.
func NewDescription(html map[string]string) Description {
	sections := make(map[string]Section, len(SectionKeys))
	for _, k := range SectionKeys {
		sections[k] = Section{HTML: html[k]}
	}
	return Description{Version: DescriptionVersion, Sections: sections}
}

// CategoryRef references a category either by id or as an expanded document.
type CategoryRef struct {
	ID   string
	Name string
}

// UnmarshalJSON accepts a bare id string or an object with _id/id and name.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = CategoryRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = CategoryRef{ID: strings.TrimSpace(id)}
		return nil
	}
	var expanded struct {
		Identity
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &expanded); err != nil {
		return err
	}
	*c = CategoryRef{ID: expanded.DocumentID(), Name: expanded.Name}
	return nil
}

// MarshalJSON writes the expanded form when a name is known, the id otherwise.
func (c CategoryRef) MarshalJSON() ([]byte, error) {
	if c.Name == "" {
		if c.ID == "" {
			return []byte("null"), nil
		}
		return json.Marshal(c.ID)
	}
	return json.Marshal(struct {
		MongoID string `json:"_id"`
		Name    string `json:"name"`
	}{c.ID, c.Name})
}

// Brand is an aircraft manufacturer entry.
type Brand struct {
	Identity
	Title string `json:"title"`
	Logo  string `json:"logo"`
}

// Author writes catalog content.
type Author struct {
	Identity
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar"`
}

// Category groups aircraft listings.
type Category struct {
	Identity
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Analysis holds the dashboard counters.
type Analysis struct {
	Aircraft int `json:"aircraft"`
	Team     int `json:"team"`
	Review   int `json:"review"`
	Blog     int `json:"blog"`
}
