// Package mockapi is a gorm-backed implementation of the catalog REST
// backend, used for local development and end-to-end tests.
package mockapi

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/domain"
)

// Base carries the string id and timestamps of every stored document.
type Base struct {
	ID        string    `gorm:"primaryKey;size:36" json:"_id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a uuid when the caller did not pick an id.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Brand is a stored manufacturer.
type Brand struct {
	Base
	Title string `gorm:"size:120;not null" json:"title"`
	Logo  string `gorm:"size:500" json:"logo"`
}

// Author is a stored team member.
type Author struct {
	Base
	Name        string `gorm:"size:120;not null" json:"name"`
	Designation string `gorm:"size:120" json:"designation"`
	Bio         string `gorm:"type:text" json:"bio"`
	Avatar      string `gorm:"size:500" json:"avatar"`
}

// Category is a stored aircraft category. Slugs are unique.
type Category struct {
	Base
	Name string `gorm:"size:80;not null" json:"name"`
	Slug string `gorm:"size:80;uniqueIndex" json:"slug"`
}

// Aircraft is a stored listing. The category is expanded on read.
type Aircraft struct {
	Base
	Title         string              `gorm:"size:200;not null" json:"title"`
	Year          *float64            `json:"year"`
	Price         *float64            `json:"price"`
	Status        string              `gorm:"size:32;index" json:"status"`
	CategoryID    string              `gorm:"size:36;index" json:"-"`
	Category      *Category           `gorm:"foreignKey:CategoryID" json:"category"`
	Location      string              `gorm:"size:200" json:"location"`
	Overview      string              `gorm:"type:text" json:"overview,omitempty"`
	VideoURL      string              `gorm:"size:500" json:"videoUrl,omitempty"`
	Airframe      *float64            `json:"airframe"`
	Engine        *float64            `json:"engine"`
	EngineTwo     *float64            `json:"engineTwo"`
	Propeller     *float64            `json:"propeller"`
	PropellerTwo  *float64            `json:"propellerTwo"`
	Description   domain.Description  `gorm:"serializer:json" json:"description"`
	ContactAgent  domain.ContactAgent `gorm:"serializer:json" json:"contactAgent"`
	Images        []string            `gorm:"serializer:json" json:"images"`
	FeaturedImage string              `gorm:"size:500" json:"featuredImage,omitempty"`
}

// Counter holds a named total the backend does not derive from its own
// tables, such as reviews and blog posts.
type Counter struct {
	Name  string `gorm:"primaryKey;size:40"`
	Value int
}

// Counter names read by the analysis endpoint.
const (
	CounterReviews = "review"
	CounterBlogs   = "blog"
)

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Brand{}, &Author{}, &Category{}, &Aircraft{}, &Counter{})
}
