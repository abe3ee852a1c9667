package mockapi

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/pkg"
)

// SeedReport counts what Seed inserted.
type SeedReport struct {
	Categories int
	Brands     int
	Authors    int
	Aircraft   int
}

func num(v float64) *float64 { return &v }

// Seed fills an empty catalog with sample documents. It does nothing when
// listings already exist.
func Seed(ctx context.Context, db *gorm.DB) (SeedReport, error) {
	var report SeedReport
	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Aircraft{}).Count(&existing).Error; err != nil {
			return mapError(err)
		}
		if existing > 0 {
			return nil
		}

		categories := []Category{
			{Name: "Light Jet", Slug: "light-jet"},
			{Name: "Midsize Jet", Slug: "midsize-jet"},
			{Name: "Turboprop", Slug: "turboprop"},
			{Name: "Piston Twin", Slug: "piston-twin"},
		}
		brands := []Brand{
			{Title: "Cessna", Logo: "https://cdn.example.com/brands/cessna.png"},
			{Title: "Embraer", Logo: "https://cdn.example.com/brands/embraer.png"},
			{Title: "Pilatus", Logo: "https://cdn.example.com/brands/pilatus.png"},
			{Title: "Beechcraft", Logo: "https://cdn.example.com/brands/beechcraft.png"},
		}
		authors := []Author{
			{Name: "Dana Whitfield", Designation: "Head of Sales", Bio: "Twenty years brokering business aircraft."},
			{Name: "Sam Okafor", Designation: "Market Analyst", Bio: "Writes the quarterly pre-owned market report."},
		}
		for i := range categories {
			c := &categories[i]
			if err := tx.Where(Category{Slug: c.Slug}).Attrs(Category{Name: c.Name}).FirstOrCreate(c).Error; err != nil {
				return mapError(err)
			}
		}
		if err := tx.Create(&brands).Error; err != nil {
			return mapError(err)
		}
		if err := tx.Create(&authors).Error; err != nil {
			return mapError(err)
		}

		agent := domain.ContactAgent{Name: "Dana Whitfield", Email: "dana@example.com", Phone: "+1 316 555 0142"}
		desc := func(airframe, engine string) domain.Description {
			return domain.NewDescription(map[string]string{
				"airframe": airframe,
				"engine":   engine,
			})
		}
		aircraft := []Aircraft{
			{
				Title: "2016 Cessna Citation CJ3+", Year: num(2016), Price: num(6950000),
				Status: string(domain.StatusForSale), CategoryID: categories[0].ID, Location: "Wichita, KS",
				Airframe: num(1840), Engine: num(1840), EngineTwo: num(1840),
				Description:  desc("<p>Single owner, <b>no damage history</b>.</p>", "<p>Williams FJ44-3A on TAP Blue.</p>"),
				ContactAgent: agent,
				Images:       []string{"https://cdn.example.com/jets/cj3-1.jpg", "https://cdn.example.com/jets/cj3-2.jpg"},
			},
			{
				Title: "2012 Embraer Phenom 300", Year: num(2012), Price: num(5400000),
				Status: string(domain.StatusSalePending), CategoryID: categories[0].ID, Location: "Fort Lauderdale, FL",
				Airframe: num(3120), Engine: num(3120), EngineTwo: num(3095),
				Description:  desc("<p>Prodigy Touch, synthetic vision.</p>", ""),
				ContactAgent: agent,
				Images:       []string{"https://cdn.example.com/jets/phenom-1.jpg"},
			},
			{
				Title: "2019 Pilatus PC-12 NGX", Year: num(2019), Price: num(4950000),
				Status: string(domain.StatusForSale), CategoryID: categories[2].ID, Location: "Denver, CO",
				Airframe: num(980), Engine: num(980), Propeller: num(410),
				Description:  desc("<p>Executive six-seat interior.</p>", "<p>PT6E-67XP, on ESP Gold.</p>"),
				ContactAgent: domain.ContactAgent{Email: "sales@example.com"},
				Images:       []string{"https://cdn.example.com/jets/pc12-1.jpg"},
			},
			{
				Title: "2008 Hawker 900XP", Year: num(2008), Price: num(2750000),
				Status: string(domain.StatusSold), CategoryID: categories[1].ID, Location: "Teterboro, NJ",
				Airframe: num(6210), Engine: num(6210), EngineTwo: num(6210),
				ContactAgent: agent,
				Images:       []string{},
			},
			{
				Title: "1998 Beechcraft Baron 58", Year: num(1998), Price: num(689000),
				Status: string(domain.StatusOffMarket), CategoryID: categories[3].ID, Location: "Scottsdale, AZ",
				Airframe: num(4100), Engine: num(620), EngineTwo: num(640), Propeller: num(300), PropellerTwo: num(300),
				ContactAgent: domain.ContactAgent{Name: "Sam Okafor", Phone: "+1 480 555 0199"},
				Images:       []string{},
			},
		}
		if err := tx.Omit(clause.Associations).Create(&aircraft).Error; err != nil {
			return mapError(err)
		}

		counters := []Counter{{Name: CounterReviews, Value: 128}, {Name: CounterBlogs, Value: 42}}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&counters).Error; err != nil {
			return mapError(err)
		}

		report = SeedReport{
			Categories: len(categories),
			Brands:     len(brands),
			Authors:    len(authors),
			Aircraft:   len(aircraft),
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, fmt.Errorf("seed catalog: %w", err)
	}
	return report, nil
}
