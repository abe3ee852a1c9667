// Package dashboard serves the summary screen: catalog counters and the
// latest listings.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/middleware"
	"github.com/jetdesk/jetadmin/internal/module/aircraft"
	"github.com/jetdesk/jetadmin/internal/module/listpage"
	"github.com/jetdesk/jetadmin/internal/pkg"
	"github.com/jetdesk/jetadmin/internal/workspace"
)

const (
	indexTemplate = "dashboard/index.html"
	fetchTimeout  = 10 * time.Second
)

// Counter is one summary tile.
type Counter struct {
	Label string
	Value int
	Href  string
}

// Counters maps the analysis totals to tiles in display order.
func Counters(a domain.Analysis) []Counter {
	return []Counter{
		{Label: "Total Registered Jets", Value: a.Aircraft, Href: "/aircraft"},
		{Label: "Total Team Members", Value: a.Team},
		{Label: "Total Reviews", Value: a.Review},
		{Label: "Total Blogs", Value: a.Blog},
	}
}

// LatestRow is one line of the latest jets table.
type LatestRow struct {
	ID        string
	Image     string
	Airframe  string
	Engine    string
	Propeller string
	Category  string
	Status    domain.StatusDescriptor
}

// LatestRows derives the latest jets table. The image is the first gallery
// image.
func LatestRows(docs []domain.Aircraft) []LatestRow {
	rows := make([]LatestRow, 0, len(docs))
	for _, a := range docs {
		var img string
		if len(a.Images) > 0 {
			img = a.Images[0]
		}
		category := a.Category.Name
		if category == "" {
			category = domain.Placeholder
		}
		rows = append(rows, LatestRow{
			ID:        a.DocumentID(),
			Image:     img,
			Airframe:  a.Airframe.String(),
			Engine:    aircraft.Pair(a.Engine, a.EngineTwo),
			Propeller: aircraft.Pair(a.Propeller, a.PropellerTwo),
			Category:  category,
			Status:    domain.DescribeStatus(a.Status),
		})
	}
	return rows
}

// Summary is what the dashboard renders.
type Summary struct {
	Analysis domain.Analysis
	Latest   []domain.Aircraft
	// Degraded is set when either source failed.
	Degraded bool
}

// Load fetches both sources concurrently. A failed source degrades to zero
// counters or an empty table; Load itself never fails.
func Load(ctx context.Context, src domain.DashboardSource, logger *slog.Logger) Summary {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var (
		s                 Summary
		analysisErr, lErr error
	)
	// Each goroutine returns nil so a failure on one side does not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		s.Analysis, analysisErr = src.Analysis(ctx)
		return nil
	})
	g.Go(func() error {
		s.Latest, lErr = src.LatestAircraft(ctx)
		return nil
	})
	_ = g.Wait()

	if analysisErr != nil {
		logger.WarnContext(ctx, "dashboard analysis unavailable", slog.Any("error", analysisErr))
		s.Analysis = domain.Analysis{}
		s.Degraded = true
	}
	if lErr != nil {
		logger.WarnContext(ctx, "latest aircraft unavailable", slog.Any("error", lErr))
		s.Latest = nil
		s.Degraded = true
	}
	return s
}

// Module implements app.Module for the dashboard.
type Module struct {
	src      domain.DashboardSource
	registry *workspace.Registry
	logger   *slog.Logger
}

// NewModule creates the dashboard module.
func NewModule(reg *workspace.Registry, src domain.DashboardSource, logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{src: src, registry: reg, logger: logger.With(slog.String("screen", "dashboard"))}
}

// RegisterRoutes registers the dashboard routes.
func (m *Module) RegisterRoutes(api, pages *gin.RouterGroup) {
	pages.GET("/", m.Index)
	api.GET("/dashboard", m.Summary)
}

// Index renders the dashboard page.
// GET /
func (m *Module) Index(c *gin.Context) {
	s := Load(c.Request.Context(), m.src, m.logger)
	ws := listpage.Workspace(c, m.registry)
	c.HTML(http.StatusOK, indexTemplate, gin.H{
		"Title":     "Dashboard",
		"Counters":  Counters(s.Analysis),
		"Latest":    LatestRows(s.Latest),
		"Degraded":  s.Degraded,
		"Notices":   ws.Notices.Drain(),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Summary returns the raw counters and latest listings as JSON.
// GET /api/v1/dashboard
func (m *Module) Summary(c *gin.Context) {
	s := Load(c.Request.Context(), m.src, m.logger)
	latest := s.Latest
	if latest == nil {
		latest = []domain.Aircraft{}
	}
	pkg.Success(c, gin.H{
		"analysis": s.Analysis,
		"latest":   aircraft.DeriveRows(latest),
		"degraded": s.Degraded,
	})
}
