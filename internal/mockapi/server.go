package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/middleware"
)

// Options configures a Server.
type Options struct {
	// UploadDir receives listing images; it is created when missing.
	UploadDir string
	Logger    *slog.Logger
}

// Server is the catalog backend: one gin engine over one database.
type Server struct {
	engine   *gin.Engine
	db       *gorm.DB
	logger   *slog.Logger
	aircraft *aircraftHandler
	authors  *collection[Author, AuthorInput]
}

// New builds the backend routes over db. Tables must already be migrated.
func New(db *gorm.DB, opts Options) (*Server, error) {
	if db == nil {
		return nil, errors.New("mockapi: db is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dir := opts.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger, uploadsPath),
	)
	engine.Static(uploadsPath, dir)

	categories := NewStore[Category](db, []string{"name", "slug"})
	s := &Server{
		engine: engine,
		db:     db,
		logger: logger,
		aircraft: &aircraftHandler{
			collection: &collection[Aircraft, AircraftInput]{
				store:  NewStore[Aircraft](db, []string{"status", "category_id"}, "Category"),
				noun:   "aircraft",
				logger: logger,
			},
			categories: categories,
			uploadDir:  dir,
		},
		authors: &collection[Author, AuthorInput]{
			store:  NewStore[Author](db, []string{"name"}),
			noun:   "author",
			logger: logger,
		},
	}
	brands := &collection[Brand, BrandInput]{
		store:  NewStore[Brand](db, []string{"title"}),
		noun:   "brand",
		logger: logger,
	}
	cats := &collection[Category, CategoryInput]{
		store:  categories,
		noun:   "category",
		guard:  categoryInUse,
		logger: logger,
	}

	api := engine.Group("/api")
	s.aircraft.mount(api)
	brands.mount(api, "/brands", route{Method: http.MethodDelete, Path: "bulk-delete"})
	s.authors.mount(api, "/authors", route{Method: http.MethodDelete, Path: "bulkDelete"})
	cats.mount(api, "/aircraftCategories", route{Method: http.MethodDelete, Path: "bulk-delete"})
	api.GET("/analysis/lists", s.analysis)

	engine.GET("/", s.root)
	engine.HEAD("/", s.root)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) root(c *gin.Context) {
	reply(c, http.StatusOK, gin.H{"service": "catalog"})
}

// analysis handles GET /api/analysis/lists. Team counts authors; reviews
// and blogs come from the counters table.
func (s *Server) analysis(c *gin.Context) {
	ctx := c.Request.Context()
	aircraft, err := s.aircraft.store.Count(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	team, err := s.authors.store.Count(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	var counters []Counter
	if err := s.db.WithContext(ctx).Find(&counters).Error; err != nil {
		fail(c, mapError(err))
		return
	}
	a := domain.Analysis{Aircraft: int(aircraft), Team: int(team)}
	for _, ct := range counters {
		switch ct.Name {
		case CounterReviews:
			a.Review = ct.Value
		case CounterBlogs:
			a.Blog = ct.Value
		}
	}
	reply(c, http.StatusOK, a)
}

// Serve listens on addr until ctx is done, then shuts down within 5 seconds.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mock backend started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("mock backend shutdown error", slog.Any("error", err))
		}
		return nil
	})
	err := g.Wait()
	s.logger.Info("mock backend stopped")
	return err
}
