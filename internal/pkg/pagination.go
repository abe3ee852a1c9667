package pkg

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	defaultSort     = "created_at:desc"
	pagesInRange    = 5
)

// reservedParams are paging and sorting parameters, never filters. The
// catalog backend spells the page size pageSize; the dashboard API page_size.
var reservedParams = map[string]bool{
	"page":      true,
	"pageSize":  true,
	"page_size": true,
	"sort":      true,
}

var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ParsePageRequest reads page, pageSize (or page_size), sort and filters from
// the query string. Out-of-range values fall back to defaults; the page size
// is capped at 100.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	raw := c.Query("pageSize")
	if raw == "" {
		raw = c.Query("page_size")
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 || values[0] == "" {
			continue
		}
		filter[key] = values[0]
	}

	return domain.PageRequest{
		Page:     page,
		PageSize: size,
		Sort:     c.DefaultQuery("sort", defaultSort),
		Filter:   filter,
	}
}

// Window is a gorm scope applying OFFSET and LIMIT.
func Window(offset, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}

// Sort is a gorm scope applying "field:asc|desc" when field is allowed.
// Anything else leaves the query unordered.
func Sort(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field, dir, ok := strings.Cut(req.Sort, ":")
		if !ok {
			return db
		}
		field = strings.TrimSpace(field)
		dir = strings.ToLower(strings.TrimSpace(dir))
		if dir != "asc" && dir != "desc" {
			return db
		}
		if !allowedField(field, allowed) {
			return db
		}
		return db.Order(field + " " + dir)
	}
}

// Filter is a gorm scope applying equality filters, or LIKE for keys ending
// in "__like". Keys outside allowed are ignored.
func Filter(req domain.PageRequest, allowed []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			if field, ok := strings.CutSuffix(key, "__like"); ok {
				if allowedField(field, allowed) {
					db = db.Where(field+" LIKE ?", "%"+value+"%")
				}
				continue
			}
			if allowedField(key, allowed) {
				db = db.Where(key+" = ?", value)
			}
		}
		return db
	}
}

// Paginate returns page req.Page of total items, loading the window through
// fetch. A page past the end is clamped to the last page. A zero page size
// puts every item on one page.
func Paginate[T any](ctx context.Context, req domain.PageRequest, total int64, fetch func(ctx context.Context, offset, limit int) ([]T, error)) (*pagination.Pagination[T], error) {
	size := req.PageSize
	if size <= 0 {
		size = int(max(total, 1))
	}
	page := max(req.Page, 1)
	return pagination.NewPaginator[T](
		pagination.WithItemsPerPage[T](size),
		pagination.WithPagesInRange[T](pagesInRange),
		pagination.WithKnownTotal[T](total),
		pagination.WithSliceCallback(fetch),
	).Paginate(ctx, page)
}

// PageSlice pages an in-memory collection.
func PageSlice[T any](ctx context.Context, all []T, req domain.PageRequest) (*pagination.Pagination[T], error) {
	return Paginate(ctx, req, int64(len(all)), func(_ context.Context, offset, limit int) ([]T, error) {
		start := min(offset, len(all))
		end := min(start+limit, len(all))
		return slices.Clone(all[start:end]), nil
	})
}

func allowedField(field string, allowed []string) bool {
	return validFieldName.MatchString(field) && slices.Contains(allowed, field)
}
