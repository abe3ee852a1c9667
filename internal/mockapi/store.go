package mockapi

import (
	"context"
	"errors"
	"strings"

	"github.com/simp-lee/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/pkg"
)

var allowedSortFields = []string{"created_at", "updated_at", "title", "name", "status", "year", "price"}

// Store is the gorm repository of one document table.
type Store[M any] struct {
	db      *gorm.DB
	filters []string
	preload []string
}

// NewStore returns a store for M. filters lists the columns a list query
// may filter on; preload names associations loaded with every read.
func NewStore[M any](db *gorm.DB, filters []string, preload ...string) *Store[M] {
	return &Store[M]{db: db, filters: filters, preload: preload}
}

func (s *Store[M]) read(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	for _, p := range s.preload {
		q = q.Preload(p)
	}
	return q
}

// List returns one page of documents. A zero page size returns everything.
func (s *Store[M]) List(ctx context.Context, req domain.PageRequest) (*pagination.Pagination[M], error) {
	var total int64
	filter := pkg.Filter(req, s.filters)
	if err := s.db.WithContext(ctx).Model(new(M)).Scopes(filter).Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	page, err := pkg.Paginate(ctx, req, total, func(ctx context.Context, offset, limit int) ([]M, error) {
		var docs []M
		q := s.read(ctx).Scopes(filter, pkg.Sort(req, allowedSortFields), pkg.Window(offset, limit))
		if err := q.Find(&docs).Error; err != nil {
			return nil, mapError(err)
		}
		return docs, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return page, nil
}

// Get returns the document with id.
func (s *Store[M]) Get(ctx context.Context, id string) (*M, error) {
	var doc M
	if err := s.read(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &doc, nil
}

// Create inserts doc and assigns its id.
func (s *Store[M]) Create(ctx context.Context, doc *M) error {
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(doc).Error)
}

// Save writes every column of doc.
func (s *Store[M]) Save(ctx context.Context, doc *M) error {
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Save(doc).Error)
}

// Delete removes the document with id once guard allows it, reporting
// ErrNotFound when absent. guard may be nil.
func (s *Store[M]) Delete(ctx context.Context, id string, guard func(tx *gorm.DB, id string) error) error {
	return pkg.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		if guard != nil {
			if err := guard(tx, id); err != nil {
				return err
			}
		}
		return deleteOne[M](tx, id)
	})
}

// DeleteMany removes ids inside one transaction. An absent id is already
// gone and counts as deleted, matching Delete over the gateway. Ids refused
// by guard land in failed; guard may be nil.
func (s *Store[M]) DeleteMany(ctx context.Context, ids []string, guard func(tx *gorm.DB, id string) error) (deleted, failed []string, err error) {
	deleted, failed = []string{}, []string{}
	err = pkg.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		for _, id := range ids {
			if guard != nil {
				switch gerr := guard(tx, id); {
				case gerr == nil:
				case domain.IsNotFound(gerr):
					deleted = append(deleted, id)
					continue
				case domain.IsAlreadyExists(gerr):
					failed = append(failed, id)
					continue
				default:
					return gerr
				}
			}
			if derr := deleteOne[M](tx, id); derr != nil && !domain.IsNotFound(derr) {
				return derr
			}
			deleted = append(deleted, id)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return deleted, failed, nil
}

// Count returns the number of stored documents.
func (s *Store[M]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(new(M)).Count(&n).Error; err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// Latest returns the n most recently created documents.
func (s *Store[M]) Latest(ctx context.Context, n int) ([]M, error) {
	var docs []M
	if err := s.read(ctx).Order("created_at desc").Limit(n).Find(&docs).Error; err != nil {
		return nil, mapError(err)
	}
	if docs == nil {
		docs = []M{}
	}
	return docs, nil
}

func deleteOne[M any](db *gorm.DB, id string) error {
	result := db.Delete(new(M), "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// mapError converts gorm errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError catches unique violations the pure-Go SQLite driver
// does not translate to gorm.ErrDuplicatedKey.
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
