package domain

import (
	"context"
	"io"
)

// Body is a request payload for create and update calls.
type Body interface {
	ContentType() string
	Reader() (io.Reader, error)
}

// Gateway is the remote data contract of one entity collection.
//
// Delete treats an already-absent id as success. BulkDelete reports per-id
// outcomes; a non-nil error means the whole call failed.
type Gateway[T Document] interface {
	List(ctx context.Context, filter ListFilter) ([]T, error)
	GetByID(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, body Body) (T, error)
	Update(ctx context.Context, id string, body Body) (T, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (BulkResult, error)
}

// AircraftGateway, BrandGateway, AuthorGateway and CategoryGateway name the
// concrete instantiations used across the dashboard.
type (
	AircraftGateway = Gateway[Aircraft]
	BrandGateway    = Gateway[Brand]
	AuthorGateway   = Gateway[Author]
	CategoryGateway = Gateway[Category]
)

// DashboardSource provides the summary screen data.
type DashboardSource interface {
	Analysis(ctx context.Context) (Analysis, error)
	LatestAircraft(ctx context.Context) ([]Aircraft, error)
}
