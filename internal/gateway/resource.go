package gateway

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jetdesk/jetadmin/internal/domain"
)

// Endpoints describes where one entity lives on the backend.
type Endpoints struct {
	// Resource is the collection root, e.g. "/api/brands".
	Resource         string
	BulkDeletePath   string
	BulkDeleteMethod string
}

// Backend routes per entity.
var (
	AircraftEndpoints = Endpoints{Resource: "/api/aircrafts", BulkDeletePath: "bulkDelete", BulkDeleteMethod: http.MethodPost}
	BrandEndpoints    = Endpoints{Resource: "/api/brands", BulkDeletePath: "bulk-delete", BulkDeleteMethod: http.MethodDelete}
	AuthorEndpoints   = Endpoints{Resource: "/api/authors", BulkDeletePath: "bulkDelete", BulkDeleteMethod: http.MethodDelete}
	CategoryEndpoints = Endpoints{Resource: "/api/aircraftCategories", BulkDeletePath: "bulk-delete", BulkDeleteMethod: http.MethodDelete}
)

// Resource is the gateway for one entity collection.
type Resource[T domain.Document] struct {
	client *Client
	ep     Endpoints
}

var _ domain.Gateway[domain.Brand] = (*Resource[domain.Brand])(nil)

// NewResource binds a client to an entity's endpoints.
func NewResource[T domain.Document](c *Client, ep Endpoints) *Resource[T] {
	if ep.BulkDeleteMethod == "" {
		ep.BulkDeleteMethod = http.MethodDelete
	}
	if ep.BulkDeletePath == "" {
		ep.BulkDeletePath = "bulk-delete"
	}
	return &Resource[T]{client: c, ep: ep}
}

func (r *Resource[T]) path(elem ...string) []string {
	out := make([]string, 0, len(elem)+1)
	out = append(out, strings.Trim(r.ep.Resource, "/"))
	for _, e := range elem {
		out = append(out, url.PathEscape(e))
	}
	return out
}

// List returns every document matching filter.
func (r *Resource[T]) List(ctx context.Context, filter domain.ListFilter) ([]T, error) {
	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(filter.PageSize))
	}

	env, err := r.client.do(ctx, http.MethodGet, r.path("lists"), query, nil)
	if err != nil {
		return nil, err
	}
	if env.failed() {
		return nil, domain.NewAppError(domain.CodeInternal, env.message("list rejected by backend"), nil)
	}
	return decodeList[T](ctx, r.client, env.Data, strings.Trim(r.ep.Resource, "/"))
}

// decodeList decodes a JSON array one document at a time. A document that
// does not decode is logged and dropped; the rest of the list survives.
func decodeList[T any](ctx context.Context, c *Client, data json.RawMessage, what string) ([]T, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "decode "+what, err)
	}
	docs := make([]T, 0, len(raw))
	for i, doc := range raw {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			var id struct {
				MongoID string `json:"_id"`
				ID      string `json:"id"`
			}
			_ = json.Unmarshal(doc, &id)
			c.logger.WarnContext(ctx, "dropping undecodable document",
				slog.String("list", what),
				slog.Int("index", i),
				slog.String("id", cmp.Or(id.MongoID, id.ID)),
				slog.Any("error", err),
			)
			continue
		}
		docs = append(docs, v)
	}
	return docs, nil
}

// GetByID fetches one document. success:false counts as not found.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	env, err := r.client.do(ctx, http.MethodGet, r.path("lists", id), nil, nil)
	if err != nil {
		return zero, err
	}
	if env.failed() {
		return zero, domain.NewAppError(domain.CodeNotFound, env.message("not found"), nil)
	}
	return decodeData[T](env, "document")
}

// Create posts a new document and returns it with its backend-assigned id.
func (r *Resource[T]) Create(ctx context.Context, body domain.Body) (T, error) {
	var zero T
	env, err := r.client.do(ctx, http.MethodPost, r.path(), nil, body)
	if err != nil {
		return zero, err
	}
	if env.failed() {
		return zero, domain.NewAppError(domain.CodeValidation, env.message("create rejected by backend"), nil)
	}
	return decodeData[T](env, "document")
}

// Update applies a partial update.
func (r *Resource[T]) Update(ctx context.Context, id string, body domain.Body) (T, error) {
	var zero T
	env, err := r.client.do(ctx, http.MethodPut, r.path("update", id), nil, body)
	if err != nil {
		return zero, err
	}
	if env.failed() {
		return zero, domain.NewAppError(domain.CodeValidation, env.message("update rejected by backend"), nil)
	}
	return decodeData[T](env, "document")
}

// Delete removes one document. An id that is already gone is not an error.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	env, err := r.client.do(ctx, http.MethodDelete, r.path("delete", id), nil, nil)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if env.failed() {
		return domain.NewAppError(domain.CodeInternal, env.message("delete rejected by backend"), nil)
	}
	return nil
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

type bulkLists struct {
	DeletedIDs *[]string `json:"deletedIds"`
	FailedIDs  *[]string `json:"failedIds"`
}

// BulkDelete removes ids and reports per-id outcomes. A bare acknowledgement
// means every id was deleted.
func (r *Resource[T]) BulkDelete(ctx context.Context, ids []string) (domain.BulkResult, error) {
	requested := dedupe(ids)
	if len(requested) == 0 {
		return domain.BulkResult{DeletedIDs: []string{}, FailedIDs: []string{}}, nil
	}

	env, err := r.client.do(ctx, r.ep.BulkDeleteMethod, r.path(r.ep.BulkDeletePath), nil, JSON(bulkRequest{IDs: requested}))
	if err != nil {
		return domain.BulkResult{}, err
	}

	lists := bulkLists{DeletedIDs: env.DeletedIDs, FailedIDs: env.FailedIDs}
	if lists.DeletedIDs == nil && lists.FailedIDs == nil {
		data := bytes.TrimSpace(env.Data)
		if len(data) > 0 && data[0] == '{' {
			if err := json.Unmarshal(data, &lists); err != nil {
				return domain.BulkResult{}, domain.NewAppError(domain.CodeInternal, "decode bulk result", err)
			}
		}
	}

	if lists.DeletedIDs == nil && lists.FailedIDs == nil {
		if env.failed() {
			return domain.BulkResult{}, domain.NewAppError(domain.CodeInternal, env.message("bulk delete rejected by backend"), nil)
		}
		return domain.BulkResult{DeletedIDs: requested, FailedIDs: []string{}}, nil
	}
	return reconcileBulk(requested, lists), nil
}

// reconcileBulk fills in whichever half of the result the backend omitted.
// Requested ids reported in neither list count as failed.
func reconcileBulk(requested []string, lists bulkLists) domain.BulkResult {
	deleted := make(map[string]bool)
	failed := make(map[string]bool)

	switch {
	case lists.DeletedIDs != nil && lists.FailedIDs == nil:
		for _, id := range *lists.DeletedIDs {
			deleted[id] = true
		}
	case lists.DeletedIDs == nil && lists.FailedIDs != nil:
		for _, id := range *lists.FailedIDs {
			failed[id] = true
		}
		for _, id := range requested {
			if !failed[id] {
				deleted[id] = true
			}
		}
	default:
		for _, id := range *lists.DeletedIDs {
			deleted[id] = true
		}
		for _, id := range *lists.FailedIDs {
			if !deleted[id] {
				failed[id] = true
			}
		}
	}

	res := domain.BulkResult{DeletedIDs: []string{}, FailedIDs: []string{}}
	for _, id := range requested {
		if deleted[id] {
			res.DeletedIDs = append(res.DeletedIDs, id)
		} else {
			res.FailedIDs = append(res.FailedIDs, id)
		}
	}
	return res
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
