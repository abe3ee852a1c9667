package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/pkg"
)

// input is a validated payload that can be written onto a model.
type input[M any] interface {
	validation.Validatable
	apply(*M)
}

// route names a bulk delete endpoint. Backends disagree on its spelling.
type route struct {
	Method string
	Path   string
}

// collection serves the REST contract of one JSON document table.
type collection[M any, In input[M]] struct {
	store  *Store[M]
	noun   string
	guard  func(tx *gorm.DB, id string) error
	logger *slog.Logger
}

func (h *collection[M, In]) mount(g *gin.RouterGroup, path string, bulk route) {
	r := g.Group(path)
	r.GET("/lists", h.list)
	r.GET("/lists/:id", h.get)
	r.POST("", h.create)
	r.PUT("/update/:id", h.update)
	r.DELETE("/delete/:id", h.remove)
	r.Handle(bulk.Method, "/"+bulk.Path, h.bulkDelete)
}

// pageRequest reads paging parameters. A request without page or pageSize
// lists every document.
func pageRequest(c *gin.Context) domain.PageRequest {
	req := pkg.ParsePageRequest(c)
	if c.Query("page") == "" && c.Query("pageSize") == "" && c.Query("page_size") == "" {
		req.Page, req.PageSize = 1, 0
	}
	return req
}

// list handles GET /<res>/lists.
func (h *collection[M, In]) list(c *gin.Context) {
	page, err := h.store.List(c.Request.Context(), pageRequest(c))
	if err != nil {
		fail(c, err)
		return
	}
	total := page.TotalItems
	c.JSON(http.StatusOK, envelope{Success: true, Data: page.Items, Total: &total})
}

// get handles GET /<res>/lists/:id.
func (h *collection[M, In]) get(c *gin.Context) {
	doc, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.notFound(err))
		return
	}
	reply(c, http.StatusOK, doc)
}

// bind reads and validates the JSON body. With a stored document the input
// starts from that document, so fields missing from the body keep their
// stored values.
func (h *collection[M, In]) bind(c *gin.Context, stored *M) (In, bool) {
	var in In
	if stored != nil {
		if err := seed(stored, &in); err != nil {
			fail(c, err)
			return in, false
		}
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, invalid("malformed JSON body"))
		return in, false
	}
	if err := in.Validate(); err != nil {
		fail(c, err)
		return in, false
	}
	return in, true
}

// create handles POST /<res>.
func (h *collection[M, In]) create(c *gin.Context) {
	in, ok := h.bind(c, nil)
	if !ok {
		return
	}
	var doc M
	in.apply(&doc)
	if err := h.store.Create(c.Request.Context(), &doc); err != nil {
		fail(c, err)
		return
	}
	reply(c, http.StatusCreated, &doc)
}

// update handles PUT /<res>/update/:id. Fields missing from the payload
// keep their stored values.
func (h *collection[M, In]) update(c *gin.Context) {
	doc, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.notFound(err))
		return
	}
	in, ok := h.bind(c, doc)
	if !ok {
		return
	}
	in.apply(doc)
	if err := h.store.Save(c.Request.Context(), doc); err != nil {
		fail(c, err)
		return
	}
	reply(c, http.StatusOK, doc)
}

// remove handles DELETE /<res>/delete/:id.
func (h *collection[M, In]) remove(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id"), h.guard); err != nil {
		fail(c, h.notFound(err))
		return
	}
	c.JSON(http.StatusOK, envelope{Success: true, Message: h.noun + " deleted"})
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

type bulkResult struct {
	DeletedIDs []string `json:"deletedIds"`
	FailedIDs  []string `json:"failedIds"`
}

// bulkDelete removes every requested id it can and reports both lists.
func (h *collection[M, In]) bulkDelete(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, invalid("malformed JSON body"))
		return
	}
	ids := make([]string, 0, len(req.IDs))
	for _, id := range req.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		fail(c, invalid("ids must not be empty"))
		return
	}

	deleted, failed, err := h.store.DeleteMany(c.Request.Context(), ids, h.guard)
	if err != nil {
		fail(c, err)
		return
	}
	if len(failed) > 0 {
		h.logger.InfoContext(c.Request.Context(), "bulk delete partially failed",
			slog.String("noun", h.noun),
			slog.Int("deleted", len(deleted)),
			slog.Int("failed", len(failed)))
	}
	reply(c, http.StatusOK, bulkResult{DeletedIDs: deleted, FailedIDs: failed})
}

// seed copies the stored document into an input through their shared JSON
// field names.
func seed[M, In any](stored *M, in *In) error {
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "encode stored document", err)
	}
	if err := json.Unmarshal(data, in); err != nil {
		return domain.NewAppError(domain.CodeInternal, "decode stored document", err)
	}
	return nil
}

func (h *collection[M, In]) notFound(err error) error {
	if domain.IsNotFound(err) {
		return domain.NewAppError(domain.CodeNotFound, h.noun+" not found", nil)
	}
	return err
}
