package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/domain"
)

const uploadsPath = "/uploads"

var imageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}

// aircraftHandler serves listings. Create and update take multipart forms
// with image uploads; update also takes a JSON patch.
type aircraftHandler struct {
	*collection[Aircraft, AircraftInput]
	categories *Store[Category]
	uploadDir  string
}

func (h *aircraftHandler) mount(g *gin.RouterGroup) {
	r := g.Group("/aircrafts")
	r.GET("/lists", h.list)
	r.GET("/lists/:id", h.get)
	r.GET("/latest", h.latest)
	r.POST("", h.create)
	r.PUT("/update/:id", h.update)
	r.DELETE("/delete/:id", h.remove)
	r.POST("/bulkDelete", h.bulkDelete)
}

// latestLimit is how many listings GET /aircrafts/latest returns.
const latestLimit = 5

// latest handles GET /aircrafts/latest.
func (h *aircraftHandler) latest(c *gin.Context) {
	docs, err := h.store.Latest(c.Request.Context(), latestLimit)
	if err != nil {
		fail(c, err)
		return
	}
	reply(c, http.StatusOK, docs)
}

// bindForm reads the multipart listing form. keepImages, contactAgent and
// description arrive as JSON strings.
func bindForm(c *gin.Context) (AircraftInput, error) {
	in := AircraftInput{
		Title:        c.PostForm("title"),
		Year:         c.PostForm("year"),
		Price:        c.PostForm("price"),
		Status:       c.PostForm("status"),
		Category:     c.PostForm("category"),
		Location:     c.PostForm("location"),
		Overview:     c.PostForm("overview"),
		VideoURL:     c.PostForm("videoUrl"),
		Airframe:     c.PostForm("airframe"),
		Engine:       c.PostForm("engine"),
		EngineTwo:    c.PostForm("engineTwo"),
		Propeller:    c.PostForm("propeller"),
		PropellerTwo: c.PostForm("propellerTwo"),
	}
	fields := []struct {
		name string
		dst  any
	}{
		{"contactAgent", &in.ContactAgent},
		{"description", &in.Description},
	}
	for _, f := range fields {
		if raw := strings.TrimSpace(c.PostForm(f.name)); raw != "" {
			if err := json.Unmarshal([]byte(raw), f.dst); err != nil {
				return in, invalid(f.name + " must be a JSON object")
			}
		}
	}
	if raw, ok := c.GetPostForm("keepImages"); ok {
		in.KeepImages = []string{}
		if raw = strings.TrimSpace(raw); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in.KeepImages); err != nil {
				return in, invalid("keepImages must be a JSON array")
			}
		}
	}
	return in, nil
}

func (h *aircraftHandler) checkCategory(c *gin.Context, id string) error {
	if _, err := h.categories.Get(c.Request.Context(), strings.TrimSpace(id)); err != nil {
		if domain.IsNotFound(err) {
			return invalid("unknown category")
		}
		return err
	}
	return nil
}

// create handles POST /aircrafts.
func (h *aircraftHandler) create(c *gin.Context) {
	in, err := bindForm(c)
	if err == nil {
		err = in.Validate()
	}
	if err == nil {
		err = h.checkCategory(c, in.Category)
	}
	if err != nil {
		fail(c, err)
		return
	}

	var doc Aircraft
	in.apply(&doc)
	doc.Images = []string{}
	if err := h.attach(c, &doc); err != nil {
		fail(c, err)
		return
	}
	if err := h.store.Create(c.Request.Context(), &doc); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, doc.ID)
}

// update handles PUT /aircrafts/update/:id. A JSON body patches the named
// fields; a multipart body replaces the listing, keeping only the gallery
// images named in keepImages.
func (h *aircraftHandler) update(c *gin.Context) {
	doc, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.notFound(err))
		return
	}

	if c.ContentType() == gin.MIMEJSON {
		var patch AircraftPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			fail(c, invalid("malformed JSON body"))
			return
		}
		if err := patch.Validate(); err != nil {
			fail(c, err)
			return
		}
		patch.apply(doc)
	} else {
		in, err := bindForm(c)
		if err == nil {
			err = in.Validate()
		}
		if err == nil {
			err = h.checkCategory(c, in.Category)
		}
		if err != nil {
			fail(c, err)
			return
		}
		kept := doc.Images
		if in.KeepImages != nil {
			kept = slices.DeleteFunc(slices.Clone(doc.Images), func(u string) bool {
				return !slices.Contains(in.KeepImages, u)
			})
		}
		in.apply(doc)
		doc.Images = kept
		if err := h.attach(c, doc); err != nil {
			fail(c, err)
			return
		}
	}

	if err := h.store.Save(c.Request.Context(), doc); err != nil {
		fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, doc.ID)
}

// respond re-reads id so the category comes back expanded.
func (h *aircraftHandler) respond(c *gin.Context, status int, id string) {
	doc, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	reply(c, status, doc)
}

// attach stores uploaded images and the featured image, appending gallery
// uploads to doc.Images.
func (h *aircraftHandler) attach(c *gin.Context, doc *Aircraft) error {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil
		}
		return invalid("malformed multipart body")
	}
	for _, fh := range form.File["images"] {
		u, err := h.save(c, fh)
		if err != nil {
			return err
		}
		doc.Images = append(doc.Images, u)
	}
	if files := form.File["featuredImage"]; len(files) > 0 {
		u, err := h.save(c, files[0])
		if err != nil {
			return err
		}
		doc.FeaturedImage = u
	}
	return nil
}

func (h *aircraftHandler) save(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(imageExts, ext) {
		return "", invalid(fmt.Sprintf("%q is not an image", fh.Filename))
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(fh, filepath.Join(h.uploadDir, name)); err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "store upload", err)
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + uploadsPath + "/" + name, nil
}

// categoryInUse refuses to delete a category that listings still reference.
func categoryInUse(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&Aircraft{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return mapError(err)
	}
	if n > 0 {
		return domain.NewAppError(domain.CodeAlreadyExists, fmt.Sprintf("category is used by %d listings", n), nil)
	}
	return nil
}
