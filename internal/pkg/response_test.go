package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"

	"github.com/jetdesk/jetadmin/internal/domain"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestSuccess(t *testing.T) {
	c, w := newTestContext(url.Values{})
	Success(c, map[string]string{"title": "King Air 350"})

	var resp Response
	decodeBody(t, w, &resp)
	if w.Code != http.StatusOK || resp.Code != http.StatusOK || resp.Message != "success" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not found"},
		{"network", domain.NewAppError(domain.CodeNetwork, "backend unreachable", errors.New("dial tcp")), http.StatusBadGateway, "backend unreachable"},
		{"partial", domain.NewAppError(domain.CodePartialBulk, "1 of 2 deleted", nil), http.StatusMultiStatus, "1 of 2 deleted"},
		{"plain error hidden", errors.New("pq: secret detail"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(url.Values{})
			Error(c, tt.err)

			var resp Response
			decodeBody(t, w, &resp)
			if w.Code != tt.status || resp.Message != tt.message {
				t.Errorf("got %d %q; want %d %q", w.Code, resp.Message, tt.status, tt.message)
			}
		})
	}
}

func TestList(t *testing.T) {
	c, w := newTestContext(url.Values{})
	page, err := PageSlice(context.Background(), []int{1, 2, 3}, domain.PageRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	List(c, page)

	var resp struct {
		Data pagination.Pagination[int] `json:"data"`
	}
	decodeBody(t, w, &resp)
	if resp.Data.TotalItems != 3 || resp.Data.TotalPages != 2 || len(resp.Data.Items) != 2 {
		t.Errorf("unexpected page %+v", resp.Data)
	}
}

type brandForm struct {
	Title string `form:"title" binding:"required,max=80"`
	Logo  string `form:"logo" binding:"omitempty,url"`
}

func postForm(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c, w
}

func TestBindAndValidate(t *testing.T) {
	c, w := postForm("title=&logo=not-a-url")
	var f brandForm
	if BindAndValidate(c, &f) {
		t.Fatal("expected binding to fail")
	}
	var resp ValidationErrorResponse
	decodeBody(t, w, &resp)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
	if resp.Errors["title"] != "required" || resp.Errors["logo"] != "url" {
		t.Errorf("errors = %v", resp.Errors)
	}

	c, _ = postForm("title=Gulfstream")
	f = brandForm{}
	if !BindAndValidate(c, &f) || f.Title != "Gulfstream" {
		t.Errorf("valid form rejected: %+v", f)
	}
}

func TestFieldErrors_NotValidation(t *testing.T) {
	if got := FieldErrors(errors.New("eof"), nil); got != nil {
		t.Errorf("FieldErrors = %v; want nil", got)
	}
}
