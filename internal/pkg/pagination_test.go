package pkg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	dbtest "gorm.io/gorm/utils/tests"

	"github.com/jetdesk/jetadmin/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(q url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	return c, w
}

func newDummyDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(dbtest.DummyDialector{}, &gorm.Config{})
	if err != nil {
		t.Fatalf("open dummy db: %v", err)
	}
	return db
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  domain.PageRequest
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  domain.PageRequest{Page: 1, PageSize: 20, Sort: "created_at:desc", Filter: map[string]string{}},
		},
		{
			name:  "backend spelling",
			query: url.Values{"page": {"2"}, "pageSize": {"100"}, "status": {"sold"}},
			want:  domain.PageRequest{Page: 2, PageSize: 100, Sort: "created_at:desc", Filter: map[string]string{"status": "sold"}},
		},
		{
			name:  "dashboard spelling",
			query: url.Values{"page_size": {"5"}, "sort": {"title:asc"}, "title__like": {"cj"}},
			want:  domain.PageRequest{Page: 1, PageSize: 5, Sort: "title:asc", Filter: map[string]string{"title__like": "cj"}},
		},
		{
			name:  "clamped",
			query: url.Values{"page": {"-1"}, "pageSize": {"1000"}, "empty": {""}},
			want:  domain.PageRequest{Page: 1, PageSize: 100, Sort: "created_at:desc", Filter: map[string]string{}},
		},
		{
			name:  "garbage",
			query: url.Values{"page": {"x"}, "pageSize": {"-5"}},
			want:  domain.PageRequest{Page: 1, PageSize: 20, Sort: "created_at:desc", Filter: map[string]string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(tt.query)
			if got := ParsePageRequest(c); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePageRequest = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	allowed := []string{"title", "created_at"}
	tests := []struct {
		sort    string
		applied bool
	}{
		{"title:asc", true},
		{"created_at:DESC", true},
		{"price:asc", false},
		{"title", false},
		{"title:up", false},
		{"title;DROP TABLE aircraft--:asc", false},
		{":asc", false},
	}
	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			db := Sort(domain.PageRequest{Sort: tt.sort}, allowed)(newDummyDB(t))
			if _, ok := db.Statement.Clauses["ORDER BY"]; ok != tt.applied {
				t.Errorf("ORDER BY applied = %v; want %v", ok, tt.applied)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	allowed := []string{"status", "title"}
	tests := []struct {
		name    string
		filter  map[string]string
		applied bool
	}{
		{"exact", map[string]string{"status": "sold"}, true},
		{"like", map[string]string{"title__like": "king"}, true},
		{"not allowed", map[string]string{"price": "1"}, false},
		{"not allowed like", map[string]string{"price__like": "1"}, false},
		{"injection", map[string]string{"status OR 1=1": "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := Filter(domain.PageRequest{Filter: tt.filter}, allowed)(newDummyDB(t))
			if _, ok := db.Statement.Clauses["WHERE"]; ok != tt.applied {
				t.Errorf("WHERE applied = %v; want %v", ok, tt.applied)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	db := Window(20, 10)(newDummyDB(t))
	if _, ok := db.Statement.Clauses["LIMIT"]; !ok {
		t.Error("LIMIT clause not applied")
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		total     int64
		size      int
		wantPages int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}
	for _, tt := range tests {
		var gotLimit int
		got, err := Paginate(context.Background(), domain.PageRequest{Page: 1, PageSize: tt.size}, tt.total,
			func(_ context.Context, _, limit int) ([]string, error) {
				gotLimit = limit
				return nil, nil
			})
		if err != nil {
			t.Fatalf("total=%d size=%d: %v", tt.total, tt.size, err)
		}
		if got.TotalPages != tt.wantPages {
			t.Errorf("total=%d size=%d: TotalPages = %d; want %d", tt.total, tt.size, got.TotalPages, tt.wantPages)
		}
		if got.TotalItems != tt.total {
			t.Errorf("total=%d size=%d: TotalItems = %d", tt.total, tt.size, got.TotalItems)
		}
		if got.Items == nil {
			t.Error("Items should never be nil")
		}
		if tt.size == 0 && gotLimit != int(tt.total) {
			t.Errorf("zero page size: limit = %d; want %d", gotLimit, tt.total)
		}
	}
}

func TestPaginate_FetchError(t *testing.T) {
	boom := domain.NewAppError(domain.CodeNetwork, "backend unreachable", nil)
	_, err := Paginate(context.Background(), domain.PageRequest{Page: 1, PageSize: 10}, 3,
		func(context.Context, int, int) ([]int, error) { return nil, boom })
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.CodeNetwork {
		t.Errorf("err = %v; want the fetch error", err)
	}
}

func TestPageSlice(t *testing.T) {
	all := []string{"a", "b", "c", "d", "e"}
	tests := []struct {
		page, size int
		want       []string
		wantPage   int
	}{
		{1, 2, []string{"a", "b"}, 1},
		{3, 2, []string{"e"}, 3},
		{4, 2, []string{"e"}, 3},
		{0, 2, []string{"a", "b"}, 1},
		{1, 10, all, 1},
		{1, 0, all, 1},
	}
	for _, tt := range tests {
		got, err := PageSlice(context.Background(), all, domain.PageRequest{Page: tt.page, PageSize: tt.size})
		if err != nil {
			t.Fatalf("page %d size %d: %v", tt.page, tt.size, err)
		}
		if !reflect.DeepEqual(got.Items, tt.want) {
			t.Errorf("page %d size %d: items = %v; want %v", tt.page, tt.size, got.Items, tt.want)
		}
		if got.CurrentPage != tt.wantPage {
			t.Errorf("page %d size %d: CurrentPage = %d; want %d", tt.page, tt.size, got.CurrentPage, tt.wantPage)
		}
		if got.TotalItems != 5 {
			t.Errorf("TotalItems = %d; want 5", got.TotalItems)
		}
	}
}

func TestPageSlice_Empty(t *testing.T) {
	got, err := PageSlice[string](context.Background(), nil, domain.PageRequest{Page: 2, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalPages != 1 || got.CurrentPage != 1 || len(got.Items) != 0 || got.Items == nil {
		t.Errorf("unexpected empty page %+v", got)
	}
}
