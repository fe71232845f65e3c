package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ridiculink/internal/domain"
	"github.com/tbourn/go-ridiculink/internal/services"
)

// ---------- fake service ----------

type fakeMappingSvc struct {
	createErr  error
	resolveErr error
	existing   bool

	gotOriginal string
	byID        map[string]*domain.Mapping
}

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func (f *fakeMappingSvc) Create(_ context.Context, original string) (*domain.Mapping, bool, error) {
	f.gotOriginal = original
	if f.createErr != nil {
		return nil, false, f.createErr
	}
	return domain.NewMapping("id-1", original, "very-long-surrogate", t0), f.existing, nil
}

func (f *fakeMappingSvc) ResolveAndTouch(_ context.Context, surrogate string) (*domain.Mapping, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	m, ok := f.byID[surrogate]
	if !ok {
		return nil, services.ErrMappingNotFound
	}
	return m, nil
}

func newTestRouter(svc MappingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc, "https://ridiculink.test/l")
	r.POST("/longurls", h.CreateLongURL)
	r.GET("/longurls/:surrogate", h.GetLongURL)
	r.GET("/l/:surrogate", h.Redirect)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return er
}

// ---------- CreateLongURL ----------

func TestCreateLongURL_Created(t *testing.T) {
	svc := &fakeMappingSvc{}
	w := doJSON(newTestRouter(svc), http.MethodPost, "/longurls", CreateLongURLRequest{URL: "  https://example.com/a?b=1  "})

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.gotOriginal != "https://example.com/a?b=1" {
		t.Fatalf("service got %q; want trimmed url", svc.gotOriginal)
	}

	var resp LongURLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.LongURL != "very-long-surrogate" || resp.IsExisting {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if resp.Link != "https://ridiculink.test/l/very-long-surrogate" {
		t.Fatalf("link = %q", resp.Link)
	}
	if !resp.ExpiresAt.Equal(t0.Add(domain.MappingTTL)) {
		t.Fatalf("expires_at = %v", resp.ExpiresAt)
	}
}

func TestCreateLongURL_ExistingReturns200(t *testing.T) {
	w := doJSON(newTestRouter(&fakeMappingSvc{existing: true}), http.MethodPost, "/longurls", CreateLongURLRequest{URL: "https://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"is_existing":true`) {
		t.Fatalf("expected is_existing=true: %s", w.Body.String())
	}
}

func TestCreateLongURL_Validation(t *testing.T) {
	cases := []struct {
		name string
		body any
	}{
		{"bad json", "{"},
		{"empty", CreateLongURLRequest{URL: "   "}},
		{"no scheme", CreateLongURLRequest{URL: "example.com/page"}},
		{"ftp scheme", CreateLongURLRequest{URL: "ftp://example.com"}},
		{"no host", CreateLongURLRequest{URL: "https:///path"}},
		{"unparseable", CreateLongURLRequest{URL: "http://[::1"}},
		{"too long", CreateLongURLRequest{URL: "https://example.com/" + strings.Repeat("a", MaxURLLength)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeMappingSvc{}
			w := doJSON(newTestRouter(svc), http.MethodPost, "/longurls", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if er := decodeErr(t, w); er.Code != ErrCodeBadRequest {
				t.Fatalf("code=%q", er.Code)
			}
			if svc.gotOriginal != "" {
				t.Fatalf("service must not be called on invalid input")
			}
		})
	}
}

func TestCreateLongURL_StorageFailure(t *testing.T) {
	cause := fmt.Errorf("%w: insert: %w", services.ErrStorage, errors.New("disk full"))
	w := doJSON(newTestRouter(&fakeMappingSvc{createErr: cause}), http.MethodPost, "/longurls", CreateLongURLRequest{URL: "https://example.com"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Code != ErrCodeCreateFailed {
		t.Fatalf("code=%q", er.Code)
	}
	if strings.Contains(w.Body.String(), "disk full") {
		t.Fatalf("storage cause leaked: %s", w.Body.String())
	}
}

// ---------- GetLongURL / Redirect ----------

func TestGetLongURL_FoundAndMissing(t *testing.T) {
	m := domain.NewMapping("id-1", "https://example.com/x", "long-one", t0)
	m.AccessCount = 4
	r := newTestRouter(&fakeMappingSvc{byID: map[string]*domain.Mapping{"long-one": m}})

	w := doJSON(r, http.MethodGet, "/longurls/long-one", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp MappingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.OriginalURL != "https://example.com/x" || resp.AccessCount != 4 || resp.LongURL != "long-one" {
		t.Fatalf("unexpected body: %+v", resp)
	}

	w = doJSON(r, http.MethodGet, "/longurls/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Code != ErrCodeNotFound {
		t.Fatalf("code=%q", er.Code)
	}
}

func TestRedirect(t *testing.T) {
	m := domain.NewMapping("id-1", "https://example.com/dest", "long-one", t0)
	r := newTestRouter(&fakeMappingSvc{byID: map[string]*domain.Mapping{"long-one": m}})

	w := doJSON(r, http.MethodGet, "/l/long-one", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status=%d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/dest" {
		t.Fatalf("Location=%q", loc)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control=%q", cc)
	}

	if w := doJSON(r, http.MethodGet, "/l/unknown", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown status=%d", w.Code)
	}
}

func TestResolve_StorageFailure(t *testing.T) {
	svc := &fakeMappingSvc{resolveErr: fmt.Errorf("%w: find_by_surrogate: %w", services.ErrStorage, errors.New("timeout"))}
	r := newTestRouter(svc)

	for _, path := range []string{"/longurls/x", "/l/x"} {
		w := doJSON(r, http.MethodGet, path, nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s status=%d", path, w.Code)
		}
		if er := decodeErr(t, w); er.Code != ErrCodeResolveFailed {
			t.Fatalf("%s code=%q", path, er.Code)
		}
	}
}

func TestNew_LinkBaseNormalization(t *testing.T) {
	if h := New(nil, "/l"); h.link("abc") != "/l/abc" {
		t.Fatalf("link = %q", h.link("abc"))
	}
	if h := New(nil, "https://x.test/l/"); h.link("abc") != "https://x.test/l/abc" {
		t.Fatalf("link = %q", h.link("abc"))
	}
}
