// Long URL HTTP handlers.
//
// This file exposes REST endpoints for URL mappings:
//   - POST   /longurls              (create or reuse)
//   - GET    /longurls/{surrogate}  (resolve, counts an access)
//   - GET    {redirect}/{surrogate} (resolve, counts an access, 302)
//
// Handlers are transport-thin: they validate input, call the mapping service,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ridiculink/internal/domain"
	"github.com/tbourn/go-ridiculink/internal/services"
)

// MaxURLLength caps the accepted length of an original URL in bytes.
const MaxURLLength = 2048

//
// Service contract (context-aware)
//

// MappingService defines the mapping operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MappingService interface {
	// Create returns the valid mapping for original, creating one if needed.
	// The boolean reports whether an existing mapping was returned.
	Create(ctx context.Context, original string) (*domain.Mapping, bool, error)
	// ResolveAndTouch returns the valid mapping for surrogate and counts the access.
	ResolveAndTouch(ctx context.Context, surrogate string) (*domain.Mapping, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for URL mappings.
type Handlers struct {
	svc MappingService
	// linkBase is prepended to surrogates to build shareable links,
	// e.g. "https://ridiculink.example/l/".
	linkBase string
}

// New constructs Handlers bound to svc. linkBase is the absolute or relative
// prefix used to render the link field.
func New(svc MappingService, linkBase string) *Handlers {
	if linkBase != "" && !strings.HasSuffix(linkBase, "/") {
		linkBase += "/"
	}
	return &Handlers{svc: svc, linkBase: linkBase}
}

//
// DTOs
//

// CreateLongURLRequest is the JSON payload for creating a long URL.
type CreateLongURLRequest struct {
	// URL is the original http(s) URL to hide behind a surrogate.
	URL string `json:"url" example:"https://example.com/some/page"`
}

// LongURLResponse describes a created or reused mapping.
type LongURLResponse struct {
	LongURL     string    `json:"long_url" example:"extraordinarily-quantum-encrypted-hyperlink-..."`
	Link        string    `json:"link" example:"https://ridiculink.example/l/extraordinarily-quantum-encrypted-hyperlink-..."`
	OriginalURL string    `json:"original_url" example:"https://example.com/some/page"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsExisting  bool      `json:"is_existing"`
}

// MappingResponse describes a resolved mapping.
type MappingResponse struct {
	LongURL     string    `json:"long_url"`
	Link        string    `json:"link"`
	OriginalURL string    `json:"original_url" example:"https://example.com/some/page"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccessCount int64     `json:"access_count" example:"3"`
}

//
// Helpers
//

// validateOriginalURL trims raw and checks it is an absolute http(s) URL with
// a host, no longer than MaxURLLength. The trimmed input is returned as is so
// deduplication keys on what the client sent.
func validateOriginalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	if len(raw) > MaxURLLength {
		return "", errors.New("url too long")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.New("invalid url format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("url scheme must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("url host is required")
	}
	return raw, nil
}

func (h *Handlers) link(surrogate string) string {
	return h.linkBase + url.PathEscape(surrogate)
}

//
// Handlers
//

// CreateLongURL godoc
// @ID          createLongURL
// @Summary     Create a long URL
// @Description Returns a ridiculously long surrogate for the given URL. While a valid mapping exists for the same URL it is returned unchanged with is_existing=true.
// @Tags        LongURLs
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateLongURLRequest  true  "Original URL"
//
// @Success     201  {object}  handlers.LongURLResponse  "Created"
// @Success     200  {object}  handlers.LongURLResponse  "Existing mapping"
// @Failure     400  {object}  handlers.ErrorResponse    "Invalid URL"
// @Failure     500  {object}  handlers.ErrorResponse    "Internal error"
// @Router      /longurls [post]
func (h *Handlers) CreateLongURL(c *gin.Context) {
	var req CreateLongURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	original, err := validateOriginalURL(req.URL)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	m, existing, err := h.svc.Create(c.Request.Context(), original)
	if err != nil {
		failCause(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create long url", err)
		return
	}

	status := http.StatusCreated
	if existing {
		status = http.StatusOK
	}
	ok(c, status, LongURLResponse{
		LongURL:     m.Surrogate,
		Link:        h.link(m.Surrogate),
		OriginalURL: m.Original,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
		IsExisting:  existing,
	})
}

// GetLongURL godoc
// @ID          getLongURL
// @Summary     Resolve a long URL
// @Description Returns the mapping behind a surrogate and counts the access. Expired and unknown surrogates both yield 404.
// @Tags        LongURLs
// @Produce     json
//
// @Param       surrogate  path  string  true  "Surrogate (long_url)"
//
// @Success     200  {object}  handlers.MappingResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Not found or expired"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /longurls/{surrogate} [get]
func (h *Handlers) GetLongURL(c *gin.Context) {
	m, found := h.resolve(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, MappingResponse{
		LongURL:     m.Surrogate,
		Link:        h.link(m.Surrogate),
		OriginalURL: m.Original,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,
		AccessCount: m.AccessCount,
	})
}

// Redirect resolves a surrogate and redirects the client to the original URL.
func (h *Handlers) Redirect(c *gin.Context) {
	m, found := h.resolve(c)
	if !found {
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, m.Original)
}

// resolve writes the error response itself and reports false on failure.
func (h *Handlers) resolve(c *gin.Context) (*domain.Mapping, bool) {
	surrogate := c.Param("surrogate")
	if surrogate == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "surrogate required")
		return nil, false
	}

	m, err := h.svc.ResolveAndTouch(c.Request.Context(), surrogate)
	switch {
	case errors.Is(err, services.ErrMappingNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "long url not found or expired")
		return nil, false
	case err != nil:
		failCause(c, http.StatusInternalServerError, ErrCodeResolveFailed, "could not resolve long url", err)
		return nil, false
	}
	return m, true
}
