// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Request correlation and logging:
//
//   - RequestID reuses a sane client X-Request-ID or mints a UUID.
//   - AccessLog writes one structured line per request and attaches a
//     request-scoped zerolog.Logger that handlers fetch with LoggerFrom.
//   - Recovery turns panics into the JSON 500 envelope.
//
// Install them in that order so panics and access lines carry the id.
// Surrogates never reach the logs: matched requests are logged by route
// template and unmatched paths are truncated.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	maxQueryLogLength  = 2048
	maxPathLogLength   = 256
	maxRequestIDLength = 128
)

// RequestID stores the correlation id under "requestID" and echoes it in the
// X-Request-ID response header. Client ids longer than 128 bytes or holding
// anything but visible ASCII are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// LogOptions configures AccessLog.
type LogOptions struct {
	// Redact scrubs URLs, emails, phone numbers and UUIDs from the query,
	// headers and errors, masks credential headers, and omits the client
	// address.
	Redact bool
	// MaskHeaders adds header names to mask when Redact is set.
	MaskHeaders []string
	// SkipPaths suppresses the access line for exact paths. The scoped
	// logger is still attached.
	SkipPaths []string
}

// AccessLog logs each request at info, warn for 4xx and error for 5xx or
// when handlers recorded errors on the context.
func AccessLog(opts LogOptions) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}
	scrub := newHeaderScrubber(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		lc := log.With().
			Str("request_id", requestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", routePath(c))
		if !opts.Redact {
			lc = lc.Str("remote_ip", c.ClientIP()).Str("user_agent", c.Request.UserAgent())
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)

		query := truncate(c.Request.URL.RawQuery, maxQueryLogLength)
		var headers map[string]string
		if opts.Redact {
			query = redact(query)
			headers = scrub.scrub(c.Request.Header)
		}

		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		if len(c.Errors) > 0 {
			errs := c.Errors.String()
			if opts.Redact {
				errs = redact(errs)
			}
			ev = ev.Str("errors", errs)
		}
		if s := c.Param("surrogate"); s != "" {
			ev = ev.Int("surrogate_len", len(s))
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Str("query", query).
			Int("status", status).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("http_request")
	}
}

// Recovery logs the panic with its stack. When nothing was written yet the
// client gets:
//
//	{ "request_id": "...", "code": "internal_error", "message": "internal server error" }
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := requestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger AccessLog attached, or a copy of the global
// logger when there is none.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// requestIDFrom prefers the id RequestID stored, then the response and
// request headers.
func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	return truncate(c.GetHeader(requestIDHeader), maxRequestIDLength)
}

func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return truncate(c.Request.URL.Path, maxPathLogLength)
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
