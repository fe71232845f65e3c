// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. Besides the usual browser hardening it
// treats mapping responses as private: a surrogate works like a bearer link,
// so anything served under the API or redirect prefixes is marked uncacheable
// and unindexable.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultHSTSMaxAge applies when SecurityOptions.HSTSMaxAge is not positive.
const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only.
	// Enable it only when traffic is HTTPS end-to-end.
	EnableHSTS bool
	HSTSMaxAge time.Duration

	// PrivatePrefixes lists path prefixes whose responses carry
	// Cache-Control: no-store and X-Robots-Tag: noindex. "/" covers every path.
	PrivatePrefixes []string

	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that sets:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer (redirect targets never see the surrogate)
//
// plus the optional policy, privacy and HSTS headers described on
// SecurityOptions. X-Request-ID is appended to Access-Control-Expose-Headers
// when present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if hasPathPrefix(c.Request.URL.Path, opt.PrivatePrefixes) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("X-Robots-Tag", "noindex, nofollow")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			appendHeaderToken(h, "Access-Control-Expose-Headers", requestIDHeader)
		}

		c.Next()
	}
}

// hasPathPrefix reports whether path equals a prefix or lies below it.
func hasPathPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		switch {
		case p == "":
			continue
		case p == "/", path == p, strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/"):
			return true
		}
	}
	return false
}

// appendHeaderToken adds token to a comma separated header unless present.
func appendHeaderToken(h http.Header, key, token string) {
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, token)
	case !strings.Contains(cur, token):
		h.Set(key, cur+", "+token)
	}
}

// isHTTPS reports whether the incoming request used HTTPS either directly
// (r.TLS != nil) or via a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
