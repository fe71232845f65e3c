package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var (
	urlRE   = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.\-]*://[^\s,;&]+`)
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs inside ids are left alone. A leading "+" sits
	// outside the word boundary so it is scrubbed with the number.
	phoneRE = regexp.MustCompile(`(?:\+\d{1,3}[ .-]?|\b(?:\d{1,3}[ .-]?)?)(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact replaces URLs, UUIDs, emails and phone numbers, in that order.
// Original URLs are the user data this service stores, so URLs go first and
// whole.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = urlRE.ReplaceAllString(s, "[REDACTED:url]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// headerScrubber masks credential headers and redacts the rest.
type headerScrubber map[string]struct{}

func newHeaderScrubber(extra []string) headerScrubber {
	hs := headerScrubber{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hs[h] = struct{}{}
		}
	}
	return hs
}

func (hs headerScrubber) scrub(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, masked := hs[strings.ToLower(k)]; masked {
			out[k] = redacted
			continue
		}
		out[k] = redact(strings.Join(vv, ", "))
	}
	return out
}
