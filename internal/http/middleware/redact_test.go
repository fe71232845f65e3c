package middleware

import (
	"net/http"
	"testing"
)

func TestRedact(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"go https://a.example/x?id=1 mail a@b.io", "go [REDACTED:url] mail [REDACTED:email]"},
		{"id 123e4567-e89b-12d3-a456-426614174000", "id [REDACTED:id]"},
		{"call +1-555-123-4567", "call [REDACTED:phone]"},
		{"call +44 20 7946 0958 now", "call [REDACTED:phone] now"},
		{"call 1-555-123-4567", "call [REDACTED:phone]"},
		{"phone 555-123-4567", "phone [REDACTED:phone]"},
		{"tel=555.123.4567", "tel=[REDACTED:phone]"},
		{"surrogate=abc-def", "surrogate=abc-def"},
	}
	for _, tc := range cases {
		if got := redact(tc.in); got != tc.want {
			t.Errorf("redact(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestHeaderScrubber(t *testing.T) {
	h := http.Header{}
	h.Set("Set-Cookie", "a=b")
	h.Set("X-Api-Key", "k")
	h.Add("Accept", "application/json")
	h.Add("Accept", "text/plain")
	h.Set("Referer", "https://example.com/page")

	got := newHeaderScrubber([]string{"x-api-key"}).scrub(h)
	want := map[string]string{
		"Set-Cookie": redacted,
		"X-Api-Key":  redacted,
		"Accept":     "application/json, text/plain",
		"Referer":    "[REDACTED:url]",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q; want %q", k, got[k], v)
		}
	}
}
