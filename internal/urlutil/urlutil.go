package urlutil

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// FaviconTemplate is the external favicon lookup used when a tile has no uploaded image.
const FaviconTemplate = "https://www.google.com/s2/favicons?sz=128&domain="

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// FixURL prepends https:// when s has no http(s) scheme. Empty input stays empty.
func FixURL(s string) string {
	if s == "" {
		return ""
	}
	if !schemeRe.MatchString(s) {
		return "https://" + s
	}
	return s
}

// StripScheme removes a leading http(s):// (used to prefill edit forms).
func StripScheme(s string) string {
	return schemeRe.ReplaceAllString(s, "")
}

// Host returns the ASCII hostname of u, or false when u does not parse to a host.
func Host(u string) (string, bool) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", false
	}
	h := parsed.Hostname()
	if h == "" {
		return "", false
	}
	// Browsers hand out punycode hostnames; match that so the favicon lookup sees the same domain.
	if ascii, err := idna.Lookup.ToASCII(h); err == nil && ascii != "" {
		h = ascii
	}
	return strings.ToLower(h), true
}

// FaviconURL derives the favicon service URL for an already normalized tile URL.
// When no hostname can be parsed the full URL string is used as the domain parameter.
func FaviconURL(u string) string {
	domain, ok := Host(u)
	if !ok {
		domain = u
	}
	return FaviconTemplate + domain
}
