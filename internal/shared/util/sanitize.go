package util

import (
	"net/url"
	"strings"
)

// KeySegment makes an arbitrary identifier usable inside a single storage key
// segment. The mapping is reversible percent-encoding, so distinct identifiers
// never share a segment; separators and dots are always escaped. An empty
// identifier becomes "anonymous".
func KeySegment(id string) string {
	s := strings.TrimSpace(id)
	if s == "" {
		return "anonymous"
	}
	return strings.ReplaceAll(url.PathEscape(s), ".", "%2E")
}
