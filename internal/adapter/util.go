package adapter

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// Remotive descriptions arrive as rendered HTML; prompts want plain text.
// Unescapes entities first, strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// parseRetryAfter turns a Retry-After header value into a duration. Only the
// seconds form (e.g. "120") is handled; anything else yields zero.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
