package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// sanitizeText strips HTML markup from user-supplied text. The policy escapes
// what it keeps, so entities are decoded again to store the text as typed.
func sanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
