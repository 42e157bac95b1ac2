package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML element from user supplied text and returns
// it as plain text.
func SanitizeText(text string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(text)))
}
