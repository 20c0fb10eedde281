package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

const maxLogTextLen = 200

var sanitizer = bluemonday.StrictPolicy()

// LogText renders user supplied text for log fields: markup is stripped and the result truncated.
// Stored values are never passed through it.
func LogText(s string) string {
	out := html.UnescapeString(sanitizer.Sanitize(s))
	if r := []rune(out); len(r) > maxLogTextLen {
		out = string(r[:maxLogTextLen]) + "..."
	}
	return out
}
