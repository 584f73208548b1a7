// Package textsanitize strips HTML and control characters from
// human-rendered text derived from agent-supplied content (notification
// previews, system messages) before it is persisted or displayed.
package textsanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// Preview strips any HTML markup from s, decodes entities, removes
// control characters, and truncates to maxRunes.
func Preview(s string, maxRunes int) string {
	s = htmlPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	runes := []rune(s)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return strings.TrimSpace(string(runes))
}
