// Package mention extracts @name mentions from free-form message content.
//
// Extraction is pure and has no side effects: it runs before persisting a
// message so that the result can be recorded alongside it (§4.3).
package mention

import "regexp"

// pattern matches "@" followed by one or more word characters, optionally
// extended with "-word" segments: @name, @multi-part-name. Case-sensitive.
var pattern = regexp.MustCompile(`@(\w+(?:-\w+)*)`)

// Parse returns the ordered list of mentioned agent-names in content,
// duplicates preserved, exactly as they were written (without the "@").
func Parse(content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
