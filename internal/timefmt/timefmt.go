// Package timefmt provides the hub's canonical timestamp serialization.
package timefmt

import "time"

// ISO8601 is the sortable textual timestamp format used across the store
// and the API: millisecond precision, always UTC.
const ISO8601 = "2006-01-02T15:04:05.000Z"

// Format renders t in the hub's canonical form.
func Format(t time.Time) string {
	return t.UTC().Format(ISO8601)
}

// Parse parses a timestamp previously produced by Format.
func Parse(s string) (time.Time, error) {
	return time.Parse(ISO8601, s)
}
