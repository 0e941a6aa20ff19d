// Package slug provides filename-safe string sanitization for Parley.
package slug

import "strings"

// MaxLen bounds slugs derived from free text such as chat messages.
const MaxLen = 40

// Sanitize converts a string into a safe filename component.
// Lowercases, replaces non-alphanumeric characters with dashes,
// collapses runs of dashes, trims leading/trailing dashes, and cuts the
// result to MaxLen bytes on a dash boundary when possible.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '-'
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if len(s) > MaxLen {
		s = s[:MaxLen]
		if i := strings.LastIndex(s, "-"); i > MaxLen/2 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
