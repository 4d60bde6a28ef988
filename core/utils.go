package core

import "strings"

// CleanString strips leading and trailing whitespace; pass true to also lower-case.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}

// CleanEmail normalizes an email address for storage and lookups.
// Addresses are matched case-insensitively everywhere.
func CleanEmail(s string) string {
	return CleanString(s, true)
}
