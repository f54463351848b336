// Package utils provides shared utilities for text and logging.
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Truncate returns s truncated to at most maxLen bytes, with "..." appended
// if truncated. The cut backs up to a rune boundary so the result is always
// valid UTF-8. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var slugSpaces = regexp.MustCompile(`\s+`)

// Slug lowercases s and collapses whitespace runs into single dashes, yielding
// a filesystem- and URL-safe identifier.
func Slug(s string) string {
	return slugSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}
