// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// NormalizeTitle lowercases a title and collapses runs of whitespace to a
// single space. This is the canonical form used for title lookups.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
