// Package util holds small string helpers shared by the command parser and
// the host adapters.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg unquotes a raw command argument and trims surrounding whitespace.
func CleanArg(s string) string {
	return strings.TrimSpace(FixEscapeQuotes(TrimQuotes(strings.TrimSpace(s))))
}

// Plural returns word with an "s" appended unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
