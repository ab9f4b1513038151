// Package textutil holds small string helpers shared by the hober packages.
package textutil

import "unicode/utf8"

// Truncate shortens s to at most n runes for log output, marking the cut
// with "...". It never splits a multi-byte character.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}
