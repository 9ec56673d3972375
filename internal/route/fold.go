package route

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold trims s and applies Unicode case folding. Every case-insensitive
// comparison of codes and typed answers goes through it.
func Fold(s string) string {
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold reports whether a and b are equal under Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
