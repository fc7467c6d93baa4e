package fuzzy

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// NormalizeRole lowercases a job title, drops bracket characters and other
// punctuation (keeping the words inside them) and collapses whitespace.
// "+" and "#" survive so titles like "C++ Developer" keep their meaning.
func NormalizeRole(role string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(role) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return normalizeString(b.String())
}

// NormalizeCompany lowercases and collapses whitespace.
func NormalizeCompany(company string) string {
	return normalizeString(company)
}

// ContainsEither reports whether either string contains the other.
// Empty strings never match.
func ContainsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Ratio returns the matching-block similarity of a and b in [0, 1]:
// 2*M/T where M is the number of matched characters and T the total length.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

// Helper functions

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// normalizeString converts to lowercase and handles unicode
func normalizeString(s string) string {
	s = strings.ToLower(s)
	// Remove extra whitespace
	s = strings.Join(strings.Fields(s), " ")
	return s
}
