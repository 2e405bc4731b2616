package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// StreetPortion returns the part of a free-text address before the first
// comma, "42 Elm St, Springfield" -> "42 Elm St".
func StreetPortion(address string) string {
	street, _, _ := strings.Cut(address, ",")
	return strings.TrimSpace(street)
}

// NormalizeAddress upper-cases an address and collapses whitespace and
// punctuation so that "42 Elm St., Warren" and "42  ELM ST, WARREN" compare
// equal.
func NormalizeAddress(address string) string {
	address = strings.ToUpper(address)
	address = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '#':
			return ' '
		}
		return r
	}, address)
	address = whitespaceRegex.ReplaceAllString(address, " ")
	return strings.TrimSpace(address)
}

// AddressSimilarity is the Jaro-Winkler similarity (0-1) of two normalized
// addresses.
func AddressSimilarity(a, b string) float64 {
	a = NormalizeAddress(a)
	b = NormalizeAddress(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return matchr.JaroWinkler(a, b, false)
}
