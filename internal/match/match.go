// Package match scores a search term against candidate organization names.
// The continuous edit-distance score is a tiebreaker; the discrete weight tier
// is the primary signal.
package match

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Weight tiers, strongest first.
const (
	WeightStartsWith = 0
	WeightContains   = 1
	WeightFallback   = 2
)

// Curators append a parenthetical disambiguator to display names, e.g.
// "Foo College (foo.edu)". It is not part of the semantic identity, so every
// comparison strips it first.
var trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// StripParenthetical removes a trailing parenthetical disambiguator.
func StripParenthetical(name string) string {
	return strings.TrimSpace(trailingParen.ReplaceAllString(name, ""))
}

func normalize(name string) string {
	return strings.ToLower(StripParenthetical(name))
}

// Score returns the edit distance between term and candidate after
// normalizing case and stripping disambiguators. Lower is closer.
func Score(term, candidate string) int {
	return levenshtein.ComputeDistance(normalize(term), normalize(candidate))
}

// Weight buckets the relationship between term and candidate: starts-with
// beats contains beats everything else.
func Weight(term, candidate string) int {
	t := normalize(term)
	c := normalize(candidate)
	switch {
	case strings.HasPrefix(c, t):
		return WeightStartsWith
	case strings.Contains(c, t):
		return WeightContains
	default:
		return WeightFallback
	}
}

// ExactMatch reports whether two names are identical once case and
// disambiguators are ignored. Commutative.
func ExactMatch(a, b string) bool {
	return normalize(a) == normalize(b)
}
