// Package identifier canonicalizes free-form external identifier strings into
// a (category, value) pair. Normalization is pure: apart from empty input it
// never fails, resolving ambiguity to a generic category instead.
package identifier

import (
	"errors"
	"regexp"
	"strings"
)

// Category classifies an external identifier scheme.
type Category string

const (
	CategoryDOI     Category = "doi"
	CategoryORCID   Category = "orcid"
	CategoryROR     Category = "ror"
	CategoryARK     Category = "ark"
	CategoryURL     Category = "url"
	CategoryFundref Category = "fundref"
	CategoryISSN    Category = "issn"
	CategoryOther   Category = "other"
)

// ErrInvalidIdentifier indicates empty input; any non-empty string normalizes.
var ErrInvalidIdentifier = errors.New("identifier: empty value")

var urlPrefixes = []struct {
	prefix   string
	category Category
}{
	{"https://doi.org/", CategoryDOI},
	{"http://doi.org/", CategoryDOI},
	{"https://dx.doi.org/", CategoryDOI},
	{"http://dx.doi.org/", CategoryDOI},
	{"https://orcid.org/", CategoryORCID},
	{"http://orcid.org/", CategoryORCID},
	{"https://ror.org/", CategoryROR},
	{"http://ror.org/", CategoryROR},
	{"https://api.crossref.org/funders/", CategoryFundref},
	{"http://dx.doi.org/10.13039/", CategoryFundref},
}

var (
	orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)
	doiPattern   = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	rorPattern   = regexp.MustCompile(`^0[a-z0-9]{6}[0-9]{2}$`)
	issnPattern  = regexp.MustCompile(`^\d{4}-\d{3}[\dX]$`)
)

// Normalize returns the best-guess category for raw along with its canonical
// value. URL prefixes of known schemes are stripped; bare values are matched
// against scheme-specific shapes; anything else falls back to url or other.
func Normalize(raw string) (Category, string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", "", ErrInvalidIdentifier
	}

	lower := strings.ToLower(value)
	for _, p := range urlPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.category, value[len(p.prefix):], nil
		}
	}

	if strings.HasPrefix(lower, "ark:") {
		return CategoryARK, value, nil
	}

	switch {
	case orcidPattern.MatchString(value):
		return CategoryORCID, value, nil
	case doiPattern.MatchString(value):
		return CategoryDOI, value, nil
	case rorPattern.MatchString(lower):
		return CategoryROR, lower, nil
	case issnPattern.MatchString(strings.ToUpper(value)):
		return CategoryISSN, strings.ToUpper(value), nil
	}

	if strings.HasPrefix(lower, "http") {
		return CategoryURL, value, nil
	}
	return CategoryOther, value, nil
}
