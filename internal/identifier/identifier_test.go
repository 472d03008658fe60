package identifier

import "testing"

func TestNormalizeKnownPrefixes(t *testing.T) {
	cases := []struct {
		in       string
		category Category
		value    string
	}{
		{"https://doi.org/10.1234/abc", CategoryDOI, "10.1234/abc"},
		{"http://dx.doi.org/10.1234/abc", CategoryDOI, "10.1234/abc"},
		{"https://orcid.org/0000-0002-1825-0097", CategoryORCID, "0000-0002-1825-0097"},
		{"https://ror.org/03yrm5c26", CategoryROR, "03yrm5c26"},
	}
	for _, tc := range cases {
		cat, value, err := Normalize(tc.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.in, err)
		}
		if cat != tc.category || value != tc.value {
			t.Fatalf("Normalize(%q) = (%s, %q), want (%s, %q)", tc.in, cat, value, tc.category, tc.value)
		}
	}
}

func TestNormalizeBareValues(t *testing.T) {
	cases := []struct {
		in       string
		category Category
	}{
		{"0000-0002-1825-0097", CategoryORCID},
		{"10.1234/zenodo.5678", CategoryDOI},
		{"03yrm5c26", CategoryROR},
		{"ark:/13030/tf5p30086k", CategoryARK},
		{"2049-3630", CategoryISSN},
	}
	for _, tc := range cases {
		cat, _, err := Normalize(tc.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.in, err)
		}
		if cat != tc.category {
			t.Fatalf("Normalize(%q) category = %s, want %s", tc.in, cat, tc.category)
		}
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	cat, value, err := Normalize("https://example.edu/research")
	if err != nil {
		t.Fatal(err)
	}
	if cat != CategoryURL || value != "https://example.edu/research" {
		t.Fatalf("unexpected url fallback: (%s, %q)", cat, value)
	}

	cat, _, err = Normalize("some free text")
	if err != nil {
		t.Fatal(err)
	}
	if cat != CategoryOther {
		t.Fatalf("expected other, got %s", cat)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if _, _, err := Normalize("   "); err != ErrInvalidIdentifier {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}
