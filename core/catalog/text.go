package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases v, strips diacritics and collapses whitespace so that
// "Hôtel  Zürich" and "hotel zurich" compare equal.
func Normalize(v string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, v)
	if err != nil {
		s = v
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Terms splits a free text destination into normalized search terms.
func Terms(destination string) []string {
	n := Normalize(destination)
	if n == "" {
		return nil
	}
	return strings.Fields(strings.NewReplacer(",", " ", ";", " ").Replace(n))
}

// BuildSearchText builds the text a destination is matched against.
func (c Company) BuildSearchText() string {
	return Normalize(c.Name + " " + c.Address + " " + c.City)
}

// Matches reports whether the company search text contains every term.
func (c Company) Matches(terms []string) bool {
	text := c.SearchText
	if text == "" {
		text = c.BuildSearchText()
	}
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
