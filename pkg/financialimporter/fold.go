package financialimporter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases s and strips accents so "Électricité" matches "ELECTRICITE".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// containsFold reports whether needle appears in haystack, ignoring case and accents.
// A blank needle never matches.
func containsFold(haystack, needle string) bool {
	needle = fold(needle)
	if strings.TrimSpace(needle) == "" {
		return false
	}
	return strings.Contains(fold(haystack), needle)
}

// words folds s and splits it on anything that is not a letter or a digit.
func words(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchesKeyword reports whether keyword appears in description starting on a word
// boundary, ignoring case, accents and punctuation. A keyword with trailing
// whitespace must also end on a word boundary: "SCI " matches "PRLV SCI DU PORT"
// but not "SCIERIE", and "COTIS" matches "COTISATION".
func matchesKeyword(description, keyword string) bool {
	kw := words(keyword)
	if len(kw) == 0 {
		return false
	}

	needle := " " + strings.Join(kw, " ")
	if strings.TrimRightFunc(keyword, unicode.IsSpace) != keyword {
		needle += " "
	}
	return strings.Contains(" "+strings.Join(words(description), " ")+" ", needle)
}
