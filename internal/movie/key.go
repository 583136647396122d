package movie

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key derives the persistence key from title and year, e.g. "Inception_2010".
// Accents are folded, punctuation dropped and whitespace collapsed to "_".
// Case is preserved so keys stay readable in logs.
func Key(title string, year int) string {
	s := removeAccents(title)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	key := strings.Join(strings.Fields(b.String()), "_")
	if year > 0 {
		if key == "" {
			return strconv.Itoa(year)
		}
		key += "_" + strconv.Itoa(year)
	}
	return key
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
