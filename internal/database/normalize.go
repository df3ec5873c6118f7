package database

import (
	"strings"
	"unicode"
)

// NormalizeTitle converts a title to a normalized form for matching
// "Shingeki no Kyojin!" -> "shingekinokyojin"
// "Re:Zero kara Hajimeru" -> "rezerokarahajimeru"
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)

	var sb strings.Builder
	sb.Grow(len(title))
	for _, r := range title {
		// drop separators and punctuation, keep letters of any script
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
