package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// trigramSet extracts trigrams the way pg_trgm does: the text is split into
// words of letters and digits, each word is padded with two spaces in front
// and one behind, and every three-rune window of the padded word is a trigram.
type trigramSet map[string]struct{}

func newTrigramSet(s string) trigramSet {
	set := make(trigramSet)

	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, word := range words {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}

	return set
}

// similarity is the Jaccard index of two trigram sets
func (a trigramSet) similarity(b trigramSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(a)+len(b)-shared)
}

// TrigramSimilarity scores two strings in [0,1] like pg_trgm's similarity()
func TrigramSimilarity(a, b string) float64 {
	return newTrigramSet(a).similarity(newTrigramSet(b))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// containsWholeWord reports whether needle occurs in haystack with no word
// character directly before or after it.
func containsWholeWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}

	offset := 0
	for {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(needle)

		before, _ := utf8.DecodeLastRuneInString(haystack[:start])
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(haystack) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
}
