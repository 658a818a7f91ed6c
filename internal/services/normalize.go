package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var foodNameNoise = strings.NewReplacer("-", "", "(", "", ")", "")

// NormalizeFoodName turns a free-text food name into the form used for
// catalog comparison: lowercased, without "-", "(" and ")", whitespace
// collapsed and trimmed. Composed and decomposed accents normalize alike.
func NormalizeFoodName(name string) string {
	name = strings.ToLower(name)
	name = foodNameNoise.Replace(name)
	name = strings.Join(strings.Fields(name), " ")

	// Composition runs last so removed characters cannot leave a
	// decomposed sequence behind.
	return norm.NFC.String(name)
}
