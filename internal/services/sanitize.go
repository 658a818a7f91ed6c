package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/foxxcyber/nutrilog/internal/models"
)

var (
	nonNumeric    = regexp.MustCompile(`[^\d,.\-]`)
	numericPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// parseLoose reads a number out of free text such as "25,5 g" or "<0.5 g".
// The bool is false when no number could be read.
func parseLoose(raw string) (float64, bool) {
	if strings.Contains(raw, "<") {
		return 0, true
	}

	cleaned := nonNumeric.ReplaceAllString(raw, "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SanitizeOrZero parses a required numeric field. Anything unreadable is 0.
func SanitizeOrZero(raw string) float64 {
	v, _ := parseLoose(raw)
	return v
}

// SanitizeOrNil parses an optional hint. Anything unreadable is nil so it
// never reaches a calorie sum as a fake zero.
func SanitizeOrNil(raw string) *float64 {
	v, ok := parseLoose(raw)
	if !ok {
		return nil
	}
	return &v
}

// OptionalNumber sanitizes an upstream field that may be absent
func OptionalNumber(n models.LooseNumber) *float64 {
	if !n.IsSet() {
		return nil
	}
	return SanitizeOrNil(n.Raw())
}

// RequiredNumber sanitizes an upstream field that defaults to zero
func RequiredNumber(n models.LooseNumber) float64 {
	if !n.IsSet() {
		return 0
	}
	return SanitizeOrZero(n.Raw())
}
