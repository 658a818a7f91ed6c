package services

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingQuantity = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// ExtractQuantity splits a leading integer count from a food name.
// "3 appels" gives (3, "appels"). Without a leading number the quantity
// is 1 and the name is returned unchanged; plural words are never read
// as a count.
func ExtractQuantity(name string) (int, string) {
	m := leadingQuantity.FindStringSubmatch(name)
	if m == nil {
		return 1, name
	}

	quantity, err := strconv.Atoi(m[1])
	if err != nil {
		// overflow
		return 1, name
	}

	return quantity, strings.TrimSpace(m[2])
}
