package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigramSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "appel", b: "appel", want: 1},
		{name: "plural", a: "appels", b: "appel", want: 5.0 / 8.0},
		{name: "compound", a: "appels", b: "appelmoes", want: 5.0 / 12.0},
		{name: "prefix word", a: "appel", b: "appelmoes", want: 5.0 / 11.0},
		{name: "word inside phrase", a: "boterham", b: "volkoren boterham", want: 0.5},
		{name: "case insensitive", a: "APPEL", b: "appel", want: 1},
		{name: "nothing shared", a: "kaas", b: "thee", want: 0},
		{name: "empty", a: "", b: "appel", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, TrigramSimilarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, TrigramSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestContainsWholeWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{name: "last word", haystack: "volkoren boterham", needle: "boterham", want: true},
		{name: "first word", haystack: "appel groen", needle: "appel", want: true},
		{name: "whole string", haystack: "appel", needle: "appel", want: true},
		{name: "prefix of word", haystack: "appelmoes", needle: "appel", want: false},
		{name: "suffix of word", haystack: "stoofappel", needle: "appel", want: false},
		{name: "second occurrence qualifies", haystack: "appelmoes met appel", needle: "appel", want: true},
		{name: "multi word needle", haystack: "halfvolle melk light", needle: "halfvolle melk", want: true},
		{name: "punctuation boundary", haystack: "m&m's pinda", needle: "pinda", want: true},
		{name: "glued to compound", haystack: "crèmekaas", needle: "kaas", want: false},
		{name: "empty needle", haystack: "appel", needle: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, containsWholeWord(tt.haystack, tt.needle))
		})
	}
}
