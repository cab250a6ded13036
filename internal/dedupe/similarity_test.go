package dedupe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/rapport/internal/dedupe"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"jon", "john", 1},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
		{"Zoë", "Zoe", 1},
		{"日本語", "日本", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupe.Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, dedupe.Levenshtein(tt.b, tt.a))
		})
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Jane Smith", "Jane Smith", 1},
		{"case insensitive", "JANE SMITH", "jane smith", 1},
		{"surrounding whitespace", "  Jane Smith ", "Jane Smith", 1},
		{"empty left", "", "Jane", 0},
		{"empty right", "Jane", "", 0},
		{"both empty", "", "", 0},
		{"whitespace only", "   ", "Jane", 0},
		{"one edit over four", "Jon", "John", 0.75},
		{"one edit over ten", "Jane Smith", "Jane Smyth", 0.9},
		{"composed and decomposed", "Ren\u00e9e", "Rene\u0301e", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, dedupe.NameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestJonJohnBelowThreshold(t *testing.T) {
	sim := dedupe.NameSimilarity("Jon", "John")
	assert.Less(t, sim, dedupe.NameThreshold)
	assert.Less(t, sim, dedupe.FirstNameThreshold)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"555-1234", "5551234"},
		{"(555) 123-4567", "5551234567"},
		{"+1 555 123 4567", "15551234567"},
		{"ext.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dedupe.NormalizePhone(tt.in), tt.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "x@y.com", dedupe.NormalizeEmail("  X@Y.com "))
	assert.Equal(t, "", dedupe.NormalizeEmail("   "))
}

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jane@acme.com", "acme.com"},
		{"Jane@ACME.com", "acme.com"},
		{"no-at-sign", ""},
		{"a@b@c.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, dedupe.EmailDomain(tt.in), tt.in)
	}
}
