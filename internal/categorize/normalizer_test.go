package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t\n  ", ""},
		{"punctuation only", "!!! ... ???", ""},
		{"lowercases", "UBER", "uber"},
		{"strips punctuation", "uber*trip #42", "uber trip 42"},
		{"collapses whitespace", "uber   trip", "uber trip"},
		{"stems plurals", "payments", "payment"},
		{"stems gerunds", "running", "run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"UBER *TRIP  HELP.UBER.COM",
		"Monthly payments for gym membership",
		"STARBUCKS STORE #1234",
		// "coffee" needs more than one stemmer pass to reach a stable form.
		"coffee",
		"Coffee House latte",
	}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input %q", input)
	}
}

func TestTokenize(t *testing.T) {
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("  !!!  "))
	assert.Equal(t, []string{"uber", "trip"}, Tokenize("Uber *TRIP*"))
}
