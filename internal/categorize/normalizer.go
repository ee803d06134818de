package categorize

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
)

var (
	nonWordRE    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, replaces punctuation with spaces, collapses
// whitespace, and stems each token so that morphological variants collapse
// to one root form. It is a total function: empty or unparseable input
// yields "" and normalized output normalizes to itself.
func Normalize(text string) string {
	cleaned := strings.ToLower(text)
	cleaned = nonWordRE.ReplaceAllString(cleaned, " ")
	cleaned = whitespaceRE.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}

	tokens := strings.Fields(cleaned)
	for i, tok := range tokens {
		tokens[i] = stemToFixpoint(tok)
	}
	return strings.Join(tokens, " ")
}

// stemToFixpoint stems a token until it stops changing. A single stemmer
// pass is not always stable ("coffee" stems to "coffe", which stems to
// "coff"), and Normalize must return output it maps to itself.
func stemToFixpoint(tok string) string {
	for i := 0; i < 5; i++ {
		stemmed, err := snowball.Stem(tok, "english", false)
		if err != nil || stemmed == "" || stemmed == tok {
			break
		}
		tok = stemmed
	}
	return tok
}

// Tokenize returns the normalized token sequence for text.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
