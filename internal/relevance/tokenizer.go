// Package relevance implements the TF-IDF related-posts engine: tokenizing,
// building per-post term vectors and ranking related posts.
package relevance

import (
	"strings"
	"unicode"
)

// stopwords is the closed set of English function words dropped by Tokenize.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "not": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "as": {},
	"by": {}, "at": {}, "from": {}, "into": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {}, "can": {}, "will": {},
	"do": {}, "does": {}, "did": {},
	"that": {}, "this": {}, "it": {}, "its": {},
	"you": {}, "your": {}, "we": {}, "our": {},
	"i": {}, "he": {}, "she": {}, "they": {}, "them": {},
}

// IsStopword reports whether term is dropped by Tokenize.
func IsStopword(term string) bool {
	_, ok := stopwords[term]
	return ok
}

// Tokenize lower-cases text, replaces everything except ASCII letters,
// digits, hyphens and whitespace with spaces and splits on whitespace.
// Tokens of one character or less and stopwords are dropped. Order and
// repetitions are preserved.
func Tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 1 || IsStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
