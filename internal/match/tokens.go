package match

import (
	"strings"
	"unicode"
)

// stopWords filters common English words that add noise to keyword matching.
var stopWords = map[string]bool{
	"an": true, "as": true, "at": true, "be": true, "by": true,
	"if": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "to": true, "we": true,
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "such": true,
}

// tokenize splits text into a lowercase token set. + # . count as word
// characters so tokens like c++, c# and node.js survive; trailing dots are
// dropped; one-rune tokens and stop words are skipped.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)

	var word strings.Builder
	flush := func() {
		w := word.String()
		word.Reset()
		w = strings.TrimRight(w, ".")
		if len([]rune(w)) >= 2 && !stopWords[w] {
			tokens[w] = true
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
