// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"
)

// Tokenizer splits raw source text into candidate keywords. Tokens are
// maximal runs of letters, digits, and underscores, lowercased; short
// tokens, pure numerals, and denylisted words are dropped.
type Tokenizer struct {
	minLength int
	denylist  map[string]bool
}

// NewTokenizer builds a tokenizer. A minLength of 0 or less keeps all
// token lengths.
func NewTokenizer(minLength int, denylist []string) *Tokenizer {
	deny := make(map[string]bool, len(denylist))
	for _, word := range denylist {
		deny[strings.ToLower(word)] = true
	}
	return &Tokenizer{minLength: minLength, denylist: deny}
}

// Tokenize returns the surviving tokens of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if t.keep(token) {
			tokens = append(tokens, token)
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func (t *Tokenizer) keep(token string) bool {
	if len([]rune(token)) < t.minLength {
		return false
	}
	if t.denylist[token] {
		return false
	}
	return !isNumeric(token)
}

// isNumeric reports whether the token is digits only. Identifiers with
// a numeric suffix survive.
func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
