// Package hotels resolves free-text hotel names to partner hotel ids.
package hotels

import (
	"strings"
	"unicode"
)

// noiseWords are dropped from names before comparing them.
var noiseWords = []string{
	"hotel", "resort", "spa", "suites", "inn", "palace",
	"beach", "club", "otel", "the", "and", "&",
}

// Normalize lowercases name, turns punctuation into spaces, drops noise
// tokens and collapses whitespace. Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	return normalizeWith(name, noiseWords)
}

func normalizeWith(name string, noise []string) string {
	tokens := tokenize(name)
	for _, w := range noise {
		tokens = dropToken(tokens, w)
	}
	return strings.Join(tokens, " ")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func dropToken(tokens []string, w string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		if t != w {
			out = append(out, t)
		}
	}
	return out
}
