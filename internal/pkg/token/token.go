// Package token normalizes free text into search tokens and character
// n-grams for the index.
package token

import (
	"regexp"
	"strings"
)

// DefaultNGramSize is the shingle length used by the fuzzy index.
const DefaultNGramSize = 3

// nonToken matches every character that is not a word character,
// whitespace, '@', '.', or '-'. Keeping those three preserves the shape
// of email addresses through tokenization.
var nonToken = regexp.MustCompile(`[^\w\s@.-]+`)

// Tokenize splits text into lowercase tokens, dropping single-character
// tokens and stop words. Empty input yields an empty result.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := nonToken.ReplaceAllString(strings.ToLower(text), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 {
			continue
		}
		if stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Dedup returns the tokens with duplicates removed, preserving first
// occurrence order.
func Dedup(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// NGrams slides a window of length n across the lowercased,
// whitespace-stripped text and returns every contiguous substring of
// length n. Text shorter than n yields no grams; there is no padding.
func NGrams(text string, n int) []string {
	if n <= 0 {
		n = DefaultNGramSize
	}

	cleaned := strings.Join(strings.Fields(strings.ToLower(text)), "")
	if len(cleaned) < n {
		return nil
	}

	grams := make([]string, 0, len(cleaned)-n+1)
	for i := 0; i+n <= len(cleaned); i++ {
		grams = append(grams, cleaned[i:i+n])
	}
	return grams
}
