package textnorm

import (
	"regexp"
	"strings"
)

// One character-class rule serves both ingestion payloads and the random
// sampler's quality check, so the two never disagree on what a word is.
// \p{L} spans non-Latin scripts including the CJK ideograph block.
var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize reduces text to a canonical lower-case form: punctuation and
// symbols become spaces, whitespace runs collapse to one space, the
// result is trimmed. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// WordCount returns the number of word tokens after normalization.
func WordCount(s string) int {
	n := Normalize(s)
	if n == "" {
		return 0
	}
	return len(strings.Split(n, " "))
}

// ValidateQuality checks whether text clears the minimum word count.
// The pre-normalized form is preferred when available. Returns the
// verdict and the counted words.
func ValidateQuality(text, normalized string, minWords int) (bool, int) {
	target := normalized
	if target == "" {
		target = text
	}
	count := WordCount(target)
	return count >= minWords, count
}
