// Package tokenizer provides text normalisation, keyword extraction, and
// character n-gram shingling for the search engine. Normalisation keeps word
// characters, whitespace, and Hangul (jamo and syllables) so Korean field
// values survive intact while punctuation and symbols are stripped.
package tokenizer

import (
	"strings"
	"unicode"
)

// DefaultNGramSize is the shingle length used for fuzzy matching.
const DefaultNGramSize = 3

// Normalize trims the input, collapses internal whitespace runs to a single
// space, and removes every rune that is not a word character, whitespace, or
// Hangul.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Keywords lower-cases text, splits it on whitespace and punctuation (any
// rune normalisation would strip), and returns the distinct tokens in
// encounter order. Tokens shorter than two runes and purely numeric tokens
// are dropped.
func Keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
	keywords := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if isNumeric(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}

// NGrams returns the distinct length-n rune shingles of the lower-cased,
// normalised, whitespace-stripped text, in encounter order. Text shorter
// than n runes yields no shingles.
func NGrams(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(Normalize(text)))
	runes := []rune(stripped)
	if len(runes) < n {
		return nil
	}
	grams := make([]string, 0, len(runes)-n+1)
	seen := make(map[string]struct{}, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		gram := string(runes[i : i+n])
		if _, dup := seen[gram]; dup {
			continue
		}
		seen[gram] = struct{}{}
		grams = append(grams, gram)
	}
	return grams
}

// isWordRune reports whether r is a word character in the \w sense
// (ASCII letter, digit, underscore) or Hangul.
func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return isHangul(r)
}

// isHangul reports whether r falls in the Hangul jamo, compatibility jamo,
// or syllable blocks.
func isHangul(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x11FF: // jamo
		return true
	case r >= 0x3130 && r <= 0x318F: // compatibility jamo
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // syllables
		return true
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
