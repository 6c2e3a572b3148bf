package ingest

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase word tokens, leaving out stop
// words, single characters and numbers.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize splits text into normalized tokens, removing stopwords,
// single characters and pure numbers.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	for _, w := range Words(text) {
		if word := t.processToken(w); word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func (t *Tokenizer) processToken(word string) string {
	if len(word) <= 1 || isNumericOnly(word) {
		return ""
	}
	if t.IsStopword(word) {
		return ""
	}
	return word
}

// IsStopword reports whether word is on the stopword list.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[strings.ToLower(word)]
	return ok
}

// Words splits text into lowercase words without any filtering. Letters,
// digits and inner hyphens or apostrophes are kept together.
func Words(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if w := cleanToken(current.String()); w != "" {
			words = append(words, w)
		}
		current.Reset()
	}

	for _, r := range text {
		if IsWordRune(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return words
}

// IsWordRune reports whether r can be part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '\''
}

// cleanToken strips leading/trailing hyphens and apostrophes and collapses
// repeated hyphens.
func cleanToken(token string) string {
	token = strings.Trim(token, "-'")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// HasLetter reports whether s contains at least one letter.
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
