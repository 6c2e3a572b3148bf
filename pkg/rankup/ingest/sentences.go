package ingest

import (
	"strings"
	"unicode"
)

// abbreviations never end a sentence.
var abbreviations = map[string]bool{
	"e.g": true, "i.e": true, "etc": true, "al": true, "vs": true, "cf": true,
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true, "fig": true,
	"eq": true, "no": true, "vol": true, "approx": true,
}

// SplitSentences breaks text at '.', '!' and '?' followed by whitespace or
// the end of the text. Abbreviations and single-letter initials do not end
// a sentence. Empty sentences are dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	emit := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}
		emit(i + 1)
	}
	emit(len(runes))
	return sentences
}

func isAbbreviation(before []rune) bool {
	end := len(before)
	i := end
	for i > 0 && !unicode.IsSpace(before[i-1]) {
		i--
	}
	word := strings.ToLower(strings.TrimLeft(string(before[i:end]), "(\"'"))
	if word == "" {
		return false
	}
	if abbreviations[word] {
		return true
	}
	w := []rune(word)
	return len(w) == 1 && unicode.IsLetter(w[0])
}
