package ingest

import (
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Lemmatizer maps tokens to their base forms and stems free text.
type Lemmatizer interface {
	Lemmatize(tok TaggedToken) string
	StemText(text string) string
}

// PorterLemmatizer lemmatizes nouns by stripping regular plurals and stems
// text with the Porter algorithm.
type PorterLemmatizer struct{}

// NewPorterLemmatizer creates the default lemmatizer.
func NewPorterLemmatizer() *PorterLemmatizer {
	return &PorterLemmatizer{}
}

// Lemmatize returns the singular form of plural nouns and the lowercased
// text of every other token.
func (PorterLemmatizer) Lemmatize(tok TaggedToken) string {
	w := strings.ToLower(tok.Text)
	if tok.Tag != TagNoun {
		return w
	}
	return singular(w)
}

func singular(w string) string {
	switch {
	case len(w) <= 3:
		return w
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "xes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

// StemText stems every word of text and joins them with single spaces.
func (PorterLemmatizer) StemText(text string) string {
	words := Words(text)
	for i, w := range words {
		words[i] = Stem(w)
	}
	return strings.Join(words, " ")
}

// Stem returns the Porter stem of a single word.
func Stem(word string) string {
	return porterstemmer.StemString(word)
}
