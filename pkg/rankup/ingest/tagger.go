package ingest

import (
	"strings"
	"unicode"
)

// Tag is a coarse part-of-speech label.
type Tag string

const (
	TagNoun      Tag = "NN"
	TagAdjective Tag = "JJ"
	TagVerb      Tag = "VB"
	TagAdverb    Tag = "RB"
	TagNumber    Tag = "CD"
	TagFunction  Tag = "FW"
	TagPunct     Tag = "PUNCT"
)

// TaggedToken is a word with its tag and the sentence it belongs to.
type TaggedToken struct {
	Text     string
	Tag      Tag
	Sentence int
}

// IsNoun reports whether the token is tagged as a noun.
func (t TaggedToken) IsNoun() bool { return t.Tag == TagNoun }

// IsAdjective reports whether the token is tagged as an adjective.
func (t TaggedToken) IsAdjective() bool { return t.Tag == TagAdjective }

// Tagger assigns part-of-speech tags.
type Tagger interface {
	Tag(text string) ([]TaggedToken, error)
	SplitSentences(text string) []string
}

// HeuristicTagger tags by closed word classes and suffixes. Anything not
// otherwise recognised is a noun.
type HeuristicTagger struct {
	function map[string]struct{}
}

// NewHeuristicTagger creates a tagger. Extra function words are added to
// the built-in closed classes.
func NewHeuristicTagger(extraFunctionWords ...string) *HeuristicTagger {
	fw := make(map[string]struct{}, len(functionWords)+len(extraFunctionWords))
	for _, w := range functionWords {
		fw[w] = struct{}{}
	}
	for _, w := range extraFunctionWords {
		fw[strings.ToLower(w)] = struct{}{}
	}
	return &HeuristicTagger{function: fw}
}

// SplitSentences implements Tagger.
func (h *HeuristicTagger) SplitSentences(text string) []string {
	return SplitSentences(text)
}

// Tag implements Tagger. Punctuation inside a sentence is emitted as a
// TagPunct token so that callers can break adjacency on it.
func (h *HeuristicTagger) Tag(text string) ([]TaggedToken, error) {
	var out []TaggedToken
	for si, sentence := range SplitSentences(text) {
		var current strings.Builder
		flush := func() {
			if current.Len() == 0 {
				return
			}
			if w := cleanToken(current.String()); w != "" {
				out = append(out, TaggedToken{Text: w, Tag: h.tagWord(w), Sentence: si})
			}
			current.Reset()
		}
		for _, r := range sentence {
			switch {
			case IsWordRune(r):
				current.WriteRune(unicode.ToLower(r))
			case unicode.IsSpace(r):
				flush()
			default:
				flush()
				out = append(out, TaggedToken{Text: string(r), Tag: TagPunct, Sentence: si})
			}
		}
		flush()
	}
	return out, nil
}

func (h *HeuristicTagger) tagWord(w string) Tag {
	if _, ok := h.function[w]; ok {
		return TagFunction
	}
	if isNumericOnly(w) {
		return TagNumber
	}
	if !HasLetter(w) {
		return TagPunct
	}
	if strings.HasSuffix(w, "ly") && len(w) > 4 {
		return TagAdverb
	}
	for _, s := range adjectiveSuffixes {
		if strings.HasSuffix(w, s) && len(w) > len(s)+2 {
			return TagAdjective
		}
	}
	for _, s := range verbSuffixes {
		if strings.HasSuffix(w, s) && len(w) > len(s)+3 {
			return TagVerb
		}
	}
	return TagNoun
}

var adjectiveSuffixes = []string{
	"able", "ible", "al", "ful", "ous", "ive", "ic", "less", "ish", "ary",
}

var verbSuffixes = []string{"ize", "ise", "ify", "ed"}

var functionWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and",
	"any", "are", "as", "at", "be", "been", "before", "being", "below", "between", "both",
	"but", "by", "can", "could", "did", "do", "does", "doing", "down", "during", "each",
	"either", "few", "for", "from", "further", "had", "has", "have", "having", "he", "her",
	"here", "hers", "him", "his", "how", "however", "i", "if", "in", "into", "is", "it",
	"its", "itself", "just", "may", "me", "might", "more", "most", "must", "my", "neither",
	"no", "nor", "not", "of", "off", "on", "once", "only", "or", "other", "our", "ours",
	"out", "over", "own", "same", "shall", "she", "should", "so", "some", "such", "than",
	"that", "the", "their", "theirs", "them", "then", "there", "these", "they", "this",
	"those", "through", "thus", "to", "too", "under", "until", "up", "upon", "very", "was",
	"we", "were", "what", "when", "where", "whether", "which", "while", "who", "whom",
	"why", "will", "with", "within", "without", "would", "yet", "you", "your", "yours",
	"via", "using", "used", "use", "based", "new", "show", "shows", "shown", "propose",
	"proposed", "present", "presents", "describe", "describes", "make", "makes", "made",
}
