// Package postprocess removes stop phrases and phrases already covered by
// a better ranked superphrase.
package postprocess

import (
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// StopPhrases reports phrases that must never be returned.
type StopPhrases interface {
	IsStopPhrase(p string) bool
}

// Stemmer stems free text.
type Stemmer interface {
	StemText(text string) string
}

// Filter is the final keyphrase filter.
type Filter struct {
	stops   StopPhrases
	stemmer Stemmer
}

// New creates a filter. Either argument may be nil.
func New(stops StopPhrases, stemmer Stemmer) *Filter {
	return &Filter{stops: stops, stemmer: stemmer}
}

type form struct {
	text    string
	stemmed string
}

// Apply walks list in order and keeps a phrase unless an already kept
// phrase contains it (comparing plain and stemmed forms in every
// combination) or it is a stop phrase. list should be sorted best first.
func (f *Filter) Apply(list []*phrase.Keyphrase) []*phrase.Keyphrase {
	var kept []*phrase.Keyphrase
	var forms []form

	for _, k := range list {
		cur := form{text: normalize(k.Text), stemmed: f.stem(k)}
		if cur.text == "" || f.isStop(k, cur) {
			continue
		}

		covered := false
		for _, sup := range forms {
			if contains(sup.text, cur.text) || contains(sup.text, cur.stemmed) ||
				contains(sup.stemmed, cur.text) || contains(sup.stemmed, cur.stemmed) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		kept = append(kept, k)
		forms = append(forms, cur)
	}
	return kept
}

func (f *Filter) stem(k *phrase.Keyphrase) string {
	if k.Features != nil && k.Features.StemmedPhrase != "" {
		return normalize(k.Features.StemmedPhrase)
	}
	if f.stemmer != nil {
		return normalize(f.stemmer.StemText(k.Text))
	}
	return normalize(k.Text)
}

func (f *Filter) isStop(k *phrase.Keyphrase, cur form) bool {
	if f.stops == nil {
		return false
	}
	if f.stops.IsStopPhrase(k.Text) {
		return true
	}
	return k.Features != nil && f.stops.IsStopPhrase(cur.stemmed)
}

// contains reports whether sub occurs anywhere in s.
func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
