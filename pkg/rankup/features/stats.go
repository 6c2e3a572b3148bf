package features

import (
	"math"
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/corpus"
)

// CountOccurrences counts non-overlapping, case-insensitive occurrences of
// phrase in text.
func CountOccurrences(phrase, text string) int {
	phrase = strings.ToLower(phrase)
	if phrase == "" {
		return 0
	}
	return strings.Count(strings.ToLower(text), phrase)
}

// Position returns the fraction of text's words that precede the first
// occurrence of phrase, or -1 when phrase does not occur.
func Position(phrase, text string) float64 {
	phrase = strings.ToLower(phrase)
	text = strings.ToLower(text)
	total := len(strings.Fields(text))
	at := strings.Index(text, phrase)
	if phrase == "" || at < 0 || total == 0 {
		return -1
	}
	return float64(len(strings.Fields(text[:at]))) / float64(total)
}

// IDF calculates the inverse document frequency of phrase over the stemmed
// corpus, leaving out the document with id skipID.
//
// IDF(p) = -log2(df(p) / N)
//
// When no document contains the phrase, df is taken as 1 and N grows by 1.
func IDF(phrase string, docs []corpus.Doc, skipID string) float64 {
	phrase = strings.ToLower(phrase)
	n := float64(len(docs))
	df := 0.0
	for _, d := range docs {
		if skipID != "" && d.ID == skipID {
			continue
		}
		if strings.Contains(strings.ToLower(d.Stemmed), phrase) {
			df++
		}
	}
	if df == 0 {
		df = 1
		n++
	}
	return -math.Log2(df / n)
}

// PIDF calculates the IDF a phrase would have under a Poisson model.
//
// PIDF(p) = -log2(1 - e^(-ctf(p)/N))
//
// where ctf is the collection frequency. A phrase absent from the corpus
// counts once against a corpus one document larger.
func PIDF(phrase string, docs []corpus.Doc) float64 {
	n := float64(len(docs))
	ctf := 0
	for _, d := range docs {
		ctf += CountOccurrences(phrase, d.Stemmed)
	}
	if ctf == 0 {
		ctf = 1
		n++
	}
	return -math.Log2(1 - math.Exp(-float64(ctf)/n))
}

// clusteredness is ctf(p) - df(p): how much a phrase repeats inside the
// documents it appears in.
func clusteredness(phrase string, docs []corpus.Doc) float64 {
	ctf, df := 0, 0
	for _, d := range docs {
		f := CountOccurrences(phrase, d.Stemmed)
		ctf += f
		if f > 0 {
			df++
		}
	}
	if ctf == 0 {
		ctf = 1
		df++
	}
	return float64(ctf - df)
}

// RAKEScore looks phrase up in a RAKE keyword map: an exact match first,
// otherwise the first keyword (in sorted order) the phrase contains.
// A nil map yields -1.
func RAKEScore(phrase string, keywords map[string]float64) float64 {
	if keywords == nil {
		return -1
	}
	if s, ok := keywords[phrase]; ok {
		return s
	}
	for _, k := range sortedKeys(keywords) {
		if k != "" && strings.Contains(phrase, k) {
			return keywords[k]
		}
	}
	return 0
}
