package features

import (
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/rankup/pkg/rankup/corpus"
)

// DefaultCacheSize bounds the number of cached bundles.
const DefaultCacheSize = 4096

// Stemmer reduces text to its stemmed form.
type Stemmer interface {
	StemText(text string) string
}

// Document is the text a phrase is scored against.
type Document struct {
	ID      string
	Text    string
	Stemmed string
}

// Calculator computes feature bundles against a training corpus and caches
// them per document and phrase.
type Calculator struct {
	docs    []corpus.Doc
	stemmer Stemmer
	cache   *lru.Cache[string, Bundle]
}

// NewCalculator creates a calculator over docs. A non-positive cacheSize
// selects DefaultCacheSize.
func NewCalculator(docs []corpus.Doc, stemmer Stemmer, cacheSize int) (*Calculator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Bundle](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Calculator{docs: docs, stemmer: stemmer, cache: cache}, nil
}

// CorpusSize returns the number of training documents.
func (c *Calculator) CorpusSize() int {
	return len(c.docs)
}

// Compute returns the bundle for phrase in doc. rake holds the RAKE keyword
// scores of the document, or nil when RAKE was not run.
func (c *Calculator) Compute(doc Document, phrase string, rake map[string]float64) Bundle {
	key := doc.ID + "\x00" + phrase
	if b, ok := c.cache.Get(key); ok {
		return b
	}

	stemmed := phrase
	if c.stemmer != nil {
		if s := c.stemmer.StemText(phrase); s != "" {
			stemmed = s
		}
	}
	stemmedDoc := doc.Stemmed
	if stemmedDoc == "" {
		stemmedDoc = doc.Text
	}

	freq := CountOccurrences(stemmed, stemmedDoc)
	correction := 0
	if freq == 0 {
		correction = 1
	}
	size := len(strings.Fields(doc.Text))
	if size == 0 {
		size = 1
	}
	tf := float64(freq+correction) / float64(size)
	idf := IDF(stemmed, c.docs, doc.ID)
	pidf := PIDF(stemmed, c.docs)

	b := Bundle{
		StemmedPhrase:    stemmed,
		Frequency:        freq,
		WordCount:        len(strings.Fields(phrase)),
		RelativePosition: Position(stemmed, stemmedDoc),
		TF:               tf,
		IDF:              idf,
		PIDF:             pidf,
		TFIDF:            tf * idf,
		RIDF:             math.Abs(idf - pidf),
		Clusteredness:    clusteredness(stemmed, c.docs),
		RAKE:             RAKEScore(phrase, rake),
	}
	c.cache.Add(key, b)
	return b
}

// Forget drops every cached bundle of the document.
func (c *Calculator) Forget(docID string) {
	prefix := docID + "\x00"
	for _, k := range c.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Remove(k)
		}
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
