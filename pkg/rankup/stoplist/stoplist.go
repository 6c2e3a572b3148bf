// Package stoplist holds the stop words that delimit RAKE candidates and
// the stop phrases removed from final results.
package stoplist

import (
	"math"
	"sort"
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/ingest"
)

// Manager handles stopword and stop-phrase lookups
type Manager struct {
	stops   map[string]Reason
	phrases map[string]struct{}
}

// Reason explains why a token is a stopword
type Reason struct {
	Builtin bool    // part of the default list
	HighDF  bool    // high document frequency in the training corpus
	IDF     float64 // inverse document frequency when HighDF is set
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Reason, len(initialStops))
	for _, s := range initialStops {
		stops[strings.ToLower(s)] = Reason{}
	}
	return &Manager{stops: stops, phrases: make(map[string]struct{})}
}

// Default returns a manager seeded with the built-in English list.
func Default() *Manager {
	m := NewManager(nil)
	for _, s := range defaultWords {
		m.stops[s] = Reason{Builtin: true}
	}
	return m
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[strings.ToLower(token)]
	return ok
}

// Add adds a token to the stoplist with a reason
func (m *Manager) Add(token string, reason Reason) {
	m.stops[strings.ToLower(token)] = reason
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// Reason returns why token is a stopword.
func (m *Manager) Reason(token string) (Reason, bool) {
	r, ok := m.stops[strings.ToLower(token)]
	return r, ok
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// AddPhrase adds a phrase that must never be reported as a keyphrase.
func (m *Manager) AddPhrase(p string) {
	if p = normalizePhrase(p); p != "" {
		m.phrases[p] = struct{}{}
	}
}

// IsStopPhrase reports whether p is a stop phrase. A single word that is a
// stopword is a stop phrase too.
func (m *Manager) IsStopPhrase(p string) bool {
	p = normalizePhrase(p)
	if _, ok := m.phrases[p]; ok {
		return true
	}
	return !strings.Contains(p, " ") && m.IsStop(p)
}

// Phrases returns all stop phrases, sorted
func (m *Manager) Phrases() []string {
	result := make([]string, 0, len(m.phrases))
	for p := range m.phrases {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

func normalizePhrase(p string) string {
	return strings.Join(strings.Fields(strings.ToLower(p)), " ")
}

// Stats holds statistics for candidate evaluation
type Stats struct {
	Token     string
	DF        int64
	DFPercent float64
	IDF       float64
}

// Candidate represents a candidate stopword
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence score
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent float64 // e.g., 60% - appears in 60% of documents
	MinDocs   int     // corpora smaller than this yield no candidates
}

// DefaultThresholds returns sensible default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{DFPercent: 60.0, MinDocs: 10}
}

// Tokenizer returns a tokenizer that drops the current stop words.
func (m *Manager) Tokenizer() *ingest.Tokenizer {
	return ingest.NewTokenizer(m.All())
}

// CorpusStats counts the document frequency of every token tok finds in
// texts. A nil tok keeps stop words but still drops numbers and single
// characters. The result is sorted by descending DF, ties by token.
func CorpusStats(texts []string, tok *ingest.Tokenizer) []Stats {
	if tok == nil {
		tok = ingest.NewTokenizer(nil)
	}
	df := make(map[string]int64)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, w := range tok.Tokenize(text) {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	n := float64(len(texts))
	out := make([]Stats, 0, len(df))
	for tok, c := range df {
		out = append(out, Stats{
			Token:     tok,
			DF:        c,
			DFPercent: 100 * float64(c) / n,
			IDF:       math.Log(n / float64(c)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DF != out[j].DF {
			return out[i].DF > out[j].DF
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// SuggestCandidates suggests tokens that should be stopwords
func (m *Manager) SuggestCandidates(stats []Stats, thresholds Thresholds, corpusSize int) []Candidate {
	if thresholds.DFPercent == 0 {
		thresholds.DFPercent = DefaultThresholds().DFPercent
	}
	if corpusSize < thresholds.MinDocs {
		return nil
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue // already a stopword
		}
		if s.DFPercent <= thresholds.DFPercent {
			continue
		}
		candidates = append(candidates, Candidate{
			Token:  s.Token,
			Reason: Reason{HighDF: true, IDF: s.IDF},
			Score:  s.DFPercent / 100.0,
		})
	}
	return candidates
}
