// Package rake is a RAKE keyword extractor whose word co-occurrence
// matrix can be edited and rescored, so that the error corrector can tune
// it like any other graph.
package rake

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/rankup/pkg/rankup/internalerr"
)

// StopList decides which words delimit candidate phrases.
type StopList interface {
	IsStop(word string) bool
}

// Model holds the candidate phrases and the co-occurrence matrix of the
// last document passed to Run. matrix[w][w] is the frequency of w and
// matrix[w][v] the number of times w and v shared a phrase. repeats[w]
// counts w meeting itself inside one phrase and adds to its degree only.
//
// A Model is not safe for concurrent use.
type Model struct {
	stops   StopList
	phrases []string
	words   map[string][]string
	matrix  map[string]map[string]float64
	repeats map[string]float64
}

// New creates an empty model.
func New(stops StopList) *Model {
	return &Model{stops: stops}
}

// Run splits text into candidate phrases, builds the co-occurrence matrix
// and scores it.
func (m *Model) Run(text string) (keyphrases, words map[string]float64, err error) {
	m.phrases = nil
	m.words = make(map[string][]string)
	m.matrix = make(map[string]map[string]float64)
	m.repeats = make(map[string]float64)

	for _, p := range m.candidates(text) {
		key := strings.Join(p, " ")
		if _, seen := m.words[key]; !seen {
			m.phrases = append(m.phrases, key)
			m.words[key] = p
		}
		m.count(p)
	}
	if len(m.phrases) == 0 {
		return nil, nil, fmt.Errorf("%w: no candidate phrases", internalerr.ErrEmptyDocument)
	}
	return m.Rerun()
}

func (m *Model) count(p []string) {
	for i, w := range p {
		row := m.row(w)
		row[w]++
		for j, v := range p {
			switch {
			case i == j:
			case v == w:
				m.repeats[w]++
			default:
				row[v]++
			}
		}
	}
}

func (m *Model) row(w string) map[string]float64 {
	r, ok := m.matrix[w]
	if !ok {
		r = make(map[string]float64)
		m.matrix[w] = r
	}
	return r
}

// Rerun scores the current matrix: a word scores its degree (row sum
// plus repeats) over its frequency and a phrase the sum of its word scores.
func (m *Model) Rerun() (keyphrases, words map[string]float64, err error) {
	if m.matrix == nil {
		return nil, nil, fmt.Errorf("%w: rake model has not been run", internalerr.ErrInvalidInput)
	}

	words = make(map[string]float64, len(m.matrix))
	for w, row := range m.matrix {
		freq := row[w]
		if freq == 0 {
			words[w] = 0
			continue
		}
		degree := m.repeats[w]
		for _, c := range row {
			degree += c
		}
		words[w] = degree / freq
	}

	keyphrases = make(map[string]float64, len(m.phrases))
	for _, p := range m.phrases {
		score := 0.0
		for _, w := range m.words[p] {
			score += words[w]
		}
		keyphrases[p] = score
	}
	return keyphrases, words, nil
}

// ModifyEdgeWeight sets the directed co-occurrence entry w1→w2. Unknown
// words are ignored.
func (m *Model) ModifyEdgeWeight(w1, w2 string, weight float64) {
	row, ok := m.matrix[w1]
	if !ok {
		return
	}
	if _, ok := m.matrix[w2]; !ok {
		return
	}
	row[w2] = weight
}

// Weight returns the directed co-occurrence entry w1→w2.
func (m *Model) Weight(w1, w2 string) float64 {
	return m.matrix[w1][w2]
}

// Phrases returns the distinct candidate phrases in order of appearance.
func (m *Model) Phrases() []string {
	return append([]string(nil), m.phrases...)
}

// Words returns the sorted vocabulary of the matrix.
func (m *Model) Words() []string {
	out := make([]string, 0, len(m.matrix))
	for w := range m.matrix {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// PhraseWords returns the words of a candidate phrase.
func (m *Model) PhraseWords(p string) []string {
	return m.words[p]
}

// State is a saved copy of a model's mutable data.
type State struct {
	phrases []string
	words   map[string][]string
	matrix  map[string]map[string]float64
	repeats map[string]float64
}

// Snapshot copies the phrases and matrix.
func (m *Model) Snapshot() State {
	return State{
		phrases: append([]string(nil), m.phrases...),
		words:   copyWords(m.words),
		matrix:  copyMatrix(m.matrix),
		repeats: copyCounts(m.repeats),
	}
}

// Restore replaces the model's data with a copy of s.
func (m *Model) Restore(s State) {
	m.phrases = append([]string(nil), s.phrases...)
	m.words = copyWords(s.words)
	m.matrix = copyMatrix(s.matrix)
	m.repeats = copyCounts(s.repeats)
}

func copyCounts(src map[string]float64) map[string]float64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyWords(src map[string][]string) map[string][]string {
	if src == nil {
		return nil
	}
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
	return dst
}

func copyMatrix(src map[string]map[string]float64) map[string]map[string]float64 {
	if src == nil {
		return nil
	}
	dst := make(map[string]map[string]float64, len(src))
	for w, row := range src {
		r := make(map[string]float64, len(row))
		for v, c := range row {
			r[v] = c
		}
		dst[w] = r
	}
	return dst
}

// candidates splits text at punctuation and stop words. Numbers end a
// phrase as well.
func (m *Model) candidates(text string) [][]string {
	var out [][]string
	var phrase []string
	var word strings.Builder

	endPhrase := func() {
		if len(phrase) > 0 {
			out = append(out, phrase)
			phrase = nil
		}
	}
	endWord := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.Trim(word.String(), "-/+_")
		word.Reset()
		if w == "" || m.isStop(w) || !hasLetter(w) {
			endPhrase()
			return
		}
		phrase = append(phrase, w)
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-/+_", r):
			word.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			endWord()
		default:
			endWord()
			endPhrase()
		}
	}
	endWord()
	endPhrase()
	return out
}

func (m *Model) isStop(w string) bool {
	return m.stops != nil && m.stops.IsStop(w)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
