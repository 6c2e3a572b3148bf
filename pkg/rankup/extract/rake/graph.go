package rake

import (
	"sort"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// Node key prefixes.
const (
	WordPrefix    = "WORD_"
	KeywordPrefix = "KEYWORD_"
)

// Result mirrors a RAKE run as a graph. Word nodes carry the matrix (self
// loops hold frequencies) and keyword nodes link to their words.
type Result struct {
	Graph *graph.Graph
	// Feedback holds one keyphrase per word node, Results one per
	// candidate phrase.
	Feedback   []*phrase.Keyphrase
	Results    []*phrase.Keyphrase
	Keyphrases map[string]float64
	Words      map[string]float64
	// State is the model right after the run.
	State State
}

// Extract runs the model on text and builds its graph. The graph's
// originals are marked.
func (m *Model) Extract(text string) (*Result, error) {
	keyphrases, words, err := m.Run(text)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	res := &Result{Graph: g, Keyphrases: keyphrases, Words: words, State: m.Snapshot()}

	vocab := m.Words()
	for _, w := range vocab {
		n, _ := g.GetOrCreate(WordPrefix+w, w, graph.KindWord)
		n.Rank = words[w]
		n.PreviousRank = n.Rank
	}
	for _, w := range vocab {
		a, _ := g.Lookup(WordPrefix + w)
		row := m.matrix[w]
		cols := make([]string, 0, len(row))
		for v := range row {
			cols = append(cols, v)
		}
		sort.Strings(cols)
		for _, v := range cols {
			b, _ := g.Lookup(WordPrefix + v)
			if b.Index < a.Index {
				continue
			}
			g.Connect(a.Index, b.Index, row[v])
		}
		res.Feedback = append(res.Feedback, phrase.New(w, a.Key, a.Index, a.Rank, a.Rank))
	}

	for _, p := range m.phrases {
		n, _ := g.GetOrCreate(KeywordPrefix+p, p, graph.KindKeyword)
		n.Rank = keyphrases[p]
		n.PreviousRank = n.Rank
		for _, w := range m.words[p] {
			wn, _ := g.Lookup(WordPrefix + w)
			g.Connect(n.Index, wn.Index, graph.DefaultEdgeWeight)
		}
		res.Results = append(res.Results, phrase.New(p, n.Key, n.Index, n.Rank, n.Rank))
	}

	g.MarkOriginal()
	return res, nil
}
