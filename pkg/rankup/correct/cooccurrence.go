package correct

import (
	"context"
	"fmt"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// CooccurrenceModel is a co-occurrence extractor whose word matrix can be
// edited and rescored.
type CooccurrenceModel interface {
	ModifyEdgeWeight(w1, w2 string, weight float64)
	Rerun() (keyphrases, words map[string]float64, err error)
}

// CooccurrenceStrategy corrects a RAKE-style word graph. Only word nodes
// carry differentials:
//
//	d(i) = T(i) - rank(i)       when i has an expected score, else 0
//	Δw(i,j) = lr * d(i) / w(i,i)  for every word neighbour j != i
//
// where w(i,i) is the word's frequency.
type CooccurrenceStrategy struct {
	g        *graph.Graph
	model    CooccurrenceModel
	feedback []*phrase.Keyphrase
	results  []*phrase.Keyphrase
	all      []*phrase.Keyphrase
	words    []int
	keywords []int
}

// NewCooccurrenceStrategy creates a strategy. feedback holds the
// keyphrases of word nodes (the ones classified and given expected
// scores); results holds the keyphrases of keyword nodes.
func NewCooccurrenceStrategy(g *graph.Graph, model CooccurrenceModel, feedback, results []*phrase.Keyphrase) *CooccurrenceStrategy {
	all := make([]*phrase.Keyphrase, 0, len(feedback)+len(results))
	all = append(all, feedback...)
	all = append(all, results...)
	return &CooccurrenceStrategy{
		g:        g,
		model:    model,
		feedback: feedback,
		results:  results,
		all:      all,
		words:    g.OfKind(graph.KindWord),
		keywords: g.OfKind(graph.KindKeyword),
	}
}

func (s *CooccurrenceStrategy) Graph() *graph.Graph {
	return s.g
}

func (s *CooccurrenceStrategy) Keyphrases() []*phrase.Keyphrase {
	return s.all
}

func (s *CooccurrenceStrategy) Nodes() []int {
	return s.words
}

// MaxIterations is ten sweeps per word node.
func (s *CooccurrenceStrategy) MaxIterations() int {
	return 10 * len(s.words)
}

// AlwaysDifferential reports that RAKE runs always compare successive
// statistics.
func (s *CooccurrenceStrategy) AlwaysDifferential() bool {
	return true
}

// Differential implements Strategy.
func (s *CooccurrenceStrategy) Differential(i int) float64 {
	n := s.g.Node(i)
	if !n.HasExpected() {
		return 0
	}
	return n.ExpectedScore - n.Rank
}

// Proposals implements Strategy.
func (s *CooccurrenceStrategy) Proposals(learningRate float64) []Proposal {
	var out []Proposal
	for _, i := range s.words {
		freq, ok := s.g.Weight(i, i)
		if !ok || freq == 0 {
			continue
		}
		delta := learningRate * s.g.Node(i).D / freq
		for _, j := range s.g.Neighbors(i) {
			if j == i || s.g.Node(j).Kind != graph.KindWord {
				continue
			}
			w, _ := s.g.Weight(i, j)
			out = append(out, Proposal{From: i, To: j, Weight: w + delta})
		}
	}
	return out
}

// Apply pushes the word matrix into the model and reruns it.
func (s *CooccurrenceStrategy) Apply(ctx context.Context) error {
	s.push()
	keyphrases, words, err := s.model.Rerun()
	if err != nil {
		return fmt.Errorf("rerun co-occurrence model: %w", err)
	}
	for _, i := range s.words {
		n := s.g.Node(i)
		if r, ok := words[n.Text]; ok {
			n.PreviousRank = n.Rank
			n.Rank = r
		}
	}
	for _, i := range s.keywords {
		n := s.g.Node(i)
		if r, ok := keyphrases[n.Text]; ok {
			n.PreviousRank = n.Rank
			n.Rank = r
		}
	}
	return nil
}

func (s *CooccurrenceStrategy) push() {
	for _, i := range s.words {
		for _, j := range s.g.Neighbors(i) {
			if s.g.Node(j).Kind != graph.KindWord {
				continue
			}
			w, _ := s.g.Weight(i, j)
			s.model.ModifyEdgeWeight(s.g.Node(i).Text, s.g.Node(j).Text, w)
		}
	}
}

// Rescore copies keyword ranks into the result keyphrases and word ranks
// into the feedback keyphrases.
func (s *CooccurrenceStrategy) Rescore() {
	for _, k := range s.results {
		if k.Node < 0 {
			continue
		}
		r := s.g.Node(k.Node).Rank
		k.SetScore(r)
		k.SetFinalScore(r)
	}
	for _, k := range s.feedback {
		if k.Node >= 0 {
			k.SetScore(s.g.Node(k.Node).Rank)
		}
	}
}

// Revert rolls back word and keyword nodes with their keyphrases and
// pushes the restored matrix into the model.
func (s *CooccurrenceStrategy) Revert() {
	nodes := make([]int, 0, len(s.words)+len(s.keywords))
	nodes = append(nodes, s.words...)
	nodes = append(nodes, s.keywords...)
	revertKeyed(s.g, s.all, nodes)
	s.push()
}
