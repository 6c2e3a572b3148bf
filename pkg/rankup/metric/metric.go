// Package metric folds the rank, occurrence count and thesaurus relatedness
// of each n-gram node into a single score.
package metric

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/cognicore/rankup/pkg/rankup/graph"
)

// DefaultMaxTokens excludes n-grams of this many tokens or more.
const DefaultMaxTokens = 5

// Weights scale the three signals of a metric vector.
type Weights struct {
	Link   float64
	Count  float64
	Synset float64
}

// DefaultWeights returns the standard 1.0 / 0.5 / 1.5 weighting.
func DefaultWeights() Weights {
	return Weights{Link: 1.0, Count: 0.5, Synset: 1.5}
}

func (w Weights) total() float64 {
	return w.Link + w.Count + w.Synset
}

// Options configures a Composer. Zero values select defaults.
type Options struct {
	Weights   Weights
	MaxTokens int
}

// Vector is the normalized signal set of one n-gram node.
type Vector struct {
	Index  int
	Text   string
	Link   float64
	Count  float64
	Synset float64
	Metric float64
}

// Composer builds metric vectors from a ranked graph.
type Composer struct {
	weights   Weights
	maxTokens int
}

// NewComposer creates a composer.
func NewComposer(opts Options) *Composer {
	if opts.Weights.total() <= 0 {
		opts.Weights = DefaultWeights()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Composer{weights: opts.Weights, maxTokens: opts.MaxTokens}
}

// Eligible reports whether an n-gram with this text gets a metric vector.
func (c *Composer) Eligible(text string) bool {
	return len(strings.Fields(text)) < c.maxTokens
}

// Compose returns one vector per eligible n-gram node, sorted by metric
// descending with ties broken by text.
func (c *Composer) Compose(g *graph.Graph) []Vector {
	var grams []*graph.Node
	for _, i := range g.OfKind(graph.KindNGram) {
		n := g.Node(i)
		if c.Eligible(n.Text) {
			grams = append(grams, n)
		}
	}
	if len(grams) == 0 {
		return nil
	}

	ranks := make([]float64, len(grams))
	maxCount := 0
	for i, n := range grams {
		ranks[i] = n.Rank
		if n.Count > maxCount {
			maxCount = n.Count
		}
	}
	linkMin := floats.Min(ranks)
	linkCoeff := floats.Max(ranks) - linkMin
	countCoeff := float64(maxCount - 1)
	synMin, synCoeff := SynsetRange(g)

	out := make([]Vector, 0, len(grams))
	for _, n := range grams {
		v := Vector{
			Index:  n.Index,
			Text:   n.Text,
			Link:   scale(n.Rank, linkMin, linkCoeff),
			Count:  scale(float64(n.Count), 1, countCoeff),
			Synset: Relatedness(g, n.Index, synMin, synCoeff),
		}
		v.Metric = c.combine(v)
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Metric != out[j].Metric {
			return out[i].Metric > out[j].Metric
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func (c *Composer) combine(v Vector) float64 {
	w := c.weights
	sum := w.Link*v.Link*v.Link + w.Count*v.Count*v.Count + w.Synset*v.Synset*v.Synset
	return math.Sqrt(sum / w.total())
}

func scale(v, min, coeff float64) float64 {
	if coeff <= 0 {
		return 0
	}
	return (v - min) / coeff
}

// SynsetRange returns the minimum rank of the synset nodes and the width
// of their rank range.
func SynsetRange(g *graph.Graph) (min, coeff float64) {
	idx := g.OfKind(graph.KindSynset)
	if len(idx) == 0 {
		return 0, 0
	}
	ranks := make([]float64, len(idx))
	for i, j := range idx {
		ranks[i] = g.Node(j).Rank
	}
	min = floats.Min(ranks)
	return min, floats.Max(ranks) - min
}

// Relatedness is the highest rank among the synset nodes adjacent to node
// i, scaled into [0, 1]. A node with a single edge borrows the value of the
// keyword it wraps.
func Relatedness(g *graph.Graph, i int, min, coeff float64) float64 {
	return maxNeighbor(g, i, min, coeff, make(map[int]bool))
}

func maxNeighbor(g *graph.Graph, i int, min, coeff float64, seen map[int]bool) float64 {
	seen[i] = true
	neighbors := g.Neighbors(i)

	if len(neighbors) > 1 {
		best := 0.0
		for _, j := range neighbors {
			if n := g.Node(j); n.Kind == graph.KindSynset {
				best = math.Max(best, n.Rank)
			}
		}
		if best > 0 {
			return scale(best, min, coeff)
		}
		return 0
	}

	for _, j := range neighbors {
		if g.Node(j).Kind == graph.KindKeyword && !seen[j] {
			return maxNeighbor(g, j, min, coeff, seen)
		}
	}
	return 0
}
