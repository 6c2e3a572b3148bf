package correct

import (
	"context"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/metric"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// PropagationConfig configures a PropagationStrategy.
type PropagationConfig struct {
	// WholeGraph makes every node's rank the activation of the update.
	// Otherwise a node with a keyphrase uses the keyphrase score.
	WholeGraph bool
	// Denormalize scales each update by the total weight incident to the
	// source node. It only applies together with WholeGraph.
	Denormalize bool
	Propagate   graph.PropagateOptions
	Composer    *metric.Composer
}

// PropagationStrategy corrects a TextRank graph.
//
//	d(j) = T(j) - A(j)                           when j has an expected score
//	d(j) = damping * Σ_k d(k) * w(k,j)/Σ w(k,·)  otherwise
//	Δw(i,j) = lr * d(j) * damping * A(i)
type PropagationStrategy struct {
	g          *graph.Graph
	keyphrases []*phrase.Keyphrase
	byNode     map[int]*phrase.Keyphrase
	cfg        PropagationConfig
	nodes      []int
}

// NewPropagationStrategy creates a strategy over g. keyphrases must refer
// to nodes of g.
func NewPropagationStrategy(g *graph.Graph, keyphrases []*phrase.Keyphrase, cfg PropagationConfig) *PropagationStrategy {
	if cfg.Propagate.Damping <= 0 {
		cfg.Propagate.Damping = graph.DefaultDamping
	}
	if cfg.Composer == nil {
		cfg.Composer = metric.NewComposer(metric.Options{})
	}
	byNode := make(map[int]*phrase.Keyphrase, len(keyphrases))
	for _, k := range keyphrases {
		if k.Node >= 0 {
			byNode[k.Node] = k
		}
	}
	nodes := make([]int, g.Len())
	for i := range nodes {
		nodes[i] = i
	}
	return &PropagationStrategy{g: g, keyphrases: keyphrases, byNode: byNode, cfg: cfg, nodes: nodes}
}

func (s *PropagationStrategy) Graph() *graph.Graph {
	return s.g
}

func (s *PropagationStrategy) Keyphrases() []*phrase.Keyphrase {
	return s.keyphrases
}

func (s *PropagationStrategy) Nodes() []int {
	return s.nodes
}

func (s *PropagationStrategy) MaxIterations() int {
	return s.g.Len()
}

func (s *PropagationStrategy) activation(i int) float64 {
	if !s.cfg.WholeGraph {
		if k, ok := s.byNode[i]; ok {
			return k.Score
		}
	}
	return s.g.Node(i).Rank
}

// Differential implements Strategy.
func (s *PropagationStrategy) Differential(i int) float64 {
	n := s.g.Node(i)
	if n.HasExpected() {
		return n.ExpectedScore - s.activation(i)
	}
	sum := 0.0
	for _, k := range s.g.Neighbors(i) {
		total := s.g.TotalWeight(k)
		if total == 0 {
			continue
		}
		w, _ := s.g.Weight(k, i)
		sum += s.g.Node(k).D * w / total
	}
	return s.cfg.Propagate.Damping * sum
}

// Proposals implements Strategy.
func (s *PropagationStrategy) Proposals(learningRate float64) []Proposal {
	damping := s.cfg.Propagate.Damping
	var out []Proposal
	for _, i := range s.nodes {
		scale := 1.0
		if s.cfg.Denormalize && s.cfg.WholeGraph {
			scale = s.g.TotalWeight(i)
		}
		a := s.activation(i)
		for _, j := range s.g.Neighbors(i) {
			w, _ := s.g.Weight(i, j)
			delta := learningRate * s.g.Node(j).D * damping * a * scale
			out = append(out, Proposal{From: i, To: j, Weight: w + delta})
		}
	}
	return out
}

// Apply reruns propagation on the updated weights.
func (s *PropagationStrategy) Apply(ctx context.Context) error {
	s.g.Propagate(s.cfg.Propagate)
	return nil
}

// Rescore recomputes the metric vectors. Keyphrases of n-gram nodes take
// the metric as final score; in keyphrase mode it also becomes the score.
// In whole-graph mode every keyphrase's score is its node's rank.
func (s *PropagationStrategy) Rescore() {
	for _, v := range s.cfg.Composer.Compose(s.g) {
		k, ok := s.byNode[v.Index]
		if !ok {
			continue
		}
		k.SetFinalScore(v.Metric)
		if !s.cfg.WholeGraph {
			k.SetScore(v.Metric)
		}
	}
	if s.cfg.WholeGraph {
		for _, k := range s.keyphrases {
			if k.Node >= 0 {
				k.SetScore(s.g.Node(k.Node).Rank)
			}
		}
	}
}

// Revert implements Strategy.
func (s *PropagationStrategy) Revert() {
	revertKeyed(s.g, s.keyphrases, s.nodes)
}
