// Package correct implements the feedback loop that nudges edge weights
// until keyphrase scores move toward their expected values.
//
// One loop drives every back-end. A Strategy supplies the back-end
// specific parts: how a node's differential is computed, which directed
// weight changes follow from it, and how scores are refreshed once the
// new weights are in place.
package correct

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// State is where a correction run ended.
type State int

const (
	Iterating State = iota
	Converged
	Diverged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Converged:
		return "CONVERGED"
	case Diverged:
		return "DIVERGED"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return "ITERATING"
	}
}

// Scheme folds the differentials of one iteration into a statistic.
type Scheme int

const (
	SchemeMin Scheme = iota
	SchemeMax
	SchemeAverage
	SchemeSSE
	SchemeStdError
)

func (s Scheme) String() string {
	switch s {
	case SchemeMin:
		return "MIN"
	case SchemeMax:
		return "MAX"
	case SchemeAverage:
		return "AVERAGE"
	case SchemeSSE:
		return "SSE"
	default:
		return "STD_ERROR"
	}
}

// ParseScheme parses a convergence scheme name. TEXTRANK is accepted as
// an alias of STD_ERROR.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MIN":
		return SchemeMin, nil
	case "MAX":
		return SchemeMax, nil
	case "AVERAGE":
		return SchemeAverage, nil
	case "SSE":
		return SchemeSSE, nil
	case "STD_ERROR", "TEXTRANK":
		return SchemeStdError, nil
	default:
		return 0, fmt.Errorf("%w: unknown convergence scheme %q", internalerr.ErrInvalidConfig, s)
	}
}

// Rule decides when a growing statistic stops the loop.
type Rule int

const (
	// NoIncrease stops as soon as the statistic does not shrink.
	NoIncrease Rule = iota
	// NoIncrease2x stops when the statistic at least doubles.
	NoIncrease2x
)

func (r Rule) String() string {
	if r == NoIncrease2x {
		return "NO_INCREASE_2X"
	}
	return "NO_INCREASE"
}

// ParseRule parses a convergence rule name.
func ParseRule(s string) (Rule, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO_INCREASE":
		return NoIncrease, nil
	case "NO_INCREASE_2X":
		return NoIncrease2x, nil
	default:
		return 0, fmt.Errorf("%w: unknown convergence rule %q", internalerr.ErrInvalidConfig, s)
	}
}

// Proposal is a candidate new weight for the directed edge From→To.
type Proposal struct {
	From, To int
	Weight   float64
}

// Strategy is the back-end specific half of the correction loop.
type Strategy interface {
	Graph() *graph.Graph
	Keyphrases() []*phrase.Keyphrase
	// Nodes lists the nodes whose differentials drive the loop, in the
	// order they are computed.
	Nodes() []int
	MaxIterations() int
	// Differential computes the differential of node i. Differentials of
	// nodes earlier in Nodes() are already updated when it is called.
	Differential(i int) float64
	// Proposals returns the directed weight changes for this iteration.
	Proposals(learningRate float64) []Proposal
	// Apply reruns the back-end on the updated weights.
	Apply(ctx context.Context) error
	// Rescore copies the refreshed scores into the keyphrases.
	Rescore()
	// Revert rolls nodes and keyphrases back one iteration.
	Revert()
}

// differentialOnly is implemented by strategies that always compare
// successive statistics instead of the statistic itself.
type differentialOnly interface {
	AlwaysDifferential() bool
}

// Options tunes a correction run.
type Options struct {
	LearningRate float64
	Threshold    float64
	Scheme       Scheme
	Rule         Rule

	RevertOnDivergence      bool
	ClampNegativeWeights    bool
	DifferentialConvergence bool

	Logger *slog.Logger
	// Observer, when set, is called after every iteration's statistic is
	// known and before any weight changes.
	Observer func(iteration int, statistic float64)
}

// Outcome reports how a run ended.
type Outcome struct {
	State      State
	Iterations int
	Statistic  float64
	History    []float64
	Reverted   bool
}

// Run drives s until convergence, divergence or its iteration cap.
func Run(ctx context.Context, s Strategy, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	differential := opts.DifferentialConvergence
	if d, ok := s.(differentialOnly); ok && d.AlwaysDifferential() {
		differential = true
	}

	g := s.Graph()
	nodes := s.Nodes()
	out := Outcome{State: Iterating}
	if len(nodes) == 0 {
		out.State = Converged
		return out, nil
	}

	previous := math.MaxFloat64
	values := make([]float64, len(nodes))
	prevValues := make([]float64, len(nodes))
	limit := s.MaxIterations()

	for iteration := 0; iteration < limit; iteration++ {
		if err := ctx.Err(); err != nil {
			out.Iterations = iteration
			return out, err
		}

		for k, i := range nodes {
			n := g.Node(i)
			d := s.Differential(i)
			n.SetD(d)
			values[k] = d
			prevValues[k] = n.PreviousD
		}
		current := Statistic(opts.Scheme, values, prevValues)
		out.Statistic = current
		out.History = append(out.History, current)
		if opts.Observer != nil {
			opts.Observer(iteration, current)
		}
		logger.Debug("correction iteration", "iteration", iteration, "statistic", current, "previous", previous)

		if state, revert := check(current, previous, opts, differential); state != Iterating {
			if revert {
				s.Revert()
				out.Reverted = true
			}
			if state == Converged && iteration == 0 {
				for _, k := range s.Keyphrases() {
					k.SetFinalScore(k.OriginalScore)
				}
			}
			out.State = state
			out.Iterations = iteration
			return out, nil
		}

		applyProposals(g, s.Proposals(opts.LearningRate), opts.ClampNegativeWeights)
		if err := s.Apply(ctx); err != nil {
			out.Iterations = iteration
			return out, fmt.Errorf("rerun iteration %d: %w", iteration, err)
		}
		s.Rescore()
		previous = current
	}

	out.State = Exhausted
	out.Iterations = limit
	return out, nil
}

// check applies the threshold, NaN and rule tests in that order. The
// boolean reports whether the last iteration must be reverted.
func check(current, previous float64, opts Options, differential bool) (State, bool) {
	if differential {
		if math.Abs(current-previous) < opts.Threshold {
			return Converged, false
		}
	} else if current <= opts.Threshold {
		return Converged, false
	}

	if math.IsNaN(current) {
		return Diverged, true
	}

	switch opts.Rule {
	case NoIncrease:
		if current >= previous {
			return Diverged, opts.RevertOnDivergence
		}
	case NoIncrease2x:
		if current >= 2*previous {
			return Diverged, opts.RevertOnDivergence
		}
	}
	return Iterating, false
}

// Statistic folds differentials with scheme. previous holds each node's
// differential from the iteration before. An empty set yields MaxFloat64.
func Statistic(scheme Scheme, values, previous []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.MaxFloat64
	}
	switch scheme {
	case SchemeMin:
		min := math.Inf(1)
		for _, v := range values {
			min = math.Min(min, math.Abs(v))
		}
		return min
	case SchemeMax:
		max := 0.0
		for _, v := range values {
			max = math.Max(max, math.Abs(v))
		}
		return max
	case SchemeAverage:
		sum := 0.0
		for i, v := range values {
			sum += math.Abs(previous[i] - v)
		}
		return sum / float64(n)
	case SchemeSSE:
		sum := 0.0
		for _, v := range values {
			sum += v * v
		}
		return 0.5 * sum
	default:
		if n < 2 {
			return 0
		}
		return stat.StdDev(values, nil) / math.Sqrt(float64(n))
	}
}

type edgePair struct {
	a, b   int
	w1, w2 float64
}

// applyProposals consolidates both directed proposals of an undirected
// edge by averaging and writes the result to both directions. Negative
// proposals are clamped to zero before averaging when clamp is set.
func applyProposals(g *graph.Graph, proposals []Proposal, clamp bool) {
	pairs := make(map[[2]int]*edgePair)
	for _, p := range proposals {
		key := [2]int{p.From, p.To}
		if p.To < p.From {
			key = [2]int{p.To, p.From}
		}
		if e, ok := pairs[key]; ok {
			e.w2 = p.Weight
			continue
		}
		pairs[key] = &edgePair{a: key[0], b: key[1], w1: p.Weight, w2: p.Weight}
	}

	keys := make([][2]int, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, k := range keys {
		e := pairs[k]
		if clamp {
			e.w1 = math.Max(e.w1, 0)
			e.w2 = math.Max(e.w2, 0)
		}
		w := (e.w1 + e.w2) / 2
		g.SetEdgeWeight(e.a, e.b, w)
		if e.a != e.b {
			g.SetEdgeWeight(e.b, e.a, w)
		}
	}
}

// revertKeyed reverts every keyphrase whose node is in nodes, then the
// nodes themselves.
func revertKeyed(g *graph.Graph, keyphrases []*phrase.Keyphrase, nodes []int) {
	in := make(map[int]bool, len(nodes))
	for _, i := range nodes {
		in[i] = true
	}
	for _, k := range keyphrases {
		if k.Node >= 0 && in[k.Node] {
			k.Revert()
		}
	}
	g.Revert(nodes...)
}
