package correct

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// scripted returns a fixed differential per iteration.
type scripted struct {
	g        *graph.Graph
	seq      []float64
	calls    int
	applied  int
	reverted bool
	max      int
}

func newScripted(seq ...float64) *scripted {
	g := graph.New()
	g.GetOrCreate("n", "n", graph.KindWord)
	return &scripted{g: g, seq: seq, max: 100}
}

func (s *scripted) Graph() *graph.Graph             { return s.g }
func (s *scripted) Keyphrases() []*phrase.Keyphrase { return nil }
func (s *scripted) Nodes() []int                    { return []int{0} }
func (s *scripted) MaxIterations() int              { return s.max }
func (s *scripted) Proposals(float64) []Proposal    { return nil }
func (s *scripted) Rescore()                        {}
func (s *scripted) Revert()                         { s.reverted = true }

func (s *scripted) Differential(int) float64 {
	v := s.seq[len(s.seq)-1]
	if s.calls < len(s.seq) {
		v = s.seq[s.calls]
	}
	s.calls++
	return v
}

func (s *scripted) Apply(context.Context) error {
	s.applied++
	return nil
}

func TestParseSchemeAndRule(t *testing.T) {
	sc, err := ParseScheme("textrank")
	require.NoError(t, err)
	assert.Equal(t, SchemeStdError, sc)

	_, err = ParseScheme("median")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	r, err := ParseRule("no_increase_2x")
	require.NoError(t, err)
	assert.Equal(t, NoIncrease2x, r)

	_, err = ParseRule("never")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestStatistic(t *testing.T) {
	values := []float64{-2, 1, 3}
	previous := []float64{0, 1, 1}

	assert.Equal(t, 1.0, Statistic(SchemeMin, values, previous))
	assert.Equal(t, 3.0, Statistic(SchemeMax, values, previous))
	assert.InDelta(t, 4.0/3.0, Statistic(SchemeAverage, values, previous), 1e-12)
	assert.Equal(t, 7.0, Statistic(SchemeSSE, values, previous))
	assert.InDelta(t, math.Sqrt(19.0/3.0)/math.Sqrt(3), Statistic(SchemeStdError, values, previous), 1e-12)
	assert.Equal(t, math.MaxFloat64, Statistic(SchemeSSE, nil, nil))
	assert.Zero(t, Statistic(SchemeStdError, []float64{4}, []float64{0}))
}

func TestNoIncreaseStops(t *testing.T) {
	s := newScripted(1, 2)
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease})
	require.NoError(t, err)
	assert.Equal(t, Diverged, out.State)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []float64{1, 2}, out.History)
	assert.False(t, s.reverted)
	assert.Equal(t, 1, s.applied)
}

func TestNoIncreaseRevertsWhenConfigured(t *testing.T) {
	s := newScripted(1, 1)
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease, RevertOnDivergence: true})
	require.NoError(t, err)
	assert.Equal(t, Diverged, out.State)
	assert.True(t, out.Reverted)
	assert.True(t, s.reverted)
}

func TestNoIncrease2xAllowsGrowth(t *testing.T) {
	s := newScripted(1, 1.5, 3.1)
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease2x})
	require.NoError(t, err)
	assert.Equal(t, Diverged, out.State)
	assert.Equal(t, 2, out.Iterations)
}

func TestNaNForcesRevert(t *testing.T) {
	s := newScripted(1, math.NaN())
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease2x})
	require.NoError(t, err)
	assert.Equal(t, Diverged, out.State)
	assert.True(t, s.reverted)
}

func TestExhausted(t *testing.T) {
	s := newScripted(5, 4, 3, 2, 1)
	s.max = 3
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease})
	require.NoError(t, err)
	assert.Equal(t, Exhausted, out.State)
	assert.Equal(t, 3, out.Iterations)
	assert.Equal(t, 3, s.applied)
}

func TestDifferentialConvergence(t *testing.T) {
	s := newScripted(1, 0.9995)
	out, err := Run(context.Background(), s, Options{Threshold: 1e-3, Scheme: SchemeMax, Rule: NoIncrease, DifferentialConvergence: true})
	require.NoError(t, err)
	assert.Equal(t, Converged, out.State)
	assert.Equal(t, 1, out.Iterations)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, newScripted(1), Options{Threshold: 1e-3})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestApplyProposalsAveragesAndClamps(t *testing.T) {
	g := graph.New()
	g.GetOrCreate("a", "a", graph.KindWord)
	g.GetOrCreate("b", "b", graph.KindWord)
	g.Connect(0, 1, 1)
	g.Connect(0, 0, 2)

	applyProposals(g, []Proposal{{From: 0, To: 1, Weight: 3}, {From: 1, To: 0, Weight: -1}, {From: 0, To: 0, Weight: 4}}, false)
	w, _ := g.Weight(0, 1)
	assert.Equal(t, 1.0, w)
	w, _ = g.Weight(0, 0)
	assert.Equal(t, 4.0, w)
	require.NoError(t, g.CheckSymmetry(0))

	applyProposals(g, []Proposal{{From: 0, To: 1, Weight: 3}, {From: 1, To: 0, Weight: -1}}, true)
	w, _ = g.Weight(1, 0)
	assert.Equal(t, 1.5, w)
	require.NoError(t, g.CheckSymmetry(0))
}

// chain builds keyword nodes a-b-c-d with an n-gram node over b and c.
func chain(t *testing.T) (*graph.Graph, []*phrase.Keyphrase) {
	t.Helper()
	g := graph.New()
	for _, w := range []string{"a", "b", "c", "d"} {
		g.GetOrCreate("KW_"+w, w, graph.KindKeyword)
	}
	g.Connect(0, 1, 1)
	g.Connect(1, 2, 1)
	g.Connect(2, 3, 1)
	ng, _ := g.GetOrCreate("NG_b c", "b c", graph.KindNGram)
	ng.Count = 1
	g.Connect(ng.Index, 1, 1)
	g.Connect(ng.Index, 2, 1)
	g.Propagate(graph.PropagateOptions{})
	g.MarkOriginal()

	var list []*phrase.Keyphrase
	for _, n := range g.Nodes() {
		list = append(list, phrase.New(n.Text, n.Key, n.Index, n.Rank, n.Rank))
	}
	return g, list
}

func TestConvergedAtIterationZeroKeepsOriginal(t *testing.T) {
	g, list := chain(t)
	list[4].SetFinalScore(42)

	s := NewPropagationStrategy(g, list, PropagationConfig{WholeGraph: true})
	out, err := Run(context.Background(), s, Options{LearningRate: 0.1, Threshold: 1e-3, Scheme: SchemeSSE, Rule: NoIncrease})
	require.NoError(t, err)

	assert.Equal(t, Converged, out.State)
	assert.Zero(t, out.Iterations)
	for _, k := range list {
		assert.Equal(t, k.OriginalScore, k.FinalScore)
	}
}

func TestPropagationKeepsSymmetryAndResets(t *testing.T) {
	g, list := chain(t)
	before := g.Edges()
	ranks := make([]float64, g.Len())
	for i, n := range g.Nodes() {
		ranks[i] = n.Rank
	}

	target := g.Node(0)
	target.ExpectedScore = target.Rank + 0.5
	list[0].ExpectedScore = target.ExpectedScore

	s := NewPropagationStrategy(g, list, PropagationConfig{WholeGraph: true, Denormalize: true})
	out, err := Run(context.Background(), s, Options{
		LearningRate:         0.05,
		Threshold:            1e-6,
		Scheme:               SchemeSSE,
		Rule:                 NoIncrease2x,
		ClampNegativeWeights: true,
		Observer: func(int, float64) {
			assert.NoError(t, g.CheckSymmetry(1e-12))
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, Iterating, out.State)
	assert.Positive(t, out.Iterations)
	assert.NotEqual(t, before, g.Edges())

	g.Reset()
	assert.Equal(t, before, g.Edges())
	for i, n := range g.Nodes() {
		assert.Equal(t, ranks[i], n.Rank)
		assert.Equal(t, graph.Unset, n.ExpectedScore)
	}
}

func TestPropagationKeyphraseModeRescoresNGrams(t *testing.T) {
	g, list := chain(t)
	ng := list[4]
	ng.ExpectedScore = ng.Score + 1
	g.Node(ng.Node).ExpectedScore = ng.ExpectedScore

	s := NewPropagationStrategy(g, list, PropagationConfig{})
	applyProposals(g, s.Proposals(0.1), false)
	require.NoError(t, s.Apply(context.Background()))
	s.Rescore()

	// a single n-gram normalizes to a zero metric
	assert.Zero(t, ng.FinalScore)
	assert.Zero(t, ng.Score)
	assert.Equal(t, list[0].InitialScore(), list[0].Score)
}

func TestCooccurrenceNeverConvergesAtIterationZero(t *testing.T) {
	mm := &matrixModel{
		m: map[string]map[string]float64{
			"a": {"a": 1, "b": 1},
			"b": {"a": 1, "b": 1},
		},
		phrases: []string{"a b"},
	}
	_, words, _ := mm.Rerun()

	g := graph.New()
	a, _ := g.GetOrCreate("WORD_a", "a", graph.KindWord)
	b, _ := g.GetOrCreate("WORD_b", "b", graph.KindWord)
	g.Connect(a.Index, a.Index, 1)
	g.Connect(b.Index, b.Index, 1)
	g.Connect(a.Index, b.Index, 1)
	a.Rank, b.Rank = words["a"], words["b"]
	g.MarkOriginal()

	fa := phrase.New("a", a.Key, a.Index, a.Rank, a.Rank)
	fb := phrase.New("b", b.Key, b.Index, b.Rank, b.Rank)
	s := NewCooccurrenceStrategy(g, mm, []*phrase.Keyphrase{fa, fb}, nil)
	require.True(t, s.AlwaysDifferential())

	// no expected scores: every differential is zero
	opts := Options{LearningRate: 0.1, Threshold: 1e-3, Scheme: SchemeSSE, Rule: NoIncrease}
	out, err := Run(context.Background(), newScripted(0), opts)
	require.NoError(t, err)
	assert.Equal(t, Converged, out.State)
	assert.Zero(t, out.Iterations)

	out, err = Run(context.Background(), s, opts)
	require.NoError(t, err)
	assert.Equal(t, Converged, out.State)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []float64{0, 0}, out.History)
	assert.False(t, out.Reverted)
}

func TestDenormalizeOnlyInWholeGraphMode(t *testing.T) {
	proposals := func(cfg PropagationConfig) []Proposal {
		g, list := chain(t)
		g.Node(2).SetD(0.5)
		return NewPropagationStrategy(g, list, cfg).Proposals(0.1)
	}

	assert.Equal(t, proposals(PropagationConfig{}), proposals(PropagationConfig{Denormalize: true}))

	plain := proposals(PropagationConfig{WholeGraph: true})
	scaled := proposals(PropagationConfig{WholeGraph: true, Denormalize: true})
	require.Equal(t, len(plain), len(scaled))
	changed := 0
	for i := range plain {
		if plain[i].From == 1 && plain[i].To == 2 {
			assert.Greater(t, scaled[i].Weight, plain[i].Weight)
			changed++
		}
	}
	assert.Equal(t, 1, changed)
}

// matrixModel recomputes RAKE word scores from an editable matrix.
type matrixModel struct {
	m       map[string]map[string]float64
	phrases []string
	edits   int
}

func (mm *matrixModel) ModifyEdgeWeight(w1, w2 string, weight float64) {
	mm.m[w1][w2] = weight
	mm.edits++
}

func (mm *matrixModel) Rerun() (map[string]float64, map[string]float64, error) {
	words := make(map[string]float64)
	for w, row := range mm.m {
		deg := 0.0
		for _, v := range row {
			deg += v
		}
		words[w] = deg / row[w]
	}
	kps := make(map[string]float64)
	for _, p := range mm.phrases {
		for _, w := range strings.Fields(p) {
			kps[p] += words[w]
		}
	}
	return kps, words, nil
}

func TestCooccurrenceStrategyConverges(t *testing.T) {
	mm := &matrixModel{
		m: map[string]map[string]float64{
			"a": {"a": 2, "b": 1},
			"b": {"a": 1, "b": 1},
		},
		phrases: []string{"a b"},
	}
	kps, words, _ := mm.Rerun()

	g := graph.New()
	a, _ := g.GetOrCreate("WORD_a", "a", graph.KindWord)
	b, _ := g.GetOrCreate("WORD_b", "b", graph.KindWord)
	kw, _ := g.GetOrCreate("KEYWORD_a b", "a b", graph.KindKeyword)
	g.Connect(a.Index, a.Index, 2)
	g.Connect(b.Index, b.Index, 1)
	g.Connect(a.Index, b.Index, 1)
	g.Connect(kw.Index, a.Index, 1)
	g.Connect(kw.Index, b.Index, 1)
	a.Rank, b.Rank, kw.Rank = words["a"], words["b"], kps["a b"]
	g.MarkOriginal()

	fa := phrase.New("a", a.Key, a.Index, a.Rank, a.Rank)
	fb := phrase.New("b", b.Key, b.Index, b.Rank, b.Rank)
	result := phrase.New("a b", kw.Key, kw.Index, kw.Rank, kw.Rank)
	a.ExpectedScore = 1.0
	fa.ExpectedScore = 1.0

	s := NewCooccurrenceStrategy(g, mm, []*phrase.Keyphrase{fa, fb}, []*phrase.Keyphrase{result})
	assert.Equal(t, 20, s.MaxIterations())

	out, err := Run(context.Background(), s, Options{
		LearningRate: 1,
		Threshold:    1e-3,
		Scheme:       SchemeSSE,
		Rule:         NoIncrease,
		Observer: func(int, float64) {
			assert.NoError(t, g.CheckSymmetry(1e-12))
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Converged, out.State)
	assert.Less(t, out.Iterations, 20)
	assert.Positive(t, mm.edits)

	assert.Less(t, a.Rank, 1.5)
	assert.Equal(t, kw.Rank, result.Score)
	assert.Equal(t, kw.Rank, result.FinalScore)
	good, ok := fa.ScoreDirectionCorrect()
	assert.True(t, ok)
	assert.True(t, good)
}
