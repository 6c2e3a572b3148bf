package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rankup/pkg/rankup/graph"
)

type nodeDef struct {
	key   string
	text  string
	kind  graph.Kind
	rank  float64
	count int
}

func build(t *testing.T, nodes []nodeDef, edges [][2]int) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, s := range nodes {
		text := s.text
		if text == "" {
			text = s.key
		}
		n, _ := g.GetOrCreate(s.key, text, s.kind)
		n.Rank = s.rank
		n.Count = s.count
	}
	for _, e := range edges {
		g.Connect(e[0], e[1], graph.DefaultEdgeWeight)
	}
	return g
}

func TestComposeSignals(t *testing.T) {
	g := build(t, []nodeDef{
		{"kw:alpha", "alpha", graph.KindKeyword, 1.0, 0},
		{"kw:beta", "beta", graph.KindKeyword, 0.5, 0},
		{"syn-a", "", graph.KindSynset, 0.8, 0},
		{"syn-b", "", graph.KindSynset, 0.6, 0},
		{"ng:alpha beta", "alpha beta", graph.KindNGram, 2.0, 3},
		{"ng:alpha", "alpha", graph.KindNGram, 1.0, 1},
		{"ng:long", "one two three four five", graph.KindNGram, 5.0, 1},
		{"syn-c", "", graph.KindSynset, 0.4, 0},
	}, [][2]int{
		{4, 0}, {4, 1}, {4, 2},
		{0, 3}, {0, 1},
		{5, 0},
		{1, 7},
	})
	require.Equal(t, 8, g.Len())

	vectors := NewComposer(Options{}).Compose(g)
	require.Len(t, vectors, 2)

	top := vectors[0]
	assert.Equal(t, "alpha beta", top.Text)
	assert.InDelta(t, 1.0, top.Link, 1e-12)
	assert.InDelta(t, 1.0, top.Count, 1e-12)
	assert.InDelta(t, 1.0, top.Synset, 1e-12)
	assert.InDelta(t, 1.0, top.Metric, 1e-12)

	single := vectors[1]
	assert.Equal(t, 5, single.Index)
	assert.Zero(t, single.Link)
	assert.Zero(t, single.Count)
	assert.InDelta(t, 0.5, single.Synset, 1e-9)
	assert.InDelta(t, math.Sqrt(1.5*0.25/3), single.Metric, 1e-9)
}

func TestComposeTieBreakByText(t *testing.T) {
	g := build(t, []nodeDef{
		{"zeta gamma", "", graph.KindNGram, 1, 1},
		{"alpha gamma", "", graph.KindNGram, 1, 1},
	}, nil)
	vectors := NewComposer(Options{}).Compose(g)
	require.Len(t, vectors, 2)
	assert.Equal(t, "alpha gamma", vectors[0].Text)
	assert.Equal(t, "zeta gamma", vectors[1].Text)
	for _, v := range vectors {
		assert.False(t, math.IsNaN(v.Metric))
		assert.Zero(t, v.Metric)
	}
}

func TestComposeEmpty(t *testing.T) {
	assert.Nil(t, NewComposer(Options{}).Compose(graph.New()))
}

func TestComposeMaxTokens(t *testing.T) {
	c := NewComposer(Options{MaxTokens: 2})
	assert.True(t, c.Eligible("single"))
	assert.False(t, c.Eligible("two words"))
}

func TestRelatednessCycleTerminates(t *testing.T) {
	g := build(t, []nodeDef{
		{"a", "", graph.KindKeyword, 1, 0},
		{"b", "", graph.KindKeyword, 1, 0},
	}, [][2]int{{0, 1}})
	assert.Zero(t, Relatedness(g, 0, 0, 1))
}

func TestCustomWeights(t *testing.T) {
	c := NewComposer(Options{Weights: Weights{Link: 1}})
	v := Vector{Link: 0.5, Count: 1, Synset: 1}
	assert.InDelta(t, 0.5, c.combine(v), 1e-12)
}
