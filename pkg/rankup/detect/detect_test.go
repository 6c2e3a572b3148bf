package detect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rankup/pkg/rankup/classify"
	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

type row struct {
	text  string
	tfidf float64
	score float64
}

func setup(t *testing.T, rows []row) (*graph.Graph, []*phrase.Keyphrase, *classify.Result) {
	t.Helper()
	g := graph.New()
	list := make([]*phrase.Keyphrase, len(rows))
	for i, r := range rows {
		n, _ := g.GetOrCreate(r.text, r.text, graph.KindNGram)
		k := phrase.New(r.text, r.text, n.Index, r.score, r.score)
		k.Features = &features.Bundle{TFIDF: r.tfidf}
		list[i] = k
	}
	res := classify.Classify(list, classify.Options{
		Feature:    features.TFIDF,
		Policy:     classify.Mean,
		LowerBound: 0.5,
		UpperBound: 0.5,
	})
	return g, list, res
}

func scenario() []row {
	return []row{
		{"rare but high", 0.1, 0.6},
		{"rare and low", 0.1, 0.1},
		{"average", 0.5, 0.5},
		{"common but low", 0.9, 0.4},
		{"common and high", 0.9, 0.9},
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("minmax_mid")
	require.NoError(t, err)
	assert.Equal(t, MinMaxMid, p)
	assert.Equal(t, "MINMAX_MID", p.String())

	_, err = ParsePolicy("median")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestAssignMinMax(t *testing.T) {
	g, list, res := setup(t, scenario())
	require.Len(t, res.FeatureSet(classify.Low), 2)
	require.Len(t, res.FeatureSet(classify.High), 2)

	b := Assign(res, MinMax, g)

	assert.Equal(t, 0.4, b.MaxExpected)
	assert.Equal(t, 0.6, b.MinExpected)
	assert.Equal(t, 2, b.Assigned)

	assert.Equal(t, 0.4, list[0].ExpectedScore)
	assert.Equal(t, graph.Unset, list[1].ExpectedScore)
	assert.Equal(t, graph.Unset, list[2].ExpectedScore)
	assert.Equal(t, 0.6, list[3].ExpectedScore)
	assert.Equal(t, graph.Unset, list[4].ExpectedScore)

	assert.Equal(t, 0.4, g.Node(list[0].Node).ExpectedScore)
	assert.Equal(t, 0.6, g.Node(list[3].Node).ExpectedScore)
	assert.Equal(t, graph.Unset, g.Node(list[2].Node).ExpectedScore)
}

func TestAssignMinMaxMid(t *testing.T) {
	g, list, res := setup(t, scenario())
	b := Assign(res, MinMaxMid, g)

	assert.Equal(t, 0.5, b.MaxExpected)
	assert.Equal(t, 0.5, b.MinExpected)
	assert.Equal(t, 0.5, list[0].ExpectedScore)
	assert.Equal(t, 0.5, list[3].ExpectedScore)
	assert.Equal(t, phrase.Decrease, list[0].ExpectedDirection())
	assert.Equal(t, phrase.Increase, list[3].ExpectedDirection())
}

func TestAssignMinMaxMidFallsBackWithoutMid(t *testing.T) {
	g, list, res := setup(t, []row{
		{"rare", 0.1, 0.7},
		{"common", 0.9, 0.3},
	})
	require.Empty(t, res.FeatureSet(classify.Mid))

	b := Assign(res, MinMaxMid, g)
	assert.Equal(t, 0.3, b.MaxExpected)
	assert.Equal(t, 0.7, b.MinExpected)
	assert.Equal(t, 0.3, list[0].ExpectedScore)
	assert.Equal(t, 0.7, list[1].ExpectedScore)
}

func TestAssignAverage(t *testing.T) {
	g, list, res := setup(t, scenario())
	b := Assign(res, Average, g)

	assert.InDelta(t, 0.5, b.MaxExpected, 1e-12)
	assert.InDelta(t, 0.5, b.MinExpected, 1e-12)
	assert.InDelta(t, 0.5, list[0].ExpectedScore, 1e-12)
	assert.InDelta(t, 0.5, list[3].ExpectedScore, 1e-12)
	assert.Equal(t, graph.Unset, list[4].ExpectedScore)
}

func TestAssignWithoutGraph(t *testing.T) {
	_, list, res := setup(t, scenario())
	Assign(res, MinMax, nil)
	assert.Equal(t, 0.4, list[0].ExpectedScore)
}
