package classify

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

func withTFIDF(scores, tfidf []float64) []*phrase.Keyphrase {
	out := make([]*phrase.Keyphrase, len(tfidf))
	for i := range tfidf {
		text := fmt.Sprintf("phrase %d", i)
		k := phrase.New(text, text, i, scores[i], scores[i])
		k.Features = &features.Bundle{TFIDF: tfidf[i]}
		out[i] = k
	}
	return out
}

func texts(list []*phrase.Keyphrase) []string {
	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.Text
	}
	return out
}

func assertPartition(t *testing.T, all []*phrase.Keyphrase, sets ...[]*phrase.Keyphrase) {
	t.Helper()
	seen := make(map[*phrase.Keyphrase]int)
	for _, set := range sets {
		for _, k := range set {
			seen[k]++
		}
	}
	require.Len(t, seen, len(all))
	for _, k := range all {
		assert.Equal(t, 1, seen[k], "%s should be in exactly one set", k.Text)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("iqr")
	require.NoError(t, err)
	assert.Equal(t, IQR, p)

	_, err = ParsePolicy("median")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestClassifyMean(t *testing.T) {
	scores := []float64{0.1, 0.5, 0.5, 0.5, 0.5, 0.9}
	list := withTFIDF(scores, []float64{0, 5, 5, 5, 5, 10})

	r := Classify(list, Options{Feature: features.TFIDF, Policy: Mean, LowerBound: 1, UpperBound: 1})

	assert.InDelta(t, 5, r.FeatureStats.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(10), r.FeatureStats.StdDev, 1e-12)
	assert.Equal(t, []string{"phrase 0"}, texts(r.FeatureSet(Low)))
	assert.Equal(t, []string{"phrase 5"}, texts(r.FeatureSet(High)))
	assert.Len(t, r.FeatureSet(Mid), 4)
	assertPartition(t, list, r.FeatureSet(Low), r.FeatureSet(Mid), r.FeatureSet(High))
	assertPartition(t, list, r.OriginalSet(Low), r.OriginalSet(Mid), r.OriginalSet(High))
}

func TestClassifyIQRQuartilePositions(t *testing.T) {
	tfidf := []float64{100, 7, 1, 6, 2, 5, 3, 4}
	list := withTFIDF(make([]float64, len(tfidf)), tfidf)

	r := Classify(list, Options{Feature: features.TFIDF, Policy: IQR})

	assert.Equal(t, 3.0, r.FeatureStats.Q1)
	assert.Equal(t, 7.0, r.FeatureStats.Q3)
	assert.Equal(t, -3.0, r.LowThreshold)
	assert.Equal(t, 13.0, r.HighThreshold)
	assert.Equal(t, []string{"phrase 0"}, texts(r.FeatureSet(High)))
	assert.Empty(t, r.FeatureSet(Low))
	assertPartition(t, list, r.FeatureSet(Low), r.FeatureSet(Mid), r.FeatureSet(High))
}

func TestClassifyIQRSmallInputClipsQ3(t *testing.T) {
	list := withTFIDF([]float64{0, 0}, []float64{2, 1})
	r := Classify(list, Options{Feature: features.TFIDF, Policy: IQR})
	assert.Equal(t, 2.0, r.FeatureStats.Q1)
	assert.Equal(t, 2.0, r.FeatureStats.Q3)
}

func TestOriginalScorePartition(t *testing.T) {
	scores := []float64{0.1, 0.5, 0.5, 0.9}
	list := withTFIDF(scores, []float64{1, 1, 1, 1})

	r := Classify(list, Options{Feature: features.TFIDF, Policy: Mean, LowerBound: 1, UpperBound: 1})

	assert.Equal(t, []string{"phrase 0"}, texts(r.OriginalSet(Low)))
	assert.Equal(t, []string{"phrase 3"}, texts(r.OriginalSet(High)))
	assert.Len(t, r.OriginalSet(Mid), 2)
	// identical feature values put everything in MID
	assert.Len(t, r.FeatureSet(Mid), 4)
}

func TestSetStatistics(t *testing.T) {
	scores := []float64{0.2, 0.4, 0.5, 0.5, 0.5, 0.9}
	list := withTFIDF(scores, []float64{0, 0, 5, 5, 5, 10})
	r := Classify(list, Options{Feature: features.TFIDF, Policy: Mean, LowerBound: 0.5, UpperBound: 1})

	require.Len(t, r.FeatureSet(Low), 2)
	assert.Equal(t, 0.2, r.SetMinScore(Low))
	assert.Equal(t, 0.4, r.SetMaxScore(Low))
	assert.InDelta(t, 0.3, r.SetMeanScore(Low), 1e-12)
}

func TestEmptySets(t *testing.T) {
	r := Classify(nil, Options{Feature: features.TFIDF})
	assert.Equal(t, math.MaxFloat64, r.SetMinScore(Low))
	assert.Equal(t, -math.MaxFloat64, r.SetMaxScore(High))
	assert.Zero(t, r.SetMeanScore(Mid))
	assert.Zero(t, r.FeatureStats)

	single := withTFIDF([]float64{0.3}, []float64{2})
	r = Classify(single, Options{Feature: features.TFIDF, Policy: Mean, LowerBound: 1, UpperBound: 1})
	assert.Zero(t, r.FeatureStats.StdDev)
	assert.Len(t, r.FeatureSet(Mid), 1)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "HIGH", High.String())
	assert.Equal(t, "IQR", IQR.String())
}
