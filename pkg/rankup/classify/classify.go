// Package classify splits keyphrases into LOW, MID and HIGH sets, once by
// an independent statistical feature and once by their original score.
package classify

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// OriginalScoreBound is the number of standard deviations around the mean
// original score that still counts as MID.
const OriginalScoreBound = 0.5

// IQRFactor widens the interquartile range for the IQR policy.
const IQRFactor = 1.5

// Level is a set membership.
type Level int

const (
	Low Level = iota
	Mid
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "LOW"
	case Mid:
		return "MID"
	case High:
		return "HIGH"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Policy decides the feature set thresholds.
type Policy int

const (
	// Mean places thresholds at mean ± k·σ.
	Mean Policy = iota
	// IQR places thresholds at Q1 − 1.5·IQR and Q3 + 1.5·IQR.
	IQR
)

func (p Policy) String() string {
	if p == IQR {
		return "IQR"
	}
	return "MEAN"
}

// ParsePolicy parses a set assignment approach name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MEAN":
		return Mean, nil
	case "IQR":
		return IQR, nil
	default:
		return 0, fmt.Errorf("%w: unknown set assignment approach %q", internalerr.ErrInvalidConfig, s)
	}
}

// Options configures Classify.
type Options struct {
	Feature features.Feature
	Policy  Policy
	// LowerBound and UpperBound are the σ multipliers of the Mean policy.
	LowerBound float64
	UpperBound float64
}

// Stats summarizes one value population.
type Stats struct {
	Mean   float64
	StdDev float64
	Q1     float64
	Q3     float64
}

// Result holds both partitions. It is read-only once built.
type Result struct {
	Feature features.Feature
	All     []*phrase.Keyphrase

	FeatureStats  Stats
	ScoreStats    Stats
	LowThreshold  float64
	HighThreshold float64

	featureSets  [3][]*phrase.Keyphrase
	originalSets [3][]*phrase.Keyphrase
}

// Classify partitions list. Scores are read from Keyphrase.Score.
func Classify(list []*phrase.Keyphrase, opts Options) *Result {
	r := &Result{Feature: opts.Feature, All: list}
	if len(list) == 0 {
		return r
	}

	scores := make([]float64, len(list))
	values := make([]float64, len(list))
	for i, k := range list {
		scores[i] = k.Score
		values[i] = k.FeatureValue(opts.Feature)
	}
	r.ScoreStats = summarize(scores)
	r.FeatureStats = summarize(values)

	lowScore := r.ScoreStats.Mean - OriginalScoreBound*r.ScoreStats.StdDev
	highScore := r.ScoreStats.Mean + OriginalScoreBound*r.ScoreStats.StdDev
	for i, k := range list {
		lvl := level(scores[i], lowScore, highScore)
		r.originalSets[lvl] = append(r.originalSets[lvl], k)
	}

	switch opts.Policy {
	case IQR:
		iqr := r.FeatureStats.Q3 - r.FeatureStats.Q1
		r.LowThreshold = r.FeatureStats.Q1 - IQRFactor*iqr
		r.HighThreshold = r.FeatureStats.Q3 + IQRFactor*iqr
	default:
		r.LowThreshold = r.FeatureStats.Mean - opts.LowerBound*r.FeatureStats.StdDev
		r.HighThreshold = r.FeatureStats.Mean + opts.UpperBound*r.FeatureStats.StdDev
	}
	for i, k := range list {
		lvl := level(values[i], r.LowThreshold, r.HighThreshold)
		r.featureSets[lvl] = append(r.featureSets[lvl], k)
	}
	return r
}

func level(v, low, high float64) Level {
	switch {
	case v < low:
		return Low
	case v > high:
		return High
	default:
		return Mid
	}
}

func summarize(values []float64) Stats {
	var st Stats
	if len(values) == 0 {
		return st
	}
	if len(values) < 2 {
		st.Mean = values[0]
	} else {
		st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q := int(math.Round(float64(len(sorted)) / 4))
	st.Q1 = sorted[clip(q, len(sorted))]
	st.Q3 = sorted[clip(q*3, len(sorted))]
	return st
}

func clip(i, n int) int {
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// FeatureSet returns the keyphrases the feature placed at level l.
func (r *Result) FeatureSet(l Level) []*phrase.Keyphrase {
	return r.featureSets[l]
}

// OriginalSet returns the keyphrases the original score placed at level l.
func (r *Result) OriginalSet(l Level) []*phrase.Keyphrase {
	return r.originalSets[l]
}

// SetMinScore returns the lowest current score in the feature set at l,
// or +MaxFloat64 when the set is empty.
func (r *Result) SetMinScore(l Level) float64 {
	min := math.MaxFloat64
	for _, k := range r.featureSets[l] {
		min = math.Min(min, k.Score)
	}
	return min
}

// SetMaxScore returns the highest current score in the feature set at l,
// or -MaxFloat64 when the set is empty.
func (r *Result) SetMaxScore(l Level) float64 {
	max := -math.MaxFloat64
	for _, k := range r.featureSets[l] {
		max = math.Max(max, k.Score)
	}
	return max
}

// SetMeanScore returns the mean current score in the feature set at l,
// or 0 when the set is empty.
func (r *Result) SetMeanScore(l Level) float64 {
	set := r.featureSets[l]
	if len(set) == 0 {
		return 0
	}
	sum := 0.0
	for _, k := range set {
		sum += k.Score
	}
	return sum / float64(len(set))
}
