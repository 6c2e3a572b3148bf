// Package detect assigns expected scores to keyphrases whose score
// disagrees with the set their feature value put them in.
package detect

import (
	"fmt"
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/classify"
	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

// Policy chooses the expected score boundaries.
type Policy int

const (
	// MinMax bounds LOW by the lowest HIGH score and HIGH by the highest
	// LOW score.
	MinMax Policy = iota
	// MinMaxMid bounds both sets by the MID score range, falling back to
	// MinMax when MID is empty.
	MinMaxMid
	// Average bounds both sets by the mean original score.
	Average
)

func (p Policy) String() string {
	switch p {
	case MinMaxMid:
		return "MINMAX_MID"
	case Average:
		return "AVERAGE"
	default:
		return "MINMAX"
	}
}

// ParsePolicy parses an expected score value name.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MINMAX":
		return MinMax, nil
	case "MINMAX_MID":
		return MinMaxMid, nil
	case "AVERAGE":
		return Average, nil
	default:
		return 0, fmt.Errorf("%w: unknown expected score value %q", internalerr.ErrInvalidConfig, s)
	}
}

// Boundaries are the limits applied to the LOW and HIGH feature sets.
type Boundaries struct {
	// MaxExpected caps the score of LOW members.
	MaxExpected float64
	// MinExpected floors the score of HIGH members.
	MinExpected float64
	// Assigned counts keyphrases that received an expected score.
	Assigned int
}

// Assign computes the boundaries and sets ExpectedScore on every LOW
// member scoring above MaxExpected and every HIGH member scoring below
// MinExpected. The value is mirrored onto the owning node of g when g is
// not nil. Other keyphrases are left untouched.
func Assign(r *classify.Result, policy Policy, g *graph.Graph) Boundaries {
	var b Boundaries
	switch policy {
	case MinMaxMid:
		if len(r.FeatureSet(classify.Mid)) > 0 {
			b.MaxExpected = r.SetMinScore(classify.Mid)
			b.MinExpected = r.SetMaxScore(classify.Mid)
			break
		}
		b.MaxExpected, b.MinExpected = minMax(r)
	case Average:
		b.MaxExpected = r.ScoreStats.Mean
		b.MinExpected = r.ScoreStats.Mean
	default:
		b.MaxExpected, b.MinExpected = minMax(r)
	}

	for _, k := range r.FeatureSet(classify.Low) {
		if k.Score > b.MaxExpected {
			expect(k, b.MaxExpected, g)
			b.Assigned++
		}
	}
	for _, k := range r.FeatureSet(classify.High) {
		if k.Score < b.MinExpected {
			expect(k, b.MinExpected, g)
			b.Assigned++
		}
	}
	return b
}

func minMax(r *classify.Result) (maxExpected, minExpected float64) {
	return r.SetMinScore(classify.High), r.SetMaxScore(classify.Low)
}

func expect(k *phrase.Keyphrase, v float64, g *graph.Graph) {
	k.ExpectedScore = v
	if g != nil && k.Node >= 0 && k.Node < g.Len() {
		g.Node(k.Node).ExpectedScore = v
	}
}
