// Package phrase holds the keyphrase model: a candidate phrase bound to a
// graph node together with the scores the corrector moves around.
package phrase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/graph"
)

// Direction is the way a score is expected to move.
type Direction int

const (
	NoChange Direction = iota
	Increase
	Decrease
)

func (d Direction) String() string {
	switch d {
	case Increase:
		return "INCREASE"
	case Decrease:
		return "DECREASE"
	default:
		return "NO_CHANGE"
	}
}

// Keyphrase is a candidate phrase and its scores.
//
// Score is the value the classifier and detector look at. FinalScore is the
// value results are ranked by; it starts at OriginalScore and is rewritten
// by the corrector after each iteration.
type Keyphrase struct {
	Text string
	// Key is the key of the owning graph node.
	Key string
	// Node is the owning node's index, or -1 when the phrase has no node.
	Node int

	Score         float64
	OriginalScore float64
	ExpectedScore float64
	FinalScore    float64

	Features *features.Bundle

	initialScore       float64
	previousScore      float64
	previousFinalScore float64
}

// New creates a keyphrase. text is cleaned first.
func New(text, key string, node int, score, original float64) *Keyphrase {
	return &Keyphrase{
		Text:               Clean(text),
		Key:                key,
		Node:               node,
		Score:              score,
		OriginalScore:      original,
		ExpectedScore:      graph.Unset,
		FinalScore:         original,
		initialScore:       score,
		previousScore:      score,
		previousFinalScore: original,
	}
}

// InitialScore returns the score the keyphrase was created with.
func (k *Keyphrase) InitialScore() float64 { return k.initialScore }

// HasExpected reports whether the detector assigned an expected score.
func (k *Keyphrase) HasExpected() bool { return k.ExpectedScore >= 0 }

// SetScore updates Score, remembering the old value.
func (k *Keyphrase) SetScore(v float64) {
	k.previousScore = k.Score
	k.Score = v
}

// SetFinalScore updates FinalScore, remembering the old value.
func (k *Keyphrase) SetFinalScore(v float64) {
	k.previousFinalScore = k.FinalScore
	k.FinalScore = v
}

// Revert undoes the last SetScore and SetFinalScore.
func (k *Keyphrase) Revert() {
	k.Score = k.previousScore
	k.FinalScore = k.previousFinalScore
}

// Reset returns the keyphrase to the state New left it in.
func (k *Keyphrase) Reset() {
	k.Score = k.initialScore
	k.previousScore = k.initialScore
	k.FinalScore = k.OriginalScore
	k.previousFinalScore = k.OriginalScore
	k.ExpectedScore = graph.Unset
}

// SameNode reports whether both keyphrases belong to the same graph node.
func (k *Keyphrase) SameNode(other *Keyphrase) bool {
	return other != nil && k.Key == other.Key
}

// ExpectedDirection compares the expected score with the initial score.
func (k *Keyphrase) ExpectedDirection() Direction {
	if !k.HasExpected() {
		return NoChange
	}
	switch {
	case k.ExpectedScore > k.initialScore:
		return Increase
	case k.ExpectedScore < k.initialScore:
		return Decrease
	default:
		return NoChange
	}
}

// ScoreDirectionCorrect reports whether Score moved the expected way. The
// second value is false when no direction is expected.
func (k *Keyphrase) ScoreDirectionCorrect() (bool, bool) {
	return moved(k.ExpectedDirection(), k.Score-k.initialScore)
}

// FinalScoreDirectionCorrect reports whether FinalScore moved the expected
// way relative to OriginalScore.
func (k *Keyphrase) FinalScoreDirectionCorrect() (bool, bool) {
	return moved(k.ExpectedDirection(), k.FinalScore-k.OriginalScore)
}

// NodeDirectionCorrect reports whether the owning node's rank moved the
// expected way relative to its original rank.
func (k *Keyphrase) NodeDirectionCorrect(g *graph.Graph) (bool, bool) {
	if g == nil || k.Node < 0 || k.Node >= g.Len() {
		return false, false
	}
	n := g.Node(k.Node)
	return moved(k.ExpectedDirection(), n.Rank-n.OriginalRank)
}

func moved(dir Direction, delta float64) (bool, bool) {
	switch dir {
	case Increase:
		return delta > 0, true
	case Decrease:
		return delta < 0, true
	default:
		return false, false
	}
}

// FeatureValue returns the value of f for this keyphrase. A keyphrase
// without a bundle reports 0 for bundle features.
func (k *Keyphrase) FeatureValue(f features.Feature) float64 {
	switch f {
	case features.RankUpScore:
		return k.Score
	case features.OriginalScore:
		return k.OriginalScore
	}
	if k.Features == nil {
		return 0
	}
	v, _ := k.Features.Value(f)
	return v
}

func (k *Keyphrase) String() string {
	return fmt.Sprintf("%-40s S: %.2f  O: %.2f  E: %.2f  F: %.2f", k.Text, k.Score, k.OriginalScore, k.ExpectedScore, k.FinalScore)
}

// Correctness returns the fraction of keyphrases with an expected direction
// for which check reports a correct move. ok is false when none had one.
func Correctness(list []*Keyphrase, check func(*Keyphrase) (bool, bool)) (float64, bool) {
	total, correct := 0, 0
	for _, k := range list {
		good, decided := check(k)
		if !decided {
			continue
		}
		total++
		if good {
			correct++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(correct) / float64(total), true
}

// SortByFinal orders keyphrases by FinalScore descending, ties by text.
func SortByFinal(list []*Keyphrase) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].FinalScore != list[j].FinalScore {
			return list[i].FinalScore > list[j].FinalScore
		}
		return list[i].Text < list[j].Text
	})
}

// SortByScore orders keyphrases by Score descending, ties by text.
func SortByScore(list []*Keyphrase) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].Text < list[j].Text
	})
}

var (
	htmlTag  = regexp.MustCompile(`<.*?>`)
	brackets = strings.NewReplacer("[", " ", "]", " ", "{", " ", "}", " ")
)

// Clean strips quotes, markup and brackets from phrase text and trims it.
// A dangling "(" is closed; single words lose their parentheses.
func Clean(text string) string {
	text = strings.ReplaceAll(text, `"`, "")
	text = htmlTag.ReplaceAllString(text, "")
	text = strings.NewReplacer("<", "", ">", "").Replace(text)
	text = brackets.Replace(text)

	if strings.Contains(text, "(") && !strings.Contains(text, ")") {
		text += ")"
	}
	if !strings.Contains(text, " ") {
		text = strings.NewReplacer("(", "", ")", "").Replace(text)
	}
	return strings.Join(strings.Fields(text), " ")
}
