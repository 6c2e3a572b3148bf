// Package features computes the statistical phrase features used to decide
// whether an extracted keyphrase was ranked too high or too low.
package features

import (
	"fmt"
	"strings"

	"github.com/cognicore/rankup/pkg/rankup/internalerr"
)

// Feature selects one value out of a Bundle or a keyphrase.
type Feature int

const (
	Frequency Feature = iota
	WordCount
	RelativePosition
	TFIDF
	RIDF
	Clusteredness
	RAKE
	RankUpScore
	OriginalScore
)

var featureNames = map[Feature]string{
	Frequency:        "FREQUENCY",
	WordCount:        "WORD_COUNT",
	RelativePosition: "RELATIVE_POSITION",
	TFIDF:            "TFIDF",
	RIDF:             "RIDF",
	Clusteredness:    "CLUSTEREDNESS",
	RAKE:             "RAKE",
	RankUpScore:      "RANKUP_SCORE",
	OriginalScore:    "ORIGINAL_SCORE",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FEATURE(%d)", int(f))
}

// ParseApproach maps an error-detecting approach name to the feature it
// classifies by. Only TFIDF, RIDF, CLUSTEREDNESS and RAKE are accepted.
func ParseApproach(s string) (Feature, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TFIDF":
		return TFIDF, nil
	case "RIDF":
		return RIDF, nil
	case "CLUSTEREDNESS":
		return Clusteredness, nil
	case "RAKE":
		return RAKE, nil
	default:
		return 0, fmt.Errorf("%w: unknown error detecting approach %q", internalerr.ErrInvalidConfig, s)
	}
}

// Bundle is the immutable feature set of one phrase within one document.
type Bundle struct {
	StemmedPhrase    string
	Frequency        int
	WordCount        int
	RelativePosition float64
	TF               float64
	IDF              float64
	PIDF             float64
	TFIDF            float64
	RIDF             float64
	Clusteredness    float64
	RAKE             float64
}

// Value returns the bundle's value for f. Keyphrase-level features
// (RankUpScore, OriginalScore) are not stored in a bundle and report false.
func (b Bundle) Value(f Feature) (float64, bool) {
	switch f {
	case Frequency:
		return float64(b.Frequency), true
	case WordCount:
		return float64(b.WordCount), true
	case RelativePosition:
		return b.RelativePosition, true
	case TFIDF:
		return b.TFIDF, true
	case RIDF:
		return b.RIDF, true
	case Clusteredness:
		return b.Clusteredness, true
	case RAKE:
		return b.RAKE, true
	default:
		return 0, false
	}
}

func (b Bundle) String() string {
	return fmt.Sprintf("TFIDF: %.2f, RIDF: %.2f, CLUST: %.2f, RAKE: %.2f",
		b.TFIDF, b.RIDF, b.Clusteredness, b.RAKE)
}
