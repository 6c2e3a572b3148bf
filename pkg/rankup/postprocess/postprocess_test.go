package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
	"github.com/cognicore/rankup/pkg/rankup/stoplist"
)

type plainStemmer struct{}

func (plainStemmer) StemText(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = strings.TrimSuffix(w, "s")
	}
	return strings.Join(words, " ")
}

func kp(text string) *phrase.Keyphrase {
	return phrase.New(text, "k:"+text, -1, 1, 1)
}

func texts(list []*phrase.Keyphrase) []string {
	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.Text
	}
	return out
}

func TestApplyDropsSubphrases(t *testing.T) {
	f := New(nil, plainStemmer{})

	got := f.Apply([]*phrase.Keyphrase{
		kp("neural networks"),
		kp("networks"),
		kp("neural network"),
		kp("graph models"),
		kp("net"),
		kp("network"),
	})

	assert.Equal(t, []string{"neural networks", "graph models"}, texts(got))
}

func TestApplyDropsSubstrings(t *testing.T) {
	f := New(nil, nil)

	neural := kp("neural networks")
	neural.SetScore(0.9)
	network := kp("network")
	network.SetScore(0.5)

	got := f.Apply([]*phrase.Keyphrase{neural, network, kp("graph"), kp("graphs")})
	assert.Equal(t, []string{"neural networks", "graph", "graphs"}, texts(got))
}

func TestApplyUsesFeatureStem(t *testing.T) {
	f := New(nil, nil)

	sup := kp("sparse matrices")
	sup.Features = &features.Bundle{StemmedPhrase: "spars matric"}
	sub := kp("matric")

	got := f.Apply([]*phrase.Keyphrase{sup, sub})
	assert.Equal(t, []string{"sparse matrices"}, texts(got))
}

func TestApplyRemovesStopPhrases(t *testing.T) {
	stops := stoplist.NewManager([]string{"paper"})
	stops.AddPhrase("proposed method")
	stops.AddPhrase("result")
	f := New(stops, plainStemmer{})

	withStem := kp("results")
	withStem.Features = &features.Bundle{StemmedPhrase: "result"}

	got := f.Apply([]*phrase.Keyphrase{
		kp("Proposed  Method"),
		kp("paper"),
		withStem,
		kp("graph partitioning"),
	})
	assert.Equal(t, []string{"graph partitioning"}, texts(got))
}

func TestApplyOrderMatters(t *testing.T) {
	f := New(nil, nil)

	got := f.Apply([]*phrase.Keyphrase{kp("graph"), kp("graph theory")})
	assert.Equal(t, []string{"graph", "graph theory"}, texts(got))
	assert.Empty(t, f.Apply(nil))
}
