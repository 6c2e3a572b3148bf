package stoplist

import (
	"reflect"
	"testing"
)

func TestManagerBasic(t *testing.T) {
	mgr := NewManager([]string{"The", "a", "and"})

	if !mgr.IsStop("the") {
		t.Error("'the' should be a stopword")
	}
	if !mgr.IsStop("AND") {
		t.Error("lookups should ignore case")
	}
	if mgr.IsStop("hello") {
		t.Error("'hello' should not be a stopword")
	}
}

func TestManagerAddRemove(t *testing.T) {
	mgr := NewManager([]string{"the"})

	mgr.Add("test", Reason{HighDF: true})
	if !mgr.IsStop("test") {
		t.Error("'test' should be stopword after adding")
	}
	if r, ok := mgr.Reason("test"); !ok || !r.HighDF {
		t.Errorf("expected HighDF reason, got %+v", r)
	}

	mgr.Remove("test")
	if mgr.IsStop("test") {
		t.Error("'test' should not be stopword after removing")
	}
}

func TestManagerAllSorted(t *testing.T) {
	mgr := NewManager([]string{"the", "a", "and"})

	all := mgr.All()
	expected := []string{"a", "and", "the"}
	if len(all) != len(expected) {
		t.Fatalf("Expected %d stopwords, got %d", len(expected), len(all))
	}
	for i := range expected {
		if all[i] != expected[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i], expected[i])
		}
	}
}

func TestDefaultList(t *testing.T) {
	mgr := Default()

	for _, w := range []string{"the", "however", "within"} {
		if !mgr.IsStop(w) {
			t.Errorf("%q should be in the default list", w)
		}
	}
	if r, _ := mgr.Reason("the"); !r.Builtin {
		t.Error("default words should be marked builtin")
	}
	if mgr.IsStop("network") {
		t.Error("'network' should not be a stopword")
	}
}

func TestStopPhrases(t *testing.T) {
	mgr := NewManager([]string{"paper"})
	mgr.AddPhrase("  Proposed   Method ")

	if !mgr.IsStopPhrase("proposed method") {
		t.Error("stop phrase should match after normalization")
	}
	if !mgr.IsStopPhrase("Paper") {
		t.Error("single stopword should count as a stop phrase")
	}
	if mgr.IsStopPhrase("paper review") {
		t.Error("multi-word phrase containing a stopword is not a stop phrase")
	}
	if got := mgr.Phrases(); len(got) != 1 || got[0] != "proposed method" {
		t.Errorf("unexpected phrases %v", got)
	}
}

func TestCorpusStats(t *testing.T) {
	stats := CorpusStats([]string{
		"the graph model",
		"The graph",
		"a model of the world",
		"the end",
	}, nil)

	if stats[0].Token != "the" || stats[0].DF != 4 || stats[0].DFPercent != 100 {
		t.Fatalf("expected 'the' first with DF 4, got %+v", stats[0])
	}
	if stats[0].IDF != 0 {
		t.Errorf("IDF of a word in every doc should be 0, got %f", stats[0].IDF)
	}
	if stats[1].Token != "graph" || stats[2].Token != "model" {
		t.Errorf("ties should sort by token, got %q %q", stats[1].Token, stats[2].Token)
	}
}

func TestCorpusStatsWithStoplist(t *testing.T) {
	texts := []string{"the graph model", "The graph", "a model of the world in 2024"}

	all := CorpusStats(texts, nil)
	for _, s := range all {
		if s.Token == "a" || s.Token == "2024" {
			t.Errorf("numbers and single characters should be dropped, got %q", s.Token)
		}
	}

	mgr := NewManager([]string{"the", "of", "in"})
	content := CorpusStats(texts, mgr.Tokenizer())
	var tokens []string
	for _, s := range content {
		tokens = append(tokens, s.Token)
	}
	if want := []string{"graph", "model", "world"}; !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestSuggestCandidates(t *testing.T) {
	mgr := NewManager([]string{"the"})
	stats := []Stats{
		{Token: "the", DF: 10, DFPercent: 100},
		{Token: "paper", DF: 8, DFPercent: 80, IDF: 0.22},
		{Token: "graph", DF: 3, DFPercent: 30},
	}

	got := mgr.SuggestCandidates(stats, DefaultThresholds(), 10)
	if len(got) != 1 || got[0].Token != "paper" {
		t.Fatalf("expected only 'paper', got %+v", got)
	}
	if !got[0].Reason.HighDF || got[0].Score != 0.8 {
		t.Errorf("unexpected candidate %+v", got[0])
	}

	if got := mgr.SuggestCandidates(stats, DefaultThresholds(), 3); got != nil {
		t.Errorf("small corpora should give no candidates, got %+v", got)
	}
}
