// Package textrank builds the keyword graph of a document, ranks it with
// weighted TextRank and turns the ranked n-grams into keyphrases.
package textrank

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/ingest"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/lexicon"
	"github.com/cognicore/rankup/pkg/rankup/metric"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
)

const (
	// InclusiveCoeff widens the n-gram rank threshold above the mean.
	InclusiveCoeff = 0.25
	// MaxSynsetText and MaxSynsetGraph bound the documents for which the
	// thesaurus is consulted.
	MaxSynsetText  = 2000
	MaxSynsetGraph = 600
	// MinSynsetLinks is the number of nodes a synset must join to be kept.
	MinSynsetLinks = 2
)

// Node key prefixes.
const (
	KeywordPrefix = "KEYWORD_"
	NGramPrefix   = "NGRAM_"
	SynsetPrefix  = "SYNSET_"
)

// StopList decides which words never become keyword nodes.
type StopList interface {
	IsStop(word string) bool
}

// Options tunes an Extractor.
type Options struct {
	Propagate graph.PropagateOptions
	Composer  *metric.Composer
	// WholeGraph makes every non-synset node a keyphrase scored by its
	// rank. Otherwise only n-grams with a metric vector are keyphrases.
	WholeGraph bool
	Logger     *slog.Logger
}

// Extractor runs TextRank over one document at a time.
type Extractor struct {
	tagger     ingest.Tagger
	lemmatizer ingest.Lemmatizer
	stops      StopList
	thesaurus  lexicon.Thesaurus
	opts       Options
}

// New creates an extractor. thesaurus may be nil.
func New(tagger ingest.Tagger, lemmatizer ingest.Lemmatizer, stops StopList, thesaurus lexicon.Thesaurus, opts Options) *Extractor {
	if opts.Composer == nil {
		opts.Composer = metric.NewComposer(metric.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		tagger:     tagger,
		lemmatizer: lemmatizer,
		stops:      stops,
		thesaurus:  thesaurus,
		opts:       opts,
	}
}

// Composer returns the metric composer used for scoring.
func (e *Extractor) Composer() *metric.Composer {
	return e.opts.Composer
}

// Result is the ranked graph of one document.
type Result struct {
	Graph      *graph.Graph
	Keyphrases []*phrase.Keyphrase
	Vectors    []metric.Vector
	// Threshold is the keyword rank an n-gram member had to reach.
	Threshold float64
	Synsets   int
}

type slot struct {
	node    int
	surface string
	lemma   string
}

type ngram struct {
	key     string
	text    string
	members []int
	count   int
}

// Extract builds and ranks the graph of text.
func (e *Extractor) Extract(text string) (*Result, error) {
	tokens, err := e.tagger.Tag(text)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}

	g := graph.New()
	sentences := e.mapTokens(g, tokens)
	if g.Len() == 0 {
		return nil, fmt.Errorf("%w: no keyword candidates", internalerr.ErrEmptyDocument)
	}

	first := g.Propagate(e.opts.Propagate)
	threshold := rankThreshold(g)
	grams := collectNGrams(g, sentences, threshold)
	e.opts.Logger.Debug("textrank keywords ranked",
		"nodes", g.Len(), "iterations", first.Iterations, "threshold", threshold, "ngrams", len(grams))

	for _, ng := range grams {
		if !e.opts.Composer.Eligible(ng.text) {
			continue
		}
		n, _ := g.GetOrCreate(ng.key, ng.text, graph.KindNGram)
		n.Count = ng.count
		n.Members = ng.members
		for _, m := range ng.members {
			g.Connect(n.Index, m, graph.DefaultEdgeWeight)
		}
	}

	synsets := 0
	if e.thesaurus != nil && len(text) < MaxSynsetText && g.Len() < MaxSynsetGraph {
		synsets = e.addSynsets(g)
	}

	second := g.Propagate(e.opts.Propagate)
	vectors := e.opts.Composer.Compose(g)
	e.opts.Logger.Debug("textrank graph augmented",
		"nodes", g.Len(), "synsets", synsets, "iterations", second.Iterations, "vectors", len(vectors))

	res := &Result{
		Graph:      g,
		Keyphrases: e.keyphrases(g, vectors),
		Vectors:    vectors,
		Threshold:  threshold,
		Synsets:    synsets,
	}
	g.MarkOriginal()
	return res, nil
}

// mapTokens creates a keyword node per significant noun or adjective and
// links each to the previous one of the same sentence.
func (e *Extractor) mapTokens(g *graph.Graph, tokens []ingest.TaggedToken) [][]slot {
	var sentences [][]slot
	current := -1
	last := -1

	for _, tok := range tokens {
		if tok.Sentence != current || sentences == nil {
			sentences = append(sentences, nil)
			current = tok.Sentence
			last = -1
		}
		s := slot{node: -1, surface: strings.TrimSuffix(tok.Text, "-")}

		if (tok.IsNoun() || tok.IsAdjective()) && e.significant(s.surface) {
			lemma := e.lemmatizer.Lemmatize(tok)
			if lemma == "" {
				lemma = s.surface
			}
			n, _ := g.GetOrCreate(KeywordPrefix+lemma, lemma, graph.KindKeyword)
			if last >= 0 && last != n.Index {
				g.Connect(last, n.Index, graph.DefaultEdgeWeight)
			}
			last = n.Index
			s.node = n.Index
			s.lemma = lemma
		}
		sentences[len(sentences)-1] = append(sentences[len(sentences)-1], s)
	}
	return sentences
}

func (e *Extractor) significant(word string) bool {
	if e.stops != nil && e.stops.IsStop(word) {
		return false
	}
	return len(word) >= 2 && ingest.HasLetter(word)
}

// rankThreshold is mean + InclusiveCoeff·σ over the keyword ranks, capped
// at the highest rank so that at least one keyword qualifies.
func rankThreshold(g *graph.Graph) float64 {
	idx := g.OfKind(graph.KindKeyword)
	ranks := make([]float64, len(idx))
	for i, j := range idx {
		ranks[i] = g.Node(j).Rank
	}
	if len(ranks) < 2 {
		if len(ranks) == 1 {
			return ranks[0]
		}
		return 0
	}
	mean, sd := stat.MeanStdDev(ranks, nil)
	return math.Min(mean+sd*InclusiveCoeff, floats.Max(ranks))
}

// collectNGrams returns every maximal run of adjacent keyword tokens whose
// nodes rank at or above threshold, in order of first appearance.
func collectNGrams(g *graph.Graph, sentences [][]slot, threshold float64) []*ngram {
	var out []*ngram
	byKey := make(map[string]*ngram)

	emit := func(run []slot) {
		if len(run) == 0 {
			return
		}
		surfaces := make([]string, len(run))
		lemmas := make([]string, len(run))
		members := make([]int, 0, len(run))
		seen := make(map[int]bool)
		for i, s := range run {
			surfaces[i] = s.surface
			lemmas[i] = s.lemma
			if !seen[s.node] {
				seen[s.node] = true
				members = append(members, s.node)
			}
		}
		key := NGramPrefix + strings.Join(lemmas, " ")
		if ng, ok := byKey[key]; ok {
			ng.count++
			return
		}
		ng := &ngram{key: key, text: strings.Join(surfaces, " "), members: members, count: 1}
		byKey[key] = ng
		out = append(out, ng)
	}

	for _, sentence := range sentences {
		var run []slot
		for _, s := range sentence {
			if s.node >= 0 && g.Node(s.node).Rank >= threshold {
				run = append(run, s)
				continue
			}
			emit(run)
			run = nil
		}
		emit(run)
	}
	return out
}

// addSynsets looks up every keyword and multi-word n-gram in the thesaurus
// and adds the synsets that join at least MinSynsetLinks nodes.
func (e *Extractor) addSynsets(g *graph.Graph) int {
	links := make(map[string][]int)
	var order []string

	lookup := func(i int) {
		for _, sense := range senses(e.thesaurus, g.Node(i).Text) {
			if _, ok := links[sense]; !ok {
				order = append(order, sense)
			}
			links[sense] = appendUnique(links[sense], i)
		}
	}
	for _, i := range g.OfKind(graph.KindKeyword) {
		lookup(i)
	}
	for _, i := range g.OfKind(graph.KindNGram) {
		if len(g.Node(i).Members) > 1 || strings.Contains(g.Node(i).Text, " ") {
			lookup(i)
		}
	}

	added := 0
	for _, sense := range order {
		nodes := links[sense]
		if len(nodes) < MinSynsetLinks {
			continue
		}
		n, _ := g.GetOrCreate(SynsetPrefix+sense, sense, graph.KindSynset)
		for _, i := range nodes {
			g.Connect(n.Index, i, graph.DefaultEdgeWeight)
		}
		added++
	}
	return added
}

func senses(t lexicon.Thesaurus, term string) []string {
	if gr, ok := t.(lexicon.Grouper); ok {
		return gr.Groups(term)
	}
	return t.Synonyms(term)
}

func appendUnique(list []int, v int) []int {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func (e *Extractor) keyphrases(g *graph.Graph, vectors []metric.Vector) []*phrase.Keyphrase {
	if !e.opts.WholeGraph {
		out := make([]*phrase.Keyphrase, 0, len(vectors))
		for _, v := range vectors {
			out = append(out, phrase.New(v.Text, g.Node(v.Index).Key, v.Index, v.Metric, v.Metric))
		}
		return out
	}

	metrics := make(map[int]float64, len(vectors))
	for _, v := range vectors {
		metrics[v.Index] = v.Metric
	}
	var out []*phrase.Keyphrase
	for _, n := range g.Nodes() {
		if n.Kind == graph.KindSynset {
			continue
		}
		original, ok := metrics[n.Index]
		if !ok {
			original = graph.Unset
		}
		out = append(out, phrase.New(n.Text, n.Key, n.Index, n.Rank, original))
	}
	return out
}
