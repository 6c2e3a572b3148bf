// Package rankup extracts keyphrases with a graph-based back-end and then
// corrects the ranking with the RankUp feedback loop: candidates are
// classified by an independent statistical feature, anomalous ones receive
// expected scores and edge weights are perturbed until the scores converge.
package rankup

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/rankup/pkg/rankup/classify"
	"github.com/cognicore/rankup/pkg/rankup/corpus"
	"github.com/cognicore/rankup/pkg/rankup/correct"
	"github.com/cognicore/rankup/pkg/rankup/detect"
	"github.com/cognicore/rankup/pkg/rankup/extract/rake"
	"github.com/cognicore/rankup/pkg/rankup/extract/textrank"
	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/ingest"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/lexicon"
	"github.com/cognicore/rankup/pkg/rankup/metric"
	"github.com/cognicore/rankup/pkg/rankup/phrase"
	"github.com/cognicore/rankup/pkg/rankup/postprocess"
	"github.com/cognicore/rankup/pkg/rankup/stoplist"
)

// DefaultStateCacheSize bounds the number of documents whose extraction
// state is kept for reuse.
const DefaultStateCacheSize = 256

// Backend selects the keyphrase extractor.
type Backend int

const (
	TextRank Backend = iota
	RAKE
)

func (b Backend) String() string {
	if b == RAKE {
		return "rake"
	}
	return "textrank"
}

// ParseBackend parses a back-end name.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "textrank", "":
		return TextRank, nil
	case "rake":
		return RAKE, nil
	default:
		return 0, fmt.Errorf("%w: unknown backend %q", internalerr.ErrInvalidConfig, s)
	}
}

// StopList is the stop word and stop phrase source shared by the
// extractors and the post-filter.
type StopList interface {
	IsStop(word string) bool
	IsStopPhrase(p string) bool
}

// Recorder receives one observation per processed document.
type Recorder interface {
	ObserveRun(backend string, out correct.Outcome, elapsed time.Duration)
	ObserveFailure(backend string)
}

// Options configures an Engine.
type Options struct {
	Backend Backend

	// Feature is the statistic keyphrases are classified by.
	Feature        features.Feature
	SetPolicy      classify.Policy
	LowerBound     float64
	UpperBound     float64
	ExpectedPolicy detect.Policy

	LearningRate float64
	Threshold    float64
	Scheme       correct.Scheme
	Rule         correct.Rule

	RevertOnDivergence      bool
	ClampNegativeWeights    bool
	DifferentialConvergence bool
	Denormalize             bool
	WholeGraph              bool
	Postprocess             bool

	Propagate graph.PropagateOptions
	Metric    metric.Options

	// CacheSize bounds both the feature cache and the document state
	// cache. Zero selects the package defaults.
	CacheSize int

	Logger   *slog.Logger
	Recorder Recorder
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		Backend:              TextRank,
		Feature:              features.TFIDF,
		SetPolicy:            classify.Mean,
		LowerBound:           1.0,
		UpperBound:           1.0,
		ExpectedPolicy:       detect.MinMax,
		LearningRate:         0.1,
		Threshold:            graph.DefaultThreshold,
		Scheme:               correct.SchemeStdError,
		Rule:                 correct.NoIncrease,
		RevertOnDivergence:   true,
		ClampNegativeWeights: true,
		Postprocess:          true,
		Propagate:            graph.PropagateOptions{Damping: graph.DefaultDamping},
		Metric:               metric.Options{Weights: metric.DefaultWeights(), MaxTokens: metric.DefaultMaxTokens},
	}
}

// Resources are the shared read-only collaborators of an Engine. Nil
// members fall back to the built-in defaults; Thesaurus may stay nil.
type Resources struct {
	Tagger     ingest.Tagger
	Lemmatizer ingest.Lemmatizer
	Stops      StopList
	Thesaurus  lexicon.Thesaurus
	Corpus     []corpus.Doc
}

// Document is one text to extract keyphrases from.
type Document struct {
	ID   string
	Text string
}

// Ranked is one keyphrase of a result.
type Ranked struct {
	Text     string
	Score    float64
	Original float64
	// Expected is graph.Unset unless the detector flagged the phrase.
	Expected float64
	Features *features.Bundle
}

// Correctness reports the fraction of flagged keyphrases that moved in
// the expected direction. Decided is false when nothing was flagged.
type Correctness struct {
	Score   float64
	Final   float64
	Node    float64
	Decided bool
}

// Result is the outcome of processing one document.
type Result struct {
	RunID      string
	DocumentID string
	// Keyphrases are ranked by corrected score, Original by the score
	// the back-end produced.
	Keyphrases  []Ranked
	Original    []Ranked
	Outcome     correct.Outcome
	Boundaries  detect.Boundaries
	Correctness Correctness
}

// Engine runs the extraction and correction pipeline.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	opts       Options
	lemmatizer ingest.Lemmatizer
	stops      StopList
	extractor  *textrank.Extractor
	composer   *metric.Composer
	features   *features.Calculator
	filter     *postprocess.Filter
	states     *lru.Cache[string, *docState]
	entropy    io.Reader
	logger     *slog.Logger
}

// New wires an engine from its resources.
func New(res Resources, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: learning rate must be positive, got %g", internalerr.ErrInvalidConfig, opts.LearningRate)
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %g", internalerr.ErrInvalidConfig, opts.Threshold)
	}
	if res.Tagger == nil {
		res.Tagger = ingest.NewHeuristicTagger()
	}
	if res.Lemmatizer == nil {
		res.Lemmatizer = ingest.NewPorterLemmatizer()
	}
	if res.Stops == nil {
		res.Stops = stoplist.Default()
	}

	calc, err := features.NewCalculator(res.Corpus, res.Lemmatizer, opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("feature cache: %w", err)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultStateCacheSize
	}
	states, err := lru.New[string, *docState](size)
	if err != nil {
		return nil, fmt.Errorf("state cache: %w", err)
	}

	composer := metric.NewComposer(opts.Metric)
	e := &Engine{
		opts:       opts,
		lemmatizer: res.Lemmatizer,
		stops:      res.Stops,
		composer:   composer,
		features:   calc,
		filter:     postprocess.New(res.Stops, res.Lemmatizer),
		states:     states,
		entropy:    ulid.Monotonic(rand.Reader, 0),
		logger:     opts.Logger,
	}
	e.extractor = textrank.New(res.Tagger, res.Lemmatizer, res.Stops, res.Thesaurus, textrank.Options{
		Propagate:  opts.Propagate,
		Composer:   composer,
		WholeGraph: opts.WholeGraph,
		Logger:     opts.Logger,
	})
	return e, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// docState is the extraction of one document, kept so that a second run
// on the same document starts from the original graph.
type docState struct {
	text     string
	textrank *textrank.Result
	model    *rake.Model
	rake     *rake.Result
	// scores are the RAKE keyphrase scores used by the RAKE feature.
	scores map[string]float64
}

func (s *docState) graph() *graph.Graph {
	if s.rake != nil {
		return s.rake.Graph
	}
	return s.textrank.Graph
}

// classified are the keyphrases the detector assigns expected scores to.
func (s *docState) classified() []*phrase.Keyphrase {
	if s.rake != nil {
		return s.rake.Feedback
	}
	return s.textrank.Keyphrases
}

// results are the keyphrases the document is ranked by.
func (s *docState) results() []*phrase.Keyphrase {
	if s.rake != nil {
		return s.rake.Results
	}
	return s.textrank.Keyphrases
}

func (s *docState) reset() {
	s.graph().Reset()
	for _, k := range s.classified() {
		k.Reset()
	}
	if s.rake != nil {
		for _, k := range s.rake.Results {
			k.Reset()
		}
		s.model.Restore(s.rake.State)
	}
}

// Process extracts and corrects the keyphrases of doc.
func (e *Engine) Process(ctx context.Context, doc Document) (*Result, error) {
	start := time.Now()
	runID := ulid.MustNew(ulid.Now(), e.entropy).String()
	if doc.ID == "" {
		doc.ID = runID
	}

	res, err := e.process(ctx, doc)
	if err != nil {
		if st, ok := e.states.Peek(doc.ID); ok {
			st.reset()
		}
		if e.opts.Recorder != nil {
			e.opts.Recorder.ObserveFailure(e.opts.Backend.String())
		}
		e.logger.Warn("document failed", "doc", doc.ID, "backend", e.opts.Backend, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", internalerr.ErrDocumentFailed, doc.ID, err)
	}
	res.RunID = runID

	elapsed := time.Since(start)
	if e.opts.Recorder != nil {
		e.opts.Recorder.ObserveRun(e.opts.Backend.String(), res.Outcome, elapsed)
	}
	e.logger.Info("document processed",
		"doc", doc.ID,
		"run", runID,
		"backend", e.opts.Backend,
		"state", res.Outcome.State,
		"iterations", res.Outcome.Iterations,
		"flagged", res.Boundaries.Assigned,
		"keyphrases", len(res.Keyphrases),
		"elapsed", elapsed)
	return res, nil
}

func (e *Engine) process(ctx context.Context, doc Document) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: no text", internalerr.ErrEmptyDocument)
	}

	st, err := e.state(doc)
	if err != nil {
		return nil, err
	}

	fdoc := features.Document{ID: doc.ID, Text: doc.Text, Stemmed: e.lemmatizer.StemText(doc.Text)}
	list := st.classified()
	for _, k := range list {
		b := e.features.Compute(fdoc, k.Text, st.scores)
		k.Features = &b
	}

	cls := classify.Classify(list, classify.Options{
		Feature:    e.opts.Feature,
		Policy:     e.opts.SetPolicy,
		LowerBound: e.opts.LowerBound,
		UpperBound: e.opts.UpperBound,
	})
	g := st.graph()
	bounds := detect.Assign(cls, e.opts.ExpectedPolicy, g)
	e.logger.Debug("errors detected",
		"doc", doc.ID,
		"feature", e.opts.Feature,
		"low", len(cls.FeatureSet(classify.Low)),
		"high", len(cls.FeatureSet(classify.High)),
		"max_expected", bounds.MaxExpected,
		"min_expected", bounds.MinExpected,
		"assigned", bounds.Assigned)

	out, err := correct.Run(ctx, e.strategy(st), correct.Options{
		LearningRate:            e.opts.LearningRate,
		Threshold:               e.opts.Threshold,
		Scheme:                  e.opts.Scheme,
		Rule:                    e.opts.Rule,
		RevertOnDivergence:      e.opts.RevertOnDivergence,
		ClampNegativeWeights:    e.opts.ClampNegativeWeights,
		DifferentialConvergence: e.opts.DifferentialConvergence,
		Logger:                  e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("correct: %w", err)
	}

	final := make([]*phrase.Keyphrase, 0, len(st.results()))
	for _, k := range st.results() {
		if k.FinalScore >= 0 {
			final = append(final, k)
		}
	}
	phrase.SortByFinal(final)
	if e.opts.Postprocess {
		final = e.filter.Apply(final)
	}

	res := &Result{
		DocumentID: doc.ID,
		Keyphrases: make([]Ranked, len(final)),
		Original:   originalRanking(st.results()),
		Outcome:    out,
		Boundaries: bounds,
	}
	for i, k := range final {
		res.Keyphrases[i] = Ranked{
			Text:     k.Text,
			Score:    k.FinalScore,
			Original: k.OriginalScore,
			Expected: k.ExpectedScore,
			Features: k.Features,
		}
	}
	res.Correctness = correctness(list, g)
	return res, nil
}

// state returns the cached extraction of doc reset to its original
// values, or extracts the document afresh.
func (e *Engine) state(doc Document) (*docState, error) {
	if st, ok := e.states.Get(doc.ID); ok && st.text == doc.Text {
		st.reset()
		e.logger.Debug("document state reused", "doc", doc.ID)
		return st, nil
	}
	e.features.Forget(doc.ID)

	st := &docState{text: doc.Text}
	switch e.opts.Backend {
	case RAKE:
		st.model = rake.New(e.stops)
		r, err := st.model.Extract(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("rake: %w", err)
		}
		st.rake = r
		st.scores = r.Keyphrases
	default:
		r, err := e.extractor.Extract(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("textrank: %w", err)
		}
		st.textrank = r
		if e.opts.Feature == features.RAKE {
			scores, _, err := rake.New(e.stops).Run(doc.Text)
			if err != nil && !errors.Is(err, internalerr.ErrEmptyDocument) {
				return nil, fmt.Errorf("rake scores: %w", err)
			}
			st.scores = scores
		}
	}
	e.states.Add(doc.ID, st)
	return st, nil
}

func (e *Engine) strategy(st *docState) correct.Strategy {
	if st.rake != nil {
		return correct.NewCooccurrenceStrategy(st.rake.Graph, st.model, st.rake.Feedback, st.rake.Results)
	}
	return correct.NewPropagationStrategy(st.textrank.Graph, st.textrank.Keyphrases, correct.PropagationConfig{
		WholeGraph:  e.opts.WholeGraph,
		Denormalize: e.opts.Denormalize,
		Propagate:   e.opts.Propagate,
		Composer:    e.composer,
	})
}

// originalRanking orders keyphrases by the back-end's score, keeping the
// first occurrence of each text and skipping phrases without one.
func originalRanking(list []*phrase.Keyphrase) []Ranked {
	sorted := make([]*phrase.Keyphrase, 0, len(list))
	for _, k := range list {
		if k.OriginalScore >= 0 {
			sorted = append(sorted, k)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OriginalScore != sorted[j].OriginalScore {
			return sorted[i].OriginalScore > sorted[j].OriginalScore
		}
		return sorted[i].Text < sorted[j].Text
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]Ranked, 0, len(sorted))
	for _, k := range sorted {
		if seen[k.Text] {
			continue
		}
		seen[k.Text] = true
		out = append(out, Ranked{
			Text:     k.Text,
			Score:    k.OriginalScore,
			Original: k.OriginalScore,
			Expected: k.ExpectedScore,
			Features: k.Features,
		})
	}
	return out
}

func correctness(list []*phrase.Keyphrase, g *graph.Graph) Correctness {
	var c Correctness
	c.Score, c.Decided = phrase.Correctness(list, (*phrase.Keyphrase).ScoreDirectionCorrect)
	c.Final, _ = phrase.Correctness(list, (*phrase.Keyphrase).FinalScoreDirectionCorrect)
	c.Node, _ = phrase.Correctness(list, func(k *phrase.Keyphrase) (bool, bool) {
		return k.NodeDirectionCorrect(g)
	})
	return c
}
