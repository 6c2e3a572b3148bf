package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/rankup/pkg/rankup"
	"github.com/cognicore/rankup/pkg/rankup/corpus"
	"github.com/cognicore/rankup/pkg/rankup/corpus/memstore"
	"github.com/cognicore/rankup/pkg/rankup/corpus/sqlite"
	"github.com/cognicore/rankup/pkg/rankup/ingest"
	"github.com/cognicore/rankup/pkg/rankup/lexicon"
	"github.com/cognicore/rankup/pkg/rankup/stoplist"
)

// Stoplist represents the stop word list file.
type Stoplist struct {
	Terms   []string `yaml:"terms"`
	Phrases []string `yaml:"phrases"`
	// Replace drops the built-in list instead of extending it.
	Replace bool `yaml:"replace"`
}

// LoadStoplist loads stop words and stop phrases from a YAML file.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Loader loads the resource files named in a Run.
type Loader struct {
	StoplistPath  string
	ThesaurusPath string
	CorpusPath    string
}

// LoaderFor returns the loader of cfg's resource paths.
func LoaderFor(cfg *Run) Loader {
	return Loader{
		StoplistPath:  cfg.StoplistPath,
		ThesaurusPath: cfg.ThesaurusPath,
		CorpusPath:    cfg.CorpusPath,
	}
}

// Components holds the loaded resources.
type Components struct {
	Tagger     *ingest.HeuristicTagger
	Lemmatizer *ingest.PorterLemmatizer
	Stops      *stoplist.Manager
	Lexicon    *lexicon.Lexicon
	Corpus     corpus.Store
}

// Load reads every configured file. Without a corpus path the corpus is an
// empty in-memory store.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	comp := &Components{
		Tagger:     ingest.NewHeuristicTagger(),
		Lemmatizer: ingest.NewPorterLemmatizer(),
	}

	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		if sl.Replace {
			comp.Stops = stoplist.NewManager(sl.Terms)
		} else {
			comp.Stops = stoplist.Default()
			for _, t := range sl.Terms {
				comp.Stops.Add(t, stoplist.Reason{})
			}
		}
		for _, p := range sl.Phrases {
			comp.Stops.AddPhrase(p)
		}
	} else {
		comp.Stops = stoplist.Default()
	}

	if l.ThesaurusPath != "" {
		lex, err := lexicon.LoadFromYAML(l.ThesaurusPath)
		if err != nil {
			return nil, fmt.Errorf("load thesaurus: %w", err)
		}
		comp.Lexicon = lex
	}

	if l.CorpusPath != "" {
		st, err := sqlite.OpenSQLite(ctx, l.CorpusPath)
		if err != nil {
			return nil, fmt.Errorf("open corpus: %w", err)
		}
		comp.Corpus = st
	} else {
		comp.Corpus = memstore.New()
	}

	return comp, nil
}

// Resources reads the corpus and returns the engine's resources.
func (c *Components) Resources(ctx context.Context) (rankup.Resources, error) {
	docs, err := c.Corpus.Docs(ctx)
	if err != nil {
		return rankup.Resources{}, fmt.Errorf("read corpus: %w", err)
	}
	res := rankup.Resources{
		Tagger:     c.Tagger,
		Lemmatizer: c.Lemmatizer,
		Stops:      c.Stops,
		Corpus:     docs,
	}
	if c.Lexicon != nil {
		res.Thesaurus = c.Lexicon
	}
	return res, nil
}

// Close releases the corpus store.
func (c *Components) Close() error {
	if c.Corpus == nil {
		return nil
	}
	return c.Corpus.Close()
}
