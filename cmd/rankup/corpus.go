package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/rankup/pkg/rankup/corpus"
	"github.com/cognicore/rankup/pkg/rankup/corpus/sqlite"
	"github.com/cognicore/rankup/pkg/rankup/ingest"
	"github.com/cognicore/rankup/pkg/rankup/stoplist"
)

type corpusFlags struct {
	path      string
	dfPercent float64
	minDocs   int
	limit     int
	content   bool
}

func newCorpusCmd(g *globalFlags) *cobra.Command {
	f := &corpusFlags{}
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the training corpus",
	}
	cmd.PersistentFlags().StringVar(&f.path, "corpus", "", "corpus database (defaults to corpus_path)")

	importCmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Add text, HTML or JSONL documents to the corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpusImport(cmd, g, f, args)
		},
	}

	thresholds := stoplist.DefaultThresholds()
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the corpus and suggest stop words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpusStats(cmd, g, f)
		},
	}
	statsCmd.Flags().Float64Var(&f.dfPercent, "df-percent", thresholds.DFPercent, "suggest words found in more than this share of documents")
	statsCmd.Flags().IntVar(&f.minDocs, "min-docs", thresholds.MinDocs, "smallest corpus that yields suggestions")
	statsCmd.Flags().IntVar(&f.limit, "limit", 20, "most frequent words to list")
	statsCmd.Flags().BoolVar(&f.content, "content-words", false, "leave stop words out of the frequency list")

	cmd.AddCommand(importCmd, statsCmd)
	return cmd
}

func (f *corpusFlags) open(ctx context.Context, g *globalFlags) (corpus.Store, error) {
	path := f.path
	if path == "" {
		cfg, err := g.loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.CorpusPath
	}
	if path == "" {
		return nil, fmt.Errorf("no corpus database: pass --corpus or set corpus_path")
	}
	return sqlite.OpenSQLite(ctx, path)
}

func runCorpusImport(cmd *cobra.Command, g *globalFlags, f *corpusFlags, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	input, err := readInputs(nil, "", args)
	if err != nil {
		return err
	}
	st, err := f.open(ctx, g)
	if err != nil {
		return err
	}
	defer st.Close()

	lem := ingest.NewPorterLemmatizer()
	now := time.Now()
	for _, d := range input {
		body := d.Body()
		doc := corpus.Doc{
			ID:      d.ID,
			Title:   d.Title,
			Source:  d.Source,
			Text:    body,
			Stemmed: lem.StemText(body),
			AddedAt: now,
		}
		if !d.PublishedAt.IsZero() {
			doc.AddedAt = d.PublishedAt
		}
		if err := st.UpsertDoc(ctx, doc); err != nil {
			return fmt.Errorf("store %s: %w", d.ID, err)
		}
		slog.Debug("document imported", "doc", d.ID, "words", len(ingest.Words(body)))
	}

	n, err := st.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents, corpus holds %d\n", len(input), n)
	return nil
}

func runCorpusStats(cmd *cobra.Command, g *globalFlags, f *corpusFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := f.open(ctx, g)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.Docs(ctx)
	if err != nil {
		return err
	}
	sum := corpus.Summarize(all)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "documents: %d\nwords: %d\naverage length: %.1f\n", sum.Docs, sum.Words, sum.AvgLength)

	texts := make([]string, len(all))
	for i, d := range all {
		texts[i] = d.Text
	}
	stops := stoplist.Default()
	var tok *ingest.Tokenizer
	if f.content {
		tok = stops.Tokenizer()
	}
	stats := stoplist.CorpusStats(texts, tok)

	fmt.Fprintln(out, "most frequent words:")
	for i, s := range stats {
		if i >= f.limit {
			break
		}
		fmt.Fprintf(out, "  %-20s df=%-6d %5.1f%%  idf=%.3f\n", s.Token, s.DF, s.DFPercent, s.IDF)
	}

	candidates := stops.SuggestCandidates(stats, stoplist.Thresholds{DFPercent: f.dfPercent, MinDocs: f.minDocs}, len(all))
	if len(candidates) == 0 {
		fmt.Fprintln(out, "no stop word candidates")
		return nil
	}
	fmt.Fprintln(out, "stop word candidates:")
	for _, c := range candidates {
		fmt.Fprintf(out, "  %-20s %.2f\n", c.Token, c.Score)
	}
	return nil
}
