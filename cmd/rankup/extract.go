package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cognicore/rankup/internal/docs"
	"github.com/cognicore/rankup/pkg/rankup"
	"github.com/cognicore/rankup/pkg/rankup/config"
	"github.com/cognicore/rankup/pkg/rankup/metrics"
)

type extractFlags struct {
	text        string
	top         int
	jsonOut     bool
	original    bool
	corpus      string
	backend     string
	metricsFile string
}

func newExtractCmd(g *globalFlags) *cobra.Command {
	f := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract [FILE...]",
		Short: "Extract and correct the keyphrases of documents",
		Long: `Extract keyphrases from text, HTML or JSONL files. Each line of a .jsonl
file is one document with "id", "title" and "text" fields. With --text the
argument itself is the document; with no files, standard input is read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, g, f, args)
		},
	}

	cmd.Flags().StringVar(&f.text, "text", "", "extract from this text instead of files")
	cmd.Flags().IntVarP(&f.top, "top", "n", 10, "keyphrases to print per document (0 prints all)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print one JSON object per document")
	cmd.Flags().BoolVar(&f.original, "original", false, "also print the uncorrected ranking")
	cmd.Flags().StringVar(&f.corpus, "corpus", "", "training corpus database (overrides corpus_path)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "textrank or rake (overrides backend)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")
	return cmd
}

func runExtract(cmd *cobra.Command, g *globalFlags, f *extractFlags, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if f.corpus != "" {
		cfg.CorpusPath = f.corpus
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	opts, err := cfg.Parse()
	if err != nil {
		return err
	}

	input, err := readInputs(cmd.InOrStdin(), f.text, args)
	if err != nil {
		return err
	}

	loader := config.LoaderFor(cfg)
	comp, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()
	res, err := comp.Resources(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder()
	if err := rec.Register(reg); err != nil {
		return err
	}
	opts.Logger = slog.Default()
	opts.Recorder = rec

	engine, err := rankup.New(res, opts)
	if err != nil {
		return err
	}
	slog.Debug("engine ready", "config", cfg.Summary(), "corpus", len(res.Corpus))

	out := cmd.OutOrStdout()
	failed := 0
	for _, d := range input {
		result, err := engine.Process(ctx, rankup.Document{ID: d.ID, Text: d.Body()})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			failed++
			slog.Error("extract failed", "doc", d.ID, "error", err)
			continue
		}
		if err := printResult(out, result, f); err != nil {
			return err
		}
	}

	if f.metricsFile != "" {
		if err := prometheus.WriteToTextfile(f.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(input))
	}
	return nil
}

// readInputs returns the documents named on the command line.
func readInputs(stdin io.Reader, text string, paths []string) ([]docs.Document, error) {
	if text != "" {
		return []docs.Document{{ID: "text", Text: text}}, nil
	}
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return []docs.Document{{ID: "stdin", Text: string(data)}}, nil
	}

	var out []docs.Document
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".jsonl") {
			batch, err := docs.LoadJSONL(p)
			if err != nil {
				return nil, err
			}
			out = append(out, batch...)
			continue
		}
		d, err := docs.LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type jsonPhrase struct {
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Original float64  `json:"original"`
	Expected *float64 `json:"expected,omitempty"`
}

type jsonResult struct {
	RunID       string       `json:"run_id"`
	DocumentID  string       `json:"document_id"`
	State       string       `json:"state"`
	Iterations  int          `json:"iterations"`
	Statistic   float64      `json:"statistic"`
	Flagged     int          `json:"flagged"`
	Keyphrases  []jsonPhrase `json:"keyphrases"`
	Original    []jsonPhrase `json:"original,omitempty"`
	Correctness *float64     `json:"correctness,omitempty"`
}

func toJSON(list []rankup.Ranked, top int) []jsonPhrase {
	list = limit(list, top)
	out := make([]jsonPhrase, len(list))
	for i, r := range list {
		out[i] = jsonPhrase{Text: r.Text, Score: r.Score, Original: r.Original}
		if r.Expected >= 0 {
			e := r.Expected
			out[i].Expected = &e
		}
	}
	return out
}

func limit(list []rankup.Ranked, top int) []rankup.Ranked {
	if top > 0 && len(list) > top {
		return list[:top]
	}
	return list
}

func printResult(w io.Writer, r *rankup.Result, f *extractFlags) error {
	if f.jsonOut {
		jr := jsonResult{
			RunID:      r.RunID,
			DocumentID: r.DocumentID,
			State:      r.Outcome.State.String(),
			Iterations: r.Outcome.Iterations,
			Statistic:  r.Outcome.Statistic,
			Flagged:    r.Boundaries.Assigned,
			Keyphrases: toJSON(r.Keyphrases, f.top),
		}
		if f.original {
			jr.Original = toJSON(r.Original, f.top)
		}
		if r.Correctness.Decided {
			c := r.Correctness.Final
			jr.Correctness = &c
		}
		return json.NewEncoder(w).Encode(jr)
	}

	fmt.Fprintf(w, "== %s  %s after %d iterations, %d flagged\n",
		r.DocumentID, r.Outcome.State, r.Outcome.Iterations, r.Boundaries.Assigned)
	for i, k := range limit(r.Keyphrases, f.top) {
		fmt.Fprintf(w, "%3d. %-40s %8.4f  (was %.4f)\n", i+1, k.Text, k.Score, k.Original)
	}
	if f.original {
		fmt.Fprintln(w, "-- original")
		for i, k := range limit(r.Original, f.top) {
			fmt.Fprintf(w, "%3d. %-40s %8.4f\n", i+1, k.Text, k.Score)
		}
	}
	return nil
}
