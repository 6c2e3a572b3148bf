// Command rankup extracts keyphrases from documents and maintains the
// training corpus used by the error detector.
//
// Usage:
//
//	rankup extract [--config rankup.yaml] [--top 10] [--json] FILE...
//	rankup corpus import --corpus corpus.db FILE...
//	rankup corpus stats --corpus corpus.db
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cognicore/rankup/pkg/rankup/config"
)

type globalFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "rankup",
		Short: "Keyphrase extraction with self-correcting rankings",
		Long: `rankup extracts keyphrases with TextRank or RAKE and then corrects the
ranking: candidates that an independent statistic (TF-IDF, RIDF,
clusteredness or RAKE) marks as over- or under-ranked get expected scores,
and edge weights are adjusted until the scores converge.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML run configuration")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file with RANKUP_ overrides")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log correction iterations")

	root.AddCommand(newExtractCmd(g), newCorpusCmd(g))
	return root
}

// setup loads the dotenv file and installs the default logger.
func (g *globalFlags) setup(cmd *cobra.Command) error {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", g.envFile, err)
		}
	}

	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the run configuration and joins every problem found.
func (g *globalFlags) loadConfig() (*config.Run, error) {
	cfg, errs := config.Load(g.configPath)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}
