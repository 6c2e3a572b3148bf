// Package config loads the run configuration and the resource files the
// engine is built from.
//
// Settings come from an optional YAML file and are overridden per key by
// RANKUP_-prefixed environment variables (RANKUP_LEARNING_RATE overrides
// learning_rate).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/cognicore/rankup/pkg/rankup"
	"github.com/cognicore/rankup/pkg/rankup/classify"
	"github.com/cognicore/rankup/pkg/rankup/correct"
	"github.com/cognicore/rankup/pkg/rankup/detect"
	"github.com/cognicore/rankup/pkg/rankup/features"
	"github.com/cognicore/rankup/pkg/rankup/graph"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
	"github.com/cognicore/rankup/pkg/rankup/metric"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RANKUP_"

// Default values.
const (
	DefaultBackend            = "textrank"
	DefaultApproach           = "TFIDF"
	DefaultSetAssignment      = "MEAN"
	DefaultBound              = 1.0
	DefaultExpectedScoreValue = "MINMAX"
	DefaultLearningRate       = 0.1
	DefaultThreshold          = graph.DefaultThreshold
	DefaultScheme             = "STD_ERROR"
	DefaultRule               = "NO_INCREASE"
	DefaultRevertGraphs       = true
	DefaultCorrectNegative    = true
	DefaultPostprocess        = true
	DefaultDamping            = graph.DefaultDamping
	DefaultMaxNGramLength     = metric.DefaultMaxTokens
)

// Run holds one run configuration. Policies stay strings until Parse.
type Run struct {
	Backend                 string  `koanf:"backend"`
	ErrorDetectingApproach  string  `koanf:"error_detecting_approach"`
	SetAssignmentApproach   string  `koanf:"set_assignment_approach"`
	FeatureLowerBound       float64 `koanf:"feature_lower_bound"`
	FeatureUpperBound       float64 `koanf:"feature_upper_bound"`
	ExpectedScoreValue      string  `koanf:"expected_score_value"`
	LearningRate            float64 `koanf:"learning_rate"`
	StandardErrorThreshold  float64 `koanf:"standard_error_threshold"`
	ConvergenceScheme       string  `koanf:"convergence_scheme"`
	ConvergenceRule         string  `koanf:"convergence_rule"`
	RevertGraphs            bool    `koanf:"revert_graphs"`
	CorrectNegativeWeights  bool    `koanf:"correct_negative_weights"`
	DenormalizeModification bool    `koanf:"denormalize_modification_value"`
	DifferentialConvergence bool    `koanf:"use_differential_convergence"`
	WholeGraph              bool    `koanf:"use_whole_graph"`
	Postprocess             bool    `koanf:"postprocess"`
	Damping                 float64 `koanf:"damping"`
	MaxNGramLength          int     `koanf:"max_ngram_length"`

	StoplistPath  string `koanf:"stoplist_path"`
	ThesaurusPath string `koanf:"thesaurus_path"`
	CorpusPath    string `koanf:"corpus_path"`
}

// Default returns the configuration used when nothing is set.
func Default() *Run {
	return &Run{
		Backend:                DefaultBackend,
		ErrorDetectingApproach: DefaultApproach,
		SetAssignmentApproach:  DefaultSetAssignment,
		FeatureLowerBound:      DefaultBound,
		FeatureUpperBound:      DefaultBound,
		ExpectedScoreValue:     DefaultExpectedScoreValue,
		LearningRate:           DefaultLearningRate,
		StandardErrorThreshold: DefaultThreshold,
		ConvergenceScheme:      DefaultScheme,
		ConvergenceRule:        DefaultRule,
		RevertGraphs:           DefaultRevertGraphs,
		CorrectNegativeWeights: DefaultCorrectNegative,
		Postprocess:            DefaultPostprocess,
		Damping:                DefaultDamping,
		MaxNGramLength:         DefaultMaxNGramLength,
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and fills the rest with defaults. It returns the
// configuration and every problem found, including validation errors.
func Load(path string) (*Run, []error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("%w: load config file %s: %w", internalerr.ErrInvalidConfig, path, err)}
		}
	}

	var errs []error
	floatVal := func(key string, def float64) float64 {
		v, err := getEnvFloatOrDefault(key, k, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	boolVal := func(key string, def bool) bool {
		v, err := getEnvBoolOrDefault(key, k, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	maxNGram, err := getEnvIntOrDefault("max_ngram_length", k, DefaultMaxNGramLength)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Run{
		Backend:                 getEnvOrDefault("backend", k, DefaultBackend),
		ErrorDetectingApproach:  getEnvOrDefault("error_detecting_approach", k, DefaultApproach),
		SetAssignmentApproach:   getEnvOrDefault("set_assignment_approach", k, DefaultSetAssignment),
		FeatureLowerBound:       floatVal("feature_lower_bound", DefaultBound),
		FeatureUpperBound:       floatVal("feature_upper_bound", DefaultBound),
		ExpectedScoreValue:      getEnvOrDefault("expected_score_value", k, DefaultExpectedScoreValue),
		LearningRate:            floatVal("learning_rate", DefaultLearningRate),
		StandardErrorThreshold:  floatVal("standard_error_threshold", DefaultThreshold),
		ConvergenceScheme:       getEnvOrDefault("convergence_scheme", k, DefaultScheme),
		ConvergenceRule:         getEnvOrDefault("convergence_rule", k, DefaultRule),
		RevertGraphs:            boolVal("revert_graphs", DefaultRevertGraphs),
		CorrectNegativeWeights:  boolVal("correct_negative_weights", DefaultCorrectNegative),
		DenormalizeModification: boolVal("denormalize_modification_value", false),
		DifferentialConvergence: boolVal("use_differential_convergence", false),
		WholeGraph:              boolVal("use_whole_graph", false),
		Postprocess:             boolVal("postprocess", DefaultPostprocess),
		Damping:                 floatVal("damping", DefaultDamping),
		MaxNGramLength:          maxNGram,
		StoplistPath:            getEnvOrDefault("stoplist_path", k, ""),
		ThesaurusPath:           getEnvOrDefault("thesaurus_path", k, ""),
		CorpusPath:              getEnvOrDefault("corpus_path", k, ""),
	}
	if len(errs) > 0 {
		return cfg, errs
	}
	return cfg, cfg.Validate()
}

// Validate checks numeric ranges and that every policy name parses.
func (c *Run) Validate() []error {
	var errs []error
	if _, err := c.Parse(); err != nil {
		errs = append(errs, err)
	}
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: learning_rate must be positive", internalerr.ErrInvalidConfig))
	}
	if c.StandardErrorThreshold <= 0 {
		errs = append(errs, fmt.Errorf("%w: standard_error_threshold must be positive", internalerr.ErrInvalidConfig))
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		errs = append(errs, fmt.Errorf("%w: damping must be in (0, 1)", internalerr.ErrInvalidConfig))
	}
	if c.FeatureLowerBound < 0 || c.FeatureUpperBound < 0 {
		errs = append(errs, fmt.Errorf("%w: feature bounds must not be negative", internalerr.ErrInvalidConfig))
	}
	if c.MaxNGramLength < 2 {
		errs = append(errs, fmt.Errorf("%w: max_ngram_length must be at least 2", internalerr.ErrInvalidConfig))
	}
	return errs
}

// Parse converts the configuration into engine options. It fails on the
// first unknown policy name.
func (c *Run) Parse() (rankup.Options, error) {
	opts := rankup.DefaultOptions()
	var err error

	if opts.Backend, err = rankup.ParseBackend(c.Backend); err != nil {
		return opts, err
	}
	if opts.Feature, err = features.ParseApproach(c.ErrorDetectingApproach); err != nil {
		return opts, err
	}
	if opts.SetPolicy, err = classify.ParsePolicy(c.SetAssignmentApproach); err != nil {
		return opts, err
	}
	if opts.ExpectedPolicy, err = detect.ParsePolicy(c.ExpectedScoreValue); err != nil {
		return opts, err
	}
	if opts.Scheme, err = correct.ParseScheme(c.ConvergenceScheme); err != nil {
		return opts, err
	}
	if opts.Rule, err = correct.ParseRule(c.ConvergenceRule); err != nil {
		return opts, err
	}

	opts.LowerBound = c.FeatureLowerBound
	opts.UpperBound = c.FeatureUpperBound
	opts.LearningRate = c.LearningRate
	opts.Threshold = c.StandardErrorThreshold
	opts.RevertOnDivergence = c.RevertGraphs
	opts.ClampNegativeWeights = c.CorrectNegativeWeights
	opts.Denormalize = c.DenormalizeModification
	opts.DifferentialConvergence = c.DifferentialConvergence
	opts.WholeGraph = c.WholeGraph
	opts.Postprocess = c.Postprocess
	opts.Propagate.Damping = c.Damping
	opts.Propagate.Threshold = c.StandardErrorThreshold
	opts.Metric.MaxTokens = c.MaxNGramLength
	return opts, nil
}

// Summary returns the settings suitable for logging.
func (c *Run) Summary() map[string]string {
	return map[string]string{
		"backend":                  c.Backend,
		"error_detecting_approach": c.ErrorDetectingApproach,
		"set_assignment_approach":  c.SetAssignmentApproach,
		"expected_score_value":     c.ExpectedScoreValue,
		"learning_rate":            strconv.FormatFloat(c.LearningRate, 'g', -1, 64),
		"standard_error_threshold": strconv.FormatFloat(c.StandardErrorThreshold, 'g', -1, 64),
		"convergence_scheme":       c.ConvergenceScheme,
		"convergence_rule":         c.ConvergenceRule,
		"use_whole_graph":          strconv.FormatBool(c.WholeGraph),
		"corpus_path":              orNotSet(c.CorpusPath),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

func envKey(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// getEnvOrDefault returns the environment override if set, otherwise the
// file value, or def.
func getEnvOrDefault(key string, k *koanf.Koanf, def string) string {
	if val := os.Getenv(envKey(key)); val != "" {
		return val
	}
	if k.Exists(key) {
		return k.String(key)
	}
	return def
}

func getEnvFloatOrDefault(key string, k *koanf.Koanf, def float64) (float64, error) {
	if val := os.Getenv(envKey(key)); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return def, fmt.Errorf("%w: %s must be a valid float: %w", internalerr.ErrInvalidConfig, envKey(key), err)
		}
		return f, nil
	}
	if k.Exists(key) {
		return k.Float64(key), nil
	}
	return def, nil
}

func getEnvIntOrDefault(key string, k *koanf.Koanf, def int) (int, error) {
	if val := os.Getenv(envKey(key)); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return def, fmt.Errorf("%w: %s must be a valid integer: %w", internalerr.ErrInvalidConfig, envKey(key), err)
		}
		return i, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

func getEnvBoolOrDefault(key string, k *koanf.Koanf, def bool) (bool, error) {
	if val := os.Getenv(envKey(key)); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return def, fmt.Errorf("%w: %s must be a boolean, got %q", internalerr.ErrInvalidConfig, envKey(key), val)
	}
	if k.Exists(key) {
		return k.Bool(key), nil
	}
	return def, nil
}
