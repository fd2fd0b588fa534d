package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"goethos/domain/stats"
	"goethos/internal/bayes"
	"goethos/internal/config"
	"goethos/internal/container"
	"goethos/internal/logging"
	"goethos/internal/resampling"
	"goethos/internal/rng"
	"goethos/internal/statistics"
	"goethos/internal/testkit"
	"goethos/internal/uncertainty"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "goethos",
		Short:         "Confidence, resampling, Bayesian and uncertainty statistics for ethics survey responses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newCICmd(),
		newBootstrapCmd(),
		newKFoldCmd(),
		newBayesCmd(),
		newMCMCCmd(),
		newUncertaintyCmd(),
		newKappaCmd(),
		newProfileCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCICmd() *cobra.Command {
	var level float64

	cmd := &cobra.Command{
		Use:   "ci [values...]",
		Short: "Student-t confidence interval with p-value and effect size",
		Long: `Compute confidence evidence for a sample.

Example: goethos ci 0.7 0.8 0.6 0.9 0.75 --level 0.95`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := parseSample(args)
			if err != nil {
				return err
			}
			ev, err := statistics.ConfidenceIntervalAt(sample, level)
			if err != nil {
				return err
			}
			return printJSON(ev)
		},
	}

	cmd.Flags().Float64Var(&level, "level", statistics.DefaultConfidenceLevel, "Confidence level in (0, 1)")
	return cmd
}

func newBootstrapCmd() *cobra.Command {
	var (
		seed       int64
		iterations int
		statistic  string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap [values...]",
		Short: "Percentile bootstrap interval for the mean or median",
		Long: `Resample the values with replacement and report the 2.5th and 97.5th
percentiles of the statistic. The seed is required so runs are reproducible.

Example: goethos bootstrap 1 2 3 4 5 --seed 42 --iterations 10000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := parseSample(args)
			if err != nil {
				return err
			}
			fn := resampling.MeanStatistic
			switch statistic {
			case "mean":
			case "median":
				fn = resampling.MedianStatistic
			default:
				return fmt.Errorf("unknown statistic %q (mean or median)", statistic)
			}
			res, err := resampling.BootstrapInterval(sample, fn, iterations, seed)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (required)")
	cmd.Flags().IntVar(&iterations, "iterations", resampling.DefaultBootstrapIterations, "Bootstrap resamples")
	cmd.Flags().StringVar(&statistic, "statistic", "mean", "Statistic to resample: mean or median")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}

func newKFoldCmd() *cobra.Command {
	var (
		k       int
		seed    int64
		shuffle bool
	)

	cmd := &cobra.Command{
		Use:   "kfold [values...]",
		Short: "K-fold cross-validated error of the mean predictor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := parseSample(args)
			if err != nil {
				return err
			}
			res, err := resampling.MeanModelError(sample, k, resampling.KFoldOptions{Shuffle: shuffle, Seed: seed})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().IntVar(&k, "k", 5, "Number of folds")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Shuffle seed")
	cmd.Flags().BoolVar(&shuffle, "shuffle", true, "Shuffle before cutting folds")
	return cmd
}

func newBayesCmd() *cobra.Command {
	var (
		evidence string
		baseline string
		prior    float64
	)

	cmd := &cobra.Command{
		Use:   "bayes",
		Short: "Simplified Bayesian update of a tactic probability",
		Long: `Update a prior tactic probability from evidence strengths relative to a baseline.

Example: goethos bayes --evidence 0.8,0.9,0.85 --baseline 0.3,0.4 --prior 0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseSample(splitList(evidence))
			if err != nil {
				return fmt.Errorf("evidence: %w", err)
			}
			base, err := parseSample(splitList(baseline))
			if err != nil {
				return fmt.Errorf("baseline: %w", err)
			}
			res, err := bayes.Update(ev, prior, base)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&evidence, "evidence", "", "Comma separated evidence strengths")
	cmd.Flags().StringVar(&baseline, "baseline", "", "Comma separated baseline strengths")
	cmd.Flags().Float64Var(&prior, "prior", 0.2, "Prior probability in (0, 1)")
	_ = cmd.MarkFlagRequired("evidence")
	_ = cmd.MarkFlagRequired("baseline")
	return cmd
}

func newMCMCCmd() *cobra.Command {
	var (
		model bayes.IndividualModel
		cfg   = bayes.DefaultSamplerConfig(42)
	)

	cmd := &cobra.Command{
		Use:   "mcmc [values...]",
		Short: "Fit the hierarchical individual model with Metropolis-Hastings",
		Long: `Sample the posterior of one respondent's latent preference under a
population prior. Non-convergence is reported in the output, not as an error.

Example: goethos mcmc 0.6 0.7 0.65 --population-mean 0.5 --population-sd 0.2 --seed 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := parseSample(args)
			if err != nil {
				return err
			}
			summary, err := model.Fit(sample, cfg)
			if err != nil {
				return err
			}
			if !summary.Converged {
				fmt.Fprintln(os.Stderr, "warning:", summary.Warning)
			}
			return printJSON(summary)
		},
	}

	cmd.Flags().Float64Var(&model.PopulationMean, "population-mean", 0.5, "Population prior mean")
	cmd.Flags().Float64Var(&model.PopulationSD, "population-sd", 0.25, "Population prior standard deviation")
	cmd.Flags().Float64Var(&model.ObservationSD, "observation-sd", 0, "Observation noise; 0 estimates it from the data")
	cmd.Flags().IntVar(&cfg.Chains, "chains", cfg.Chains, "Independent chains")
	cmd.Flags().IntVar(&cfg.Samples, "samples", cfg.Samples, "Retained draws per chain")
	cmd.Flags().IntVar(&cfg.BurnIn, "burn-in", cfg.BurnIn, "Discarded draws per chain (0 for samples/2, -1 for none)")
	cmd.Flags().Float64Var(&cfg.RHatThreshold, "rhat-threshold", cfg.RHatThreshold, "Convergence threshold")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	return cmd
}

func newUncertaintyCmd() *cobra.Command {
	var c stats.UncertaintyComponents

	cmd := &cobra.Command{
		Use:   "uncertainty",
		Short: "Decompose total uncertainty into weighted sources",
		Long: `Combine semantic, individual, cultural and model uncertainty (each in [0, 1]).

Example: goethos uncertainty --semantic 0.5 --individual 0.2 --cultural 0.1 --model 0.4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := uncertainty.Decompose(c)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().Float64Var(&c.Semantic.Value, "semantic", 0, "Semantic uncertainty")
	cmd.Flags().Float64Var(&c.Individual.Value, "individual", 0, "Individual uncertainty")
	cmd.Flags().Float64Var(&c.Cultural.Value, "cultural", 0, "Cultural uncertainty")
	cmd.Flags().Float64Var(&c.Model.Value, "model", 0, "Model uncertainty")
	cmd.Flags().IntVar(&c.ResponseCount, "responses", 0, "Number of responses behind the components")
	return cmd
}

func newKappaCmd() *cobra.Command {
	var raterA, raterB string

	cmd := &cobra.Command{
		Use:   "kappa",
		Short: "Cohen's kappa between two raters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := statistics.CohenKappa(splitList(raterA), splitList(raterB))
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&raterA, "rater-a", "", "Comma separated labels from the first rater")
	cmd.Flags().StringVar(&raterB, "rater-b", "", "Comma separated labels from the second rater")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var (
		configPath string
		file       string
		sheet      string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "profile [session-ids...]",
		Short: "Analyze survey sessions from a response file or the database",
		Long: `Run the full session analysis: per-tactic evidence, bootstrap, k-fold
stability, Bayesian updates, the individual model and the uncertainty
decomposition.

Example: goethos profile --file responses.xlsx --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("give session ids or --all")
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level, _ := cmd.Flags().GetString("log-level")
			logger, err := logging.New(level, "console")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, err := container.New(ctx, cfg, logger, container.Options{File: file, Sheet: sheet})
			if err != nil {
				return err
			}
			defer c.Shutdown()

			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid session id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}
			if all {
				ids, err = c.Responses.ListSessions(ctx, 0)
				if err != nil {
					return err
				}
				logger.Info("analyzing all sessions", zap.Int("sessions", len(ids)))
			}

			profiles, err := c.Profiles.AnalyzeSessions(ctx, ids)
			if err != nil {
				return err
			}
			return printJSON(profiles)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (yaml, json or toml)")
	cmd.Flags().StringVar(&file, "file", "", "Response file (.xlsx, .csv or .json); defaults to the configured database")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name for .xlsx files")
	cmd.Flags().BoolVar(&all, "all", false, "Analyze every session in the source")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultSurveyConfig()
	var (
		out    string
		random bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic survey sessions as a JSON export",
		Long: `Generate deterministic synthetic sessions for demos and load checks.

Example: goethos generate --sessions 50 --responses 12 --seed 7 --out responses.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if random {
				config.Seed = rng.TimeSeed()
				fmt.Fprintf(os.Stderr, "using seed %d\n", config.Seed)
			}
			responses, err := testkit.NewSurveyDataGenerator(config).Generate()
			if err != nil {
				return err
			}
			if err := testkit.WriteExport(out, responses); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d responses in %d sessions to %s\n", len(responses), config.Sessions, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Sessions, "sessions", config.Sessions, "Number of sessions")
	cmd.Flags().IntVar(&config.ResponsesPerSession, "responses", config.ResponsesPerSession, "Responses per session")
	cmd.Flags().Float64Var(&config.Consistency, "consistency", config.Consistency, "Chance a response argues from the session's preferred tactic")
	cmd.Flags().StringSliceVar(&config.Domains, "domains", config.Domains, "Dilemma domains to rotate through")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().BoolVar(&random, "random", false, "Seed from the clock instead of --seed")
	cmd.Flags().StringVar(&out, "out", "responses.json", "Output file")
	cmd.MarkFlagsMutuallyExclusive("seed", "random")
	return cmd
}

func parseSample(args []string) (stats.Sample, error) {
	sample := make(stats.Sample, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", arg)
		}
		sample = append(sample, v)
	}
	return sample, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
