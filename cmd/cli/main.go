package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"questkit/adapters/excel"
	"questkit/adapters/postgres"
	"questkit/app"
	"questkit/domain/core"
	"questkit/domain/quest"
	"questkit/internal"
	"questkit/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "questkit-cli",
		Short: "QuestKit CLI for simulated threshold runs, sweeps and exports",
	}

	rootCmd.AddCommand(
		newDemoCmd(),
		newSweepCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDemoCmd() *cobra.Command {
	var (
		threshold    float64
		trials       int
		seed         int64
		policy       string
		priorMean    float64
		priorSD      float64
		beta         float64
		betaAnalysis bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a simulated observer against the estimator",
		Long: `Measure a simulated observer with a known threshold and watch the
posterior converge trial by trial.

Example: questkit-cli demo --threshold 1.5 --trials 40 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := quest.ParsePolicy(policy)
			if err != nil {
				return err
			}

			params := quest.DefaultParams()
			params.PriorMean = priorMean
			params.PriorSD = priorSD
			params.Beta = beta

			est, err := quest.New(params, quest.WithWarnFunc(warnToStderr))
			if err != nil {
				return err
			}
			obs := quest.NewSimulatedObserver(est, threshold, rand.New(rand.NewSource(seed)))

			fmt.Printf("simulating %d trials, latent threshold %.4f\n\n", trials, threshold)
			for t := 0; t < trials; t++ {
				next, err := est.Recommend(pol)
				if err != nil {
					return err
				}
				resp := obs.Respond(next)
				if err := est.Update(next, resp); err != nil {
					return err
				}
				fmt.Printf("trial %3d: intensity %8.4f response %d mean %8.4f sd %7.4f\n",
					t+1, next, resp, est.Mean(), est.SD())
			}
			fmt.Printf("\nfinal estimate: %.4f ± %.4f (%d trials)\n", est.Mean(), est.SD(), est.TrialCount())
			fmt.Printf("estimation error: %+.4f\n", est.Mean()-threshold)

			if betaAnalysis {
				analysis, err := app.NewSweepService(nil).AnalyzeBeta(cmd.Context(), est)
				if err != nil {
					return err
				}
				fmt.Printf("\nbeta analysis:\n")
				for _, pt := range analysis.Points {
					fmt.Printf("  beta %7.4f: mean %8.4f sd %7.4f density %.6f\n",
						pt.Beta, pt.Mean, pt.SD, pt.Density)
				}
				fmt.Printf("best-supported: threshold %.4f ± %.4f, beta estimate %.4f (weighted mean %.4f ± %.4f)\n",
					analysis.Threshold, analysis.ThresholdSD, analysis.BetaEstimate, analysis.BetaMean, analysis.BetaSD)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 1.0, "Latent threshold of the simulated observer")
	cmd.Flags().IntVar(&trials, "trials", 40, "Number of trials to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the observer")
	cmd.Flags().StringVar(&policy, "policy", "quantile", "Recommendation policy: quantile, mean or mode")
	cmd.Flags().Float64Var(&priorMean, "prior-mean", 0.5, "Prior threshold guess")
	cmd.Flags().Float64Var(&priorSD, "prior-sd", 2.0, "Prior standard deviation")
	cmd.Flags().Float64Var(&beta, "beta", 3.5, "Psychometric function steepness")
	cmd.Flags().BoolVar(&betaAnalysis, "beta-analysis", false, "Re-fit the history under candidate steepness values")

	return cmd
}

func newSweepCmd() *cobra.Command {
	var cfg app.SweepConfig
	var policy string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a batch of simulated measurements and summarize the errors",
		Long: `Validate an estimator configuration by measuring many simulated
observers whose thresholds are drawn from a normal distribution.

Example: questkit-cli sweep --runs 50 --trials 60 --threshold-mean 1.0 --threshold-sd 0.4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, err := quest.ParsePolicy(policy)
			if err != nil {
				return err
			}
			cfg.Policy = pol
			cfg.Params = quest.DefaultParams()
			cfg.Params.PriorMean = cfg.ThresholdMean

			result, err := app.NewSweepService(nil).Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVar(&cfg.Runs, "runs", 20, "Number of simulated observers")
	cmd.Flags().IntVar(&cfg.TrialsPerRun, "trials", 60, "Trials per observer")
	cmd.Flags().Float64Var(&cfg.ThresholdMean, "threshold-mean", 1.0, "Mean of the latent threshold distribution")
	cmd.Flags().Float64Var(&cfg.ThresholdSD, "threshold-sd", 0.3, "SD of the latent threshold distribution")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 42, "Base random seed; run i uses seed+i")
	cmd.Flags().Int64Var(&cfg.Concurrency, "concurrency", 4, "Maximum simultaneous runs")
	cmd.Flags().StringVar(&policy, "policy", "quantile", "Recommendation policy: quantile, mean or mode")

	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a persisted session to an xlsx workbook",
		Long: `Export a stored session's trial log and estimates. Requires
DATABASE_URL; the workbook lands in EXPORT_DIR (default: current directory).

Example: questkit-cli export 0198c0de-0000-7000-8000-000000000001`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseSessionID(args[0])
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), id)
		},
	}
	return cmd
}

func runExport(ctx context.Context, id core.SessionID) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("export needs DATABASE_URL: in-memory sessions do not survive the server process")
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	service := app.NewSessionService(
		postgres.NewSessionRepository(db),
		postgres.NewTrialRepository(db),
		excel.NewSessionExporter(cfg.Export.Dir),
		internal.DefaultLogger,
	)
	path, err := service.Export(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("exported session %s to %s\n", id, path)
	return nil
}

func warnToStderr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
