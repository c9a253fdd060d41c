package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/supply-sim/sim/experiment"
)

var (
	logLevel string // Log verbosity level

	runOpts       simOptions
	runStrategy   strategyOptions
	compareOpts   simOptions
	baselineOpts  strategyOptions
	candidateOpts strategyOptions
	sweepOpts     simOptions
	sweepStrategy strategyOptions
	sweepSeeds    []int64 // seeds to sweep
	sweepLimit    int     // max concurrent sweep runs
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "supply-sim",
	Short: "Day-stepped replay simulator for inventory ordering strategies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		// DATABASE_URL and OPENAI_API_KEY may come from a local .env file.
		if err := godotenv.Load(); err != nil {
			logrus.Debugf("No .env file loaded: %v", err)
		}
	},
}

// runCmd replays the sales history under one strategy
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one strategy and report its KPIs",
	Run: func(cmd *cobra.Command, args []string) {
		if err := executeRun(cmd.Context(), cmd, &runOpts, &runStrategy, os.Stdout); err != nil {
			logrus.Fatalf("Run failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// compareCmd runs a baseline and a candidate concurrently and diffs them
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run baseline and candidate strategies and report KPI deltas",
	Run: func(cmd *cobra.Command, args []string) {
		if err := executeCompare(cmd.Context(), cmd, &compareOpts, &baselineOpts, &candidateOpts, os.Stdout); err != nil {
			logrus.Fatalf("Compare failed: %v", err)
		}
		logrus.Info("Comparison complete.")
	},
}

// sweepCmd runs one strategy across several seeds
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one strategy across seeds and summarize each KPI",
	Run: func(cmd *cobra.Command, args []string) {
		if err := executeSweep(cmd.Context(), cmd, &sweepOpts, &sweepStrategy, sweepSeeds, sweepLimit, os.Stdout); err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		logrus.Info("Sweep complete.")
	},
}

func executeRun(ctx context.Context, cmd *cobra.Command, o *simOptions, so *strategyOptions, out io.Writer) error {
	s, st, err := buildSimulator(ctx, cmd, o)
	if err != nil {
		return err
	}
	newStrategy, err := strategyFactory(cmd, so)
	if err != nil {
		return err
	}

	logrus.Infof("Starting simulation %s..%s (%d days), seed=%d",
		day(st.Config.StartDate), day(st.Config.EndDate), len(s.Days()), st.Config.Seed)
	ev := experiment.Evaluate(s, newStrategy())
	printReport(out, ev)

	if st.OutputDir == "" {
		return nil
	}
	if err := writeRunArtifacts(st.OutputDir, ev); err != nil {
		return err
	}
	logrus.Infof("Artifacts written to %s", st.OutputDir)
	return nil
}

func executeCompare(ctx context.Context, cmd *cobra.Command, o *simOptions, baseline, candidate *strategyOptions, out io.Writer) error {
	s, st, err := buildSimulator(ctx, cmd, o)
	if err != nil {
		return err
	}
	newBaseline, err := strategyFactory(cmd, baseline)
	if err != nil {
		return err
	}
	newCandidate, err := strategyFactory(cmd, candidate)
	if err != nil {
		return err
	}

	ab, err := experiment.RunAB(ctx, s, newBaseline(), newCandidate())
	if err != nil {
		return err
	}
	printReport(out, ab.Baseline)
	fmt.Fprintln(out)
	printReport(out, ab.Candidate)
	fmt.Fprintln(out)
	printComparison(out, ab.Comparison)

	if st.OutputDir == "" {
		return nil
	}
	if err := writeRunArtifacts(filepath.Join(st.OutputDir, "baseline"), ab.Baseline); err != nil {
		return err
	}
	if err := writeRunArtifacts(filepath.Join(st.OutputDir, "candidate"), ab.Candidate); err != nil {
		return err
	}
	if err := writeComparisonCSV(filepath.Join(st.OutputDir, comparisonFile), ab.Comparison); err != nil {
		return err
	}
	logrus.Infof("Artifacts written to %s", st.OutputDir)
	return nil
}

func executeSweep(ctx context.Context, cmd *cobra.Command, o *simOptions, so *strategyOptions, seeds []int64, limit int, out io.Writer) error {
	// Validates the shared options and loads inputs once; each seed gets
	// its own simulator.
	s, st, err := buildSimulator(ctx, cmd, o)
	if err != nil {
		return err
	}
	newStrategy, err := strategyFactory(cmd, so)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := experiment.Sweep(ctx, experiment.SweepConfig{
		Catalog:  s.Catalog(),
		Sales:    s.Sales(),
		Config:   st.Config,
		Seeds:    seeds,
		Parallel: limit,
	}, newStrategy)
	if err != nil {
		return err
	}
	agg := experiment.Aggregate(results)
	fmt.Fprintf(out, "=== Sweep: %s over %d seeds (%s) ===\n", results[0].Strategy, len(results),
		time.Since(start).Round(time.Millisecond))
	printSweep(out, agg)

	if st.OutputDir == "" {
		return nil
	}
	for _, r := range results {
		if err := writeRunArtifacts(filepath.Join(st.OutputDir, fmt.Sprintf("seed-%d", r.Seed)), r); err != nil {
			return err
		}
	}
	if err := writeSweepCSV(filepath.Join(st.OutputDir, sweepFile), agg); err != nil {
		return err
	}
	logrus.Infof("Artifacts written to %s", st.OutputDir)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runOpts.register(runCmd)
	runStrategy.register(runCmd, "strategy", "reorder-point", "Ordering strategy")

	compareOpts.register(compareCmd)
	baselineOpts.register(compareCmd, "baseline", "reorder-point", "Baseline strategy")
	candidateOpts.register(compareCmd, "candidate", "llm-agent", "Candidate strategy")

	sweepOpts.register(sweepCmd)
	sweepStrategy.register(sweepCmd, "strategy", "reorder-point", "Ordering strategy")
	sweepCmd.Flags().Int64SliceVar(&sweepSeeds, "seeds", []int64{1, 2, 3, 4, 5}, "Comma-separated seeds")
	sweepCmd.Flags().IntVar(&sweepLimit, "parallel", 4, "Maximum concurrent runs (0 = unlimited)")

	rootCmd.AddCommand(runCmd, compareCmd, sweepCmd)
}
