package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"charm-cutvar/internal/analysis"
	"charm-cutvar/internal/config"
	"charm-cutvar/internal/grid"
	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
	"charm-cutvar/internal/output"
)

var (
	runConfigFile string
	runWorkers    int
	runFixMean    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the full extraction grid and write result artifacts",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigFile, "config", "c", "config.yml", "YAML analysis configuration")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Worker count override (0 = config value or NumCPU)")
	runCmd.Flags().BoolVar(&runFixMean, "fix-mean", false, "Also fix the fitted mean from each pt bin's reference fit")
}

func runRun(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(runConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
	if runFixMean {
		cfg.FixMean = true
	}

	plan, err := cfg.Plan()
	if err != nil {
		return err
	}

	inputs, err := grid.LoadInputs(cfg, hist.NewSourceCache())
	if err != nil {
		return err
	}

	log.Info().
		Str("hadron", string(plan.Hadron)).
		Int("pt_bins", len(plan.PtBins)).
		Int("working_points", len(plan.NonPromptCuts)).
		Int("mc_samples", len(inputs.MC)).
		Msg("starting extraction")

	start := time.Now()
	run, err := grid.New(plan).Execute(inputs)
	if err != nil {
		return err
	}

	if err := output.WriteRun(run, plan, cfg.Output.RawYields, cfg.Output.Efficiencies); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}

	printSummary(run, plan, time.Since(start))
	return nil
}

func printSummary(run *grid.Run, plan *config.Plan, elapsed time.Duration) {
	counts := run.Matrix.CountByStatus()
	fmt.Printf("processed %d cells in %s: %d complete, %d partial, %d failed\n",
		len(run.Matrix.Cells), elapsed.Round(time.Millisecond),
		counts[model.CellComplete], counts[model.CellPartiallyFailed], counts[model.CellFailed])

	ranked := analysis.RankByQuality(analysis.ComputeTrends(run.Matrix, plan))
	fmt.Printf("%-4s %-12s %-10s %-10s %-10s %-9s\n",
		"rank", "pt", "complete", "mean-chi2", "max-chi2", "eff-mono")
	for i, t := range ranked {
		fmt.Printf("%-4d %5.1f-%-6.1f %-10d %-10.2f %-10.2f %-9v\n",
			i+1, t.PtMin, t.PtMax, t.CompleteCells, t.MeanChi2, t.MaxChi2, t.EffMonotonic)
	}

	for _, f := range run.Matrix.Failures {
		fmt.Printf("FAILED %s stage=%s: %v\n", f.Key, f.Stage, f.Err)
	}
}
