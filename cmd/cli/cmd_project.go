package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"charm-cutvar/internal/config"
	"charm-cutvar/internal/grid"
	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/project"
)

var projectConfigFile string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project the data sparse into per-cell mass histograms",
	Long: `Writes every (pt bin, working point) mass projection, plus the no-cut
projection per pt bin, as a single JSON file under the raw-yields output
directory. Useful for inspecting selections before fitting.`,
	RunE: runProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.Flags().StringVarP(&projectConfigFile, "config", "c", "config.yml", "YAML analysis configuration")
}

func runProject(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(projectConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	plan, err := cfg.Plan()
	if err != nil {
		return err
	}
	inputs, err := grid.LoadInputs(cfg, hist.NewSourceCache())
	if err != nil {
		return err
	}

	extractor := project.Extractor{MinEntries: 0}
	var histos []*hist.Hist1D
	for ipt, bin := range plan.PtBins {
		log.Info().Float64("pt_min", bin.Min).Float64("pt_max", bin.Max).Msg("projecting pt bin")
		h, err := extractor.ExtractNoCut(inputs.Data, bin, plan.BkgCuts[ipt])
		if err != nil {
			return err
		}
		histos = append(histos, h)
		for _, wp := range plan.WorkingPoints(ipt) {
			h, err := extractor.Extract(inputs.Data, bin, wp)
			if err != nil {
				return err
			}
			histos = append(histos, h)
		}
	}

	target := cfg.Output.RawYields
	if err := os.MkdirAll(target.Directory, 0o755); err != nil {
		return err
	}
	outPath := filepath.Join(target.Directory, "hist_mass"+target.Suffix+".json")
	raw, err := json.Marshal(struct {
		Histograms []*hist.Hist1D `json:"histograms"`
	}{histos})
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %d projections to %s\n", len(histos), outPath)
	return nil
}
