package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"charm-cutvar/internal/config"
)

var validateConfigFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an analysis configuration without running anything",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(validateConfigFile)
		if err != nil {
			return err
		}
		plan, err := cfg.Plan()
		if err != nil {
			return err
		}
		fmt.Printf("config ok: %s, %d pt bins x %d working points (%d cells)\n",
			plan.Hadron, len(plan.PtBins), len(plan.NonPromptCuts), plan.GridSize())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", "config.yml", "YAML analysis configuration")
}
