package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cutvar",
	Short: "Charm-hadron raw-yield and efficiency extraction for the cut-variation method",
	Long: `cutvar drives signal extraction for a charmed-meson candidate sample:
it projects invariant-mass histograms, fits them per (pt bin, BDT working
point) cell, computes selection efficiencies from weighted MC samples, and
writes the resulting yield and efficiency matrices.`,
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
