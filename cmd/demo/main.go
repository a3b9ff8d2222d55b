// Command demo builds a small synthetic D+ dataset, runs the full
// extraction grid on it and prints the outcome. Everything is generated
// analytically, so runs are reproducible end to end.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"charm-cutvar/internal/analysis"
	"charm-cutvar/internal/config"
	"charm-cutvar/internal/grid"
	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
	"charm-cutvar/internal/output"
)

const (
	peakMass  = 1.8697
	peakSigma = 0.012
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	plan := demoPlan()
	inputs := grid.Inputs{Data: demoData(), MC: demoMC()}

	run, err := grid.New(plan).Execute(inputs)
	if err != nil {
		log.Fatal().Err(err).Msg("demo run failed")
	}

	outDir := "demo-out"
	target := config.OutputTarget{Directory: outDir, Suffix: "_demo"}
	if err := output.WriteRun(run, plan, target, target); err != nil {
		log.Fatal().Err(err).Msg("write outputs failed")
	}

	counts := run.Matrix.CountByStatus()
	fmt.Printf("demo grid: %d cells, %d complete, %d partial, %d failed\n",
		len(run.Matrix.Cells), counts[model.CellComplete],
		counts[model.CellPartiallyFailed], counts[model.CellFailed])

	for _, t := range analysis.ComputeTrends(run.Matrix, plan) {
		fmt.Printf("pt %.1f-%.1f: yields", t.PtMin, t.PtMax)
		for _, y := range t.Yields {
			fmt.Printf(" %.0f", y)
		}
		fmt.Printf("  effs")
		for _, e := range t.Effs {
			fmt.Printf(" %.3f", e)
		}
		fmt.Println()
	}
	fmt.Printf("artifacts written under %s/\n", outDir)
}

func demoPlan() *config.Plan {
	cfg := &config.Config{Hadron: "dplus"}
	cfg.PtMins = []float64{2, 4}
	cfg.PtMaxs = []float64{4, 6}
	cfg.BdtCuts.Bkg = config.FloatOrList{0.5}
	cfg.BdtCuts.NonPrompt = []float64{0.0, 0.2, 0.4, 0.6}
	cfg.Fit.MassMins = []float64{1.75, 1.75}
	cfg.Fit.MassMaxs = []float64{1.99, 1.99}
	cfg.Fit.SgnFuncs = []string{"gaussian", "gaussian"}
	cfg.Fit.BkgFuncs = []string{"chebpol2", "expo"}
	cfg.MinEntries = 20

	plan, err := cfg.Plan()
	if err != nil {
		log.Fatal().Err(err).Msg("demo config invalid")
	}
	return plan
}

func demoAxes() [4]hist.Axis {
	return [4]hist.Axis{
		{Name: "mass", NBins: 60, Min: 1.70, Max: 2.06},
		{Name: "pt", NBins: 12, Min: 0, Max: 6},
		{Name: "bdt_bkg", NBins: 10, Min: 0, Max: 1},
		{Name: "bdt_np", NBins: 10, Min: 0, Max: 1},
	}
}

// demoData fills a candidate sparse with an analytic Gaussian peak over a
// falling background, spread across the score axes.
func demoData() *hist.Sparse {
	s, err := hist.NewSparse(demoAxes())
	if err != nil {
		log.Fatal().Err(err).Msg("demo sparse")
	}
	for im := 0; im < 60; im++ {
		mass := 1.70 + (float64(im)+0.5)*0.006
		for ipt := 0; ipt < 12; ipt++ {
			pt := (float64(ipt) + 0.5) * 0.5
			signalDensity := 800 * math.Exp(-pt/3) * gauss(mass, peakMass, peakSigma)
			bkgDensity := 3000 * math.Exp(-pt/2) * math.Exp(-2*(mass-1.70))
			for ib := 0; ib < 10; ib++ {
				bkgScore := (float64(ib) + 0.5) / 10
				for in := 0; in < 10; in++ {
					npScore := (float64(in) + 0.5) / 10
					// Signal concentrates at low bkg score, background at
					// high; both roughly flat in the non-prompt score.
					sw := signalDensity * 0.006 * falling(bkgScore) * 0.1
					bw := bkgDensity * 0.006 * rising(bkgScore) * 0.1 * (1 - 0.3*npScore)
					s.Fill(mass, pt, bkgScore, npScore, math.Round(sw+bw))
				}
			}
		}
	}
	return s
}

func demoMC() []hist.Sample {
	prompt := mcSample("prompt", 1.0, false, 0.55)
	nonPrompt := mcSample("nonprompt", 0.3, true, 0.35)
	return []hist.Sample{prompt, nonPrompt}
}

func mcSample(name string, weight float64, secondary bool, eff float64) hist.Sample {
	s, err := hist.NewSparse(demoAxes())
	if err != nil {
		log.Fatal().Err(err).Msg("demo sparse")
	}
	gen, err := hist.NewHist1D("gen_pt", 12, 0, 6)
	if err != nil {
		log.Fatal().Err(err).Msg("demo gen hist")
	}
	for ipt := 0; ipt < 12; ipt++ {
		pt := (float64(ipt) + 0.5) * 0.5
		generated := 20000 * math.Exp(-pt/3)
		gen.Fill(pt, math.Round(generated))
		for im := 0; im < 60; im++ {
			mass := 1.70 + (float64(im)+0.5)*0.006
			density := generated * eff * gauss(mass, peakMass, peakSigma) * 0.006
			for ib := 0; ib < 5; ib++ { // reco signal sits below the bkg cut
				bkgScore := (float64(ib) + 0.5) / 10
				for in := 0; in < 10; in++ {
					npScore := (float64(in) + 0.5) / 10
					s.Fill(mass, pt, bkgScore, npScore, density*0.2*0.1*(1-0.5*npScore))
				}
			}
		}
	}
	return hist.Sample{Name: name, Reco: s, GenPt: gen, Weight: weight, Secondary: secondary}
}

func gauss(x, mean, sigma float64) float64 {
	z := (x - mean) / sigma
	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}

func falling(score float64) float64 { return 2 * (1 - score) }
func rising(score float64) float64  { return 2 * score }
