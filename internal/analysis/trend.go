package analysis

import (
	"math"

	"charm-cutvar/internal/config"
	"charm-cutvar/internal/model"
)

// CutVariationTrend is the per-pt-bin summary of the cut-variation scan:
// the yield and efficiency sequences across non-prompt thresholds, plus
// quality diagnostics. This is the downstream-facing view of the matrix;
// prompt-fraction extraction itself happens elsewhere.
type CutVariationTrend struct {
	PtBin int
	PtMin float64
	PtMax float64

	NPCuts      []float64
	Yields      []float64 // NaN where the fit is missing
	YieldErrors []float64
	Effs        []float64 // NaN where the efficiency is missing

	CompleteCells int
	MeanChi2      float64
	MaxChi2       float64

	// EffMonotonic reports whether the efficiency never increases as the
	// non-prompt cut tightens. A violation flags a selection bug.
	EffMonotonic bool
}

// ComputeTrend summarizes one pt bin of a finished matrix.
func ComputeTrend(matrix *model.ResultMatrix, plan *config.Plan, ipt int) CutVariationTrend {
	bin := plan.PtBins[ipt]
	n := len(plan.NonPromptCuts)
	t := CutVariationTrend{
		PtBin:        ipt,
		PtMin:        bin.Min,
		PtMax:        bin.Max,
		NPCuts:       append([]float64(nil), plan.NonPromptCuts...),
		Yields:       make([]float64, n),
		YieldErrors:  make([]float64, n),
		Effs:         make([]float64, n),
		EffMonotonic: true,
	}

	var chi2Sum float64
	var chi2N int
	prevEff := math.Inf(1)
	for iwp := 0; iwp < n; iwp++ {
		cell, ok := matrix.Cell(ipt, iwp)
		t.Yields[iwp], t.YieldErrors[iwp], t.Effs[iwp] = math.NaN(), math.NaN(), math.NaN()
		if !ok {
			continue
		}
		if cell.Status == model.CellComplete {
			t.CompleteCells++
		}
		if cell.Fit != nil && cell.Fit.Converged {
			t.Yields[iwp] = cell.Fit.Yield
			t.YieldErrors[iwp] = cell.Fit.YieldError
			chi2Sum += cell.Fit.Chi2OverNdf
			chi2N++
			if cell.Fit.Chi2OverNdf > t.MaxChi2 {
				t.MaxChi2 = cell.Fit.Chi2OverNdf
			}
		}
		if cell.Efficiency != nil {
			t.Effs[iwp] = cell.Efficiency.Value
			if cell.Efficiency.Value > prevEff {
				t.EffMonotonic = false
			}
			prevEff = cell.Efficiency.Value
		}
	}
	if chi2N > 0 {
		t.MeanChi2 = chi2Sum / float64(chi2N)
	}
	return t
}

// ComputeTrends summarizes every pt bin.
func ComputeTrends(matrix *model.ResultMatrix, plan *config.Plan) []CutVariationTrend {
	out := make([]CutVariationTrend, len(plan.PtBins))
	for ipt := range plan.PtBins {
		out[ipt] = ComputeTrend(matrix, plan, ipt)
	}
	return out
}
