package config

import "charm-cutvar/internal/model"

// Plan is the validated grid definition: everything the orchestrator needs,
// with all strings already resolved to tagged variants. A Plan that exists
// is structurally valid.
type Plan struct {
	Hadron model.Hadron

	PtBins        []model.PtBin
	BkgCuts       []float64 // one per pt bin
	NonPromptCuts []float64 // shared across pt bins, strictly increasing
	FitSpecs      []model.MassFitSpec

	MinEntries       float64
	IncludeSecondary bool
	FixMean          bool
	Workers          int

	BinCounting *BinCountingWindow
}

// BinCountingWindow is the mass window for bin-counting yield extraction at
// the cut-variation working points.
type BinCountingWindow struct {
	Min float64
	Max float64
}

// WorkingPoints returns the selection variants of one pt bin: the bin's
// background cut paired with each non-prompt threshold.
func (p *Plan) WorkingPoints(ipt int) []model.WorkingPoint {
	out := make([]model.WorkingPoint, len(p.NonPromptCuts))
	for i, cut := range p.NonPromptCuts {
		out[i] = model.WorkingPoint{BkgCut: p.BkgCuts[ipt], NonPromptCut: cut}
	}
	return out
}

// GridSize returns the cell count of the full Cartesian product.
func (p *Plan) GridSize() int {
	return len(p.PtBins) * len(p.NonPromptCuts)
}
