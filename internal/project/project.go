// Package project turns the multidimensional candidate sparse into the 1-D
// invariant-mass histograms the fit engine consumes. Projections are pure:
// the same source and selection always produce the same histogram.
package project

import (
	"fmt"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

// EmptySelectionError reports a selection with too little data to fit.
// It marks the cell failed but never aborts the run.
type EmptySelectionError struct {
	Name       string
	Entries    float64
	MinEntries float64
}

func (e *EmptySelectionError) Error() string {
	return fmt.Sprintf("selection %s: %.0f entries, below minimum %.0f", e.Name, e.Entries, e.MinEntries)
}

// Extractor projects mass histograms for grid selections.
type Extractor struct {
	// MinEntries is the minimum-statistics threshold below which a
	// projection is reported as empty.
	MinEntries float64
}

// Extract projects the source for one (pt bin, working point) cell.
func (x Extractor) Extract(src *hist.Sparse, bin model.PtBin, wp model.WorkingPoint) (*hist.Hist1D, error) {
	name := fmt.Sprintf("hist_mass_%s_%s", bin.Label(), wp.Label())
	return x.project(src, name, hist.Selection{
		PtMin:        bin.Min,
		PtMax:        bin.Max,
		BkgCutMax:    wp.BkgCut,
		NonPromptMin: wp.NonPromptCut,
	})
}

// ExtractNoCut projects with the background cut only, leaving the non-prompt
// axis open. The reference fit of each pt bin runs on this histogram.
func (x Extractor) ExtractNoCut(src *hist.Sparse, bin model.PtBin, bkgCut float64) (*hist.Hist1D, error) {
	name := fmt.Sprintf("hist_mass_%s_nocutnp", bin.Label())
	return x.project(src, name, hist.Selection{
		PtMin:     bin.Min,
		PtMax:     bin.Max,
		BkgCutMax: bkgCut,
	})
}

func (x Extractor) project(src *hist.Sparse, name string, sel hist.Selection) (*hist.Hist1D, error) {
	h, err := src.ProjectMass(name, sel)
	if err != nil {
		return nil, err
	}
	if entries := h.Entries(); entries < x.MinEntries {
		return nil, &EmptySelectionError{Name: name, Entries: entries, MinEntries: x.MinEntries}
	}
	return h, nil
}
