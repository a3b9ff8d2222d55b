package model

import (
	"errors"
	"fmt"
)

// PtBin is one transverse-momentum interval of the analysis grid.
// Bounds are in GeV/c. Immutable once constructed.
type PtBin struct {
	Min float64
	Max float64
}

func NewPtBin(min, max float64) (PtBin, error) {
	if min >= max {
		return PtBin{}, fmt.Errorf("pt bin [%g, %g): min must be < max", min, max)
	}
	if min < 0 {
		return PtBin{}, fmt.Errorf("pt bin [%g, %g): negative lower edge", min, max)
	}
	return PtBin{Min: min, Max: max}, nil
}

func (b PtBin) Label() string {
	return fmt.Sprintf("pt%.1f_%.1f", b.Min, b.Max)
}

func (b PtBin) Contains(pt float64) bool {
	return pt >= b.Min && pt < b.Max
}

// ValidatePtBins checks that bins are sorted ascending and non-overlapping.
func ValidatePtBins(bins []PtBin) error {
	if len(bins) == 0 {
		return errors.New("no pt bins defined")
	}
	for i, b := range bins {
		if b.Min >= b.Max {
			return fmt.Errorf("pt bin %d [%g, %g): min must be < max", i, b.Min, b.Max)
		}
		if i > 0 && b.Min < bins[i-1].Max {
			return fmt.Errorf("pt bin %d [%g, %g) overlaps bin %d [%g, %g)",
				i, b.Min, b.Max, i-1, bins[i-1].Min, bins[i-1].Max)
		}
	}
	return nil
}

// WorkingPoint is one BDT selection variant: a background-rejection upper cut
// paired with a non-prompt lower cut. The non-prompt cut is varied across
// working points for the cut-variation method.
type WorkingPoint struct {
	BkgCut       float64
	NonPromptCut float64
}

func (w WorkingPoint) Label() string {
	return fmt.Sprintf("bdtnp%.2f", w.NonPromptCut)
}

// ValidateNonPromptCuts checks that the cut-variation thresholds increase
// strictly; the yield trend is uninterpretable otherwise.
func ValidateNonPromptCuts(cuts []float64) error {
	if len(cuts) == 0 {
		return errors.New("no non-prompt cuts defined")
	}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] <= cuts[i-1] {
			return fmt.Errorf("non-prompt cuts must increase strictly: cut %d (%g) <= cut %d (%g)",
				i, cuts[i], i-1, cuts[i-1])
		}
	}
	return nil
}
