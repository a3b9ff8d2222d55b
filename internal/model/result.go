package model

import (
	"fmt"
	"sort"
)

// FitResult captures one mass fit. Owned by the cell that produced it,
// immutable after creation. Yield may be negative; defective cells stay
// visible and clamping is a downstream policy.
type FitResult struct {
	Yield            float64
	YieldError       float64
	Mean             float64
	MeanError        float64
	Sigma            float64
	SigmaError       float64
	SignalParams     []float64
	BackgroundParams []float64
	Chi2OverNdf      float64
	Converged        bool
}

// EfficiencyResult is the weighted-MC selection efficiency for one cell.
type EfficiencyResult struct {
	Value       float64
	Numerator   float64
	Denominator float64
}

// CellKey addresses one grid cell.
type CellKey struct {
	PtBin        int
	WorkingPoint int
}

func (k CellKey) String() string {
	return fmt.Sprintf("pt%d/wp%d", k.PtBin, k.WorkingPoint)
}

// CellStatus marks how much of a cell survived. Keep these values stable;
// they appear in CSV output.
type CellStatus string

const (
	CellComplete        CellStatus = "COMPLETE"
	CellPartiallyFailed CellStatus = "PARTIALLY_FAILED"
	CellFailed          CellStatus = "FAILED"
)

// GridCell holds the two sub-results of one (pt bin, working point) cell.
// A nil Fit or Efficiency means that sub-result failed. A non-converged fit
// stays attached for diagnostics but counts as missing for the status.
type GridCell struct {
	Key        CellKey
	Status     CellStatus
	Fit        *FitResult
	Efficiency *EfficiencyResult
}

func statusOf(fit *FitResult, eff *EfficiencyResult) CellStatus {
	fitOK := fit != nil && fit.Converged
	effOK := eff != nil
	switch {
	case fitOK && effOK:
		return CellComplete
	case !fitOK && !effOK:
		return CellFailed
	default:
		return CellPartiallyFailed
	}
}

// NewGridCell derives the status from which sub-results are present.
func NewGridCell(key CellKey, fit *FitResult, eff *EfficiencyResult) GridCell {
	return GridCell{Key: key, Status: statusOf(fit, eff), Fit: fit, Efficiency: eff}
}

// NewGridCellFitOnly builds a cell for runs without simulation inputs,
// where no efficiency sub-result is expected and the status follows the
// fit alone.
func NewGridCellFitOnly(key CellKey, fit *FitResult) GridCell {
	status := CellComplete
	if fit == nil || !fit.Converged {
		status = CellFailed
	}
	return GridCell{Key: key, Status: status, Fit: fit}
}

// CellFailure records why a sub-result of a cell is missing.
type CellFailure struct {
	Key   CellKey
	Stage string // "projection", "fit", "efficiency"
	Err   error
}

// ResultMatrix is the run's output product: one cell per declared
// (pt bin, working point) pair, no implicit keys. The orchestrator is its
// sole writer; treat it as read-only afterwards.
type ResultMatrix struct {
	NPtBins        int
	NWorkingPoints int
	Cells          map[CellKey]GridCell
	Failures       []CellFailure
}

func NewResultMatrix(nPt, nWP int) *ResultMatrix {
	return &ResultMatrix{
		NPtBins:        nPt,
		NWorkingPoints: nWP,
		Cells:          make(map[CellKey]GridCell, nPt*nWP),
	}
}

func (m *ResultMatrix) Cell(ipt, iwp int) (GridCell, bool) {
	c, ok := m.Cells[CellKey{PtBin: ipt, WorkingPoint: iwp}]
	return c, ok
}

// SortedKeys returns all cell keys in (pt bin, working point) order.
func (m *ResultMatrix) SortedKeys() []CellKey {
	keys := make([]CellKey, 0, len(m.Cells))
	for k := range m.Cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PtBin != keys[j].PtBin {
			return keys[i].PtBin < keys[j].PtBin
		}
		return keys[i].WorkingPoint < keys[j].WorkingPoint
	})
	return keys
}

// CountByStatus tallies cells per status.
func (m *ResultMatrix) CountByStatus() map[CellStatus]int {
	out := map[CellStatus]int{}
	for _, c := range m.Cells {
		out[c.Status]++
	}
	return out
}
