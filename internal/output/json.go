package output

import (
	"encoding/json"
	"os"

	"charm-cutvar/internal/model"
)

type matrixDump struct {
	NPtBins        int        `json:"n_pt_bins"`
	NWorkingPoints int        `json:"n_working_points"`
	Cells          []cellDump `json:"cells"`
}

type cellDump struct {
	PtBin        int                     `json:"pt_bin"`
	WorkingPoint int                     `json:"working_point"`
	Status       model.CellStatus        `json:"status"`
	Fit          *model.FitResult        `json:"fit,omitempty"`
	Efficiency   *model.EfficiencyResult `json:"efficiency,omitempty"`
}

// WriteMatrixJSON dumps the full matrix in key order for downstream
// consumers that want more than the CSV columns.
func WriteMatrixJSON(path string, matrix *model.ResultMatrix) error {
	dump := matrixDump{
		NPtBins:        matrix.NPtBins,
		NWorkingPoints: matrix.NWorkingPoints,
		Cells:          make([]cellDump, 0, len(matrix.Cells)),
	}
	for _, key := range matrix.SortedKeys() {
		cell := matrix.Cells[key]
		dump.Cells = append(dump.Cells, cellDump{
			PtBin:        key.PtBin,
			WorkingPoint: key.WorkingPoint,
			Status:       cell.Status,
			Fit:          cell.Fit,
			Efficiency:   cell.Efficiency,
		})
	}
	raw, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
