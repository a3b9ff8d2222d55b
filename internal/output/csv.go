// Package output serializes a finished run: raw yields, efficiencies and
// the failure report as CSV, plus a JSON dump of the whole matrix.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"charm-cutvar/internal/config"
	"charm-cutvar/internal/grid"
	"charm-cutvar/internal/model"
)

// WriteRun writes all artifacts of a run under the configured targets.
func WriteRun(run *grid.Run, plan *config.Plan, rawYields, efficiencies config.OutputTarget) error {
	if err := os.MkdirAll(rawYields.Directory, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(efficiencies.Directory, 0o755); err != nil {
		return err
	}

	ry := filepath.Join(rawYields.Directory, "rawyields"+rawYields.Suffix+".csv")
	if err := WriteYieldsCSV(ry, run, plan); err != nil {
		return err
	}
	effPath := filepath.Join(efficiencies.Directory, "efficiencies"+efficiencies.Suffix+".csv")
	if err := WriteEfficienciesCSV(effPath, run.Matrix, plan); err != nil {
		return err
	}
	failPath := filepath.Join(rawYields.Directory, "failures"+rawYields.Suffix+".csv")
	if err := WriteFailuresCSV(failPath, run.Matrix.Failures); err != nil {
		return err
	}
	return WriteMatrixJSON(filepath.Join(rawYields.Directory, "matrix"+rawYields.Suffix+".json"), run.Matrix)
}

// WriteYieldsCSV writes one row per cell plus one reference row per pt bin
// (working point index -1, the no-cut selection).
func WriteYieldsCSV(path string, run *grid.Run, plan *config.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"pt_bin", "pt_min", "pt_max",
		"wp", "bdt_np_cut",
		"status", "yield", "yield_error",
		"mean", "mean_error", "sigma", "sigma_error",
		"chi2_over_ndf", "converged",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	writeFitRow := func(ipt, iwp int, npCut float64, status model.CellStatus, fit *model.FitResult) error {
		bin := plan.PtBins[ipt]
		row := []string{
			strconv.Itoa(ipt),
			fmtFloat(bin.Min),
			fmtFloat(bin.Max),
			strconv.Itoa(iwp),
			fmtFloat(npCut),
			string(status),
		}
		if fit != nil {
			row = append(row,
				fmtFloat(fit.Yield), fmtFloat(fit.YieldError),
				fmtFloat(fit.Mean), fmtFloat(fit.MeanError),
				fmtFloat(fit.Sigma), fmtFloat(fit.SigmaError),
				fmtFloat(fit.Chi2OverNdf), strconv.FormatBool(fit.Converged),
			)
		} else {
			row = append(row, "", "", "", "", "", "", "", "false")
		}
		return w.Write(row)
	}

	for _, ref := range run.References {
		status := model.CellComplete
		if ref.Fit == nil || !ref.Fit.Converged {
			status = model.CellFailed
		}
		if err := writeFitRow(ref.PtBin, -1, -1, status, ref.Fit); err != nil {
			return err
		}
	}
	for _, key := range run.Matrix.SortedKeys() {
		cell := run.Matrix.Cells[key]
		npCut := plan.NonPromptCuts[key.WorkingPoint]
		if err := writeFitRow(key.PtBin, key.WorkingPoint, npCut, cell.Status, cell.Fit); err != nil {
			return err
		}
	}
	return w.Error()
}

func WriteEfficienciesCSV(path string, matrix *model.ResultMatrix, plan *config.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"pt_bin", "pt_min", "pt_max",
		"wp", "bdt_np_cut",
		"status", "efficiency", "numerator", "denominator",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, key := range matrix.SortedKeys() {
		cell := matrix.Cells[key]
		bin := plan.PtBins[key.PtBin]
		row := []string{
			strconv.Itoa(key.PtBin),
			fmtFloat(bin.Min),
			fmtFloat(bin.Max),
			strconv.Itoa(key.WorkingPoint),
			fmtFloat(plan.NonPromptCuts[key.WorkingPoint]),
			string(cell.Status),
		}
		if cell.Efficiency != nil {
			row = append(row,
				fmtFloat(cell.Efficiency.Value),
				fmtFloat(cell.Efficiency.Numerator),
				fmtFloat(cell.Efficiency.Denominator),
			)
		} else {
			row = append(row, "", "", "")
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteFailuresCSV records every failed cell and the reason. Silent
// omission of a failed cell is forbidden; this file is the audit trail.
func WriteFailuresCSV(path string, failures []model.CellFailure) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"pt_bin", "wp", "stage", "error"}); err != nil {
		return err
	}
	for _, fail := range failures {
		row := []string{
			strconv.Itoa(fail.Key.PtBin),
			strconv.Itoa(fail.Key.WorkingPoint),
			fail.Stage,
			fail.Err.Error(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', 8, 64)
}
