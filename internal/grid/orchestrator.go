// Package grid enumerates the (pt bin x BDT working point) grid and drives
// yield extraction and efficiency computation per cell. Cells are
// independent; a failure in one never aborts the others.
package grid

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"charm-cutvar/internal/config"
	"charm-cutvar/internal/eff"
	"charm-cutvar/internal/fit"
	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
	"charm-cutvar/internal/project"
)

// Inputs bundles the read-only histogram sources of a run. No task mutates
// them, so workers share them without locking.
type Inputs struct {
	Data *hist.Sparse
	MC   []hist.Sample
}

// ReferenceFit is the no-cut fit of one pt bin. Its fitted width (and
// optionally mean) is pinned in that bin's working-point fits.
type ReferenceFit struct {
	PtBin int
	Fit   *model.FitResult
	Err   error
}

// Run is the complete output of one orchestrator pass.
type Run struct {
	Matrix     *model.ResultMatrix
	References []ReferenceFit
}

// Orchestrator owns the grid traversal and is the sole writer of the
// result matrix.
type Orchestrator struct {
	plan      *config.Plan
	extractor project.Extractor
	fitter    *fit.Engine
	effCalc   eff.Calculator
}

func New(plan *config.Plan) *Orchestrator {
	return &Orchestrator{
		plan:      plan,
		extractor: project.Extractor{MinEntries: plan.MinEntries},
		fitter:    fit.NewEngine(),
		effCalc:   eff.Calculator{IncludeSecondary: plan.IncludeSecondary},
	}
}

func (o *Orchestrator) workers() int {
	if o.plan.Workers > 0 {
		return o.plan.Workers
	}
	return runtime.NumCPU()
}

// Execute processes the full grid and returns a matrix covering every
// declared cell, plus the per-bin reference fits. Failed cells are recorded
// in the matrix's failure list, never dropped.
func (o *Orchestrator) Execute(in Inputs) (*Run, error) {
	if in.Data == nil {
		return nil, fmt.Errorf("no data source")
	}

	refs := o.referenceFits(in.Data)

	nPt := len(o.plan.PtBins)
	nWP := len(o.plan.NonPromptCuts)
	matrix := model.NewResultMatrix(nPt, nWP)

	type task struct {
		key model.CellKey
		wp  model.WorkingPoint
	}
	tasks := make(chan task)
	outcomes := make(chan cellOutcome, o.workers())

	var wg sync.WaitGroup
	for w := 0; w < o.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				outcomes <- o.processCell(in, t.key, t.wp, refs[t.key.PtBin])
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	go func() {
		for ipt := range o.plan.PtBins {
			for iwp, wp := range o.plan.WorkingPoints(ipt) {
				tasks <- task{key: model.CellKey{PtBin: ipt, WorkingPoint: iwp}, wp: wp}
			}
		}
		close(tasks)
	}()

	fitOnly := len(in.MC) == 0
	for out := range outcomes {
		if fitOnly {
			matrix.Cells[out.key] = model.NewGridCellFitOnly(out.key, out.fit)
		} else {
			matrix.Cells[out.key] = model.NewGridCell(out.key, out.fit, out.eff)
		}
		matrix.Failures = append(matrix.Failures, out.failures...)
	}

	// Worker completion order is not deterministic; sort so the failure
	// report is.
	sort.Slice(matrix.Failures, func(i, j int) bool {
		a, b := matrix.Failures[i], matrix.Failures[j]
		if a.Key != b.Key {
			if a.Key.PtBin != b.Key.PtBin {
				return a.Key.PtBin < b.Key.PtBin
			}
			return a.Key.WorkingPoint < b.Key.WorkingPoint
		}
		return a.Stage < b.Stage
	})

	counts := matrix.CountByStatus()
	log.Info().
		Int("cells", len(matrix.Cells)).
		Int("complete", counts[model.CellComplete]).
		Int("partial", counts[model.CellPartiallyFailed]).
		Int("failed", counts[model.CellFailed]).
		Int("failures", len(matrix.Failures)).
		Msg("grid processed")

	return &Run{Matrix: matrix, References: refs}, nil
}

// referenceFits runs the background-cut-only fit of each pt bin, in
// parallel across bins.
func (o *Orchestrator) referenceFits(data *hist.Sparse) []ReferenceFit {
	refs := make([]ReferenceFit, len(o.plan.PtBins))
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers())
	for ipt := range o.plan.PtBins {
		wg.Add(1)
		go func(ipt int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			refs[ipt] = o.referenceFit(data, ipt)
		}(ipt)
	}
	wg.Wait()
	return refs
}

func (o *Orchestrator) referenceFit(data *hist.Sparse, ipt int) ReferenceFit {
	bin := o.plan.PtBins[ipt]
	h, err := o.extractor.ExtractNoCut(data, bin, o.plan.BkgCuts[ipt])
	if err != nil {
		log.Warn().Int("pt_bin", ipt).Err(err).Msg("reference projection failed")
		return ReferenceFit{PtBin: ipt, Err: err}
	}
	res, err := o.fitter.Fit(h, o.plan.FitSpecs[ipt], o.plan.Hadron.PeakMass(), fit.Options{})
	if err != nil {
		log.Warn().Int("pt_bin", ipt).Err(err).Msg("reference fit failed")
		return ReferenceFit{PtBin: ipt, Err: err}
	}
	if !res.Converged {
		log.Warn().Int("pt_bin", ipt).Msg("reference fit did not converge")
	}
	return ReferenceFit{PtBin: ipt, Fit: res}
}

// pinnedParams returns the signal parameters to fix in working-point fits,
// taken from a converged reference fit.
func (o *Orchestrator) pinnedParams(ref ReferenceFit) map[string]float64 {
	if ref.Fit == nil || !ref.Fit.Converged {
		return nil
	}
	fixed := map[string]float64{"sigma": ref.Fit.Sigma}
	if o.plan.FixMean {
		fixed["mean"] = ref.Fit.Mean
	}
	return fixed
}

type cellOutcome struct {
	key      model.CellKey
	fit      *model.FitResult
	eff      *model.EfficiencyResult
	failures []model.CellFailure
}

// processCell runs data extraction+fit and MC efficiency for one cell. All
// errors are caught here, at the task boundary.
func (o *Orchestrator) processCell(in Inputs, key model.CellKey, wp model.WorkingPoint, ref ReferenceFit) cellOutcome {
	out := cellOutcome{key: key}
	bin := o.plan.PtBins[key.PtBin]
	spec := o.plan.FitSpecs[key.PtBin]

	h, err := o.extractor.Extract(in.Data, bin, wp)
	if err != nil {
		out.failures = append(out.failures, model.CellFailure{Key: key, Stage: "projection", Err: err})
		log.Warn().Str("cell", key.String()).Err(err).Msg("projection failed")
	} else {
		res, err := o.fitter.Fit(h, spec, o.plan.Hadron.PeakMass(), fit.Options{Fixed: o.pinnedParams(ref)})
		switch {
		case err != nil:
			out.failures = append(out.failures, model.CellFailure{Key: key, Stage: "fit", Err: err})
			log.Warn().Str("cell", key.String()).Err(err).Msg("fit failed")
		case !res.Converged:
			out.fit = res
			out.failures = append(out.failures, model.CellFailure{
				Key: key, Stage: "fit", Err: &fit.NonConvergenceError{Attempts: 2},
			})
			log.Warn().Str("cell", key.String()).Msg("fit did not converge")
		default:
			if o.plan.BinCounting != nil {
				res.Yield, res.YieldError = o.fitter.BinCountYield(h, res, spec, o.plan.BinCounting.Min, o.plan.BinCounting.Max)
			}
			out.fit = res
		}
	}

	if len(in.MC) > 0 {
		effRes, err := o.effCalc.Compute(in.MC, bin, wp)
		if err != nil {
			out.failures = append(out.failures, model.CellFailure{Key: key, Stage: "efficiency", Err: err})
			log.Warn().Str("cell", key.String()).Err(err).Msg("efficiency failed")
		} else {
			out.eff = effRes
		}
	}
	return out
}
