// Package eff computes selection efficiencies from weighted simulation
// samples: the fraction of generated candidates that survive a given
// (pt bin, working point) selection.
package eff

import (
	"fmt"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

// ZeroDenominatorError reports a cell where no sample has generated
// candidates: a configuration or simulation-statistics problem, isolated to
// the cell.
type ZeroDenominatorError struct {
	Key string
}

func (e *ZeroDenominatorError) Error() string {
	return fmt.Sprintf("efficiency %s: zero generated-count denominator in every sample", e.Key)
}

// ConsistencyError reports an efficiency outside [0, 1]. The value is never
// clamped; out-of-range means a selection or accounting bug upstream and
// must stay visible.
type ConsistencyError struct {
	Key   string
	Value float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("efficiency %s: value %g outside [0, 1]", e.Key, e.Value)
}

// Calculator combines weighted MC samples into per-cell efficiencies.
type Calculator struct {
	// IncludeSecondary folds secondary-channel samples into numerator and
	// denominator. A selection policy input, not a separate component.
	IncludeSecondary bool
}

// Compute evaluates eff = sum(w_i * sel_i) / sum(w_i * gen_i) across the
// samples for one cell. Weights need not sum to one; they set the relative
// normalization of the samples.
func (c Calculator) Compute(samples []hist.Sample, bin model.PtBin, wp model.WorkingPoint) (*model.EfficiencyResult, error) {
	key := fmt.Sprintf("%s_%s", bin.Label(), wp.Label())

	var num, den float64
	used := 0
	for _, s := range samples {
		if s.Secondary && !c.IncludeSecondary {
			continue
		}
		used++

		sel := hist.Selection{
			PtMin:        bin.Min,
			PtMax:        bin.Max,
			BkgCutMax:    wp.BkgCut,
			NonPromptMin: wp.NonPromptCut,
		}
		reco, err := s.Reco.ProjectMass(key, sel)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.Name, err)
		}
		num += s.Weight * reco.Entries()

		// A sample without a generated spectrum would feed the numerator
		// and nothing else, inflating the combined value unnoticed.
		if s.GenPt == nil {
			return nil, fmt.Errorf("efficiency %s: sample %s has no generated-level pt spectrum", key, s.Name)
		}
		den += s.Weight * s.GenPt.Integral(bin.Min, bin.Max)
	}
	if used == 0 {
		return nil, fmt.Errorf("efficiency %s: no samples selected by policy", key)
	}
	if den == 0 {
		return nil, &ZeroDenominatorError{Key: key}
	}

	value := num / den
	if value < 0 || value > 1 {
		return nil, &ConsistencyError{Key: key, Value: value}
	}
	return &model.EfficiencyResult{Value: value, Numerator: num, Denominator: den}, nil
}
