package analysis

import "sort"

type RankedTrend struct {
	CutVariationTrend
}

// RankByQuality sorts pt bins by completeness (descending), breaking ties on
// mean fit chi2 (ascending). The worst bins surface at the bottom for quick
// triage of a run.
func RankByQuality(trends []CutVariationTrend) []RankedTrend {
	out := make([]RankedTrend, 0, len(trends))
	for _, t := range trends {
		out = append(out, RankedTrend{CutVariationTrend: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompleteCells != out[j].CompleteCells {
			return out[i].CompleteCells > out[j].CompleteCells
		}
		return out[i].MeanChi2 < out[j].MeanChi2
	})
	return out
}
