package hist

import (
	"fmt"
	"math"
	"sort"
)

// Axis indices of the candidate sparse, matching the upstream task output.
const (
	AxisMass = iota
	AxisPt
	AxisBkgScore
	AxisNonPromptScore
	numAxes
)

// Axis describes one dimension of a Sparse.
type Axis struct {
	Name  string  `json:"name"`
	NBins int     `json:"nbins"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (a Axis) width() float64 { return (a.Max - a.Min) / float64(a.NBins) }

func (a Axis) findBin(x float64) int {
	i := int(math.Floor((x - a.Min) / a.width()))
	if i < 0 {
		return 0
	}
	if i >= a.NBins {
		return a.NBins - 1
	}
	return i
}

func (a Axis) binCenter(i int) float64 {
	return a.Min + (float64(i)+0.5)*a.width()
}

// Sparse is a 4-D (mass, pT, BDT-bkg score, BDT-nonprompt score) binned
// candidate distribution. Only occupied bins are stored, keyed by a flat
// index over the four axes.
type Sparse struct {
	Axes [numAxes]Axis      `json:"axes"`
	Bins map[uint64]float64 `json:"bins"`
}

func NewSparse(axes [numAxes]Axis) (*Sparse, error) {
	for i, a := range axes {
		if a.NBins <= 0 || a.Min >= a.Max {
			return nil, fmt.Errorf("axis %d (%s): bad binning (%d bins, range [%g, %g))",
				i, a.Name, a.NBins, a.Min, a.Max)
		}
	}
	return &Sparse{Axes: axes, Bins: make(map[uint64]float64)}, nil
}

func (s *Sparse) flatIndex(bins [numAxes]int) uint64 {
	idx := uint64(0)
	for i := 0; i < numAxes; i++ {
		idx = idx*uint64(s.Axes[i].NBins) + uint64(bins[i])
	}
	return idx
}

func (s *Sparse) unflatten(idx uint64) [numAxes]int {
	var bins [numAxes]int
	for i := numAxes - 1; i >= 0; i-- {
		n := uint64(s.Axes[i].NBins)
		bins[i] = int(idx % n)
		idx /= n
	}
	return bins
}

// Fill adds weight w at the given (mass, pt, bkg score, nonprompt score)
// coordinates. Out-of-range coordinates are dropped.
func (s *Sparse) Fill(mass, pt, bkgScore, npScore, w float64) {
	coords := [numAxes]float64{mass, pt, bkgScore, npScore}
	var bins [numAxes]int
	for i, x := range coords {
		if x < s.Axes[i].Min || x >= s.Axes[i].Max {
			return
		}
		bins[i] = s.Axes[i].findBin(x)
	}
	s.Bins[s.flatIndex(bins)] += w
}

// Selection restricts the non-mass axes for a projection. BkgCutMax selects
// scores <= the cut, NonPromptMin selects scores >= the cut.
type Selection struct {
	PtMin        float64
	PtMax        float64
	BkgCutMax    float64
	NonPromptMin float64
}

// epsilon nudges keep bin-edge cuts from leaking a neighboring bin, same
// trick as the upstream projection macros.
const edgeNudge = 1e-3

// ProjectMass projects the selected region onto the mass axis.
// Bin membership follows the axis binning of the sparse: a cut selects whole
// bins, with the cut value nudged off exact edges.
func (s *Sparse) ProjectMass(name string, sel Selection) (*Hist1D, error) {
	if sel.PtMin >= sel.PtMax {
		return nil, fmt.Errorf("projection %q: pt range [%g, %g) is empty", name, sel.PtMin, sel.PtMax)
	}
	out, err := NewHist1D(name, s.Axes[AxisMass].NBins, s.Axes[AxisMass].Min, s.Axes[AxisMass].Max)
	if err != nil {
		return nil, err
	}

	ptLo := s.Axes[AxisPt].findBin(sel.PtMin * (1 + edgeNudge))
	ptHi := s.Axes[AxisPt].findBin(sel.PtMax * (1 - edgeNudge))
	bkgHi := s.Axes[AxisBkgScore].findBin(sel.BkgCutMax * (1 - edgeNudge))
	npLo := 0
	if sel.NonPromptMin > s.Axes[AxisNonPromptScore].Min {
		npLo = s.Axes[AxisNonPromptScore].findBin(sel.NonPromptMin * (1 + edgeNudge))
	}

	// Accumulate in flat-index order. Map iteration order would vary the
	// floating-point summation between runs; reruns must be bit-identical.
	idxs := make([]uint64, 0, len(s.Bins))
	for idx := range s.Bins {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })

	for _, idx := range idxs {
		bins := s.unflatten(idx)
		if bins[AxisPt] < ptLo || bins[AxisPt] > ptHi {
			continue
		}
		if bins[AxisBkgScore] > bkgHi {
			continue
		}
		if bins[AxisNonPromptScore] < npLo {
			continue
		}
		out.Counts[bins[AxisMass]] += s.Bins[idx]
	}
	return out, nil
}

func (s *Sparse) Validate() error {
	for i, a := range s.Axes {
		if a.NBins <= 0 || a.Min >= a.Max {
			return fmt.Errorf("axis %d (%s): bad binning", i, a.Name)
		}
	}
	var total uint64 = 1
	for _, a := range s.Axes {
		total *= uint64(a.NBins)
	}
	for idx := range s.Bins {
		if idx >= total {
			return fmt.Errorf("bin index %d outside axis volume %d", idx, total)
		}
	}
	return nil
}
