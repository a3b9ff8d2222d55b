package hist

import (
	"fmt"
	"math"
)

// Hist1D is a fixed-width 1-D histogram. Counts are weighted entries, so
// they are float64 rather than int.
type Hist1D struct {
	Name   string    `json:"name,omitempty"`
	NBins  int       `json:"nbins"`
	XMin   float64   `json:"xmin"`
	XMax   float64   `json:"xmax"`
	Counts []float64 `json:"counts"`
}

func NewHist1D(name string, nbins int, xmin, xmax float64) (*Hist1D, error) {
	if nbins <= 0 {
		return nil, fmt.Errorf("nbins must be > 0, got %d", nbins)
	}
	if xmin >= xmax {
		return nil, fmt.Errorf("histogram range [%g, %g): min must be < max", xmin, xmax)
	}
	return &Hist1D{Name: name, NBins: nbins, XMin: xmin, XMax: xmax, Counts: make([]float64, nbins)}, nil
}

func (h *Hist1D) BinWidth() float64 { return (h.XMax - h.XMin) / float64(h.NBins) }

func (h *Hist1D) BinCenter(i int) float64 {
	return h.XMin + (float64(i)+0.5)*h.BinWidth()
}

// FindBin returns the bin index containing x, clamped to [0, NBins-1].
func (h *Hist1D) FindBin(x float64) int {
	i := int(math.Floor((x - h.XMin) / h.BinWidth()))
	if i < 0 {
		return 0
	}
	if i >= h.NBins {
		return h.NBins - 1
	}
	return i
}

func (h *Hist1D) Fill(x, w float64) {
	if x < h.XMin || x >= h.XMax {
		return
	}
	h.Counts[h.FindBin(x)] += w
}

// Entries is the total weighted count.
func (h *Hist1D) Entries() float64 {
	sum := 0.0
	for _, c := range h.Counts {
		sum += c
	}
	return sum
}

// Integral sums counts of bins whose centers fall in [lo, hi].
func (h *Hist1D) Integral(lo, hi float64) float64 {
	sum := 0.0
	for i := 0; i < h.NBins; i++ {
		if c := h.BinCenter(i); c >= lo && c <= hi {
			sum += h.Counts[i]
		}
	}
	return sum
}

// ModeBin returns the index of the highest bin.
func (h *Hist1D) ModeBin() int {
	best, bestCount := 0, math.Inf(-1)
	for i, c := range h.Counts {
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	return best
}

func (h *Hist1D) Validate() error {
	if h.NBins <= 0 || h.XMin >= h.XMax {
		return fmt.Errorf("histogram %q: bad binning (%d bins, range [%g, %g))", h.Name, h.NBins, h.XMin, h.XMax)
	}
	if len(h.Counts) != h.NBins {
		return fmt.Errorf("histogram %q: %d counts for %d bins", h.Name, len(h.Counts), h.NBins)
	}
	return nil
}
