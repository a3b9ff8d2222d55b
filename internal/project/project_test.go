package project

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

func buildSource(t *testing.T) *hist.Sparse {
	t.Helper()
	s, err := hist.NewSparse([4]hist.Axis{
		{Name: "mass", NBins: 24, Min: 1.75, Max: 1.99},
		{Name: "pt", NBins: 12, Min: 0, Max: 12},
		{Name: "bdt_bkg", NBins: 10, Min: 0, Max: 1},
		{Name: "bdt_np", NBins: 10, Min: 0, Max: 1},
	})
	require.NoError(t, err)
	// Populate pt 4-5 only.
	for i := 0; i < 24; i++ {
		mass := 1.75 + (float64(i)+0.5)*0.01
		s.Fill(mass, 4.5, 0.05, 0.85, 10)
	}
	return s
}

func TestExtract(t *testing.T) {
	src := buildSource(t)
	x := Extractor{MinEntries: 20}
	bin := model.PtBin{Min: 4, Max: 5}
	wp := model.WorkingPoint{BkgCut: 0.2, NonPromptCut: 0.5}

	h, err := x.Extract(src, bin, wp)
	require.NoError(t, err)
	assert.InDelta(t, 240, h.Entries(), 1e-12)
	assert.Equal(t, "hist_mass_pt4.0_5.0_bdtnp0.50", h.Name)
}

func TestExtractEmptySelection(t *testing.T) {
	src := buildSource(t)
	x := Extractor{MinEntries: 20}

	// A pt bin with no candidates at all.
	_, err := x.Extract(src, model.PtBin{Min: 8, Max: 9}, model.WorkingPoint{BkgCut: 0.2})
	var empty *EmptySelectionError
	require.ErrorAs(t, err, &empty)
	assert.Zero(t, empty.Entries)

	// Below the minimum-statistics threshold counts as empty too.
	tight := Extractor{MinEntries: 1000}
	_, err = tight.Extract(src, model.PtBin{Min: 4, Max: 5}, model.WorkingPoint{BkgCut: 0.2})
	assert.ErrorAs(t, err, &empty)
	assert.EqualValues(t, 240, empty.Entries)
}

func TestExtractNoCutKeepsAllNonPromptScores(t *testing.T) {
	src := buildSource(t)
	x := Extractor{MinEntries: 0}
	bin := model.PtBin{Min: 4, Max: 5}

	noCut, err := x.ExtractNoCut(src, bin, 0.2)
	require.NoError(t, err)
	withCut, err := x.Extract(src, bin, model.WorkingPoint{BkgCut: 0.2, NonPromptCut: 0.9})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, noCut.Entries(), withCut.Entries())
	assert.Equal(t, "hist_mass_pt4.0_5.0_nocutnp", noCut.Name)
}

func TestExtractPure(t *testing.T) {
	src := buildSource(t)
	x := Extractor{MinEntries: 0}
	bin := model.PtBin{Min: 4, Max: 5}
	wp := model.WorkingPoint{BkgCut: 0.2, NonPromptCut: 0.5}

	h1, err := x.Extract(src, bin, wp)
	require.NoError(t, err)
	h2, err := x.Extract(src, bin, wp)
	require.NoError(t, err)
	assert.Equal(t, h1.Counts, h2.Counts)

	var empty *EmptySelectionError
	assert.False(t, errors.As(err, &empty))
}
