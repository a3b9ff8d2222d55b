package eff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

func testAxes() [4]hist.Axis {
	return [4]hist.Axis{
		{Name: "mass", NBins: 24, Min: 1.75, Max: 1.99},
		{Name: "pt", NBins: 12, Min: 0, Max: 12},
		{Name: "bkg_score", NBins: 10, Min: 0, Max: 1},
		{Name: "np_score", NBins: 10, Min: 0, Max: 1},
	}
}

// buildSample makes a sample with nReco reconstructed candidates at pt 4.5
// passing any reasonable cut, and nGen generated candidates in pt [4, 5).
func buildSample(t *testing.T, name string, nReco, nGen int, weight float64, secondary bool) hist.Sample {
	t.Helper()
	reco, err := hist.NewSparse(testAxes())
	require.NoError(t, err)
	for i := 0; i < nReco; i++ {
		reco.Fill(1.87, 4.5, 0.05, 0.95, 1)
	}
	gen, err := hist.NewHist1D("gen_pt", 12, 0, 12)
	require.NoError(t, err)
	for i := 0; i < nGen; i++ {
		gen.Fill(4.5, 1)
	}
	return hist.Sample{Name: name, Reco: reco, GenPt: gen, Weight: weight, Secondary: secondary}
}

var (
	effBin = model.PtBin{Min: 4, Max: 5}
	effWP  = model.WorkingPoint{BkgCut: 0.5, NonPromptCut: 0.5}
)

func TestComputeSingleSample(t *testing.T) {
	s := buildSample(t, "prompt", 40, 200, 1.0, false)
	res, err := Calculator{}.Compute([]hist.Sample{s}, effBin, effWP)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, res.Value, 1e-12)
	assert.InDelta(t, 40, res.Numerator, 1e-9)
	assert.InDelta(t, 200, res.Denominator, 1e-9)
}

func TestComputeWeightedCombination(t *testing.T) {
	a := buildSample(t, "prompt", 40, 200, 1.0, false)
	b := buildSample(t, "nonprompt", 10, 100, 0.5, false)
	res, err := Calculator{}.Compute([]hist.Sample{a, b}, effBin, effWP)
	require.NoError(t, err)
	// (1.0*40 + 0.5*10) / (1.0*200 + 0.5*100) = 45/250
	assert.InDelta(t, 0.18, res.Value, 1e-12)
}

func TestComputeSecondaryPolicy(t *testing.T) {
	prompt := buildSample(t, "prompt", 40, 200, 1.0, false)
	sec := buildSample(t, "secondary", 50, 100, 1.0, true)

	excl, err := Calculator{}.Compute([]hist.Sample{prompt, sec}, effBin, effWP)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, excl.Value, 1e-12)

	incl, err := Calculator{IncludeSecondary: true}.Compute([]hist.Sample{prompt, sec}, effBin, effWP)
	require.NoError(t, err)
	assert.InDelta(t, 90.0/300.0, incl.Value, 1e-12)
}

func TestComputeNoSamplesSelected(t *testing.T) {
	sec := buildSample(t, "secondary", 10, 100, 1.0, true)
	_, err := Calculator{}.Compute([]hist.Sample{sec}, effBin, effWP)
	assert.Error(t, err)
}

func TestComputeMissingGenSpectrum(t *testing.T) {
	// A sample without a generated spectrum would add to the numerator
	// only, inflating the combined value without tripping the [0, 1]
	// check. It must be an error, not a plausible-looking number.
	healthy := buildSample(t, "prompt", 40, 200, 1.0, false)
	broken := buildSample(t, "nonprompt", 40, 0, 1.0, false)
	broken.GenPt = nil

	_, err := Calculator{}.Compute([]hist.Sample{healthy, broken}, effBin, effWP)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonprompt")
}

func TestComputeZeroDenominator(t *testing.T) {
	s := buildSample(t, "prompt", 10, 0, 1.0, false)
	_, err := Calculator{}.Compute([]hist.Sample{s}, effBin, effWP)
	var zde *ZeroDenominatorError
	require.ErrorAs(t, err, &zde)
	assert.Contains(t, zde.Key, "pt4.0_5.0")
}

func TestComputeConsistencyViolation(t *testing.T) {
	// More reconstructed than generated: the value must surface as an
	// error, never clamped into [0, 1].
	s := buildSample(t, "prompt", 120, 100, 1.0, false)
	_, err := Calculator{}.Compute([]hist.Sample{s}, effBin, effWP)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1.2, ce.Value)
}

func TestComputeTighterCutLowersNumerator(t *testing.T) {
	reco, err := hist.NewSparse(testAxes())
	require.NoError(t, err)
	// Candidates spread over nonprompt scores; tighter NonPromptMin keeps
	// fewer of them.
	for np := 0.05; np < 1; np += 0.1 {
		reco.Fill(1.87, 4.5, 0.05, np, 1)
	}
	gen, err := hist.NewHist1D("gen_pt", 12, 0, 12)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		gen.Fill(4.5, 1)
	}
	s := hist.Sample{Name: "prompt", Reco: reco, GenPt: gen, Weight: 1}

	loose, err := Calculator{}.Compute([]hist.Sample{s}, effBin, model.WorkingPoint{BkgCut: 0.5, NonPromptCut: 0.2})
	require.NoError(t, err)
	tight, err := Calculator{}.Compute([]hist.Sample{s}, effBin, model.WorkingPoint{BkgCut: 0.5, NonPromptCut: 0.8})
	require.NoError(t, err)
	assert.Greater(t, loose.Value, tight.Value)
}
