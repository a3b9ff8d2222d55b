package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignalKind(t *testing.T) {
	tests := []struct {
		in      string
		want    SignalKind
		wantErr bool
	}{
		{in: "gaussian", want: SignalGaussian},
		{in: "doublegaus", want: SignalDoubleGaussian},
		{in: "crystalball", want: SignalCrystalBall},
		{in: "gausian", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseSignalKind(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseBackgroundKind(t *testing.T) {
	tests := []struct {
		in      string
		want    BackgroundKind
		wantErr bool
	}{
		{in: "expo", want: BackgroundKind{Name: "expo"}},
		{in: "pol0", want: BackgroundKind{Name: "poly", Degree: 0}},
		{in: "pol3", want: BackgroundKind{Name: "poly", Degree: 3}},
		{in: "chebpol2", want: BackgroundKind{Name: "poly", Degree: 2}},
		{in: "chebpol3", want: BackgroundKind{Name: "poly", Degree: 3}},
		{in: "pol4", wantErr: true},
		{in: "chebpol9", wantErr: true},
		{in: "landau", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseBackgroundKind(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestValidatePtBins(t *testing.T) {
	ok := []PtBin{{1, 2}, {2, 4}, {4, 6}}
	assert.NoError(t, ValidatePtBins(ok))

	overlapping := []PtBin{{1, 3}, {2, 4}}
	assert.Error(t, ValidatePtBins(overlapping))

	inverted := []PtBin{{2, 1}}
	assert.Error(t, ValidatePtBins(inverted))

	assert.Error(t, ValidatePtBins(nil))
}

func TestValidateNonPromptCuts(t *testing.T) {
	assert.NoError(t, ValidateNonPromptCuts([]float64{0, 0.1, 0.2}))
	assert.Error(t, ValidateNonPromptCuts([]float64{0, 0.2, 0.1}))
	assert.Error(t, ValidateNonPromptCuts([]float64{0, 0, 0.1}))
	assert.Error(t, ValidateNonPromptCuts(nil))
}

func TestMassFitSpecValidate(t *testing.T) {
	spec := MassFitSpec{MassMin: 1.75, MassMax: 1.99, Signal: SignalGaussian}
	assert.NoError(t, spec.Validate(1.87))
	assert.Error(t, spec.Validate(2.5), "peak outside window")

	bad := MassFitSpec{MassMin: 1.99, MassMax: 1.75}
	assert.Error(t, bad.Validate(1.87))
}

func TestHadron(t *testing.T) {
	h, err := ParseHadron("dplus")
	require.NoError(t, err)
	assert.InDelta(t, 1.8697, h.PeakMass(), 1e-3)

	h, err = ParseHadron("dstar")
	require.NoError(t, err)
	assert.InDelta(t, 0.1454, h.PeakMass(), 1e-3)

	_, err = ParseHadron("lambdac")
	assert.Error(t, err)
}

func TestGridCellStatus(t *testing.T) {
	key := CellKey{PtBin: 1, WorkingPoint: 2}
	fitOK := &FitResult{Yield: 100, Converged: true}
	fitBad := &FitResult{Yield: 100, Converged: false}
	eff := &EfficiencyResult{Value: 0.5, Numerator: 5, Denominator: 10}

	assert.Equal(t, CellComplete, NewGridCell(key, fitOK, eff).Status)
	assert.Equal(t, CellPartiallyFailed, NewGridCell(key, fitOK, nil).Status)
	assert.Equal(t, CellPartiallyFailed, NewGridCell(key, nil, eff).Status)
	assert.Equal(t, CellFailed, NewGridCell(key, nil, nil).Status)

	// A non-converged fit stays attached but counts as missing.
	cell := NewGridCell(key, fitBad, eff)
	assert.Equal(t, CellPartiallyFailed, cell.Status)
	assert.NotNil(t, cell.Fit)

	assert.Equal(t, CellComplete, NewGridCellFitOnly(key, fitOK).Status)
	assert.Equal(t, CellFailed, NewGridCellFitOnly(key, fitBad).Status)
	assert.Equal(t, CellFailed, NewGridCellFitOnly(key, nil).Status)
}

func TestResultMatrixSortedKeys(t *testing.T) {
	m := NewResultMatrix(2, 3)
	for ipt := 0; ipt < 2; ipt++ {
		for iwp := 0; iwp < 3; iwp++ {
			key := CellKey{PtBin: ipt, WorkingPoint: iwp}
			m.Cells[key] = NewGridCellFitOnly(key, &FitResult{Converged: true})
		}
	}
	keys := m.SortedKeys()
	require.Len(t, keys, 6)
	assert.Equal(t, CellKey{PtBin: 0, WorkingPoint: 0}, keys[0])
	assert.Equal(t, CellKey{PtBin: 1, WorkingPoint: 2}, keys[5])
	assert.Equal(t, 6, m.CountByStatus()[CellComplete])
}
