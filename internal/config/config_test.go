package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charm-cutvar/internal/model"
)

const validYAML = `
hadron: dplus
pt_mins: [2.0, 4.0]
pt_maxs: [4.0, 6.0]
bdt_cuts:
  bkg: 0.02
  nonprompt: [0.0, 0.1, 0.2]
fit:
  mass_mins: [1.75, 1.75]
  mass_maxs: [1.99, 1.99]
  sgn_funcs: [gaussian, crystalball]
  bkg_funcs: [chebpol3, expo]
input:
  data: data.json
  mc:
    - name: prompt
      path: mc_prompt.json
      weight: 1.0
output:
  rawyields: {directory: out, suffix: _dplus}
  efficiencies: {directory: out, suffix: _dplus}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	plan, err := cfg.Plan()
	require.NoError(t, err)

	assert.Equal(t, model.HadronDplus, plan.Hadron)
	require.Len(t, plan.PtBins, 2)
	assert.Equal(t, model.PtBin{Min: 2, Max: 4}, plan.PtBins[0])
	assert.Equal(t, []float64{0.02, 0.02}, plan.BkgCuts, "scalar bkg cut is broadcast")
	assert.Equal(t, 6, plan.GridSize())
	assert.Equal(t, model.SignalCrystalBall, plan.FitSpecs[1].Signal)
	assert.True(t, plan.FitSpecs[0].Background.IsPolynomial())
	assert.Equal(t, 3, plan.FitSpecs[0].Background.Degree)
	assert.Equal(t, 20.0, plan.MinEntries, "defaulted")

	wps := plan.WorkingPoints(0)
	require.Len(t, wps, 3)
	assert.Equal(t, model.WorkingPoint{BkgCut: 0.02, NonPromptCut: 0.1}, wps[1])
}

func TestLoadPerBinBkgCuts(t *testing.T) {
	yaml := validYAML
	cfg, err := Load(writeConfig(t, yaml))
	require.NoError(t, err)
	cfg.BdtCuts.Bkg = FloatOrList{0.01, 0.05}
	plan, err := cfg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.01, 0.05}, plan.BkgCuts)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"length mismatch", func(c *Config) { c.PtMaxs = c.PtMaxs[:1] }},
		{"inverted pt bin", func(c *Config) { c.PtMins[0] = 5.0 }},
		{"overlapping pt bins", func(c *Config) { c.PtMins[1] = 3.0 }},
		{"unknown hadron", func(c *Config) { c.Hadron = "bplus" }},
		{"unknown signal func", func(c *Config) { c.Fit.SgnFuncs[0] = "breitwigner" }},
		{"unknown background func", func(c *Config) { c.Fit.BkgFuncs[0] = "chebpol7" }},
		{"fit length mismatch", func(c *Config) { c.Fit.MassMins = c.Fit.MassMins[:1] }},
		{"non-monotonic np cuts", func(c *Config) { c.BdtCuts.NonPrompt = []float64{0.2, 0.1} }},
		{"peak outside mass window", func(c *Config) { c.Fit.MassMaxs[0] = 1.80 }},
		{"bkg cut count mismatch", func(c *Config) { c.BdtCuts.Bkg = FloatOrList{0.1, 0.2, 0.3} }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero mc weight", func(c *Config) { w := 0.0; c.Input.MC[0].Weight = &w }},
		{"negative mc weight", func(c *Config) { w := -0.5; c.Input.MC[0].Weight = &w }},
		{"bad bin counting window", func(c *Config) {
			c.BinCounting.Enabled = true
			c.BinCounting.Min = 2.0
			c.BinCounting.Max = 1.8
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validYAML))
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFloatOrListScalar(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, FloatOrList{0.02}, cfg.BdtCuts.Bkg)
}
