package config

import (
	"errors"
	"fmt"
	"os"

	"charm-cutvar/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). Some source configs
// repeat keys verbatim; the decoder resolves each key to a single value and
// no second-pass semantics are inferred from the repetition.
type Config struct {
	Hadron string `yaml:"hadron"`

	PtMins []float64 `yaml:"pt_mins"`
	PtMaxs []float64 `yaml:"pt_maxs"`

	BdtCuts struct {
		// Bkg is a single cut broadcast to every pt bin, or one cut per bin.
		Bkg       FloatOrList `yaml:"bkg"`
		NonPrompt []float64   `yaml:"nonprompt"`
	} `yaml:"bdt_cuts"`

	Fit struct {
		MassMins []float64 `yaml:"mass_mins"`
		MassMaxs []float64 `yaml:"mass_maxs"`
		SgnFuncs []string  `yaml:"sgn_funcs"`
		BkgFuncs []string  `yaml:"bkg_funcs"`
	} `yaml:"fit"`

	Input struct {
		Data string     `yaml:"data"`
		MC   []MCSource `yaml:"mc"`
	} `yaml:"input"`

	MinEntries       float64 `yaml:"min_entries"`
	IncludeSecondary bool    `yaml:"include_secondary"`
	FixMean          bool    `yaml:"fix_mean"`
	Workers          int     `yaml:"workers"`

	BinCounting struct {
		Enabled bool    `yaml:"enabled"`
		Min     float64 `yaml:"min"`
		Max     float64 `yaml:"max"`
	} `yaml:"bin_counting"`

	Output struct {
		RawYields    OutputTarget `yaml:"rawyields"`
		Efficiencies OutputTarget `yaml:"efficiencies"`
	} `yaml:"output"`
}

type MCSource struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`

	// Weight is the sample's relative normalization; omitted means 1.
	Weight    *float64 `yaml:"weight"`
	Secondary bool     `yaml:"secondary"`
}

type OutputTarget struct {
	Directory string `yaml:"directory"`
	Suffix    string `yaml:"suffix"`
}

// FloatOrList accepts either a YAML scalar or a sequence of floats.
type FloatOrList []float64

func (f *FloatOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*f = FloatOrList{v}
		return nil
	case yaml.SequenceNode:
		var vs []float64
		if err := node.Decode(&vs); err != nil {
			return err
		}
		*f = FloatOrList(vs)
		return nil
	}
	return fmt.Errorf("line %d: expected number or list of numbers", node.Line)
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if c.MinEntries == 0 {
		c.MinEntries = 20
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the config without validating it. Useful for
// debugging or printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a YAML config from memory, without validation.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate applies the structural checks that abort a run before any cell
// processing begins: array-length consistency, bin ordering, function-kind
// names, cut monotonicity.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Plan(); err != nil {
		return err
	}
	return nil
}

// Plan converts the raw config into the validated grid definition the
// orchestrator consumes. This is where function-name strings become closed
// tagged variants.
func (c *Config) Plan() (*Plan, error) {
	hadron, err := model.ParseHadron(c.Hadron)
	if err != nil {
		return nil, err
	}

	n := len(c.PtMins)
	if len(c.PtMaxs) != n {
		return nil, fmt.Errorf("pt_mins and pt_maxs have different lengths (%d vs %d)", n, len(c.PtMaxs))
	}
	if len(c.Fit.MassMins) != n || len(c.Fit.MassMaxs) != n || len(c.Fit.SgnFuncs) != n || len(c.Fit.BkgFuncs) != n {
		return nil, fmt.Errorf("fit configuration lengths do not match %d pt bins", n)
	}

	bins := make([]model.PtBin, n)
	for i := range bins {
		b, err := model.NewPtBin(c.PtMins[i], c.PtMaxs[i])
		if err != nil {
			return nil, err
		}
		bins[i] = b
	}
	if err := model.ValidatePtBins(bins); err != nil {
		return nil, err
	}

	bkgCuts, err := broadcastCuts(c.BdtCuts.Bkg, n)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateNonPromptCuts(c.BdtCuts.NonPrompt); err != nil {
		return nil, err
	}

	specs := make([]model.MassFitSpec, n)
	for i := range specs {
		sgn, err := model.ParseSignalKind(c.Fit.SgnFuncs[i])
		if err != nil {
			return nil, fmt.Errorf("pt bin %d: %w", i, err)
		}
		bkg, err := model.ParseBackgroundKind(c.Fit.BkgFuncs[i])
		if err != nil {
			return nil, fmt.Errorf("pt bin %d: %w", i, err)
		}
		specs[i] = model.MassFitSpec{
			MassMin:    c.Fit.MassMins[i],
			MassMax:    c.Fit.MassMaxs[i],
			Signal:     sgn,
			Background: bkg,
		}
		if err := specs[i].Validate(hadron.PeakMass()); err != nil {
			return nil, fmt.Errorf("pt bin %d: %w", i, err)
		}
	}

	var window *BinCountingWindow
	if c.BinCounting.Enabled {
		if c.BinCounting.Min >= c.BinCounting.Max {
			return nil, fmt.Errorf("bin_counting window [%g, %g): min must be < max", c.BinCounting.Min, c.BinCounting.Max)
		}
		window = &BinCountingWindow{Min: c.BinCounting.Min, Max: c.BinCounting.Max}
	}

	for i, src := range c.Input.MC {
		if src.Weight != nil && *src.Weight <= 0 {
			return nil, fmt.Errorf("input.mc[%d] (%s): weight must be > 0, got %g", i, src.Name, *src.Weight)
		}
	}

	if c.MinEntries < 0 {
		return nil, fmt.Errorf("min_entries must be >= 0, got %g", c.MinEntries)
	}
	if c.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	return &Plan{
		Hadron:           hadron,
		PtBins:           bins,
		BkgCuts:          bkgCuts,
		NonPromptCuts:    append([]float64(nil), c.BdtCuts.NonPrompt...),
		FitSpecs:         specs,
		MinEntries:       c.MinEntries,
		IncludeSecondary: c.IncludeSecondary,
		FixMean:          c.FixMean,
		Workers:          c.Workers,
		BinCounting:      window,
	}, nil
}

func broadcastCuts(cuts FloatOrList, n int) ([]float64, error) {
	switch len(cuts) {
	case 0:
		return nil, errors.New("bdt_cuts.bkg is required")
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = cuts[0]
		}
		return out, nil
	case n:
		return append([]float64(nil), cuts...), nil
	}
	return nil, fmt.Errorf("bdt_cuts.bkg must be a single value or one per pt bin, got %d for %d bins", len(cuts), n)
}
