package grid

import (
	"fmt"

	"charm-cutvar/internal/config"
	"charm-cutvar/internal/hist"
)

// LoadInputs resolves the config's input section into histogram sources.
// The cache deduplicates loads when several MC entries point at one file.
func LoadInputs(cfg *config.Config, cache *hist.SourceCache) (Inputs, error) {
	if cache == nil {
		cache = hist.NewSourceCache()
	}
	if cfg.Input.Data == "" {
		return Inputs{}, fmt.Errorf("input.data is required")
	}

	dataFile, err := cache.Load(cfg.Input.Data)
	if err != nil {
		return Inputs{}, fmt.Errorf("load data source: %w", err)
	}

	in := Inputs{Data: dataFile.Candidates}
	for _, src := range cfg.Input.MC {
		f, err := cache.Load(src.Path)
		if err != nil {
			return Inputs{}, fmt.Errorf("load MC source %s: %w", src.Name, err)
		}
		if f.GenPt == nil {
			return Inputs{}, fmt.Errorf("MC source %s: file %s has no generated-level pt spectrum", src.Name, src.Path)
		}
		weight := 1.0
		if src.Weight != nil {
			weight = *src.Weight
		}
		in.MC = append(in.MC, hist.Sample{
			Name:      src.Name,
			Reco:      f.Candidates,
			GenPt:     f.GenPt,
			Weight:    weight,
			Secondary: src.Secondary,
		})
	}
	return in, nil
}
