package hist

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the on-disk shape of one histogram source. Data files carry only
// the candidate sparse; MC files also carry the generated-level pT spectrum
// used as the efficiency denominator.
type File struct {
	Candidates *Sparse `json:"candidates"`
	GenPt      *Hist1D `json:"gen_pt,omitempty"`
}

func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.Candidates == nil {
		return nil, fmt.Errorf("%s: no candidate sparse", path)
	}
	if err := f.Candidates.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.GenPt != nil {
		if err := f.GenPt.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &f, nil
}

func (f *File) Save(path string) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
