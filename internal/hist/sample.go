package hist

// Sample is one weighted simulation source: the reconstructed candidate
// sparse (numerator side), the generated pT spectrum (denominator side), a
// relative weight, and whether the sample is a secondary decay channel that
// selection policy may exclude.
type Sample struct {
	Name      string
	Reco      *Sparse
	GenPt     *Hist1D
	Weight    float64
	Secondary bool
}

// LoadSample reads an MC file from disk.
func LoadSample(name, path string, weight float64, secondary bool) (Sample, error) {
	f, err := LoadFile(path)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Name: name, Reco: f.Candidates, GenPt: f.GenPt, Weight: weight, Secondary: secondary}, nil
}
