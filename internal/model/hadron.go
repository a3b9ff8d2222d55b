package model

import "fmt"

// Hadron is the charm species under analysis. The peak position is what the
// fit engine expects to find inside each configured mass window: the D+
// invariant mass, or the D*-D0 mass difference for the D* analysis.
type Hadron string

const (
	HadronDplus Hadron = "dplus"
	HadronDstar Hadron = "dstar"
)

// PDG 2024 values, GeV/c^2.
const (
	massDplus      = 1.86966
	deltaMassDstar = 0.145426
)

func ParseHadron(s string) (Hadron, error) {
	switch Hadron(s) {
	case HadronDplus, HadronDstar:
		return Hadron(s), nil
	}
	return "", fmt.Errorf("unsupported hadron %q (want dplus or dstar)", s)
}

// PeakMass returns the expected signal peak position on the fitted mass axis.
func (h Hadron) PeakMass() float64 {
	if h == HadronDstar {
		return deltaMassDstar
	}
	return massDplus
}
