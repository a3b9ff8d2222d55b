package model

import "fmt"

// SignalKind identifies a signal line shape. Keep these values stable; they
// appear in config files and CSV output.
type SignalKind string

const (
	SignalGaussian       SignalKind = "gaussian"
	SignalDoubleGaussian SignalKind = "doublegaus"
	SignalCrystalBall    SignalKind = "crystalball"
)

// BackgroundKind identifies a background shape. Polynomial kinds carry their
// degree so a typo like "chebpol9" cannot reach the fit engine.
type BackgroundKind struct {
	Name   string
	Degree int
}

const (
	bkgExpo = "expo"
	bkgPoly = "poly"
)

func (b BackgroundKind) String() string {
	if b.Name == bkgPoly {
		return fmt.Sprintf("%s%d", b.Name, b.Degree)
	}
	return b.Name
}

func (b BackgroundKind) IsExponential() bool { return b.Name == bkgExpo }
func (b BackgroundKind) IsPolynomial() bool  { return b.Name == bkgPoly }

// ParseSignalKind maps a config string to a SignalKind.
// Unknown names fail at config-validation time.
func ParseSignalKind(s string) (SignalKind, error) {
	switch SignalKind(s) {
	case SignalGaussian, SignalDoubleGaussian, SignalCrystalBall:
		return SignalKind(s), nil
	}
	return "", fmt.Errorf("unknown signal function %q (want gaussian, doublegaus or crystalball)", s)
}

// ParseBackgroundKind maps a config string to a BackgroundKind.
// Accepted: "expo", "pol0".."pol3", and the "chebpolN" spelling used by
// older configs for the same polynomial degrees.
func ParseBackgroundKind(s string) (BackgroundKind, error) {
	if s == bkgExpo {
		return BackgroundKind{Name: bkgExpo}, nil
	}
	for _, prefix := range []string{"chebpol", "pol"} {
		if len(s) == len(prefix)+1 && s[:len(prefix)] == prefix {
			d := int(s[len(prefix)] - '0')
			if d >= 0 && d <= 3 {
				return BackgroundKind{Name: bkgPoly, Degree: d}, nil
			}
		}
	}
	return BackgroundKind{}, fmt.Errorf("unknown background function %q (want expo or pol0..pol3)", s)
}

// MassFitSpec is the per-pt-bin fit configuration.
type MassFitSpec struct {
	MassMin    float64
	MassMax    float64
	Signal     SignalKind
	Background BackgroundKind
}

func (s MassFitSpec) Validate(peak float64) error {
	if s.MassMin >= s.MassMax {
		return fmt.Errorf("mass range [%g, %g): min must be < max", s.MassMin, s.MassMax)
	}
	if peak <= s.MassMin || peak >= s.MassMax {
		return fmt.Errorf("mass range [%g, %g) does not contain the expected peak at %g",
			s.MassMin, s.MassMax, peak)
	}
	return nil
}
