// Package fit extracts raw signal yields from invariant-mass histograms by
// fitting a signal+background model over a configured mass window.
package fit

import (
	"math"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

// SeedContext carries what a shape needs to derive its initial parameters
// and bounds from the histogram being fitted, without per-cell hand tuning.
type SeedContext struct {
	Hist    *hist.Hist1D
	MassMin float64
	MassMax float64
	// Peak is the expected signal position (species mass or mass
	// difference); it bounds the fitted mean.
	Peak float64
}

func (c SeedContext) width() float64 { return c.MassMax - c.MassMin }

// modeCenter returns the center of the highest bin inside the fit window.
func (c SeedContext) modeCenter() float64 {
	best, bestCount := c.Peak, math.Inf(-1)
	for i := 0; i < c.Hist.NBins; i++ {
		x := c.Hist.BinCenter(i)
		if x < c.MassMin || x > c.MassMax {
			continue
		}
		if c.Hist.Counts[i] > bestCount {
			best, bestCount = x, c.Hist.Counts[i]
		}
	}
	return best
}

// sidebandDensities estimates the background density (counts per GeV) in the
// lower and upper 20% of the fit window.
func (c SeedContext) sidebandDensities() (lo, hi float64) {
	edge := 0.2 * c.width()
	var loSum, hiSum float64
	var loBins, hiBins int
	for i := 0; i < c.Hist.NBins; i++ {
		x := c.Hist.BinCenter(i)
		switch {
		case x >= c.MassMin && x < c.MassMin+edge:
			loSum += c.Hist.Counts[i]
			loBins++
		case x > c.MassMax-edge && x <= c.MassMax:
			hiSum += c.Hist.Counts[i]
			hiBins++
		}
	}
	bw := c.Hist.BinWidth()
	if loBins > 0 {
		lo = loSum / (float64(loBins) * bw)
	}
	if hiBins > 0 {
		hi = hiSum / (float64(hiBins) * bw)
	}
	return lo, hi
}

// SignalShape is a unit-normalized signal line shape. By convention the
// fitted mean is parameter 0 and the primary width parameter 1; the engine
// relies on this to fill FitResult.Mean/Sigma and to pin parameters from the
// reference fit.
type SignalShape interface {
	Kind() model.SignalKind
	ParamNames() []string
	// Eval returns the normalized density at x for shape parameters p.
	Eval(x float64, p []float64) float64
	Seed(ctx SeedContext) []float64
	Bounds(ctx SeedContext) [][2]float64
}

// NewSignalShape maps a validated kind to its shape. The kind set is closed;
// an unknown value here is a programming error.
func NewSignalShape(kind model.SignalKind) SignalShape {
	switch kind {
	case model.SignalGaussian:
		return gaussian{}
	case model.SignalDoubleGaussian:
		return doubleGaussian{}
	case model.SignalCrystalBall:
		return crystalBall{}
	}
	panic("fit: unknown signal kind " + string(kind))
}

func gaussPDF(x, mean, sigma float64) float64 {
	z := (x - mean) / sigma
	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}

type gaussian struct{}

func (gaussian) Kind() model.SignalKind { return model.SignalGaussian }
func (gaussian) ParamNames() []string   { return []string{"mean", "sigma"} }

func (gaussian) Eval(x float64, p []float64) float64 {
	return gaussPDF(x, p[0], p[1])
}

func (gaussian) Seed(ctx SeedContext) []float64 {
	return []float64{ctx.modeCenter(), 0.1 * ctx.width()}
}

func (gaussian) Bounds(ctx SeedContext) [][2]float64 {
	return [][2]float64{meanBounds(ctx), sigmaBounds(ctx)}
}

// doubleGaussian is a core Gaussian plus a wider one sharing the mean; frac
// is the core fraction.
type doubleGaussian struct{}

func (doubleGaussian) Kind() model.SignalKind { return model.SignalDoubleGaussian }
func (doubleGaussian) ParamNames() []string {
	return []string{"mean", "sigma", "sigma2", "frac"}
}

func (doubleGaussian) Eval(x float64, p []float64) float64 {
	return p[3]*gaussPDF(x, p[0], p[1]) + (1-p[3])*gaussPDF(x, p[0], p[2])
}

func (doubleGaussian) Seed(ctx SeedContext) []float64 {
	return []float64{ctx.modeCenter(), 0.08 * ctx.width(), 0.2 * ctx.width(), 0.7}
}

func (doubleGaussian) Bounds(ctx SeedContext) [][2]float64 {
	sb := sigmaBounds(ctx)
	return [][2]float64{
		meanBounds(ctx),
		sb,
		{sb[0], 2 * sb[1]},
		{0, 1},
	}
}

// crystalBall is the single-sided Crystal Ball: Gaussian core with a
// power-law tail below mean-alpha*sigma.
type crystalBall struct{}

func (crystalBall) Kind() model.SignalKind { return model.SignalCrystalBall }
func (crystalBall) ParamNames() []string {
	return []string{"mean", "sigma", "alpha", "n"}
}

func (crystalBall) Eval(x float64, p []float64) float64 {
	mean, sigma, alpha, n := p[0], p[1], math.Abs(p[2]), p[3]
	z := (x - mean) / sigma

	// Normalization of the core+tail over the full axis.
	c := n / (alpha * (n - 1)) * math.Exp(-0.5*alpha*alpha)
	d := math.Sqrt(math.Pi/2) * (1 + math.Erf(alpha/math.Sqrt2))
	norm := 1 / (sigma * (c + d))

	if z > -alpha {
		return norm * math.Exp(-0.5*z*z)
	}
	a := math.Pow(n/alpha, n) * math.Exp(-0.5*alpha*alpha)
	b := n/alpha - alpha
	return norm * a * math.Pow(b-z, -n)
}

func (crystalBall) Seed(ctx SeedContext) []float64 {
	return []float64{ctx.modeCenter(), 0.1 * ctx.width(), 1.5, 5}
}

func (crystalBall) Bounds(ctx SeedContext) [][2]float64 {
	return [][2]float64{
		meanBounds(ctx),
		sigmaBounds(ctx),
		{0.5, 3},
		{1.1, 100},
	}
}

func meanBounds(ctx SeedContext) [2]float64 {
	lo, hi := 0.95*ctx.Peak, 1.05*ctx.Peak
	if lo < ctx.MassMin {
		lo = ctx.MassMin
	}
	if hi > ctx.MassMax {
		hi = ctx.MassMax
	}
	return [2]float64{lo, hi}
}

func sigmaBounds(ctx SeedContext) [2]float64 {
	return [2]float64{ctx.Hist.BinWidth() / 3, 0.25 * ctx.width()}
}
