package fit

import (
	"fmt"
	"math"

	"charm-cutvar/internal/model"
)

// BackgroundShape is a background density in counts per GeV. Shapes are
// constructed per fit window so Eval takes the raw mass coordinate.
type BackgroundShape interface {
	Kind() model.BackgroundKind
	NParams() int
	Eval(x float64, p []float64) float64
	Seed(ctx SeedContext) []float64
	Bounds(ctx SeedContext) [][2]float64
}

func NewBackgroundShape(kind model.BackgroundKind, massMin, massMax float64) BackgroundShape {
	switch {
	case kind.IsExponential():
		return exponential{xmin: massMin, xmax: massMax}
	case kind.IsPolynomial():
		return chebyshev{degree: kind.Degree, xmin: massMin, xmax: massMax}
	}
	panic(fmt.Sprintf("fit: unknown background kind %v", kind))
}

// chebyshev is a Chebyshev polynomial of the first kind over the fit window
// mapped to [-1, 1]. Better conditioned than raw powers on a narrow mass
// window far from zero.
type chebyshev struct {
	degree     int
	xmin, xmax float64
}

func (c chebyshev) Kind() model.BackgroundKind {
	return model.BackgroundKind{Name: "poly", Degree: c.degree}
}

func (c chebyshev) NParams() int { return c.degree + 1 }

func (c chebyshev) Eval(x float64, p []float64) float64 {
	t := (2*x - c.xmin - c.xmax) / (c.xmax - c.xmin)
	sum := p[0]
	if len(p) > 1 {
		sum += p[1] * t
	}
	if len(p) > 2 {
		sum += p[2] * (2*t*t - 1)
	}
	if len(p) > 3 {
		sum += p[3] * (4*t*t*t - 3*t)
	}
	return sum
}

func (c chebyshev) Seed(ctx SeedContext) []float64 {
	lo, hi := ctx.sidebandDensities()
	seeds := make([]float64, c.degree+1)
	seeds[0] = 0.5 * (lo + hi)
	if c.degree >= 1 {
		// Sideband centers sit near t = -0.9 and t = +0.9.
		seeds[1] = (hi - lo) / 1.8
	}
	return seeds
}

func (c chebyshev) Bounds(ctx SeedContext) [][2]float64 {
	out := make([][2]float64, c.degree+1)
	scale := densityScale(ctx)
	for i := range out {
		out[i] = [2]float64{-scale, scale}
	}
	// The constant term is a density; keep it non-negative.
	out[0][0] = 0
	return out
}

// exponential is a * exp(k * (x - xmin)); anchoring at the window edge keeps
// the amplitude parameter at sideband scale.
type exponential struct {
	xmin, xmax float64
}

func (exponential) Kind() model.BackgroundKind {
	return model.BackgroundKind{Name: "expo"}
}

func (exponential) NParams() int { return 2 }

func (e exponential) Eval(x float64, p []float64) float64 {
	return p[0] * math.Exp(p[1]*(x-e.xmin))
}

func (e exponential) Seed(ctx SeedContext) []float64 {
	lo, hi := ctx.sidebandDensities()
	if lo <= 0 {
		lo = 1
	}
	if hi <= 0 {
		hi = lo
	}
	// Slope from the density ratio across ~80% of the window.
	k := math.Log(hi/lo) / (0.8 * ctx.width())
	return []float64{lo, k}
}

func (e exponential) Bounds(ctx SeedContext) [][2]float64 {
	return [][2]float64{
		{0, densityScale(ctx)},
		{-100 / ctx.width(), 100 / ctx.width()},
	}
}

func densityScale(ctx SeedContext) float64 {
	lo, hi := ctx.sidebandDensities()
	return 10 * (math.Abs(lo) + math.Abs(hi) + 1)
}
