package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"charm-cutvar/internal/hist"
	"charm-cutvar/internal/model"
)

// NonConvergenceError reports a fit that did not converge after the retry.
// The cell is marked failed; the run continues.
type NonConvergenceError struct {
	Attempts int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("mass fit did not converge after %d attempts", e.Attempts)
}

// Engine fits signal(x)+background(x) to one mass histogram. The minimizer
// is iteration-bounded and fully deterministic: seeds derive from the
// histogram, so reruns on unchanged inputs reproduce results bit for bit.
type Engine struct {
	// MaxIterations caps each minimization attempt.
	MaxIterations int
}

// DefaultMaxIterations bounds a Nelder-Mead run on up to ~10 parameters.
const DefaultMaxIterations = 4000

func NewEngine() *Engine {
	return &Engine{MaxIterations: DefaultMaxIterations}
}

// Options tunes a single fit.
type Options struct {
	// Fixed pins signal shape parameters by name, typically the width (and
	// optionally the mean) from the pt bin's reference fit.
	Fixed map[string]float64
}

// Fit runs the signal+background fit over [spec.MassMin, spec.MassMax).
// peak is the expected signal position used for seeding and mean bounds.
//
// Non-convergence is not an error: the result carries Converged=false and
// the best parameters found. An error is returned only when the histogram
// cannot constrain the model at all (fewer populated bins than parameters).
func (e *Engine) Fit(h *hist.Hist1D, spec model.MassFitSpec, peak float64, opts Options) (*model.FitResult, error) {
	ctx := SeedContext{Hist: h, MassMin: spec.MassMin, MassMax: spec.MassMax, Peak: peak}
	sig := NewSignalShape(spec.Signal)
	bkg := NewBackgroundShape(spec.Background, spec.MassMin, spec.MassMax)

	prob := newFitProblem(h, ctx, sig, bkg, opts.Fixed)
	if prob.ndf() <= 0 {
		return nil, fmt.Errorf("fit window [%g, %g): %d bins cannot constrain %d free parameters",
			spec.MassMin, spec.MassMax, prob.nBins, len(prob.freeIdx))
	}

	best, converged := prob.minimize(e.MaxIterations)
	if !converged {
		// Retry once from a perturbed start: wider width seed, mean reset
		// to the expected peak.
		prob.perturbSeeds()
		if retry, ok := prob.minimize(e.MaxIterations); ok {
			best, converged = retry, true
		}
	}

	return prob.result(best, converged), nil
}

// fitProblem packs one fit: full parameter vector layout is
// [nsig, signal shape params..., background params...], with pinned
// parameters removed from the free vector handed to the minimizer.
type fitProblem struct {
	h   *hist.Hist1D
	ctx SeedContext
	sig SignalShape
	bkg BackgroundShape

	full    []float64    // current full vector, pinned slots preset
	freeIdx []int        // indices of full that the minimizer owns
	seeds   []float64    // free-vector seeds
	bounds  [][2]float64 // free-vector bounds
	nBins   int          // populated-window bin count

	cov *mat.Dense // free-vector covariance, nil when unavailable
}

func newFitProblem(h *hist.Hist1D, ctx SeedContext, sig SignalShape, bkg BackgroundShape, fixed map[string]float64) *fitProblem {
	p := &fitProblem{h: h, ctx: ctx, sig: sig, bkg: bkg}

	sigSeeds := sig.Seed(ctx)
	sigBounds := sig.Bounds(ctx)
	bkgSeeds := bkg.Seed(ctx)
	bkgBounds := bkg.Bounds(ctx)

	nsigSeed, nsigBounds := p.yieldSeed(sigSeeds)

	p.full = make([]float64, 1+len(sigSeeds)+len(bkgSeeds))
	p.full[0] = nsigSeed
	copy(p.full[1:], sigSeeds)
	copy(p.full[1+len(sigSeeds):], bkgSeeds)

	fullBounds := make([][2]float64, 0, len(p.full))
	fullBounds = append(fullBounds, nsigBounds)
	fullBounds = append(fullBounds, sigBounds...)
	fullBounds = append(fullBounds, bkgBounds...)

	names := sig.ParamNames()
	for i := range p.full {
		if i >= 1 && i <= len(names) {
			if v, ok := fixed[names[i-1]]; ok {
				p.full[i] = v
				continue
			}
		}
		p.freeIdx = append(p.freeIdx, i)
		p.seeds = append(p.seeds, p.full[i])
		p.bounds = append(p.bounds, fullBounds[i])
	}

	for i := 0; i < h.NBins; i++ {
		if x := h.BinCenter(i); x >= ctx.MassMin && x <= ctx.MassMax {
			p.nBins++
		}
	}
	return p
}

func (p *fitProblem) ndf() int { return p.nBins - len(p.freeIdx) }

// yieldSeed estimates the signal yield from the peak window over the
// sideband expectation. Bounds admit negative yields so defective cells
// stay visible.
func (p *fitProblem) yieldSeed(sigSeeds []float64) (float64, [2]float64) {
	mean, width := sigSeeds[0], sigSeeds[1]
	obs := p.h.Integral(mean-3*width, mean+3*width)
	lo, hi := p.ctx.sidebandDensities()
	bkgEst := 0.5 * (lo + hi) * 6 * width
	seed := obs - bkgEst
	if seed < 1 {
		seed = math.Sqrt(obs) + 1
	}
	total := p.h.Integral(p.ctx.MassMin, p.ctx.MassMax)
	return seed, [2]float64{-(total + 10), 2*total + 10}
}

func (p *fitProblem) assemble(free []float64) []float64 {
	full := make([]float64, len(p.full))
	copy(full, p.full)
	for i, idx := range p.freeIdx {
		full[idx] = free[i]
	}
	return full
}

// modelCounts evaluates the expected bin content at bin center x.
func (p *fitProblem) modelCounts(x float64, full []float64) float64 {
	nsig := full[0]
	sigPart := nsig * p.sig.Eval(x, full[1:1+len(p.sig.ParamNames())])
	bkgPart := p.bkg.Eval(x, full[1+len(p.sig.ParamNames()):])
	return (sigPart + bkgPart) * p.h.BinWidth()
}

func (p *fitProblem) chi2(free []float64) float64 {
	// Soft box constraints: Nelder-Mead is unconstrained, so walk-offs are
	// penalized instead of clipped to keep the surface continuous.
	penalty := 0.0
	for i, b := range p.bounds {
		if free[i] < b[0] {
			penalty += 1e9 * (b[0] - free[i]) * (b[0] - free[i])
		} else if free[i] > b[1] {
			penalty += 1e9 * (free[i] - b[1]) * (free[i] - b[1])
		}
	}

	full := p.assemble(free)
	sum := 0.0
	for i := 0; i < p.h.NBins; i++ {
		x := p.h.BinCenter(i)
		if x < p.ctx.MassMin || x > p.ctx.MassMax {
			continue
		}
		obs := p.h.Counts[i]
		sigma2 := obs
		if sigma2 < 1 {
			sigma2 = 1
		}
		d := p.modelCounts(x, full) - obs
		sum += d * d / sigma2
	}
	return sum + penalty
}

func (p *fitProblem) minimize(maxIter int) ([]float64, bool) {
	problem := optimize.Problem{Func: p.chi2}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Iterations: 200,
		},
	}

	start := make([]float64, len(p.seeds))
	copy(start, p.seeds)

	res, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil || res == nil {
		return start, false
	}
	switch res.Status {
	case optimize.FunctionConvergence, optimize.StepConvergence,
		optimize.GradientThreshold, optimize.MethodConverge, optimize.Success:
		p.computeCovariance(res.X)
		return res.X, true
	}
	return res.X, false
}

// perturbSeeds widens the width seed and recenters the mean on the expected
// peak before the retry attempt.
func (p *fitProblem) perturbSeeds() {
	names := p.sig.ParamNames()
	for i, idx := range p.freeIdx {
		if idx < 1 || idx > len(names) {
			continue
		}
		switch names[idx-1] {
		case "mean":
			p.seeds[i] = p.ctx.Peak
		case "sigma":
			p.seeds[i] = math.Min(2*p.seeds[i], p.bounds[i][1])
		}
	}
}

// computeCovariance inverts the numeric Hessian of chi2 at the minimum.
// cov = 2 H^-1 for a least-squares objective.
func (p *fitProblem) computeCovariance(x []float64) {
	hess := mat.NewSymDense(len(x), nil)
	fd.Hessian(hess, p.chi2, x, nil)
	var inv mat.Dense
	if err := inv.Inverse(hess); err != nil {
		p.cov = nil
		return
	}
	inv.Scale(2, &inv)
	p.cov = &inv
}

// freeError returns the 1-sigma error of full-vector parameter idx, or the
// Poisson-scale fallback when the covariance is unavailable or the
// parameter is pinned.
func (p *fitProblem) freeError(idx int, fallback float64) float64 {
	for i, fi := range p.freeIdx {
		if fi != idx {
			continue
		}
		if p.cov == nil {
			return fallback
		}
		v := p.cov.At(i, i)
		if v < 0 || math.IsNaN(v) {
			return fallback
		}
		return math.Sqrt(v)
	}
	return 0 // pinned
}

func (p *fitProblem) result(free []float64, converged bool) *model.FitResult {
	full := p.assemble(free)
	nSig := len(p.sig.ParamNames())

	sigParams := make([]float64, nSig)
	copy(sigParams, full[1:1+nSig])
	bkgParams := make([]float64, p.bkg.NParams())
	copy(bkgParams, full[1+nSig:])

	yield := full[0]
	res := &model.FitResult{
		Yield:            yield,
		YieldError:       p.freeError(0, math.Sqrt(math.Abs(yield)+1)),
		Mean:             sigParams[0],
		MeanError:        p.freeError(1, 0),
		Sigma:            sigParams[1],
		SigmaError:       p.freeError(2, 0),
		SignalParams:     sigParams,
		BackgroundParams: bkgParams,
		Converged:        converged,
	}

	chi2 := p.chi2(free)
	if ndf := p.ndf(); ndf > 0 {
		res.Chi2OverNdf = chi2 / float64(ndf)
	}
	return res
}

// BinCountYield extracts the yield by counting observed entries over the
// fitted background in [lo, hi]. Used for the cut-variation working points,
// where the signal shape is pinned from the reference fit.
func (e *Engine) BinCountYield(h *hist.Hist1D, res *model.FitResult, spec model.MassFitSpec, lo, hi float64) (float64, float64) {
	bkg := NewBackgroundShape(spec.Background, spec.MassMin, spec.MassMax)
	yield, sumObs := 0.0, 0.0
	for i := 0; i < h.NBins; i++ {
		x := h.BinCenter(i)
		if x < lo || x > hi {
			continue
		}
		obs := h.Counts[i]
		yield += obs - bkg.Eval(x, res.BackgroundParams)*h.BinWidth()
		sumObs += obs
	}
	return yield, math.Sqrt(sumObs)
}
