package biasedurn

import (
	"math"

	matrix "github.com/skelterjohn/go.matrix"
)

// MultiWallenius is a multivariate Wallenius noncentral hypergeometric
// distribution over c >= 1 colors. Unlike Fisher, its PMF has no closed
// form; Probability dispatches between exact quadrature, a Laplace
// approximation, and a normal approximation, selected by problem size
// per §4.4.
type MultiWallenius struct {
	*Urn

	st    state
	mean0 []float64

	mm *multiMoments

	uni *Wallenius // delegate when usedColors < 3
}

// NewMultiWallenius validates and constructs a multivariate Wallenius
// noncentral hypergeometric distribution.
func NewMultiWallenius(n int, m []int, odds []float64, accuracy float64) (*MultiWallenius, error) {
	u, err := newUrn(n, m, odds, accuracy)
	if err != nil {
		return nil, err
	}
	w := &MultiWallenius{Urn: u}
	if u.usedColors >= 2 && u.usedColors < 3 {
		w.uni, err = NewWallenius(u.n, u.mu[0], u.mu[1], u.oddsu[0]/u.oddsu[1], u.accuracy)
		if err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Mean returns the approximate per-color means (full color indexing) via
// the Wallenius-specific Cornfield-style fixed point (§4.4).
func (w *MultiWallenius) Mean() ([]float64, error) {
	if w.st == stateFresh {
		mu, err := cornfieldMean(w.n, w.N, w.mu, w.oddsu, walleniusTransfer)
		if err != nil {
			return nil, err
		}
		w.mean0 = mu
		w.st = stateMeanKnown
	}
	return w.expandF(w.mean0), nil
}

// Probability returns P(X = x) for a full-length (unreduced) x vector,
// selecting an evaluation strategy by the size of the used-color support.
func (w *MultiWallenius) Probability(x []int) (float64, error) {
	xu, err := w.reduce(x)
	if err != nil {
		return 0, nil //nolint:nilerr // out-of-support x is a soft 0
	}
	p, err := w.pmfReduced(xu)
	return p, err
}

func (w *MultiWallenius) pmfReduced(xu []int) (float64, error) {
	switch {
	case w.usedColors == 0:
		return 1, nil
	case w.usedColors == 1:
		if xu[0] == w.n {
			return 1, nil
		}
		return 0, nil
	case w.usedColors == 2:
		return w.uni.Probability(xu[0]), nil
	}

	supportSize := 1
	for i := 0; i < w.usedColors && supportSize < 1<<20; i++ {
		supportSize *= w.mu[i] + 1
	}

	switch {
	case supportSize <= 20000 || w.accuracy < 0.01:
		return w.pmfQuadrature(xu), nil
	case w.accuracy >= 0.1:
		meanApprox, err := cornfieldMean(w.n, w.N, w.mu, w.oddsu, walleniusTransfer)
		if err != nil {
			return 0, err
		}
		return w.pmfNormalApprox(xu, meanApprox), nil
	default:
		return w.pmfLaplace(xu), nil
	}
}

// lnChooseTerm returns ln C = Σ ln choose(mu[i], x[i]).
func (w *MultiWallenius) lnChooseTerm(x []int) float64 {
	s := 0.0
	for i, xi := range x {
		s += LnFac(int64(w.mu[i])) - LnFac(int64(xi)) - LnFac(int64(w.mu[i]-xi))
	}
	return s
}

// walleniusD returns d = Σ odds[i]*(mu[i]-x[i]), the residual weighted
// mass that appears in every color's exponent odds[i]/d.
func (w *MultiWallenius) walleniusD(x []int) float64 {
	d := 0.0
	for i, xi := range x {
		d += w.oddsu[i] * float64(w.mu[i]-xi)
	}
	return d
}

func (w *MultiWallenius) integrand(t float64, x []int, d float64) float64 {
	if d == 0 {
		return 1
	}
	v := 1.0
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		if w.oddsu[i] == 0 {
			return 0
		}
		base := 1 - math.Pow(t, w.oddsu[i]/d)
		if base <= 0 {
			return 0
		}
		v *= math.Pow(base, float64(xi))
	}
	return v
}

// pmfQuadrature evaluates the Wallenius integral by adaptive Gauss-
// Legendre quadrature (§4.4 "exact quadrature"), used when the support is
// small.
func (w *MultiWallenius) pmfQuadrature(x []int) float64 {
	d := w.walleniusD(x)
	if d == 0 {
		return 1
	}
	integral := adaptiveQuad(func(t float64) float64 { return w.integrand(t, x, d) }, 0, 1, 0.1*w.accuracy)
	lnC := w.lnChooseTerm(x)
	return safeExp(lnC) * integral
}

// pmfLaplace approximates the Wallenius integral by a Laplace expansion
// of ln(integrand) around its maximizer t*, used for moderate support
// sizes where full quadrature would be expensive.
func (w *MultiWallenius) pmfLaplace(x []int) float64 {
	d := w.walleniusD(x)
	if d == 0 {
		return 1
	}
	logIntegrand := func(t float64) float64 {
		v := w.integrand(t, x, d)
		if v <= 0 {
			return math.Inf(-1)
		}
		return math.Log(v)
	}

	// Golden-section search for the maximizer on (0, 1); the integrand is
	// unimodal in t for this family.
	tStar := goldenSectionMax(logIntegrand, 1e-6, 1-1e-6, 60)

	h := 1e-4
	f0 := logIntegrand(tStar)
	fPlus := logIntegrand(minF(tStar+h, 1-1e-9))
	fMinus := logIntegrand(maxF(tStar-h, 1e-9))
	curvature := (fPlus - 2*f0 + fMinus) / (h * h)
	if curvature >= 0 {
		// Degenerate curvature (flat or convex): fall back to adaptive
		// quadrature rather than risk an imaginary width.
		integral := adaptiveQuad(func(t float64) float64 { return w.integrand(t, x, d) }, 0, 1, 0.1*w.accuracy)
		return safeExp(w.lnChooseTerm(x)) * integral
	}
	sigma := math.Sqrt(-1 / curvature)
	// ∫ exp(f(t)) dt ≈ exp(f(t*)) * sigma * sqrt(2π), clipped to the unit
	// interval by the normal CDF mass actually inside (0, 1).
	lo := (0 - tStar) / sigma
	hi := (1 - tStar) / sigma
	mass := standardNormalCDF(hi) - standardNormalCDF(lo)
	integral := safeExp(f0) * sigma * math.Sqrt(2*math.Pi) * mass
	return safeExp(w.lnChooseTerm(x)) * integral
}

// pmfNormalApprox approximates P(x) via a multivariate normal density at
// the Wallenius mean/variance, used only when accuracy >= 0.1 (§4.4).
func (w *MultiWallenius) pmfNormalApprox(x []int, meanApprox []float64) float64 {
	z2 := 0.0
	for i, xi := range x {
		mu := meanApprox[i]
		v := mu * (1 - mu/float64(w.mu[i]+1))
		if v <= 0 {
			continue
		}
		d := float64(xi) - mu
		z2 += d * d / v
	}
	k := float64(w.usedColors - 1) // one degree of freedom removed by Σx=n
	if k <= 0 {
		k = 1
	}
	norm := math.Pow(2*math.Pi, k/2)
	return safeExp(-z2/2) / norm
}

// Moments returns the approximate mean and variance per color (full
// indexing) by enumerating the feasible lattice with the same
// mean-anchored depth-first pruning as Fisher's SumOfAll (§4.3), using
// whichever PMF strategy Probability would pick for each leaf.
func (w *MultiWallenius) Moments() (mean, variance []float64, err error) {
	if w.usedColors < 3 {
		if w.usedColors <= 1 {
			mean = make([]float64, len(w.m))
			variance = make([]float64, len(w.m))
			if w.usedColors == 1 {
				mean[w.index[0]] = float64(w.n)
			}
			return mean, variance, nil
		}
		m, v := w.uni.Moments()
		mean = make([]float64, len(w.m))
		variance = make([]float64, len(w.m))
		mean[w.index[0]] = m
		mean[w.index[1]] = float64(w.n) - m
		variance[w.index[0]] = v
		variance[w.index[1]] = v
		return mean, variance, nil
	}

	meanApprox, err := cornfieldMean(w.n, w.N, w.mu, w.oddsu, walleniusTransfer)
	if err != nil {
		return nil, nil, err
	}

	mm := newMultiMoments(w.usedColors)
	lng := func(xu []int) float64 {
		p, perr := w.pmfReduced(xu)
		if perr != nil || p <= 0 {
			return math.Inf(-1)
		}
		return math.Log(p)
	}
	xbuf := make([]int, w.usedColors)
	w.depthSum(0, xbuf, w.n, meanApprox, lng, mm.accumulate)
	w.mm = mm

	muR := mm.mean()
	cov := mm.covariance()
	mean = w.expandF(muR)
	variance = make([]float64, len(w.m))
	for i, idx := range w.index {
		variance[idx] = cov[i][i]
	}
	return mean, variance, nil
}

// Covariance returns the covariance matrix over the reduced (used)
// colors, computed in the same enumeration pass as Moments.
func (w *MultiWallenius) Covariance() (*matrix.DenseMatrix, error) {
	if w.mm == nil {
		if _, _, err := w.Moments(); err != nil {
			return nil, err
		}
	}
	if w.mm == nil {
		out := matrix.Zeros(w.usedColors, w.usedColors)
		if w.usedColors == 2 {
			_, v := w.uni.Moments()
			out.Set(0, 0, v)
			out.Set(1, 1, v)
			out.Set(0, 1, -v)
			out.Set(1, 0, -v)
		}
		return out, nil
	}
	cov := w.mm.covariance()
	out := matrix.Zeros(w.usedColors, w.usedColors)
	for i := range cov {
		for j := range cov[i] {
			out.Set(i, j, cov[i][j])
		}
	}
	return out, nil
}

func standardNormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// goldenSectionMax finds an approximate maximizer of f on [lo, hi] by
// golden-section search, used by the Laplace approximation to locate t*.
func goldenSectionMax(f func(float64) float64, lo, hi float64, iters int) float64 {
	const invPhi = 0.6180339887498949
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < iters; i++ {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
