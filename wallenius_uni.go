package biasedurn

import "math"

// Wallenius is a univariate Wallenius noncentral hypergeometric
// distribution: an urn of m1 balls of color 1 and m2 of color 2, n drawn
// one at a time without replacement, each draw favoring a color in
// proportion to its residual count times its odds. Unlike Fisher, its PMF
// has no closed form (§4.4); Probability dispatches to quadrature, a
// Laplace approximation, or a normal approximation depending on the urn
// size N and on accuracy.
type Wallenius struct {
	n, m1, m2  int
	N          int
	odds       float64
	accuracy   float64
	xmin, xmax int

	st    state
	mean0 float64
}

// NewWallenius validates and constructs a univariate Wallenius noncentral
// hypergeometric distribution.
func NewWallenius(n, m1, m2 int, odds, accuracy float64) (*Wallenius, error) {
	if m1 < 0 || m2 < 0 {
		return nil, rangeErrorf("negative urn counts m1=%d m2=%d", m1, m2)
	}
	N := m1 + m2
	if n < 0 || n > N {
		return nil, rangeErrorf("n=%d out of range [0, %d]", n, N)
	}
	if odds < 0 {
		return nil, rangeErrorf("odds=%v must be >= 0", odds)
	}
	if accuracy <= 0 || accuracy > 1 {
		return nil, rangeErrorf("accuracy=%v must be in (0, 1]", accuracy)
	}
	return &Wallenius{
		n: n, m1: m1, m2: m2, N: N,
		odds:     odds,
		accuracy: accuracy,
		xmin:     MinHypergeo(n, m1, m2),
		xmax:     MaxHypergeo(n, m1, m2),
	}, nil
}

func (w *Wallenius) computeMean() (float64, error) {
	if w.xmin == w.xmax {
		return float64(w.xmin), nil
	}
	mu, err := cornfieldMean(w.n, w.N, []int{w.m1, w.m2}, []float64{w.odds, 1}, walleniusTransfer)
	if err != nil {
		return 0, err
	}
	return mu[0], nil
}

// Mean returns the approximate mean, promoting the instance to MeanKnown.
func (w *Wallenius) Mean() float64 {
	if w.st == stateFresh {
		mu, err := w.computeMean()
		if err != nil {
			// The Cornfield solver only fails to converge on pathological
			// inputs; fall back to the central-hypergeometric mean rather
			// than propagating a panic from an accessor with no error
			// return.
			mu = float64(w.m1*w.n) / float64(w.N)
		}
		w.mean0 = mu
		w.st = stateMeanKnown
	}
	return w.mean0
}

// Mode returns an approximate mode: the mean rounded to the nearest
// integer and clipped to the support. Wallenius' PMF has no exact
// Liao-Rosen-style closed form (§4.4).
func (w *Wallenius) Mode() int {
	return clampI(round(w.Mean()), w.xmin, w.xmax)
}

func (w *Wallenius) choiceTerm(x int) float64 {
	return LnFac(int64(w.m1)) - LnFac(int64(x)) - LnFac(int64(w.m1-x)) +
		LnFac(int64(w.m2)) - LnFac(int64(w.n-x)) - LnFac(int64(w.m2-(w.n-x)))
}

func (w *Wallenius) walleniusD(x int) float64 {
	return w.odds*float64(w.m1-x) + float64(w.m2-(w.n-x))
}

func (w *Wallenius) integrand(t float64, x int, d float64) float64 {
	if d == 0 {
		return 1
	}
	base1 := 1 - math.Pow(t, w.odds/d)
	base2 := 1 - math.Pow(t, 1/d)
	if x > 0 {
		if base1 <= 0 {
			return 0
		}
	}
	if w.n-x > 0 {
		if base2 <= 0 {
			return 0
		}
	}
	v := 1.0
	if x > 0 {
		v *= math.Pow(base1, float64(x))
	}
	if w.n-x > 0 {
		v *= math.Pow(base2, float64(w.n-x))
	}
	return v
}

// Probability returns P(X = x), 0 outside the support.
func (w *Wallenius) Probability(x int) float64 {
	if x < w.xmin || x > w.xmax {
		return 0
	}
	if w.xmin == w.xmax {
		return 1
	}

	d := w.walleniusD(x)
	if d == 0 {
		return 1
	}

	switch {
	case w.N <= 2000 || w.accuracy < 0.01:
		integral := adaptiveQuad(func(t float64) float64 { return w.integrand(t, x, d) }, 0, 1, 0.1*w.accuracy)
		return safeExp(w.choiceTerm(x)) * integral
	case w.accuracy >= 0.1:
		return w.normalApprox(x)
	default:
		return w.laplace(x, d)
	}
}

func (w *Wallenius) laplace(x int, d float64) float64 {
	logIntegrand := func(t float64) float64 {
		v := w.integrand(t, x, d)
		if v <= 0 {
			return math.Inf(-1)
		}
		return math.Log(v)
	}
	tStar := goldenSectionMax(logIntegrand, 1e-6, 1-1e-6, 60)
	h := 1e-4
	f0 := logIntegrand(tStar)
	fPlus := logIntegrand(minF(tStar+h, 1-1e-9))
	fMinus := logIntegrand(maxF(tStar-h, 1e-9))
	curvature := (fPlus - 2*f0 + fMinus) / (h * h)
	if curvature >= 0 {
		integral := adaptiveQuad(func(t float64) float64 { return w.integrand(t, x, d) }, 0, 1, 0.1*w.accuracy)
		return safeExp(w.choiceTerm(x)) * integral
	}
	sigma := math.Sqrt(-1 / curvature)
	lo := (0 - tStar) / sigma
	hi := (1 - tStar) / sigma
	mass := standardNormalCDF(hi) - standardNormalCDF(lo)
	integral := safeExp(f0) * sigma * math.Sqrt(2*math.Pi) * mass
	return safeExp(w.choiceTerm(x)) * integral
}

func (w *Wallenius) normalApprox(x int) float64 {
	mu := w.Mean()
	v := w.Variance()
	if v <= 0 {
		if x == round(mu) {
			return 1
		}
		return 0
	}
	d := float64(x) - mu
	return math.Exp(-d*d/(2*v)) / math.Sqrt(2*math.Pi*v)
}

// Variance returns the Fisher-style approximate variance evaluated at the
// Wallenius mean, shared in form with Fisher's (§4.4 "share the mean1 /
// variance contract with the Fisher counterpart").
func (w *Wallenius) Variance() float64 {
	if w.xmin == w.xmax {
		return 0
	}
	mu := w.Mean()
	m1, n, N := float64(w.m1), float64(w.n), float64(w.N)
	r1 := mu * (m1 - mu)
	r2 := (n - mu) * (mu + N - n - m1)
	v := N * r1 * r2 / ((N - 1) * (m1*r2 + (N-m1)*r1))
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	return v
}

// CDF returns P(X <= x).
func (w *Wallenius) CDF(x int) float64 {
	if x < w.xmin {
		return 0
	}
	if x >= w.xmax {
		return 1
	}
	sum := 0.0
	for k := w.xmin; k <= x; k++ {
		sum += w.Probability(k)
	}
	return sum
}

// Moments returns the mean and variance by summing x*P(x) and x^2*P(x)
// over the support (exact relative to whichever PMF strategy Probability
// selects), anchored at the mode for precision.
func (w *Wallenius) Moments() (mean, variance float64) {
	if w.xmin == w.xmax {
		return float64(w.xmin), 0
	}
	anchor := w.Mode()
	cutoff := w.accuracy * 0.1

	total, sx, sxx := 0.0, 0.0, 0.0
	accumulate := func(x int) float64 {
		p := w.Probability(x)
		dx := float64(x - anchor)
		total += p
		sx += p * dx
		sxx += p * dx * dx
		return p
	}

	accumulate(anchor)
	for x := anchor - 1; x >= w.xmin; x-- {
		if accumulate(x) < cutoff {
			break
		}
	}
	for x := anchor + 1; x <= w.xmax; x++ {
		if accumulate(x) < cutoff {
			break
		}
	}

	meanShifted := sx / total
	mean = meanShifted + float64(anchor)
	variance = sxx/total - meanShifted*meanShifted
	if variance < 0 {
		variance = 0
	}
	return mean, variance
}

// Table returns the full unnormalized PMF table over the support.
func (w *Wallenius) Table() Table {
	return w.MakeTable(-1)
}

// MakeTable builds a contiguous table of PMF values centered on the mode,
// cutting either tail once its value falls below cutoff = 0.01*accuracy
// relative to the mode. Unlike Fisher's MakeTable there is no O(1)
// recurrence between neighbouring x, so each table entry costs a full
// Probability evaluation.
func (w *Wallenius) MakeTable(maxLength int) Table {
	supportLen := w.xmax - w.xmin + 1
	_, variance := w.Moments()
	sigma := math.Sqrt(variance)
	desired := minI(supportLen, round(NumSD(w.accuracy)*sigma)*2+1)
	if desired < 1 {
		desired = 1
	}
	if maxLength == 0 {
		return Table{DesiredLength: desired}
	}

	mode := w.Mode()
	modeVal := w.Probability(mode)
	cutoff := 0.01 * w.accuracy

	lo, hi := mode, mode
	for lo > w.xmin {
		if w.Probability(lo-1) < cutoff*modeVal {
			break
		}
		lo--
	}
	for hi < w.xmax {
		if w.Probability(hi+1) < cutoff*modeVal {
			break
		}
		hi++
	}
	if maxLength > 0 && hi-lo+1 > maxLength {
		for hi-lo+1 > maxLength {
			if mode-lo > hi-mode {
				lo++
			} else {
				hi--
			}
		}
	}

	values := make([]float64, hi-lo+1)
	sum := 0.0
	for x := lo; x <= hi; x++ {
		v := w.Probability(x)
		values[x-lo] = v
		sum += v
	}
	return Table{
		First:    lo,
		Last:     hi,
		Values:   values,
		Sum:      sum,
		UseTable: hi-lo+1 <= supportLen/2 || hi-lo+1 <= 4096,
	}
}
