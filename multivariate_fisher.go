package biasedurn

import (
	"math"

	fn "github.com/datastream/go-fn/fn"
	matrix "github.com/skelterjohn/go.matrix"
)

// MultiFisher is a multivariate Fisher noncentral hypergeometric
// distribution over c >= 1 colors. Like Fisher, it is a stateful numeric
// object: scale and rsum are computed lazily on first Probability or
// Moments call and cached for the instance's lifetime.
type MultiFisher struct {
	*Urn

	st    state
	mean0 []float64

	scale float64
	rsum  float64
	mm    *multiMoments

	uni *Fisher // delegate when usedColors < 3
}

// NewMultiFisher validates and constructs a multivariate Fisher
// noncentral hypergeometric distribution.
func NewMultiFisher(n int, m []int, odds []float64, accuracy float64) (*MultiFisher, error) {
	u, err := newUrn(n, m, odds, accuracy)
	if err != nil {
		return nil, err
	}
	f := &MultiFisher{Urn: u}
	if u.usedColors < 3 {
		f.uni, err = f.buildUnivariate()
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *MultiFisher) buildUnivariate() (*Fisher, error) {
	switch f.usedColors {
	case 0:
		return nil, nil
	case 1:
		return nil, nil
	default:
		m1, m2 := f.mu[0], f.mu[1]
		odds := f.oddsu[0] / f.oddsu[1]
		return NewFisher(f.n, m1, m2, odds, f.accuracy)
	}
}

// mFac returns Σ LnFac(mu[i]) over the reduced colors.
func (f *Urn) mFac() float64 {
	s := 0.0
	for _, mi := range f.mu {
		s += LnFac(int64(mi))
	}
	return s
}

func (f *MultiFisher) lngReduced(x []int) float64 {
	s := f.mFac()
	for i, xi := range x {
		if f.oddsu[i] == 0 {
			if xi != 0 {
				return math.Inf(-1)
			}
			continue
		}
		s += float64(xi)*math.Log(f.oddsu[i]) - LnFac(int64(xi)) - LnFac(int64(f.mu[i]-xi))
	}
	return s - f.scale
}

// Probability returns P(X = x) for a full-length (unreduced) x vector.
func (f *MultiFisher) Probability(x []int) (float64, error) {
	xu, err := f.reduce(x)
	if err != nil {
		return 0, nil //nolint:nilerr // out-of-support x is a soft 0, per §7.2
	}

	if f.usedColors < 3 {
		if f.usedColors <= 1 {
			return 1, nil
		}
		return f.uni.Probability(xu[0]), nil
	}

	if f.allEqualOdds {
		return centralMultivariatePMF(f.mu, xu, f.n), nil
	}

	if err := f.ensureNormalized(); err != nil {
		return 0, err
	}
	return safeExp(f.lngReduced(xu)) * f.rsum, nil
}

// Mean returns the Cornfield-style approximate per-color means (full
// color indexing, 0 at excluded colors), promoting the instance to
// MeanKnown.
func (f *MultiFisher) Mean() ([]float64, error) {
	if f.st == stateFresh {
		mu, err := cornfieldMean(f.n, f.N, f.mu, f.oddsu, fisherTransfer)
		if err != nil {
			return nil, err
		}
		f.mean0 = mu
		f.st = stateMeanKnown
	}
	return f.expandF(f.mean0), nil
}

func (f *Urn) expandF(xu []float64) []float64 {
	x := make([]float64, len(f.m))
	for i, xi := range xu {
		x[f.index[i]] = xi
	}
	return x
}

func (f *MultiFisher) ensureNormalized() error {
	if f.st == stateNormalized {
		return nil
	}
	meanApprox, err := cornfieldMean(f.n, f.N, f.mu, f.oddsu, fisherTransfer)
	if err != nil {
		return err
	}

	anchor := make([]int, f.usedColors)
	remaining := f.n
	for i, mv := range meanApprox {
		xmin := maxI(0, remaining-f.suffix[i+1])
		xmax := minI(remaining, f.mu[i])
		anchor[i] = clampI(round(mv), xmin, xmax)
		remaining -= anchor[i]
	}
	// The last color's anchor must absorb whatever remains, matching
	// depthSum's forced assignment at the final level.
	if f.usedColors > 0 {
		anchor[f.usedColors-1] += remaining
		remaining = 0
	}
	f.scale = f.mFac()
	for i, xi := range anchor {
		if f.oddsu[i] != 0 {
			f.scale += float64(xi)*math.Log(f.oddsu[i]) - LnFac(int64(xi)) - LnFac(int64(f.mu[i]-xi))
		}
	}

	mm := newMultiMoments(f.usedColors)
	x := make([]int, f.usedColors)
	total := f.depthSum(0, x, f.n, meanApprox, f.lngReduced, mm.accumulate)
	f.rsum = 1 / total
	f.mm = mm
	f.mean0 = meanApprox
	f.st = stateNormalized
	return nil
}

// Moments returns the exact mean and variance per color (full indexing),
// computed by enumerating the feasible lattice (§4.3 SumOfAll).
func (f *MultiFisher) Moments() (mean, variance []float64, err error) {
	if f.usedColors < 3 {
		if f.usedColors <= 1 {
			mean = make([]float64, len(f.m))
			variance = make([]float64, len(f.m))
			if f.usedColors == 1 {
				mean[f.index[0]] = float64(f.n)
			}
			return mean, variance, nil
		}
		m, v := f.uni.Moments()
		mean = make([]float64, len(f.m))
		variance = make([]float64, len(f.m))
		mean[f.index[0]] = m
		mean[f.index[1]] = float64(f.n) - m
		variance[f.index[0]] = v
		variance[f.index[1]] = v
		return mean, variance, nil
	}

	if f.allEqualOdds {
		return f.centralMoments()
	}

	if err := f.ensureNormalized(); err != nil {
		return nil, nil, err
	}
	muR := f.mm.mean()
	cov := f.mm.covariance()
	mean = f.expandF(muR)
	variance = make([]float64, len(f.m))
	for i, idx := range f.index {
		variance[idx] = cov[i][i]
	}
	return mean, variance, nil
}

// centralMoments returns the classical multivariate (central) hypergeometric
// moments in closed form, used when allEqualOdds lets PMF/Moments skip
// enumeration entirely.
func (f *MultiFisher) centralMoments() (mean, variance []float64, err error) {
	mean = make([]float64, len(f.m))
	variance = make([]float64, len(f.m))
	N, n := float64(f.N), float64(f.n)
	for r, mi := range f.mu {
		idx := f.index[r]
		p := float64(mi) / N
		mean[idx] = n * p
		if N > 1 {
			variance[idx] = n * p * (1 - p) * (N - n) / (N - 1)
		}
	}
	return mean, variance, nil
}

// Covariance returns the full covariance matrix over the reduced (used)
// colors as a dense matrix, computed in the same enumeration pass as
// Moments.
func (f *MultiFisher) Covariance() (*matrix.DenseMatrix, error) {
	if f.allEqualOdds {
		return f.closedFormCovariance(), nil
	}
	if f.usedColors < 3 {
		out := matrix.Zeros(f.usedColors, f.usedColors)
		if f.usedColors == 2 {
			v := f.uni.Variance(true)
			out.Set(0, 0, v)
			out.Set(1, 1, v)
			out.Set(0, 1, -v)
			out.Set(1, 0, -v)
		}
		return out, nil
	}
	if err := f.ensureNormalized(); err != nil {
		return nil, err
	}
	cov := f.mm.covariance()
	out := matrix.Zeros(f.usedColors, f.usedColors)
	for i := range cov {
		for j := range cov[i] {
			out.Set(i, j, cov[i][j])
		}
	}
	return out, nil
}

func (f *MultiFisher) closedFormCovariance() *matrix.DenseMatrix {
	out := matrix.Zeros(f.usedColors, f.usedColors)
	N, n := float64(f.N), float64(f.n)
	for i, mi := range f.mu {
		for j, mj := range f.mu {
			pi, pj := float64(mi)/N, float64(mj)/N
			if i == j {
				if N > 1 {
					out.Set(i, j, n*pi*(1-pi)*(N-n)/(N-1))
				}
			} else {
				if N > 1 {
					out.Set(i, j, -n*pi*pj*(N-n)/(N-1))
				}
			}
		}
	}
	return out
}

// centralMultivariatePMF evaluates the product-of-central-hypergeometrics
// decomposition used when all reduced odds are equal: draw color 0 from
// (mu[0], N-mu[0]) given n, then recurse on the remaining colors with the
// residual urn and residual draw count.
func centralMultivariatePMF(mu []int, x []int, n int) float64 {
	if len(mu) == 1 {
		if x[0] == n {
			return 1
		}
		return 0
	}
	N := 0
	for _, mi := range mu {
		N += mi
	}
	m1 := mu[0]
	rest := N - m1
	xmin := maxI(0, n-rest)
	xmax := minI(n, m1)
	if x[0] < xmin || x[0] > xmax {
		return 0
	}
	// choose(m1, x0) * choose(rest, n-x0) / choose(N, n), the plain
	// hypergeometric PMF for drawing color 0 first.
	p := safeExp(
		fn.LnBinomCoeff(float64(m1), float64(x[0])) +
			fn.LnBinomCoeff(float64(rest), float64(n-x[0])) -
			fn.LnBinomCoeff(float64(N), float64(n)),
	)
	return p * centralMultivariatePMF(mu[1:], x[1:], n-x[0])
}
