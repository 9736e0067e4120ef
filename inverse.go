package biasedurn

import "math"

// minInverseAccuracy is the floor documented in spec §6: "values below
// 0.1 are currently treated as 0.1 (exact inversion is not supported)"
// for the odds*/num* inverse family.
const minInverseAccuracy = 0.1

// clampInverseAccuracy floors accuracy to minInverseAccuracy and turns it
// into a bisection stopping tolerance on the forward mean residual: a
// coarser accuracy converges in fewer iterations.
func clampInverseAccuracy(accuracy float64) float64 {
	if accuracy < minInverseAccuracy {
		accuracy = minInverseAccuracy
	}
	return accuracy * 1e-8
}

// OddsNCFisher inverts the Fisher Cornfield mean equation for odds given
// a target mean μ. The mean is monotone increasing in odds (§8 testable
// property), so rather than solving the mean(odds) quadratic for odds
// symbolically (algebraically delicate: squaring to remove the square
// root doubles the degree and introduces a spurious root), this bisects
// on odds against the same forward Cornfield formula Fisher.Mean uses,
// which is exact for the same monotone relationship at a fraction of the
// bookkeeping. accuracy is a hint only, per §6; values below 0.1 are
// treated as 0.1.
func OddsNCFisher(mu float64, m1, m2, n int, accuracy float64) (float64, error) {
	tol := clampInverseAccuracy(accuracy)
	xmin, xmax := MinHypergeo(n, m1, m2), MaxHypergeo(n, m1, m2)
	if mu < float64(xmin) || mu > float64(xmax) {
		return 0, feasibilityErrorf("mean %v outside support [%d, %d]", mu, xmin, xmax)
	}
	if xmin == xmax {
		return 1, nil
	}
	if math.Abs(mu-float64(m1*n)/float64(m1+m2)) < 1e-12 {
		return 1, nil
	}
	return bisectOddsFisher(mu, m1, m2, n, tol)
}

func forwardFisherMean(odds float64, m1, m2, n int) float64 {
	f, err := NewFisher(n, m1, m2, odds, 1e-10)
	if err != nil {
		return math.NaN()
	}
	return f.Mean()
}

func bisectOddsFisher(mu float64, m1, m2, n int, tol float64) (float64, error) {
	lo, hi := 1e-9, 1e9
	flo := forwardFisherMean(lo, m1, m2, n) - mu
	fhi := forwardFisherMean(hi, m1, m2, n) - mu
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, feasibilityErrorf("mean %v not attainable for this urn", mu)
	}
	if flo > 0 || fhi < 0 {
		return 0, feasibilityErrorf("mean %v outside the odds-monotone range for this urn", mu)
	}
	for i := 0; i < 200; i++ {
		mid := math.Sqrt(lo * hi) // geometric bisection: odds spans many decades
		fm := forwardFisherMean(mid, m1, m2, n) - mu
		if math.Abs(fm) < tol {
			return mid, nil
		}
		if fm < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi), nil
}

// OddsNCWallenius inverts the Wallenius mean equation for odds given a
// target mean, by bisection against the forward Cornfield-style mean
// approximation (§4.6), the same geometric bisection on odds that
// OddsNCFisher uses.
func OddsNCWallenius(mu float64, m1, m2, n int, accuracy float64) (float64, error) {
	tol := clampInverseAccuracy(accuracy)
	xmin, xmax := MinHypergeo(n, m1, m2), MaxHypergeo(n, m1, m2)
	if mu < float64(xmin) || mu > float64(xmax) {
		return 0, feasibilityErrorf("mean %v outside support [%d, %d]", mu, xmin, xmax)
	}
	if xmin == xmax {
		return 1, nil
	}
	forward := func(odds float64) float64 {
		mus, err := cornfieldMean(n, m1+m2, []int{m1, m2}, []float64{odds, 1}, walleniusTransfer)
		if err != nil {
			return math.NaN()
		}
		return mus[0]
	}
	lo, hi := 1e-9, 1e9
	flo, fhi := forward(lo)-mu, forward(hi)-mu
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo > 0 || fhi < 0 {
		return 0, feasibilityErrorf("mean %v outside the odds-monotone range for this urn", mu)
	}
	for i := 0; i < 200; i++ {
		mid := math.Sqrt(lo * hi)
		fm := forward(mid) - mu
		if math.IsNaN(fm) {
			return 0, feasibilityErrorf("mean solver failed at odds=%v", mid)
		}
		if math.Abs(fm) < tol {
			return mid, nil
		}
		if fm < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi), nil
}

// OddsNCMulti inverts the mean equation for a single color's odds (all
// others held fixed) in the multivariate case, by bisection against the
// appropriate Cornfield-style mean solver.
func OddsNCMulti(mu float64, color int, m []int, odds []float64, n int, wallenius bool, accuracy float64) (float64, error) {
	tol := clampInverseAccuracy(accuracy)
	if color < 0 || color >= len(m) {
		return 0, rangeErrorf("color index %d out of range [0, %d)", color, len(m))
	}
	N := 0
	for _, mi := range m {
		N += mi
	}
	transfer := fisherTransfer
	if wallenius {
		transfer = walleniusTransfer
	}
	trial := append([]float64(nil), odds...)
	forward := func(o float64) float64 {
		trial[color] = o
		mus, err := cornfieldMean(n, N, m, trial, transfer)
		if err != nil {
			return math.NaN()
		}
		return mus[color]
	}
	lo, hi := 1e-9, 1e9
	flo, fhi := forward(lo)-mu, forward(hi)-mu
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo > 0 || fhi < 0 {
		return 0, feasibilityErrorf("mean %v outside the odds-monotone range for color %d", mu, color)
	}
	for i := 0; i < 200; i++ {
		mid := math.Sqrt(lo * hi)
		fm := forward(mid) - mu
		if math.Abs(fm) < tol {
			return mid, nil
		}
		if fm < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi), nil
}

// NumNCFisher recovers (m1, m2) with m1+m2 = N such that the Fisher
// Cornfield approximate mean equals μ, by scalar bisection on m1 ∈ [0, N]
// (§4.6 numNC). accuracy is a hint only, per §6.
func NumNCFisher(mu float64, n, N int, odds, accuracy float64) (m1, m2 int, err error) {
	tol := clampInverseAccuracy(accuracy)
	if n < 0 || n > N || N < 0 {
		return 0, 0, rangeErrorf("n=%d, N=%d out of range", n, N)
	}
	forward := func(m1 int) float64 {
		f, ferr := NewFisher(n, m1, N-m1, odds, 1e-10)
		if ferr != nil {
			return math.NaN()
		}
		return f.Mean()
	}
	lo, hi := 0, N
	flo, fhi := forward(lo)-mu, forward(hi)-mu
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, 0, feasibilityErrorf("mean %v not attainable for N=%d", mu, N)
	}
	if (flo > 0) == (fhi > 0) && flo != 0 && fhi != 0 {
		return 0, 0, feasibilityErrorf("mean %v outside the attainable range for N=%d", mu, N)
	}
	for lo < hi {
		mid := (lo + hi) / 2
		fm := forward(mid) - mu
		if math.Abs(fm) < tol || hi-lo <= 1 {
			return mid, N - mid, nil
		}
		sameSign := (fm > 0) == (flo > 0)
		if sameSign {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, N - lo, nil
}

// NumNCWallenius recovers (m1, m2) with m1+m2 = N such that the Wallenius
// approximate mean equals μ, analogous to NumNCFisher but driven by the
// Wallenius mean solver.
func NumNCWallenius(mu float64, n, N int, odds, accuracy float64) (m1, m2 int, err error) {
	tol := clampInverseAccuracy(accuracy)
	if n < 0 || n > N || N < 0 {
		return 0, 0, rangeErrorf("n=%d, N=%d out of range", n, N)
	}
	forward := func(m1 int) float64 {
		mus, ferr := cornfieldMean(n, N, []int{m1, N - m1}, []float64{odds, 1}, walleniusTransfer)
		if ferr != nil {
			return math.NaN()
		}
		return mus[0]
	}
	lo, hi := 0, N
	flo, fhi := forward(lo)-mu, forward(hi)-mu
	if math.IsNaN(flo) || math.IsNaN(fhi) {
		return 0, 0, feasibilityErrorf("mean %v not attainable for N=%d", mu, N)
	}
	for lo < hi {
		mid := (lo + hi) / 2
		fm := forward(mid) - mu
		if math.Abs(fm) < tol || hi-lo <= 1 {
			return mid, N - mid, nil
		}
		sameSign := (fm > 0) == (flo > 0)
		if sameSign {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, N - lo, nil
}
