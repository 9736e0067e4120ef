package biasedurn

import "math"

// maxColors is the documented upper bound on color count used to size
// table-sized auxiliary arrays (§3). Implementations may allow dynamic
// sizing; this one enforces the documented limit for compatibility.
const maxColors = 32

// Urn is the validated, reduced multivariate urn parameter set shared by
// the Fisher and Wallenius multivariate engines. Colors with m[i] == 0 or
// odds[i] == 0 are excluded from computation (§3 "Reduction state"); any
// x[i] at an excluded color must be 0.
type Urn struct {
	n        int
	m        []int
	odds     []float64
	accuracy float64
	N        int

	usedColors   int
	mu           []int     // reduced m, excluded colors removed
	oddsu        []float64 // reduced odds
	index        []int     // reduced index -> original color index
	suffix       []int     // suffix[c] = sum(mu[c:]), length usedColors+1
	allEqualOdds bool
}

func newUrn(n int, m []int, odds []float64, accuracy float64) (*Urn, error) {
	c := len(m)
	if c == 0 || c != len(odds) {
		return nil, rangeErrorf("m and odds must be non-empty and equal length, got %d and %d", len(m), len(odds))
	}
	if c > maxColors {
		return nil, rangeErrorf("color count %d exceeds the %d-color limit", c, maxColors)
	}
	N := 0
	for i, mi := range m {
		if mi < 0 {
			return nil, rangeErrorf("m[%d]=%d must be >= 0", i, mi)
		}
		if odds[i] < 0 {
			return nil, rangeErrorf("odds[%d]=%v must be >= 0", i, odds[i])
		}
		N += mi
	}
	if n < 0 || n > N {
		return nil, rangeErrorf("n=%d out of range [0, %d]", n, N)
	}
	if accuracy <= 0 || accuracy > 1 {
		return nil, rangeErrorf("accuracy=%v must be in (0, 1]", accuracy)
	}

	u := &Urn{n: n, m: append([]int(nil), m...), odds: append([]float64(nil), odds...), accuracy: accuracy, N: N}

	feasibleMass := 0
	allEqual := true
	var firstOdds float64
	firstSet := false
	for i, mi := range m {
		if mi == 0 || odds[i] == 0 {
			continue
		}
		u.mu = append(u.mu, mi)
		u.oddsu = append(u.oddsu, odds[i])
		u.index = append(u.index, i)
		feasibleMass += mi
		if !firstSet {
			firstOdds, firstSet = odds[i], true
		} else if odds[i] != firstOdds {
			allEqual = false
		}
	}
	u.usedColors = len(u.mu)
	u.allEqualOdds = allEqual

	if feasibleMass < n {
		return nil, feasibilityErrorf("n=%d exceeds the %d balls with nonzero odds", n, feasibleMass)
	}

	u.suffix = make([]int, u.usedColors+1)
	for i := u.usedColors - 1; i >= 0; i-- {
		u.suffix[i] = u.suffix[i+1] + u.mu[i]
	}

	return u, nil
}

// expand maps a reduced x vector back to the caller's original color
// indexing, leaving excluded colors at 0.
func (u *Urn) expand(xu []int) []int {
	x := make([]int, len(u.m))
	for i, xi := range xu {
		x[u.index[i]] = xi
	}
	return x
}

// reduce maps a full x vector to the reduced indexing, returning an error
// if any excluded color carries a nonzero count.
func (u *Urn) reduce(x []int) ([]int, error) {
	if len(x) != len(u.m) {
		return nil, rangeErrorf("x has %d entries, want %d", len(x), len(u.m))
	}
	sum := 0
	used := make(map[int]bool, u.usedColors)
	for _, idx := range u.index {
		used[idx] = true
	}
	for i, xi := range x {
		sum += xi
		if !used[i] && xi != 0 {
			return nil, feasibilityErrorf("x[%d]=%d at an excluded color (m=0 or odds=0)", i, xi)
		}
	}
	if sum != u.n {
		return nil, feasibilityErrorf("sum(x)=%d != n=%d", sum, u.n)
	}
	xu := make([]int, u.usedColors)
	for r, idx := range u.index {
		xu[r] = x[idx]
	}
	return xu, nil
}

// cornfieldMean solves, by fixed-point iteration on a scalar r, for the
// per-color approximate means μ[i] = m[i]*transfer(r, odds[i]) subject to
// Σμ[i] = n. transfer is the only thing that differs between the Fisher
// (§4.3 mean1) and Wallenius (§4.4) multivariate mean approximations; both
// share this iteration:
//
//	r ← r · n · (N - q(r)) / (q(r) · (N - n)),   q(r) = Σ m[i]·transfer(r, odds[i])
func cornfieldMean(n, N int, m []int, odds []float64, transfer func(r, oddsi float64) float64) ([]float64, error) {
	c := len(m)
	mu := make([]float64, c)
	if n == 0 {
		return mu, nil
	}
	if n == N {
		for i := range mu {
			mu[i] = float64(m[i])
		}
		return mu, nil
	}

	weighted := 0.0
	for i := range m {
		weighted += float64(m[i]) * odds[i]
	}
	if weighted == 0 {
		return nil, feasibilityErrorf("all odds zero with n > 0")
	}
	r := float64(n) * float64(N) / (float64(N-n) * weighted)

	const maxIter = 100
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		q := 0.0
		for i := range m {
			q += float64(m[i]) * transfer(r, odds[i])
		}
		if q <= 0 {
			return nil, convergenceErrorf("mean solver degenerated to q(r)=%v after %d iterations", q, iter)
		}
		rNext := r * float64(n) * (float64(N) - q) / (q * float64(N-n))
		if rNext < 0 {
			rNext = 0
		}
		if math.Abs(rNext-r) < 1e-5 {
			r = rNext
			converged = true
			break
		}
		r = rNext
	}
	if !converged {
		return nil, convergenceErrorf("mean solver did not converge within %d iterations", maxIter)
	}

	for i := range m {
		mu[i] = float64(m[i]) * transfer(r, odds[i])
	}
	return mu, nil
}

// fisherTransfer is the per-color term of the Fisher multivariate mean
// equation: r·odds[i] / (r·odds[i] + 1).
func fisherTransfer(r, oddsi float64) float64 {
	if oddsi == 0 {
		return 0
	}
	ro := r * oddsi
	return ro / (ro + 1)
}

// walleniusTransfer is the per-color term of the Wallenius multivariate
// mean equation, reconstructed from Wallenius' moment equations (no
// closed form survives in the extant source this is rebuilt from): it
// shares the Fisher iteration's fixed-point structure but depletes each
// color through an exponent, 1 - (1+r)^(-odds[i]), rather than a linear
// scaling of odds, an asymptotically equivalent (matching to first order
// as r→0) but distinct transfer function. With θ = 1/(1+r) this is the
// Wallenius mean condition 1 - μ[i]/m[i] = θ^odds[i].
func walleniusTransfer(r, oddsi float64) float64 {
	if oddsi == 0 {
		return 0
	}
	return 1 - math.Pow(1+r, -oddsi)
}

// depthSum performs the mean-anchored depth-first enumeration of §4.3's
// SumOfAll over the feasible lattice of the reduced colors, calling
// accumulate at every leaf whose g(x) is computable. It returns the total
// subtree sum, used both as the final normalizing sum and to drive the
// per-branch pruning: a direction stops once two consecutive subtree sums
// fall below accuracy and are non-increasing.
func (u *Urn) depthSum(c int, x []int, remainingN int, meanApprox []float64, lng func([]int) float64, accumulate func([]int, float64)) float64 {
	if c == u.usedColors-1 {
		x[c] = remainingN
		if x[c] < 0 || x[c] > u.mu[c] {
			return 0
		}
		g := safeExp(lng(x))
		if g > 0 {
			accumulate(x, g)
		}
		return g
	}

	xmin := maxI(0, remainingN-u.suffix[c+1])
	xmax := minI(remainingN, u.mu[c])
	if xmin > xmax {
		return 0
	}
	anchor := clampI(round(meanApprox[c]), xmin, xmax)

	total := 0.0
	x[c] = anchor
	total += u.depthSum(c+1, x, remainingN-anchor, meanApprox, lng, accumulate)

	prev1, prev2 := math.Inf(1), math.Inf(1)
	for v := anchor - 1; v >= xmin; v-- {
		x[c] = v
		s := u.depthSum(c+1, x, remainingN-v, meanApprox, lng, accumulate)
		total += s
		if s < u.accuracy && prev1 < u.accuracy && s <= prev1 && prev1 <= prev2 {
			break
		}
		prev2, prev1 = prev1, s
	}

	prev1, prev2 = math.Inf(1), math.Inf(1)
	for v := anchor + 1; v <= xmax; v++ {
		x[c] = v
		s := u.depthSum(c+1, x, remainingN-v, meanApprox, lng, accumulate)
		total += s
		if s < u.accuracy && prev1 < u.accuracy && s <= prev1 && prev1 <= prev2 {
			break
		}
		prev2, prev1 = prev1, s
	}

	return total
}

// multiMoments accumulates the first and second moments (and full second
// cross-moment matrix, for Covariance) of a multivariate enumeration in a
// single depthSum pass.
type multiMoments struct {
	total float64
	sx    []float64
	sxx   [][]float64
}

func newMultiMoments(c int) *multiMoments {
	sxx := make([][]float64, c)
	for i := range sxx {
		sxx[i] = make([]float64, c)
	}
	return &multiMoments{sx: make([]float64, c), sxx: sxx}
}

func (mm *multiMoments) accumulate(x []int, g float64) {
	mm.total += g
	for i, xi := range x {
		fi := float64(xi)
		mm.sx[i] += g * fi
		for j, xj := range x {
			mm.sxx[i][j] += g * fi * float64(xj)
		}
	}
}

func (mm *multiMoments) mean() []float64 {
	out := make([]float64, len(mm.sx))
	for i, s := range mm.sx {
		out[i] = s / mm.total
	}
	return out
}

func (mm *multiMoments) covariance() [][]float64 {
	mu := mm.mean()
	cov := make([][]float64, len(mu))
	for i := range cov {
		cov[i] = make([]float64, len(mu))
		for j := range cov[i] {
			cov[i][j] = mm.sxx[i][j]/mm.total - mu[i]*mu[j]
		}
	}
	return cov
}
