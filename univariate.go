package biasedurn

import "math"

// state tracks the per-instance cache lifecycle of §4.7: a fresh instance
// promotes to MeanKnown on its first mean query and to Normalized on its
// first probability or moments query, at which point scale and rsum are
// populated and never recomputed for the lifetime of the instance.
type state int

const (
	stateFresh state = iota
	stateMeanKnown
	stateNormalized
)

// MinHypergeo returns the smallest feasible count of color-1 balls drawn:
// max(0, n-m2). It holds for Fisher's and Wallenius' variants alike, since
// both share the same support.
func MinHypergeo(n, m1, m2 int) int {
	return maxI(0, n-m2)
}

// MaxHypergeo returns the largest feasible count of color-1 balls drawn:
// min(n, m1). It holds for Fisher's and Wallenius' variants alike.
func MaxHypergeo(n, m1, m2 int) int {
	return minI(n, m1)
}

// Fisher is a univariate Fisher noncentral hypergeometric distribution: an
// urn of m1 balls of color 1 and m2 of color 2, n drawn without
// replacement, color 1 carrying odds relative to color 2.
//
// A Fisher value is a stateful numeric object, not a pure function: scale,
// rsum and the last-evaluated x are cached on the instance so that
// repeated Probability calls at neighbouring x are O(1). It is not safe
// for concurrent use.
type Fisher struct {
	n, m1, m2 int
	N         int
	odds      float64
	accuracy  float64
	xmin, xmax int

	st    state
	mean0 float64 // cached Cornfield approximate mean

	scale float64
	rsum  float64

	haveLast bool
	xLast    int
	lngLast  float64

	sampleBuilt bool
	sampleTable Table
}

// NewFisher validates and constructs a univariate Fisher noncentral
// hypergeometric distribution. accuracy must be in (0, 1].
func NewFisher(n, m1, m2 int, odds, accuracy float64) (*Fisher, error) {
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

	f := &Fisher{
		n: n, m1: m1, m2: m2, N: N,
		odds:     odds,
		accuracy: accuracy,
		xmin:     MinHypergeo(n, m1, m2),
		xmax:     MaxHypergeo(n, m1, m2),
	}
	return f, nil
}

// l returns the Liao-Rosen shift constant m1 + n - N used throughout the
// mode and recurrence formulas.
func (f *Fisher) l() float64 { return float64(f.m1 + f.n - f.N) }

// Mean returns the Cornfield approximate mean, promoting the instance to
// MeanKnown on first call.
func (f *Fisher) Mean() float64 {
	if f.st == stateFresh {
		f.mean0 = f.computeMean()
		f.st = stateMeanKnown
	}
	return f.mean0
}

func (f *Fisher) computeMean() float64 {
	if f.xmin == f.xmax {
		return float64(f.xmin)
	}
	m1, n, N, odds := float64(f.m1), float64(f.n), float64(f.N), f.odds
	if odds == 1 {
		return m1 * n / N
	}
	a := (m1+n)*odds + (N - m1 - n)
	disc := a*a - 4*odds*(odds-1)*m1*n
	if disc < 0 {
		disc = 0
	}
	return (a - math.Sqrt(disc)) / (2 * (odds - 1))
}

// Mode returns the exact mode via the corrected Liao-Rosen quadratic,
// clipped to the support.
func (f *Fisher) Mode() int {
	if f.xmin == f.xmax {
		return f.xmin
	}
	m1, n, N, odds := float64(f.m1), float64(f.n), float64(f.N), f.odds
	if odds == 1 {
		return clampI(int(math.Floor((m1+1)*(n+1)/(N+2))), f.xmin, f.xmax)
	}

	A := 1 - odds
	L := f.l()
	B := (m1+1+n+1)*odds - L
	C := -(m1 + 1) * (n + 1) * odds

	disc := B*B - 4*A*C
	if disc < 0 {
		disc = 0
	}
	mode := int(math.Floor((math.Sqrt(disc) - B) / (2 * A)))
	return clampI(mode, f.xmin, f.xmax)
}

// ensureNormalized populates scale and rsum on first use, walking outward
// from the rounded approximate mean until tail terms fall below
// 0.1*accuracy in each direction, per §4.2.
func (f *Fisher) ensureNormalized() {
	if f.st == stateNormalized {
		return
	}
	x0 := clampI(round(f.Mean()), f.xmin, f.xmax)
	f.scale = f.lngRaw(x0)

	total := 1.0 // exp(lng(x0)-scale) == 1 by construction
	cutoff := f.accuracy * 0.1

	for x := x0 - 1; x >= f.xmin; x-- {
		v := safeExp(f.lngRaw(x) - f.scale)
		if v < cutoff {
			break
		}
		total += v
	}
	for x := x0 + 1; x <= f.xmax; x++ {
		v := safeExp(f.lngRaw(x) - f.scale)
		if v < cutoff {
			break
		}
		total += v
	}

	f.rsum = 1 / total
	f.haveLast = false
	f.st = stateNormalized
}

// lngRaw returns ln(g(x)) without the scale subtraction, or -Inf outside
// the support or at an excluded (odds == 0, x != 0) point.
func (f *Fisher) lngRaw(x int) float64 {
	if x < f.xmin || x > f.xmax {
		return math.Inf(-1)
	}
	if f.odds == 0 {
		if x != 0 {
			return math.Inf(-1)
		}
		return LnFac(int64(f.m1)) - LnFac(0) - LnFac(int64(f.m1)) +
			LnFac(int64(f.m2)) - LnFac(int64(f.n)) - LnFac(int64(f.m2-f.n))
	}
	oddsTerm := float64(x) * math.Log(f.odds)
	return LnFac(int64(f.m1)) - LnFac(int64(x)) - LnFac(int64(f.m1-x)) +
		LnFac(int64(f.m2)) - LnFac(int64(f.n-x)) - LnFac(int64(f.m2-(f.n-x))) +
		oddsTerm
}

// lng returns ln(g(x)) - scale, using the cached last-x update when x is a
// neighbour of the previously evaluated point, per §3 "cached per-instance
// state".
func (f *Fisher) lng(x int) float64 {
	if f.haveLast {
		if x == f.xLast+1 {
			v := f.lngLast + f.fwdDelta(f.xLast)
			f.xLast, f.lngLast = x, v
			return v
		}
		if x == f.xLast-1 {
			v := f.lngLast - f.fwdDelta(x)
			f.xLast, f.lngLast = x, v
			return v
		}
	}
	v := f.lngRaw(x) - f.scale
	f.xLast, f.lngLast, f.haveLast = x, v, true
	return v
}

// fwdDelta returns lng(x+1) - lng(x) via the closed-form recurrence of
// §4.2, valid when odds > 0.
func (f *Fisher) fwdDelta(x int) float64 {
	m1, n, m2 := float64(f.m1), float64(f.n), float64(f.m2)
	xf := float64(x)
	return math.Log(m1-xf) - math.Log(xf+1) + math.Log(n-xf) - math.Log(m2-(n-xf)+1) + math.Log(f.odds)
}

// Probability returns P(X = x), 0 outside the support (the "soft" PMF
// boundary behavior of §7.2).
func (f *Fisher) Probability(x int) float64 {
	if x < f.xmin || x > f.xmax {
		return 0
	}
	if f.xmin == f.xmax {
		return 1
	}
	f.ensureNormalized()
	return safeExp(f.lng(x)) * f.rsum
}

// CDF returns P(X <= x).
func (f *Fisher) CDF(x int) float64 {
	if x < f.xmin {
		return 0
	}
	if x >= f.xmax {
		return 1
	}
	sum := 0.0
	for k := f.xmin; k <= x; k++ {
		sum += f.Probability(k)
	}
	return sum
}

// Variance returns the distribution's variance. With exact=false it uses
// the documented Fisher approximation (explicitly a "poor approximation"
// in the source this is reconstructed from); exact=true sums the support
// directly via Moments, resolving the §9 open question in favor of an
// opt-in exact path.
func (f *Fisher) Variance(exact bool) float64 {
	if f.xmin == f.xmax {
		return 0
	}
	if exact {
		_, v := f.Moments()
		return v
	}
	mu := f.Mean()
	m1, n, N := float64(f.m1), float64(f.n), float64(f.N)
	r1 := mu * (m1 - mu)
	r2 := (n - mu) * (mu + N - n - m1)
	v := N * r1 * r2 / ((N - 1) * (m1*r2 + (N-m1)*r1))
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	return v
}

// Moments returns the exact mean and variance by summing x·g(x) and
// x²·g(x) over the support, anchored at the mode to preserve precision,
// stopping each tail once a term drops below 0.1*accuracy.
func (f *Fisher) Moments() (mean, variance float64) {
	if f.xmin == f.xmax {
		return float64(f.xmin), 0
	}
	f.ensureNormalized()

	anchor := clampI(f.Mode(), f.xmin, f.xmax)
	cutoff := f.accuracy * 0.1

	total := 0.0
	sx := 0.0
	sxx := 0.0

	accumulate := func(x int) float64 {
		p := safeExp(f.lngRaw(x)-f.scale) * f.rsum
		dx := float64(x - anchor)
		total += p
		sx += p * dx
		sxx += p * dx * dx
		return p
	}

	accumulate(anchor)
	for x := anchor - 1; x >= f.xmin; x-- {
		if accumulate(x) < cutoff {
			break
		}
	}
	for x := anchor + 1; x <= f.xmax; x++ {
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

// Table is the result of MakeTable: an unnormalized PMF table over a
// contiguous window of the support, centered so whichever tail is
// shortest fits, plus a recommendation on whether sampling should use the
// table (chop-down) rather than recomputing Probability per draw.
type Table struct {
	First  int // first x included
	Last   int // last x included
	Values []float64
	Sum    float64
	UseTable bool
	// DesiredLength is populated instead of Values when MakeTable is
	// called with maxLength == 0: the length the caller should allocate,
	// either the full support or round(NumSD(accuracy)*sigma) if shorter.
	DesiredLength int
}

// Table returns the full unnormalized PMF table over the support, the
// shape rFNC and the CLI's plot subcommand both want rather than a bare
// length probe.
func (f *Fisher) Table() Table {
	return f.MakeTable(-1)
}

// MakeTable builds a contiguous table of unnormalized PMF values centered
// on the mode. If maxLength is 0, only the desired length is computed and
// returned (Values is nil); otherwise each value is evaluated directly
// from lngRaw and either tail is cut once the term ratio to the mode
// falls below cutoff = 0.01*accuracy.
func (f *Fisher) MakeTable(maxLength int) Table {
	supportLen := f.xmax - f.xmin + 1
	_, variance := f.Moments()
	sigma := math.Sqrt(variance)
	desired := minI(supportLen, round(NumSD(f.accuracy)*sigma)*2+1)
	if desired < 1 {
		desired = 1
	}

	if maxLength == 0 {
		return Table{DesiredLength: desired}
	}

	mode := f.Mode()
	f.ensureNormalized()
	cutoff := 0.01 * f.accuracy

	modeVal := safeExp(f.lngRaw(mode) - f.scale)

	lo, hi := mode, mode
	for lo > f.xmin {
		v := safeExp(f.lngRaw(lo-1) - f.scale)
		if v < cutoff*modeVal {
			break
		}
		lo--
	}
	for hi < f.xmax {
		v := safeExp(f.lngRaw(hi+1) - f.scale)
		if v < cutoff*modeVal {
			break
		}
		hi++
	}

	if maxLength > 0 && hi-lo+1 > maxLength {
		// Shrink symmetrically around the mode to respect the caller's
		// buffer, favoring whichever tail is shorter first.
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
		v := safeExp(f.lngRaw(x) - f.scale)
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
