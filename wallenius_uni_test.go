package biasedurn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cran/BiasedUrn/internal/assert"
)

func TestNewWalleniusRejectsInvalidParameters(t *testing.T) {
	t.Parallel()

	if _, err := NewWallenius(100, 10, 10, 1, 0.1); err == nil {
		t.Error("expected an error when n exceeds N")
	}
	if _, err := NewWallenius(5, -1, 10, 1, 0.1); err == nil {
		t.Error("expected an error for a negative urn count")
	}
	if _, err := NewWallenius(5, 10, 10, -1, 0.1); err == nil {
		t.Error("expected an error for negative odds")
	}
}

// bruteWalleniusProbability evaluates the same Wallenius PMF integral the
// package computes, but by a plain composite trapezoid rule over a fine
// fixed grid rather than the package's own Gauss-Legendre/adaptive-panel
// quadrature, so it can serve as an independent check on that machinery.
func bruteWalleniusProbability(m1, m2, n int, odds float64, x int) float64 {
	d := odds*float64(m1-x) + float64(m2-(n-x))
	if d == 0 {
		return 1
	}
	integrand := func(t float64) float64 {
		v := 1.0
		if x > 0 {
			v *= math.Pow(1-math.Pow(t, odds/d), float64(x))
		}
		if n-x > 0 {
			v *= math.Pow(1-math.Pow(t, 1/d), float64(n-x))
		}
		return v
	}
	const steps = 20000
	h := 1.0 / steps
	sum := 0.5 * (integrand(0) + integrand(1))
	for i := 1; i < steps; i++ {
		sum += integrand(float64(i) * h)
	}
	integral := sum * h

	lgM1X, _ := math.Lgamma(float64(m1) + 1)
	lgX, _ := math.Lgamma(float64(x) + 1)
	lgM1mX, _ := math.Lgamma(float64(m1-x) + 1)
	lgM2NX, _ := math.Lgamma(float64(m2) + 1)
	lgNmX, _ := math.Lgamma(float64(n-x) + 1)
	lgM2mNmX, _ := math.Lgamma(float64(m2-(n-x)) + 1)
	lnChoose := (lgM1X - lgX - lgM1mX) + (lgM2NX - lgNmX - lgM2mNmX)
	return math.Exp(lnChoose) * integral
}

func TestWalleniusProbabilityMatchesTrapezoidOracle(t *testing.T) {
	t.Parallel()

	const n, m1, m2 = 20, 25, 32
	const odds = 2.5
	w, err := NewWallenius(n, m1, m2, odds, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	want := bruteWalleniusProbability(m1, m2, n, odds, 12)
	assert.Equal(t, "Probability(12)", want, w.Probability(12), cmpopts.EquateApprox(0, 1e-3))
}

func TestWalleniusPMFSumsToOne(t *testing.T) {
	t.Parallel()

	w, err := NewWallenius(20, 25, 32, 2.5, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for x := w.xmin; x <= w.xmax; x++ {
		sum += w.Probability(x)
	}
	assert.Equal(t, "sum of PMF", 1.0, sum, cmpopts.EquateApprox(0, 1e-3))
}

func TestWalleniusOddsOneMatchesCentralHypergeometric(t *testing.T) {
	t.Parallel()

	// Equal odds collapses Wallenius' order dependence away: the result
	// should match the plain (central) hypergeometric mean.
	w, err := NewWallenius(20, 25, 32, 1.0, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Mean", 8.7719298, w.Mean(), cmpopts.EquateApprox(0, 1e-3))
}

func TestWalleniusDegenerateSupport(t *testing.T) {
	t.Parallel()

	w, err := NewWallenius(10, 4, 6, 3.0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Mean", 4.0, w.Mean())
	assert.Equal(t, "Mode", 4, w.Mode())
	assert.Equal(t, "Probability(4)", 1.0, w.Probability(4))
	assert.Equal(t, "CDF(4)", 1.0, w.CDF(4))
}

func TestWalleniusCDFMonotone(t *testing.T) {
	t.Parallel()

	w, err := NewWallenius(20, 25, 32, 2.5, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	prev := 0.0
	for x := w.xmin; x <= w.xmax; x++ {
		cur := w.CDF(x)
		if cur < prev-1e-9 {
			t.Fatalf("CDF not monotone at x=%d: %v < %v", x, cur, prev)
		}
		prev = cur
	}
	assert.Equal(t, "CDF(xmax)", 1.0, prev, cmpopts.EquateApprox(0, 1e-6))
}

func TestWalleniusHighAccuracySelectsNormalApprox(t *testing.T) {
	t.Parallel()

	// N > 2000 with accuracy >= 0.1 takes the normal approximation
	// dispatch path, which should still return a valid probability, not
	// blow up or go negative.
	w, err := NewWallenius(200, 2500, 3200, 2.5, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	p := w.Probability(w.Mode())
	if p <= 0 || p > 1 {
		t.Fatalf("Probability(mode) = %v, want in (0, 1]", p)
	}
}

func TestWalleniusTable(t *testing.T) {
	t.Parallel()

	w, err := NewWallenius(20, 25, 32, 2.5, 1e-4)
	if err != nil {
		t.Fatal(err)
	}
	tbl := w.Table()
	if tbl.Sum <= 0 {
		t.Fatalf("table sum = %v, want > 0", tbl.Sum)
	}
	if tbl.First > w.Mode() || tbl.Last < w.Mode() {
		t.Fatalf("table [%d, %d] should contain the mode %d", tbl.First, tbl.Last, w.Mode())
	}
}
