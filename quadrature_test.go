package biasedurn

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cran/BiasedUrn/internal/assert"
)

func TestGauss12IntegratesPolynomialExactly(t *testing.T) {
	t.Parallel()

	// A 12-point Gauss-Legendre rule integrates polynomials up to degree
	// 23 exactly; x^5 on [0, 1] integrates to 1/6.
	got := gauss12(func(x float64) float64 { return math.Pow(x, 5) }, 0, 1)
	assert.Equal(t, "integral of x^5", 1.0/6.0, got, cmpopts.EquateApprox(0, 1e-12))
}

func TestAdaptiveQuadMatchesKnownIntegral(t *testing.T) {
	t.Parallel()

	// integral of sin(x) over [0, pi] is 2.
	got := adaptiveQuad(math.Sin, 0, math.Pi, 1e-10)
	assert.Equal(t, "integral of sin", 2.0, got, cmpopts.EquateApprox(0, 1e-8))
}

func TestAdaptiveQuadHandlesDiscontinuousIntegrand(t *testing.T) {
	t.Parallel()

	// A step function at x=0.5 still integrates to a value between the
	// panel bounds without the recursion blowing its depth cap.
	f := func(x float64) float64 {
		if x < 0.5 {
			return 0
		}
		return 1
	}
	got := adaptiveQuad(f, 0, 1, 1e-6)
	assert.Equal(t, "integral of step", 0.5, got, cmpopts.EquateApprox(0, 1e-2))
}
