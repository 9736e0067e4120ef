package biasedurn

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cran/BiasedUrn/internal/assert"
)

func TestMultiWalleniusTwoColorDelegatesToUnivariate(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(20, []int{25, 32}, []float64{2.5, 1}, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	uni, err := NewWallenius(20, 25, 32, 2.5, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	p, err := mw.Probability([]int{12, 8})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Probability", uni.Probability(12), p, cmpopts.EquateApprox(0, 1e-9))
}

func TestMultiWalleniusThreeColorPMFSumsToOne(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(8, []int{6, 5, 4}, []float64{2, 1, 0.5}, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for x0 := 0; x0 <= 6; x0++ {
		for x1 := 0; x1 <= 5; x1++ {
			x2 := 8 - x0 - x1
			if x2 < 0 || x2 > 4 {
				continue
			}
			p, err := mw.Probability([]int{x0, x1, x2})
			if err != nil {
				t.Fatal(err)
			}
			sum += p
		}
	}
	assert.Equal(t, "sum of PMF", 1.0, sum, cmpopts.EquateApprox(0, 5e-2))
}

func TestMultiWalleniusMeanSumsToN(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(8, []int{6, 5, 4}, []float64{2, 1, 0.5}, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	mean, err := mw.Mean()
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, v := range mean {
		sum += v
	}
	assert.Equal(t, "sum(mean)", 8.0, sum, cmpopts.EquateApprox(0, 1e-4))
}

func TestMultiWalleniusSingleColorIsDegenerate(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(5, []int{0, 10}, []float64{3, 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	p, err := mw.Probability([]int{0, 5})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "Probability", 1.0, p)
}

func TestMultiWalleniusMomentsVarianceNonNegative(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(8, []int{6, 5, 4}, []float64{2, 1, 0.5}, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	_, variance, err := mw.Moments()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range variance {
		if v < 0 {
			t.Errorf("variance[%d] = %v, want >= 0", i, v)
		}
	}
}
