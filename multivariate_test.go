package biasedurn

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cran/BiasedUrn/internal/assert"
)

func TestNewUrnRejectsMismatchedLengths(t *testing.T) {
	t.Parallel()

	if _, err := newUrn(5, []int{10, 10}, []float64{1}, 0.1); err == nil {
		t.Error("expected an error when m and odds have different lengths")
	}
}

func TestNewUrnRejectsInfeasibleN(t *testing.T) {
	t.Parallel()

	if _, err := newUrn(100, []int{10, 10}, []float64{1, 1}, 0.1); err == nil {
		t.Error("expected an error when n exceeds the total weighted mass")
	}
}

func TestNewUrnReducesZeroColors(t *testing.T) {
	t.Parallel()

	u, err := newUrn(5, []int{0, 10, 10}, []float64{2, 1, 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "usedColors", 2, u.usedColors)
	assert.Equal(t, "index", []int{1, 2}, u.index)
}

func TestUrnExpandReduceRoundTrip(t *testing.T) {
	t.Parallel()

	u, err := newUrn(5, []int{0, 10, 10}, []float64{2, 1, 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	xu := []int{2, 3}
	x := u.expand(xu)
	assert.Equal(t, "expanded", []int{0, 2, 3}, x)

	back, err := u.reduce(x)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "reduced", xu, back)
}

func TestUrnReduceRejectsNonzeroAtExcludedColor(t *testing.T) {
	t.Parallel()

	u, err := newUrn(5, []int{0, 10, 10}, []float64{2, 1, 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.reduce([]int{1, 2, 2}); err == nil {
		t.Error("expected an error when the excluded color carries a nonzero count")
	}
}

func TestCornfieldMeanSumsToN(t *testing.T) {
	t.Parallel()

	m := []int{25, 32, 18}
	odds := []float64{2.5, 1, 0.5}
	mu, err := cornfieldMean(20, 75, m, odds, fisherTransfer)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	for _, v := range mu {
		sum += v
	}
	assert.Equal(t, "sum(mu)", 20.0, sum, cmpopts.EquateApprox(0, 1e-4))
}

func TestCornfieldMeanEqualOddsIsProportional(t *testing.T) {
	t.Parallel()

	m := []int{25, 32, 18}
	odds := []float64{1, 1, 1}
	mu, err := cornfieldMean(20, 75, m, odds, fisherTransfer)
	if err != nil {
		t.Fatal(err)
	}
	for i, mi := range m {
		want := 20.0 * float64(mi) / 75.0
		assert.Equal(t, "mu[i]", want, mu[i], cmpopts.EquateApprox(0, 1e-4))
	}
}

func TestWalleniusTransferMatchesFisherAtOddsOne(t *testing.T) {
	t.Parallel()

	// Both transfer functions degenerate to the same r/(1+r) shape when
	// odds == 1.
	for _, r := range []float64{0.1, 1, 5, 50} {
		assert.Equal(t, "transfer", fisherTransfer(r, 1), walleniusTransfer(r, 1), cmpopts.EquateApprox(0, 1e-12))
	}
}
