package biasedurn

import (
	"math"

	fn "github.com/datastream/go-fn/fn"
	"github.com/datastream/probab/dst"
)

// underflowGuard is the smallest exponent argument for which safeExp does
// not simply return 0. Below it the true value is indistinguishable from
// zero at double precision and is clamped silently, per spec §7.4.
const underflowGuard = -745.0

// safeExp is math.Exp guarded against underflow below double precision:
// arguments too negative to produce a representable nonzero result return
// 0 instead of relying on math.Exp's own (platform-dependent at the edge)
// flush-to-zero behavior.
func safeExp(x float64) float64 {
	if x < underflowGuard {
		return 0
	}
	return math.Exp(x)
}

// safeLog is math.Log guarded against non-positive input, returning -Inf
// for x <= 0 instead of NaN; callers in the PMF engines only ever see
// non-negative proportional-function values, but the guard keeps log-space
// accumulation well defined at the boundary (g(x) == 0).
func safeLog(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return math.Log(x)
}

// FallingFactorial returns ln(Γ(a+1) / Γ(a-dx+1)), i.e. the log of the
// falling factorial a·(a-1)·...·(a-dx+1). When a is a non-negative integer
// it is computed from the LnFac table/series for speed and precision;
// otherwise it falls back to the log-gamma function from the vendored
// math stack.
func FallingFactorial(a, dx float64) float64 {
	if a == math.Trunc(a) && a >= 0 && a-dx == math.Trunc(a-dx) {
		ai := int64(a)
		bi := int64(a - dx)
		if ai >= 0 && bi >= -1 {
			return LnFac(ai) - LnFac(bi)
		}
	}
	return fn.LnΓ(a+1) - fn.LnΓ(a-dx+1)
}

// NumSD returns the number of standard deviations from the mean beyond
// which a standard normal tail falls below accuracy, used to cap table
// lengths for MakeTable and the normal-approximation Wallenius path. It is
// the inverse standard normal CDF evaluated at 1-accuracy/2, backed by the
// vendored probab package's rational approximation rather than a
// hand-rolled copy.
func NumSD(accuracy float64) float64 {
	if accuracy <= 0 {
		accuracy = 1e-10
	}
	if accuracy > 1 {
		accuracy = 1
	}
	sd := dst.ZQtlFor(1 - accuracy/2)
	if math.IsInf(sd, 0) || math.IsNaN(sd) {
		return 40 // pathological accuracy close to 0 or 1; cap generously
	}
	return sd
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
