package biasedurn

import (
	"strings"
	"testing"
)

func TestErrorKindString(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindRange:       "range",
		KindFeasibility: "feasibility",
		KindConvergence: "convergence",
		KindNumerical:   "numerical",
		Kind(99):        "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestErrorMessageIncludesKindAndText(t *testing.T) {
	t.Parallel()

	err := rangeErrorf("n=%d out of range", -1)
	if !strings.Contains(err.Error(), "range") {
		t.Errorf("error message %q should mention its kind", err.Error())
	}
	if !strings.Contains(err.Error(), "n=-1 out of range") {
		t.Errorf("error message %q should include the formatted text", err.Error())
	}
}

func TestConstructorsSetKind(t *testing.T) {
	t.Parallel()

	if rangeErrorf("x").Kind != KindRange {
		t.Error("rangeErrorf should set KindRange")
	}
	if feasibilityErrorf("x").Kind != KindFeasibility {
		t.Error("feasibilityErrorf should set KindFeasibility")
	}
	if convergenceErrorf("x").Kind != KindConvergence {
		t.Error("convergenceErrorf should set KindConvergence")
	}
}
