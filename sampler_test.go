package biasedurn

import (
	"math/rand"
	"testing"
)

type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }

func TestFisherSampleWithinSupport(t *testing.T) {
	t.Parallel()

	f, err := NewFisher(20, 25, 32, 2.5, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	src := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		x := f.Sample(src)
		if x < f.xmin || x > f.xmax {
			t.Fatalf("Sample() = %d, outside support [%d, %d]", x, f.xmin, f.xmax)
		}
	}
}

func TestFisherSampleExtremesPickEndsOfTable(t *testing.T) {
	t.Parallel()

	f, err := NewFisher(20, 25, 32, 2.5, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Sample(fixedSource{0}); got != f.Table().First {
		t.Errorf("Sample(u=0) = %d, want the table's first x (%d)", got, f.Table().First)
	}
	if got := f.Sample(fixedSource{0.999999}); got < f.xmin || got > f.xmax {
		t.Errorf("Sample(u~1) = %d, outside support", got)
	}
}

func TestWalleniusSampleWithinSupport(t *testing.T) {
	t.Parallel()

	w, err := NewWallenius(20, 25, 32, 2.5, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	src := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		x := w.Sample(src)
		if x < w.xmin || x > w.xmax {
			t.Fatalf("Sample() = %d, outside support [%d, %d]", x, w.xmin, w.xmax)
		}
	}
}

func TestMultiFisherSampleMultiSumsToN(t *testing.T) {
	t.Parallel()

	mf, err := NewMultiFisher(12, []int{10, 8, 6}, []float64{2, 1, 0.5}, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	src := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		x, err := mf.SampleMulti(src)
		if err != nil {
			t.Fatal(err)
		}
		sum := 0
		for j, xi := range x {
			if xi < 0 || xi > mf.m[j] {
				t.Fatalf("x[%d]=%d out of range [0, %d]", j, xi, mf.m[j])
			}
			sum += xi
		}
		if sum != 12 {
			t.Fatalf("sum(x) = %d, want 12", sum)
		}
	}
}

func TestMultiWalleniusSampleMultiSumsToN(t *testing.T) {
	t.Parallel()

	mw, err := NewMultiWallenius(8, []int{6, 5, 4}, []float64{2, 1, 0.5}, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	src := rand.New(rand.NewSource(4))
	for i := 0; i < 50; i++ {
		x := mw.SampleMulti(src)
		sum := 0
		for j, xi := range x {
			if xi < 0 || xi > mw.m[j] {
				t.Fatalf("x[%d]=%d out of range [0, %d]", j, xi, mw.m[j])
			}
			sum += xi
		}
		if sum != 8 {
			t.Fatalf("sum(x) = %d, want 8", sum)
		}
	}
}
