// nchypergeo computes and samples from the Fisher and Wallenius noncentral
// hypergeometric distributions of an urn containing two colors of balls.
//
// Given an urn of m1 balls of color 1 and m2 of color 2, n drawn without
// replacement and color 1 carrying the given odds relative to color 2, it
// reports the distribution's mean, mode and variance, or draws a random
// variate, or renders the PMF as a terminal bar chart:
//
//	$ nchypergeo pmf --kind=wallenius 20 25 32 2.5
//	Kind       N   Mean       Mode  Variance
//	Wallenius  57  12.359858  12    3.066215
//
// Like the teacher's own cmd/tinystat, this binary panics on CLI-level
// misuse (bad flags, unparsable numbers) and is not part of the library's
// external contract.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/vdobler/chart"
	"github.com/vdobler/chart/txtg"

	biasedurn "github.com/cran/BiasedUrn"
)

const usage = `nchypergeo helps you explore noncentral hypergeometric urns.

Usage:
  nchypergeo pmf [--kind=<k>] [--accuracy=<a>] <n> <m1> <m2> <odds>
  nchypergeo sample [--kind=<k>] [--accuracy=<a>] [--seed=<s>] <n> <m1> <m2> <odds>
  nchypergeo plot [--kind=<k>] [--accuracy=<a>] <n> <m1> <m2> <odds>
  nchypergeo -h | --help

Options:
  --kind=<k>       fisher or wallenius [default: fisher]
  --accuracy=<a>   numerical accuracy in (0, 1] [default: 1e-8]
  --seed=<s>       PRNG seed; 0 seeds from the current time [default: 0]
  -h --help        show this screen
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], "nchypergeo dev")
	if err != nil {
		panic(err)
	}

	n := mustAtoi(mustString(opts, "<n>"))
	m1 := mustAtoi(mustString(opts, "<m1>"))
	m2 := mustAtoi(mustString(opts, "<m2>"))
	odds := mustAtof(mustString(opts, "<odds>"))
	accuracy := mustAtof(mustString(opts, "--accuracy"))
	wallenius := mustString(opts, "--kind") == "wallenius"

	switch {
	case truthy(opts, "pmf"):
		runPMF(n, m1, m2, odds, accuracy, wallenius)
	case truthy(opts, "sample"):
		seed := int64(mustAtoi(mustString(opts, "--seed")))
		runSample(n, m1, m2, odds, accuracy, wallenius, seed)
	case truthy(opts, "plot"):
		runPlot(n, m1, m2, odds, accuracy, wallenius)
	}
}

func runPMF(n, m1, m2 int, odds, accuracy float64, wallenius bool) {
	w := new(tabwriter.Writer)
	w.Init(os.Stdout, 2, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "Kind\tN\tMean\tMode\tVariance\t")
	if wallenius {
		d, err := biasedurn.NewWallenius(n, m1, m2, odds, accuracy)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(w, "Wallenius\t%d\t%f\t%d\t%f\t\n", m1+m2, d.Mean(), d.Mode(), d.Variance())
		return
	}
	d, err := biasedurn.NewFisher(n, m1, m2, odds, accuracy)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(w, "Fisher\t%d\t%f\t%d\t%f\t\n", m1+m2, d.Mean(), d.Mode(), d.Variance(false))
}

func runSample(n, m1, m2 int, odds, accuracy float64, wallenius bool, seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.New(rand.NewSource(seed))
	if wallenius {
		d, err := biasedurn.NewWallenius(n, m1, m2, odds, accuracy)
		if err != nil {
			panic(err)
		}
		fmt.Println(d.Sample(src))
		return
	}
	d, err := biasedurn.NewFisher(n, m1, m2, odds, accuracy)
	if err != nil {
		panic(err)
	}
	fmt.Println(d.Sample(src))
}

func runPlot(n, m1, m2 int, odds, accuracy float64, wallenius bool) {
	var t biasedurn.Table
	if wallenius {
		d, err := biasedurn.NewWallenius(n, m1, m2, odds, accuracy)
		if err != nil {
			panic(err)
		}
		t = d.Table()
	} else {
		d, err := biasedurn.NewFisher(n, m1, m2, odds, accuracy)
		if err != nil {
			panic(err)
		}
		t = d.Table()
	}

	xs := make([]float64, len(t.Values))
	ys := make([]float64, len(t.Values))
	for i, v := range t.Values {
		xs[i] = float64(t.First + i)
		ys[i] = v / t.Sum
	}

	c := chart.BarChart{}
	c.XRange.Label = "x"
	c.YRange.Label = "P(X = x)"
	c.AddDataPair("pmf", xs, ys, chart.Style{})

	txt := txtg.New(100, 30)
	c.Plot(txt)
	fmt.Println(txt.String())
}

func mustString(opts docopt.Opts, key string) string {
	v, err := opts.String(key)
	if err != nil {
		return ""
	}
	return v
}

func truthy(opts docopt.Opts, key string) bool {
	v, ok := opts[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(fmt.Sprintf("invalid integer %q: %v", s, err))
	}
	return n
}

func mustAtof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid number %q: %v", s, err))
	}
	return f
}
