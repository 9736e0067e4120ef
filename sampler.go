package biasedurn

// Source is the opaque uniform random source the samplers draw from; it
// is satisfied by *rand.Rand from the standard library's math/rand, kept
// as a minimal interface so the core never imports a concrete PRNG
// (spec §1 treats the random number source as an external collaborator).
type Source interface {
	// Float64 returns a pseudo-random number in [0, 1).
	Float64() float64
}

// Sample draws one variate from the Fisher distribution by chop-down
// sampling against a cached unnormalized PMF table (§4.5 rFNC): O(support
// size) to build the table once, then O(table length) per draw for the
// chop-down scan.
func (f *Fisher) Sample(src Source) int {
	if !f.sampleBuilt {
		f.sampleTable = f.MakeTable(-1) // -1: unbounded, build the full table
		f.sampleBuilt = true
	}
	t := f.sampleTable
	if len(t.Values) == 0 {
		return f.xmin
	}
	u := src.Float64() * t.Sum
	running := 0.0
	for i, v := range t.Values {
		running += v
		if running > u {
			return t.First + i
		}
	}
	return t.Last
}

// SampleMulti draws one variate from a multivariate Fisher distribution
// via the conditional-sampling decomposition of §4.5 rMFNC: draw the
// first color from its marginal univariate distribution, subtract, and
// recurse on the remaining colors with the residual urn and residual n.
func (f *MultiFisher) SampleMulti(src Source) ([]int, error) {
	if f.usedColors == 0 {
		return make([]int, len(f.m)), nil
	}
	xu := make([]int, f.usedColors)
	remainingN := f.n
	remainingOddsMass := 0.0
	for _, o := range f.oddsu {
		remainingOddsMass += o
	}

	for i := 0; i < f.usedColors-1; i++ {
		restM := f.suffix[i+1]
		if remainingOddsMass == 0 {
			xu[i] = 0
			continue
		}
		rel := f.oddsu[i] / (remainingOddsMass - f.oddsu[i])
		if remainingOddsMass == f.oddsu[i] {
			rel = 1e18 // all remaining mass concentrated on this color
		}
		fi, err := NewFisher(remainingN, f.mu[i], restM, rel, f.accuracy)
		if err != nil {
			return nil, err
		}
		draw := fi.Sample(src)
		xu[i] = draw
		remainingN -= draw
		remainingOddsMass -= f.oddsu[i]
	}
	xu[f.usedColors-1] = remainingN
	return f.expand(xu), nil
}

// Sample draws one variate from the Wallenius distribution by urn
// emulation (§4.5 rWNC): repeatedly pick a color in proportion to its
// residual count times its odds, which is exact by definition of the
// Wallenius distribution (order-dependent sequential draws).
func (w *Wallenius) Sample(src Source) int {
	r1, r2 := w.m1, w.m2
	drawn1 := 0
	for i := 0; i < w.n; i++ {
		weight1 := w.odds * float64(r1)
		weight2 := float64(r2)
		total := weight1 + weight2
		if total <= 0 {
			break
		}
		if src.Float64()*total < weight1 {
			r1--
			drawn1++
		} else {
			r2--
		}
	}
	return drawn1
}

// SampleMulti draws one variate from a multivariate Wallenius
// distribution by urn emulation (§4.5 rMWNC): at each of n draws, pick
// color i with probability proportional to residual[i]*odds[i].
func (w *MultiWallenius) SampleMulti(src Source) []int {
	residual := append([]int(nil), w.mu...)
	xu := make([]int, w.usedColors)
	for draw := 0; draw < w.n; draw++ {
		total := 0.0
		for i, r := range residual {
			total += float64(r) * w.oddsu[i]
		}
		if total <= 0 {
			break
		}
		u := src.Float64() * total
		running := 0.0
		for i, r := range residual {
			running += float64(r) * w.oddsu[i]
			if running > u {
				residual[i]--
				xu[i]++
				break
			}
		}
	}
	return w.expand(xu)
}
