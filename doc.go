// Package biasedurn computes the univariate and multivariate noncentral
// hypergeometric distributions of Fisher's and Wallenius' kind: the
// distributions of the number of balls of each color drawn without
// replacement from an urn in which each color carries a relative
// selection weight ("odds").
//
// Fisher's noncentral hypergeometric distribution arises when each ball's
// inclusion is an independent weighted Bernoulli trial, conditioned on the
// total drawn equaling n. Wallenius' noncentral hypergeometric distribution
// arises when balls are drawn one at a time, each draw favoring colors in
// proportion to their residual count times their odds; because draw order
// matters, its PMF has no closed form and is evaluated by quadrature or
// approximation.
//
// Every exported distribution type is a stateful numeric object that
// caches its approximate mean on first use. Fisher and MultiFisher also
// cache a scale factor and a reciprocal normalizing sum on first use, and
// Fisher caches the last-evaluated x so that repeated Probability queries
// at neighbouring x are O(1) after the first. Instances are not safe for
// concurrent use; create one instance per goroutine.
package biasedurn
