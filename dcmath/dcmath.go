// Package dcmath provides the small set of numerically stable scalar
// helpers shared across every mixture factor family: logsumexp, the softmax
// ("exp-normalize") it implies, and the Gaussian log-normalizing constant
// used to put normalized/unnormalized factors on a common scale (spec
// §4.1 "Normalization policy").
package dcmath

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogSumExp computes log(sum_i exp(v[i])) in a numerically stable way by
// subtracting the maximum element before exponentiating. Returns negative
// infinity for an empty slice, matching the empty-sum convention.
func LogSumExp(v []float64) float64 {
	if len(v) == 0 {
		return math.Inf(-1)
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	if math.IsInf(m, -1) {
		return math.Inf(-1)
	}
	sum := 0.0
	for _, x := range v {
		sum += math.Exp(x - m)
	}
	return m + math.Log(sum)
}

// ExpNormalize computes the softmax of v: exp(v[i] - max(v)) / sum_j
// exp(v[j] - max(v)). The result always sums to 1 and is invariant under
// adding a constant to every element of v.
func ExpNormalize(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	out := make([]float64, len(v))
	sum := 0.0
	for i, x := range v {
		e := math.Exp(x - m)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// GaussianLogNormalizingConstant returns ½·(d·log 2π + log det Σ) for a
// Gaussian noise model of dimension d with covariance Σ, per spec §4.1.
// Adding it to a factor's raw error puts "unnormalized" factors on the
// same log-likelihood scale as normalized ones when mixed.
func GaussianLogNormalizingConstant(dim int, cov *mat.SymDense) float64 {
	var chol mat.Cholesky
	ok := chol.Factorize(cov)
	if !ok {
		// A non-positive-definite covariance is a numeric degeneracy (spec
		// §7): surface it as +Inf log-normalizing-constant so the factor's
		// error blows up rather than silently producing a wrong weight.
		return math.Inf(1)
	}
	logDet := chol.LogDet()
	return 0.5 * (float64(dim)*math.Log(2*math.Pi) + logDet)
}

// IsotropicCovariance builds a dim x dim diagonal covariance matrix with
// variance sigma^2 on the diagonal, the common case for the Prior/Between
// test fixtures in package nlls.
func IsotropicCovariance(dim int, sigma float64) *mat.SymDense {
	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, sigma*sigma)
	}
	return cov
}
