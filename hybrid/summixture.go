package hybrid

import (
	"math"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/dcmath"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
)

// SumMixtureFactor implements the RISE-style sum-mixture family (spec
// §4.1.c): a numerically stable softmax blend of components, with a
// construction-time upper bound logBeta such that error never exceeds it.
type SumMixtureFactor[F Factor] struct {
	components     []F
	logWeights     []float64
	normalized     bool
	continuousKeys []dckey.ContinuousKey
	discreteKeys   []dckey.DiscreteKey
	logBeta        float64
}

// NewSumMixtureFactor constructs a sum-mixture, precomputing logBeta =
// logsumexp_i(log w_i + log eta_i) at the supplied initialValues (spec
// §4.1.c "precomputed at construction").
func NewSumMixtureFactor[F Factor](components []F, weights []float64, normalized bool, initialValues manifold.Values) *SumMixtureFactor[F] {
	logWeights := weightsToLog(weights, len(components))
	factors := make([]Factor, len(components))
	for i, c := range components {
		factors[i] = c
	}

	terms := make([]float64, len(components))
	for i, f := range components {
		logEta := 0.0
		if !normalized {
			logEta = f.LogNormalizingConstant(initialValues)
		}
		terms[i] = logWeights[i] + logEta
	}

	return &SumMixtureFactor[F]{
		components:     components,
		logWeights:     logWeights,
		normalized:     normalized,
		continuousKeys: unionContinuousKeys(factors),
		discreteKeys:   unionDiscreteKeys(factors),
		logBeta:        dcmath.LogSumExp(terms),
	}
}

// UpdateWeights replaces the mixture's weights; logBeta is left as computed
// at construction (spec §9 Open Question 4 gives precedent for treating such
// derived caches as not required to track every mutation for correctness).
func (m *SumMixtureFactor[F]) UpdateWeights(weights []float64) {
	if len(weights) != len(m.components) {
		panic("hybrid: UpdateWeights length mismatch")
	}
	m.logWeights = weightsToLog(weights, len(weights))
}

// ContinuousKeys implements Factor.
func (m *SumMixtureFactor[F]) ContinuousKeys() []dckey.ContinuousKey { return m.continuousKeys }

// DiscreteKeys implements Factor.
func (m *SumMixtureFactor[F]) DiscreteKeys() []dckey.DiscreteKey { return m.discreteKeys }

// logProbs returns l_i = -f_i.Error(c,d) + logWeights[i] - (unnormalized ?
// f_i.LogNormalizingConstant(c) : 0) for every component.
func (m *SumMixtureFactor[F]) logProbs(c manifold.Values, d discretefg.DiscreteValues) []float64 {
	l := make([]float64, len(m.components))
	for i, f := range m.components {
		v := -f.Error(c, d) + m.logWeights[i]
		if !m.normalized {
			v -= f.LogNormalizingConstant(c)
		}
		l[i] = v
	}
	return l
}

// Error implements Factor: the expected negative log-prob under the softmax
// responsibility weights.
func (m *SumMixtureFactor[F]) Error(c manifold.Values, d discretefg.DiscreteValues) float64 {
	l := m.logProbs(c, d)
	w := dcmath.ExpNormalize(l)
	total := 0.0
	for i := range l {
		total += w[i] * -l[i]
	}
	return total
}

// SqrtResidual returns sqrt(logBeta - error(c,d)), the RISE-style residual
// exposed for nonlinear optimizers; spec §8 requires this to always be
// real-valued (error <= logBeta).
func (m *SumMixtureFactor[F]) SqrtResidual(c manifold.Values, d discretefg.DiscreteValues) float64 {
	diff := m.logBeta - m.Error(c, d)
	if diff < 0 {
		diff = 0
	}
	return math.Sqrt(diff)
}

// Linearize implements Factor: returns the dominant (max-log-prob)
// component's linearization (spec §9 Open Question 3).
func (m *SumMixtureFactor[F]) Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error) {
	l := m.logProbs(c, d)
	return m.components[dominantIndex(l)].Linearize(c, d)
}

// dominantIndex returns the first index achieving the maximum of l.
func dominantIndex(l []float64) int {
	best := 0
	for i := 1; i < len(l); i++ {
		if l[i] > l[best] {
			best = i
		}
	}
	return best
}

// ToDiscreteTable implements Factor using the same softmax-weighted,
// renormalize-then-combine-across-components approach as EMMixtureFactor
// (spec describes this precisely for the EM family; the sum-mixture family
// is symmetric in its softmax weighting so the same construction applies).
func (m *SumMixtureFactor[F]) ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	l := m.logProbs(c, d)
	w := dcmath.ExpNormalize(l)
	return weightedProductTable(m.components, w, c, d)
}

// Dim implements Factor: only the dominant component is ever linearized.
func (m *SumMixtureFactor[F]) Dim() int {
	if len(m.components) == 0 {
		return 0
	}
	return m.components[0].Dim()
}

// LogNormalizingConstant implements Factor.
func (m *SumMixtureFactor[F]) LogNormalizingConstant(c manifold.Values) float64 { return 0 }

// Equals implements Factor.
func (m *SumMixtureFactor[F]) Equals(other Factor, tol float64) bool {
	o, ok := other.(*SumMixtureFactor[F])
	if !ok {
		return false
	}
	if !baseMixtureEquals(m.continuousKeys, o.continuousKeys, m.discreteKeys, o.discreteKeys, m.logWeights, o.logWeights, m.normalized, o.normalized, tol) {
		return false
	}
	if len(m.components) != len(o.components) {
		return false
	}
	for i := range m.components {
		if !m.components[i].Equals(o.components[i], tol) {
			return false
		}
	}
	return true
}
