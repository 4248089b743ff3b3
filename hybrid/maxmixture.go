package hybrid

import (
	"math"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
)

// MaxMixtureFactor implements the max-mixture family (spec §4.1.b):
// components are weighted by fixed log-weights, and error/linearize always
// defer to whichever component currently has the smallest weighted error.
type MaxMixtureFactor[F Factor] struct {
	components     []F
	logWeights     []float64
	normalized     bool
	continuousKeys []dckey.ContinuousKey
	discreteKeys   []dckey.DiscreteKey
}

// NewMaxMixtureFactor constructs a max-mixture. A nil weights slice implies
// uniform weighting (log-weights all zero, spec §6 "omitting weights implies
// uniform weights").
func NewMaxMixtureFactor[F Factor](components []F, weights []float64, normalized bool) *MaxMixtureFactor[F] {
	logWeights := weightsToLog(weights, len(components))
	factors := make([]Factor, len(components))
	for i, c := range components {
		factors[i] = c
	}
	return &MaxMixtureFactor[F]{
		components:     components,
		logWeights:     logWeights,
		normalized:     normalized,
		continuousKeys: unionContinuousKeys(factors),
		discreteKeys:   unionDiscreteKeys(factors),
	}
}

func weightsToLog(weights []float64, n int) []float64 {
	if weights == nil {
		return make([]float64, n)
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		if w <= 0 {
			panic("hybrid: mixture weight must be strictly positive")
		}
		out[i] = math.Log(w)
	}
	return out
}

// UpdateWeights replaces the mixture's weights. Per spec §7, a length
// mismatch or a non-positive weight is a precondition violation.
func (m *MaxMixtureFactor[F]) UpdateWeights(weights []float64) {
	if len(weights) != len(m.components) {
		panic("hybrid: UpdateWeights length mismatch")
	}
	m.logWeights = weightsToLog(weights, len(weights))
}

// ContinuousKeys implements Factor.
func (m *MaxMixtureFactor[F]) ContinuousKeys() []dckey.ContinuousKey { return m.continuousKeys }

// DiscreteKeys implements Factor.
func (m *MaxMixtureFactor[F]) DiscreteKeys() []dckey.DiscreteKey { return m.discreteKeys }

// weightedErrors returns e_i = f_i.Error(c,d) - logWeights[i] +
// (unnormalized ? f_i.LogNormalizingConstant(c) : 0) for every component.
func (m *MaxMixtureFactor[F]) weightedErrors(c manifold.Values, d discretefg.DiscreteValues) []float64 {
	e := make([]float64, len(m.components))
	for i, f := range m.components {
		v := f.Error(c, d) - m.logWeights[i]
		if !m.normalized {
			v += f.LogNormalizingConstant(c)
		}
		e[i] = v
	}
	return e
}

// activeIndex returns the first index achieving the minimum of e, the
// deterministic tie-break required by spec §8.
func activeIndex(e []float64) int {
	best := 0
	for i := 1; i < len(e); i++ {
		if e[i] < e[best] {
			best = i
		}
	}
	return best
}

// Error implements Factor.
func (m *MaxMixtureFactor[F]) Error(c manifold.Values, d discretefg.DiscreteValues) float64 {
	e := m.weightedErrors(c, d)
	return e[activeIndex(e)]
}

// Linearize implements Factor: delegates to the active (minimum-error)
// component.
func (m *MaxMixtureFactor[F]) Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error) {
	e := m.weightedErrors(c, d)
	return m.components[activeIndex(e)].Linearize(c, d)
}

// ToDiscreteTable implements Factor: the active component's own table,
// extended with uniform factors over the other components' discrete keys so
// the product spans the mixture's full discrete key union (spec §4.1.b).
func (m *MaxMixtureFactor[F]) ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	e := m.weightedErrors(c, d)
	active := m.components[activeIndex(e)]
	table := active.ToDiscreteTable(c, d)
	uniform := unassignedKeysUniformTable(m.discreteKeys, activeFactorKeys(active))
	return table.Times(uniform)
}

// Dim implements Factor. Only one component is ever linearized at a time;
// all components in a max-mixture are assumed to share a residual
// dimension, matching how a single Jacobian block is returned.
func (m *MaxMixtureFactor[F]) Dim() int {
	if len(m.components) == 0 {
		return 0
	}
	return m.components[0].Dim()
}

// LogNormalizingConstant implements Factor: the mixture already folds each
// component's normalizing constant into its weighted error, so as a whole
// it reports itself normalized.
func (m *MaxMixtureFactor[F]) LogNormalizingConstant(c manifold.Values) float64 { return 0 }

// Equals implements Factor.
func (m *MaxMixtureFactor[F]) Equals(other Factor, tol float64) bool {
	o, ok := other.(*MaxMixtureFactor[F])
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
