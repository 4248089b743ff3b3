package hybrid

import (
	"reflect"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
)

// DCMixtureFactor is the discrete-conditional mixture (spec §4.1.a): a
// single discrete key of cardinality len(components) selects exactly one
// pure continuous component, with no weighting. Components are
// monomorphized to one concrete nlls.Factor type F per the "prefer
// monomorphization" design note.
type DCMixtureFactor[F nlls.Factor] struct {
	discreteKey dckey.DiscreteKey
	components  []F
	normalized  bool
}

// NewDCMixtureFactor constructs a discrete-conditional mixture. The discrete
// key's cardinality must equal len(components); this is the caller's
// responsibility (spec §7 precondition, not checked defensively here since
// dckey.DiscreteKey is constructed by the caller with its own cardinality).
func NewDCMixtureFactor[F nlls.Factor](discreteKey dckey.DiscreteKey, components []F, normalized bool) *DCMixtureFactor[F] {
	return &DCMixtureFactor[F]{discreteKey: discreteKey, components: components, normalized: normalized}
}

// ContinuousKeys implements Factor: all components share the same
// continuous scope (the mixture selects among hypotheses over the same
// variables), so the first component's keys are used.
func (m *DCMixtureFactor[F]) ContinuousKeys() []dckey.ContinuousKey {
	if len(m.components) == 0 {
		return nil
	}
	return m.components[0].Keys()
}

// DiscreteKeys implements Factor.
func (m *DCMixtureFactor[F]) DiscreteKeys() []dckey.DiscreteKey {
	return []dckey.DiscreteKey{m.discreteKey}
}

// selected returns the component chosen by d's assignment to the mixture's
// discrete key. Evaluating a mixture without that key assigned is a
// precondition violation (spec §7).
func (m *DCMixtureFactor[F]) selected(d discretefg.DiscreteValues) F {
	idx, ok := d[m.discreteKey]
	if !ok {
		panic("hybrid: DCMixtureFactor evaluated without an assignment for its discrete key")
	}
	if idx < 0 || idx >= len(m.components) {
		panic("hybrid: DCMixtureFactor discrete assignment out of range")
	}
	return m.components[idx]
}

// Error implements Factor.
func (m *DCMixtureFactor[F]) Error(c manifold.Values, d discretefg.DiscreteValues) float64 {
	f := m.selected(d)
	e := f.Error(c)
	if !m.normalized {
		if nf, ok := any(f).(nlls.NormalizedFactor); ok {
			e += nf.LogNormalizingConstant()
		}
	}
	return e
}

// Linearize implements Factor by delegating to the selected component.
func (m *DCMixtureFactor[F]) Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error) {
	return m.selected(d).Linearize(c)
}

// ToDiscreteTable implements Factor: one entry per candidate value of the
// mixture's discrete key, value = exp(-error(cont, candidate)).
func (m *DCMixtureFactor[F]) ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	vals := make([]float64, len(m.components))
	candidate := d.Clone()
	for i := range m.components {
		candidate[m.discreteKey] = i
		vals[i] = negExp(m.Error(c, candidate))
	}
	return discretefg.Table{Keys: []dckey.DiscreteKey{m.discreteKey}, Values: vals}
}

// Dim implements Factor. All components are assumed to share the same
// residual dimension (only one is ever linearized at a time).
func (m *DCMixtureFactor[F]) Dim() int {
	if len(m.components) == 0 {
		return 0
	}
	return m.components[0].Dim()
}

// LogNormalizingConstant implements Factor. The mixture accounts for each
// component's own normalizing constant internally in Error, so as a whole it
// reports itself already normalized.
func (m *DCMixtureFactor[F]) LogNormalizingConstant(c manifold.Values) float64 { return 0 }

// Equals implements Factor.
func (m *DCMixtureFactor[F]) Equals(other Factor, tol float64) bool {
	o, ok := other.(*DCMixtureFactor[F])
	if !ok {
		return false
	}
	if m.discreteKey != o.discreteKey || m.normalized != o.normalized {
		return false
	}
	if len(m.components) != len(o.components) {
		return false
	}
	for i := range m.components {
		if !reflect.DeepEqual(m.components[i], o.components[i]) {
			return false
		}
	}
	return true
}

func negExp(e float64) float64 {
	return expSafe(-e)
}
