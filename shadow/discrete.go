package shadow

import (
	"math"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/hybrid"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
)

// DiscreteShadow wraps a shared hybrid-factor handle together with frozen
// continuous and discrete snapshots, and implements discretefg.Factor.
type DiscreteShadow struct {
	handle     *hybrid.Handle
	contFrozen manifold.Values
	discFrozen discretefg.DiscreteValues
}

// NewDiscreteShadow constructs a shadow with empty frozen snapshots; it is
// not usable until UpdateContinuous and UpdateDiscrete have together
// supplied every key of the wrapped factor (spec §4.3).
func NewDiscreteShadow(handle *hybrid.Handle) *DiscreteShadow {
	return &DiscreteShadow{
		handle:     handle,
		contFrozen: manifold.NewValues(),
		discFrozen: discretefg.NewDiscreteValues(),
	}
}

// DiscreteKeys implements discretefg.Factor.
func (s *DiscreteShadow) DiscreteKeys() []dckey.DiscreteKey { return s.handle.Factor.DiscreteKeys() }

// ToTable implements discretefg.Factor.
func (s *DiscreteShadow) ToTable() discretefg.Table {
	s.requireFullyInitialized()
	return s.handle.Factor.ToDiscreteTable(s.contFrozen, s.discFrozen)
}

// Value returns exp(-hybrid.Error(contFrozen, d)), the factor's value at a
// candidate discrete assignment d, consistent with the wrapped factor's own
// normalization policy (spec §4.3).
func (s *DiscreteShadow) Value(d discretefg.DiscreteValues) float64 {
	s.requireFullyInitialized()
	merged := s.discFrozen.Clone()
	merged.Merge(d)
	return math.Exp(-s.handle.Factor.Error(s.contFrozen, merged))
}

// UpdateContinuous overwrites (or inserts) the frozen value of every
// continuous key of the wrapped factor present in newCont; keys absent from
// newCont are left alone (spec §4.3).
func (s *DiscreteShadow) UpdateContinuous(newCont manifold.Values) {
	for _, k := range s.handle.Factor.ContinuousKeys() {
		if v, ok := newCont[k]; ok {
			s.contFrozen[k] = v
		}
	}
}

// UpdateDiscrete is symmetric to ContinuousShadow.UpdateDiscrete.
func (s *DiscreteShadow) UpdateDiscrete(newDisc discretefg.DiscreteValues) {
	for _, k := range s.handle.Factor.DiscreteKeys() {
		if v, ok := newDisc[k]; ok {
			s.discFrozen[k] = v
		}
	}
}

// FullyInitialized reports whether every continuous and discrete key of the
// wrapped factor has a frozen entry.
func (s *DiscreteShadow) FullyInitialized() bool {
	for _, k := range s.handle.Factor.ContinuousKeys() {
		if !s.contFrozen.Exists(k) {
			return false
		}
	}
	for _, k := range s.handle.Factor.DiscreteKeys() {
		if _, ok := s.discFrozen[k]; !ok {
			return false
		}
	}
	return true
}

func (s *DiscreteShadow) requireFullyInitialized() {
	if !s.FullyInitialized() {
		panic("shadow: DiscreteShadow used before every key was initialized")
	}
}
