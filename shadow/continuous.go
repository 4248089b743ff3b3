// Package shadow implements the two adapter types that let a single hybrid
// factor participate in both the continuous and discrete solve passes: a
// ContinuousShadow presents it as an nlls.Factor with the discrete side
// frozen, and a DiscreteShadow presents it as a discretefg.Factor with the
// continuous side frozen (spec §4.2, §4.3).
package shadow

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/hybrid"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
)

// ContinuousShadow wraps a shared hybrid-factor handle together with a
// frozen discrete assignment, and implements nlls.Factor.
type ContinuousShadow struct {
	handle     *hybrid.Handle
	discFrozen discretefg.DiscreteValues
}

// NewContinuousShadow constructs a shadow with an empty frozen assignment;
// it is not usable until UpdateDiscrete has supplied every discrete key of
// the wrapped factor (spec §4.2's "fully initialized" invariant).
func NewContinuousShadow(handle *hybrid.Handle) *ContinuousShadow {
	return &ContinuousShadow{handle: handle, discFrozen: discretefg.NewDiscreteValues()}
}

// Keys implements nlls.Factor.
func (s *ContinuousShadow) Keys() []dckey.ContinuousKey { return s.handle.Factor.ContinuousKeys() }

// Dim implements nlls.Factor.
func (s *ContinuousShadow) Dim() int { return s.handle.Factor.Dim() }

// Error implements nlls.Factor.
func (s *ContinuousShadow) Error(values manifold.Values) float64 {
	s.requireFullyInitialized()
	return s.handle.Factor.Error(values, s.discFrozen)
}

// Linearize implements nlls.Factor.
func (s *ContinuousShadow) Linearize(values manifold.Values) (*nlls.GaussianFactor, error) {
	s.requireFullyInitialized()
	return s.handle.Factor.Linearize(values, s.discFrozen)
}

// UpdateDiscrete overwrites the frozen value of every discrete key of the
// wrapped factor present in newDisc; keys absent from newDisc are left
// unchanged (spec §4.2).
func (s *ContinuousShadow) UpdateDiscrete(newDisc discretefg.DiscreteValues) {
	for _, k := range s.handle.Factor.DiscreteKeys() {
		if v, ok := newDisc[k]; ok {
			s.discFrozen[k] = v
		}
	}
}

// FullyInitialized reports whether every discrete key of the wrapped factor
// has a frozen entry.
func (s *ContinuousShadow) FullyInitialized() bool {
	for _, k := range s.handle.Factor.DiscreteKeys() {
		if _, ok := s.discFrozen[k]; !ok {
			return false
		}
	}
	return true
}

func (s *ContinuousShadow) requireFullyInitialized() {
	if !s.FullyInitialized() {
		panic("shadow: ContinuousShadow used before every discrete key was initialized")
	}
}
