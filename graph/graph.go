// Package graph implements HybridFactorGraph, the three-bag container that
// holds every factor a Solver works with: pure-continuous, pure-discrete,
// and hybrid (spec §3 "Hybrid factor graph", §5.8).
package graph

import (
	"sort"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/hybrid"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"github.com/google/uuid"
)

// HybridFactorGraph holds three independent, index-stable factor bags. Each
// bag follows the same nullable-slot removal convention as discretefg.Graph:
// Remove nils a slot rather than shrinking the bag, so indices handed out by
// Add stay valid for the bag's lifetime (spec §3, §7).
type HybridFactorGraph struct {
	id uuid.UUID

	continuous []nlls.Factor
	discrete   []discretefg.Factor
	hybridBag  []hybrid.Factor
}

// New returns an empty HybridFactorGraph with a fresh diagnostic run ID.
func New() *HybridFactorGraph {
	return &HybridFactorGraph{id: uuid.New()}
}

// ID returns the graph's diagnostic run identifier, useful for correlating
// log lines across a Solver.Update call (spec §5.8, mirroring the teacher's
// use of per-session UUIDs for request tracing).
func (g *HybridFactorGraph) ID() uuid.UUID { return g.id }

// AddContinuous appends a pure-continuous factor and returns its index.
func (g *HybridFactorGraph) AddContinuous(f nlls.Factor) int {
	g.continuous = append(g.continuous, f)
	return len(g.continuous) - 1
}

// AddDiscrete appends a pure-discrete factor and returns its index.
func (g *HybridFactorGraph) AddDiscrete(f discretefg.Factor) int {
	g.discrete = append(g.discrete, f)
	return len(g.discrete) - 1
}

// AddHybrid appends a hybrid factor and returns its index.
func (g *HybridFactorGraph) AddHybrid(f hybrid.Factor) int {
	g.hybridBag = append(g.hybridBag, f)
	return len(g.hybridBag) - 1
}

// RemoveContinuous nils the slot at idx; out-of-range or already-nil indices
// are silently tolerated (spec §7).
func (g *HybridFactorGraph) RemoveContinuous(idx int) {
	if idx < 0 || idx >= len(g.continuous) {
		return
	}
	g.continuous[idx] = nil
}

// RemoveDiscrete is the discrete-bag counterpart of RemoveContinuous.
func (g *HybridFactorGraph) RemoveDiscrete(idx int) {
	if idx < 0 || idx >= len(g.discrete) {
		return
	}
	g.discrete[idx] = nil
}

// RemoveHybrid is the hybrid-bag counterpart of RemoveContinuous.
func (g *HybridFactorGraph) RemoveHybrid(idx int) {
	if idx < 0 || idx >= len(g.hybridBag) {
		return
	}
	g.hybridBag[idx] = nil
}

// ContinuousFactors returns the live (non-nil) continuous factors in
// insertion order.
func (g *HybridFactorGraph) ContinuousFactors() []nlls.Factor {
	out := make([]nlls.Factor, 0, len(g.continuous))
	for _, f := range g.continuous {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// DiscreteFactors returns the live discrete factors in insertion order.
func (g *HybridFactorGraph) DiscreteFactors() []discretefg.Factor {
	out := make([]discretefg.Factor, 0, len(g.discrete))
	for _, f := range g.discrete {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// HybridFactors returns the live hybrid factors in insertion order.
func (g *HybridFactorGraph) HybridFactors() []hybrid.Factor {
	out := make([]hybrid.Factor, 0, len(g.hybridBag))
	for _, f := range g.hybridBag {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

// LenContinuous, LenDiscrete, and LenHybrid return each bag's slot count,
// including nil slots, matching discretefg.Graph.Len's convention.
func (g *HybridFactorGraph) LenContinuous() int { return len(g.continuous) }
func (g *HybridFactorGraph) LenDiscrete() int   { return len(g.discrete) }
func (g *HybridFactorGraph) LenHybrid() int     { return len(g.hybridBag) }

// SizeContinuous, SizeDiscrete, and SizeHybrid count only live factors.
func (g *HybridFactorGraph) SizeContinuous() int { return len(g.ContinuousFactors()) }
func (g *HybridFactorGraph) SizeDiscrete() int   { return len(g.DiscreteFactors()) }
func (g *HybridFactorGraph) SizeHybrid() int     { return len(g.HybridFactors()) }

// Size returns the total number of live factors across all three bags.
func (g *HybridFactorGraph) Size() int {
	return g.SizeContinuous() + g.SizeDiscrete() + g.SizeHybrid()
}

// Clear empties all three bags.
func (g *HybridFactorGraph) Clear() {
	g.continuous = nil
	g.discrete = nil
	g.hybridBag = nil
}

// ContinuousKeys returns the sorted union of continuous keys appearing
// anywhere in the graph (the pure-continuous bag and the hybrid bag).
func (g *HybridFactorGraph) ContinuousKeys() []dckey.ContinuousKey {
	seen := map[dckey.ContinuousKey]struct{}{}
	for _, f := range g.continuous {
		if f == nil {
			continue
		}
		for _, k := range f.Keys() {
			seen[k] = struct{}{}
		}
	}
	for _, f := range g.hybridBag {
		if f == nil {
			continue
		}
		for _, k := range f.ContinuousKeys() {
			seen[k] = struct{}{}
		}
	}
	out := make([]dckey.ContinuousKey, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DiscreteKeys returns the sorted union of discrete keys appearing anywhere
// in the graph (the pure-discrete bag and the hybrid bag).
func (g *HybridFactorGraph) DiscreteKeys() []dckey.DiscreteKey {
	seen := map[dckey.DiscreteKey]struct{}{}
	for _, f := range g.discrete {
		if f == nil {
			continue
		}
		for _, k := range f.DiscreteKeys() {
			seen[k] = struct{}{}
		}
	}
	for _, f := range g.hybridBag {
		if f == nil {
			continue
		}
		for _, k := range f.DiscreteKeys() {
			seen[k] = struct{}{}
		}
	}
	out := make([]dckey.DiscreteKey, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return dckey.Less(out[i], out[j]) })
	return out
}

// Equals reports whether g and other hold equal factors position by
// position in all three bags, comparing only live factors (nil slots are
// skipped by the live-factor accessors). The hybrid bag delegates to each
// factor's own Equals; nlls.Factor and discretefg.Factor have no Equals
// method, so the continuous and discrete bags compare with ==, i.e. by
// identity for pointer factors.
func (g *HybridFactorGraph) Equals(other *HybridFactorGraph, tol float64) bool {
	if other == nil {
		return false
	}
	a, b := g.ContinuousFactors(), other.ContinuousFactors()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	ad, bd := g.DiscreteFactors(), other.DiscreteFactors()
	if len(ad) != len(bd) {
		return false
	}
	for i := range ad {
		if ad[i] != bd[i] {
			return false
		}
	}

	ah, bh := g.HybridFactors(), other.HybridFactors()
	if len(ah) != len(bh) {
		return false
	}
	for i := range ah {
		if !ah[i].Equals(bh[i], tol) {
			return false
		}
	}
	return true
}
