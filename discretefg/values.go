// Package discretefg implements the discrete side of the hybrid solver: a
// decision-table algebra over discrete keys, a discrete factor interface, a
// discrete factor graph container, and the ordered variable-elimination rule
// used to produce MAP assignments and marginals (spec §4.5, grounded in
// original_source/include/dcsam/DiscreteMarginalsOrdered.h).
package discretefg

import "github.com/MarineRoboticsGroup/dcsam/dckey"

// DiscreteValues is an assignment of an integer in [0, Cardinality) to each
// discrete key in scope. It is the discrete analogue of manifold.Values.
type DiscreteValues map[dckey.DiscreteKey]int

// NewDiscreteValues returns an empty DiscreteValues map.
func NewDiscreteValues() DiscreteValues {
	return make(DiscreteValues)
}

// Clone returns a shallow copy of v.
func (v DiscreteValues) Clone() DiscreteValues {
	out := make(DiscreteValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge updates v in place with every key present in other, overwriting
// existing entries and inserting new ones (spec §4.4 step 2/step 10).
func (v DiscreteValues) Merge(other DiscreteValues) {
	for k, val := range other {
		v[k] = val
	}
}

// Exists reports whether key k has an assigned value.
func (v DiscreteValues) Exists(k dckey.DiscreteKey) bool {
	_, ok := v[k]
	return ok
}
