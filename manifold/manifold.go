// Package manifold defines the manifold-value contract used for continuous
// variables: every value type exposes a tangent-space dimension and a
// retract/local-coordinates pair, mirroring the relationship gtsam::Values
// has with gtsam::Expression-based manifolds and the Transform/DoF idiom in
// go.viam.com/rdk/referenceframe and go.viam.com/rdk/spatialmath. The core
// solver never inspects a Value's concrete type; it only retracts along a
// tangent-space update vector produced by the NLLS backend.
package manifold

import "github.com/MarineRoboticsGroup/dcsam/dckey"

// Value is a point on a smooth manifold. Retract(delta) moves the point by a
// tangent-space update of length Dim(); LocalCoordinates(other) returns the
// tangent-space vector taking this value to other (the inverse of Retract).
type Value interface {
	Dim() int
	Retract(delta []float64) Value
	LocalCoordinates(other Value) []float64
}

// Values maps continuous keys to manifold values. It is the continuous
// analogue of discretefg.DiscreteValues.
type Values map[dckey.ContinuousKey]Value

// NewValues returns an empty Values map.
func NewValues() Values {
	return make(Values)
}

// Clone returns a shallow copy: keys are copied, Value instances are shared
// (they are treated as immutable once constructed).
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge updates v in place with every key present in other: existing keys
// are overwritten, new keys are inserted. This is exactly the "merge initial
// guesses" step used throughout the alternation controller (spec §4.4 step
// 2) and the shadow factors' UpdateContinuous (spec §4.2/4.3).
func (v Values) Merge(other Values) {
	for k, val := range other {
		v[k] = val
	}
}

// Exists reports whether key k has an assigned value.
func (v Values) Exists(k dckey.ContinuousKey) bool {
	_, ok := v[k]
	return ok
}

// Dim returns the total tangent-space dimension of the values present for
// the given keys, in key order. Used to size a stacked Jacobian update.
func Dim(keys []dckey.ContinuousKey, v Values) int {
	total := 0
	for _, k := range keys {
		total += v[k].Dim()
	}
	return total
}
