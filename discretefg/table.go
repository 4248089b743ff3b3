package discretefg

import "github.com/MarineRoboticsGroup/dcsam/dckey"

// Table is a dense decision table over a set of discrete keys: Values holds
// one entry per joint assignment, laid out so the last key in Keys varies
// fastest (row-major over the Cartesian product of cardinalities). This is
// the Go analogue of gtsam::DecisionTreeFactor.
type Table struct {
	Keys   []dckey.DiscreteKey
	Values []float64
}

// NewUniformTable returns a table over keys with every entry equal to
// uniformValue (used e.g. to pad a mixture's unselected components' discrete
// keys with a uniform factor so the product spans the full key union, spec
// §4.1.b).
func NewUniformTable(keys []dckey.DiscreteKey, uniformValue float64) Table {
	n := numAssignments(keys)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = uniformValue
	}
	return Table{Keys: keys, Values: vals}
}

// NewTableFromProbs builds a single-key table directly from a probability
// vector, the common case for discrete priors (spec S1/S2).
func NewTableFromProbs(key dckey.DiscreteKey, probs []float64) Table {
	vals := make([]float64, len(probs))
	copy(vals, probs)
	return Table{Keys: []dckey.DiscreteKey{key}, Values: vals}
}

func numAssignments(keys []dckey.DiscreteKey) int {
	n := 1
	for _, k := range keys {
		n *= k.Cardinality
	}
	return n
}

// IsEmpty reports whether the table has no keys (the multiplicative
// identity element).
func (t Table) IsEmpty() bool {
	return len(t.Keys) == 0
}

// strides returns, for each key in t.Keys, the stride (number of elements to
// skip in t.Values) to advance that key's assignment by one.
func strides(keys []dckey.DiscreteKey) []int {
	s := make([]int, len(keys))
	acc := 1
	for i := len(keys) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= keys[i].Cardinality
	}
	return s
}

// index looks up a key's position within keys, returning -1 if absent.
func index(keys []dckey.DiscreteKey, k dckey.DiscreteKey) int {
	for i, kk := range keys {
		if kk == k {
			return i
		}
	}
	return -1
}

// decodeAssignment decodes a flat row index into a per-key assignment map for
// the given key/stride layout.
func decodeAssignment(keys []dckey.DiscreteKey, strd []int, row int) map[dckey.DiscreteKey]int {
	out := make(map[dckey.DiscreteKey]int, len(keys))
	for i, k := range keys {
		out[k] = (row / strd[i]) % k.Cardinality
	}
	return out
}

// Times computes the product of t and other: a table over the union of
// their keys whose value at each joint assignment is t's value times
// other's value at the restriction of that assignment to each table's own
// keys. Matches gtsam::DecisionTreeFactor::operator*.
func (t Table) Times(other Table) Table {
	if t.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return t
	}

	unionKeys := make([]dckey.DiscreteKey, 0, len(t.Keys)+len(other.Keys))
	unionKeys = append(unionKeys, t.Keys...)
	for _, k := range other.Keys {
		if index(t.Keys, k) == -1 {
			unionKeys = append(unionKeys, k)
		}
	}

	n := numAssignments(unionKeys)
	unionStrides := strides(unionKeys)
	tStrides := strides(t.Keys)
	oStrides := strides(other.Keys)

	vals := make([]float64, n)
	for row := 0; row < n; row++ {
		assign := decodeAssignment(unionKeys, unionStrides, row)
		tRow := rowFromAssignment(t.Keys, tStrides, assign)
		oRow := rowFromAssignment(other.Keys, oStrides, assign)
		vals[row] = t.Values[tRow] * other.Values[oRow]
	}
	return Table{Keys: unionKeys, Values: vals}
}

func rowFromAssignment(keys []dckey.DiscreteKey, strd []int, assign map[dckey.DiscreteKey]int) int {
	row := 0
	for i, k := range keys {
		row += assign[k] * strd[i]
	}
	return row
}

// SumOut marginalizes frontals out of t by summing over their assignments,
// returning a table over the remaining (separator) keys. Matches
// gtsam::DecisionTreeFactor::sum used by the custom elimination rule.
func (t Table) SumOut(frontals []dckey.DiscreteKey) Table {
	remaining := make([]dckey.DiscreteKey, 0, len(t.Keys))
	for _, k := range t.Keys {
		if index(frontals, k) == -1 {
			remaining = append(remaining, k)
		}
	}
	if len(remaining) == len(t.Keys) {
		return t
	}

	n := numAssignments(remaining)
	remStrides := strides(remaining)
	tStrides := strides(t.Keys)

	vals := make([]float64, n)
	total := numAssignments(t.Keys)
	for row := 0; row < total; row++ {
		assign := decodeAssignment(t.Keys, tStrides, row)
		remRow := rowFromAssignment(remaining, remStrides, assign)
		vals[remRow] += t.Values[row]
	}
	return Table{Keys: remaining, Values: vals}
}

// Normalize returns a copy of t scaled so its values sum to 1. If t sums to
// 0, t is returned unchanged (avoids a division by zero on a degenerate
// all-zero table).
func (t Table) Normalize() Table {
	sum := 0.0
	for _, v := range t.Values {
		sum += v
	}
	if sum == 0 {
		return t
	}
	out := Table{Keys: t.Keys, Values: make([]float64, len(t.Values))}
	for i, v := range t.Values {
		out.Values[i] = v / sum
	}
	return out
}

// Argmax returns the joint assignment (and its value) maximizing t. Ties are
// broken deterministically by the first maximal row encountered in t's
// existing row order (spec §4.4 "ties are broken ... deterministic").
func (t Table) Argmax() (DiscreteValues, float64) {
	if len(t.Values) == 0 {
		return DiscreteValues{}, 0
	}
	strd := strides(t.Keys)
	best := 0
	for i, v := range t.Values {
		if v > t.Values[best] {
			best = i
		}
		_ = v
	}
	assign := decodeAssignment(t.Keys, strd, best)
	out := make(DiscreteValues, len(assign))
	for k, v := range assign {
		out[k] = v
	}
	return out, t.Values[best]
}

// At returns t's value at the given joint assignment. Keys of t not present
// in assign, or present with an out-of-range value, are a contract violation
// (spec §7 "cardinality overrun"); callers are expected to supply a full,
// valid assignment.
func (t Table) At(assign DiscreteValues) float64 {
	strd := strides(t.Keys)
	row := 0
	for i, k := range t.Keys {
		v, ok := assign[k]
		if !ok {
			panic("discretefg: Table.At called with incomplete assignment for key " + k.String())
		}
		if v < 0 || v >= k.Cardinality {
			panic("discretefg: Table.At cardinality overrun for key " + k.String())
		}
		row += v * strd[i]
	}
	return t.Values[row]
}
