package hybrid

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
)

// DiscretePriorFactor is a fixed discrete prior over a single key, used
// directly as a discretefg.Factor (it has no continuous keys, so it is not
// itself a hybrid.Factor). Grounded in
// original_source/include/dcsam/DiscretePriorFactor.h.
type DiscretePriorFactor struct {
	key   dckey.DiscreteKey
	table discretefg.Table
}

// NewDiscretePriorFactor builds a prior from a raw probability vector.
func NewDiscretePriorFactor(key dckey.DiscreteKey, probs []float64) *DiscretePriorFactor {
	return &DiscretePriorFactor{key: key, table: discretefg.NewTableFromProbs(key, probs)}
}

// DiscreteKeys implements discretefg.Factor.
func (f *DiscretePriorFactor) DiscreteKeys() []dckey.DiscreteKey {
	return []dckey.DiscreteKey{f.key}
}

// ToTable implements discretefg.Factor.
func (f *DiscretePriorFactor) ToTable() discretefg.Table { return f.table }

// SmartDiscretePriorFactor is DiscretePriorFactor plus an in-place
// UpdateProbs, so a previously registered factor's beliefs can be revised
// without removing and re-adding it to the graph (scenario S2, grounded in
// original_source/include/dcsam/SmartDiscretePriorFactor.h).
type SmartDiscretePriorFactor struct {
	key   dckey.DiscreteKey
	table discretefg.Table
}

// NewSmartDiscretePriorFactor builds a smart prior from a raw probability
// vector.
func NewSmartDiscretePriorFactor(key dckey.DiscreteKey, probs []float64) *SmartDiscretePriorFactor {
	return &SmartDiscretePriorFactor{key: key, table: discretefg.NewTableFromProbs(key, probs)}
}

// DiscreteKeys implements discretefg.Factor.
func (f *SmartDiscretePriorFactor) DiscreteKeys() []dckey.DiscreteKey {
	return []dckey.DiscreteKey{f.key}
}

// ToTable implements discretefg.Factor.
func (f *SmartDiscretePriorFactor) ToTable() discretefg.Table { return f.table }

// UpdateProbs replaces the prior's probability vector in place. The length
// must equal the key's cardinality; a mismatch is a precondition violation.
func (f *SmartDiscretePriorFactor) UpdateProbs(probs []float64) {
	if len(probs) != f.key.Cardinality {
		panic("hybrid: SmartDiscretePriorFactor.UpdateProbs length mismatch with key cardinality")
	}
	f.table = discretefg.NewTableFromProbs(f.key, probs)
}
