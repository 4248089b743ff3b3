package discretefg

import "github.com/MarineRoboticsGroup/dcsam/dckey"

// Factor is a purely discrete factor: a term in the joint distribution over
// discrete variables. DiscreteShadow (package shadow) and
// hybrid.DiscretePriorFactor both implement this interface.
type Factor interface {
	DiscreteKeys() []dckey.DiscreteKey
	ToTable() Table
}

// TableFactor is a Factor backed directly by a precomputed Table, used for
// plain discrete factors added straight to a Graph (spec §6 "add discrete
// factor").
type TableFactor struct {
	table Table
}

// NewTableFactor wraps a Table as a Factor.
func NewTableFactor(t Table) TableFactor {
	return TableFactor{table: t}
}

// DiscreteKeys implements Factor.
func (f TableFactor) DiscreteKeys() []dckey.DiscreteKey { return f.table.Keys }

// ToTable implements Factor.
func (f TableFactor) ToTable() Table { return f.table }
