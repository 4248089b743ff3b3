// Package hybrid implements the hybrid-factor abstraction: a trait shared by
// every factor whose scope spans both continuous and discrete variables, and
// four concrete mixture families built on top of it (spec §4.1). This is the
// largest package in the module, mirroring how the teacher's
// motionplan/ik package centers on a single InverseKinematics trait with
// several concrete solvers behind it.
package hybrid

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
)

// Factor is the hybrid-factor trait: a term in the joint negative
// log-likelihood whose scope includes both continuous and discrete
// variables.
type Factor interface {
	ContinuousKeys() []dckey.ContinuousKey
	DiscreteKeys() []dckey.DiscreteKey
	Error(c manifold.Values, d discretefg.DiscreteValues) float64
	Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error)
	ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table
	Dim() int
	LogNormalizingConstant(c manifold.Values) float64
	Equals(other Factor, tol float64) bool
}
