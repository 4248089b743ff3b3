// Package nlls is the continuous-side nonlinear least-squares backend: a
// Factor interface over manifold.Values, a linearized GaussianFactor, and an
// Engine that incrementally maintains an estimate across repeated Update
// calls, mirroring the role go.viam.com/rdk/motionplan/ik's InverseKinematics
// interface plays for pluggable continuous solvers.
package nlls

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"gonum.org/v1/gonum/mat"
)

// Factor is a nonlinear continuous factor over a fixed set of manifold keys.
type Factor interface {
	Keys() []dckey.ContinuousKey
	Dim() int
	Error(values manifold.Values) float64
	Linearize(values manifold.Values) (*GaussianFactor, error)
}

// GaussianFactor is a linearized factor: the local residual is
// A*delta - B for a tangent-space update delta stacked over Keys in order.
type GaussianFactor struct {
	Keys []dckey.ContinuousKey
	A    *mat.Dense
	B    *mat.VecDense
}

// NormalizedFactor is a Factor that additionally knows its own Gaussian
// log-normalizing constant, letting a discrete-conditional mixture
// (package hybrid) compare components on a common scale per the mixture
// family's normalization policy.
type NormalizedFactor interface {
	Factor
	LogNormalizingConstant() float64
}
