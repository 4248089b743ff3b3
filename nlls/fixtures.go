package nlls

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/dcmath"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"gonum.org/v1/gonum/mat"
)

// Prior is a unary isotropic-Gaussian-noise factor pulling a single
// continuous key toward a fixed measurement. It is a reference/test fixture
// (spec §1 names "concrete geometric factors" as an external collaborator),
// used to build scenarios S3-S6.
type Prior struct {
	Key       dckey.ContinuousKey
	Measured  manifold.Value
	Sigma     float64
	precision float64
}

// NewPrior returns a Prior factor with isotropic noise of standard deviation
// sigma.
func NewPrior(key dckey.ContinuousKey, measured manifold.Value, sigma float64) *Prior {
	return &Prior{Key: key, Measured: measured, Sigma: sigma, precision: 1.0 / sigma}
}

// Keys implements Factor.
func (p *Prior) Keys() []dckey.ContinuousKey { return []dckey.ContinuousKey{p.Key} }

// Dim implements Factor.
func (p *Prior) Dim() int { return p.Measured.Dim() }

// Error implements Factor: 0.5*||whitened residual||^2.
func (p *Prior) Error(values manifold.Values) float64 {
	residual := p.whitenedResidual(values[p.Key])
	return 0.5 * sumSquares(residual)
}

// Linearize implements Factor.
func (p *Prior) Linearize(values manifold.Values) (*GaussianFactor, error) {
	current := values[p.Key]
	residual := p.whitenedResidual(current)
	dim := current.Dim()
	a := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		a.Set(i, i, p.precision)
	}
	b := mat.NewVecDense(dim, residual)
	negate(b)
	return &GaussianFactor{Keys: p.Keys(), A: a, B: b}, nil
}

// whitenedResidual computes precision * Local(measured, current), the
// tangent vector taking the measured value to the current estimate.
func (p *Prior) whitenedResidual(current manifold.Value) []float64 {
	local := p.Measured.LocalCoordinates(current)
	out := make([]float64, len(local))
	for i, v := range local {
		out[i] = v * p.precision
	}
	return out
}

// LogNormalizingConstant implements NormalizedFactor.
func (p *Prior) LogNormalizingConstant() float64 {
	return dcmath.GaussianLogNormalizingConstant(p.Measured.Dim(), dcmath.IsotropicCovariance(p.Measured.Dim(), p.Sigma))
}

// Between is a binary isotropic-Gaussian-noise factor constraining the
// relative displacement from a "from" key to a "to" key to a fixed
// measurement, the odometry-edge fixture used in scenarios S4-S6.
type Between struct {
	From, To  dckey.ContinuousKey
	Measured  manifold.Value
	Sigma     float64
	precision float64
}

// NewBetween returns a Between factor with isotropic noise of standard
// deviation sigma.
func NewBetween(from, to dckey.ContinuousKey, measured manifold.Value, sigma float64) *Between {
	return &Between{From: from, To: to, Measured: measured, Sigma: sigma, precision: 1.0 / sigma}
}

// Keys implements Factor.
func (b *Between) Keys() []dckey.ContinuousKey { return []dckey.ContinuousKey{b.From, b.To} }

// Dim implements Factor.
func (b *Between) Dim() int { return b.Measured.Dim() }

// Error implements Factor.
func (b *Between) Error(values manifold.Values) float64 {
	residual := b.whitenedResidual(values[b.From], values[b.To])
	return 0.5 * sumSquares(residual)
}

// Linearize implements Factor. It numerically differentiates the predicted
// relative displacement with respect to each endpoint's tangent space, a
// deliberate choice to keep Between generic over any manifold.Value rather
// than hand-deriving an analytic Jacobian per concrete manifold.
func (b *Between) Linearize(values manifold.Values) (*GaussianFactor, error) {
	from := values[b.From]
	to := values[b.To]
	dimFrom := from.Dim()
	dimTo := to.Dim()
	residualDim := b.Measured.Dim()

	base := b.whitenedResidual(from, to)
	a := mat.NewDense(residualDim, dimFrom+dimTo, nil)

	const h = 1e-6
	for j := 0; j < dimFrom; j++ {
		delta := make([]float64, dimFrom)
		delta[j] = h
		plus := b.whitenedResidual(from.Retract(delta), to)
		for i := 0; i < residualDim; i++ {
			a.Set(i, j, (plus[i]-base[i])/h)
		}
	}
	for j := 0; j < dimTo; j++ {
		delta := make([]float64, dimTo)
		delta[j] = h
		plus := b.whitenedResidual(from, to.Retract(delta))
		for i := 0; i < residualDim; i++ {
			a.Set(i, dimFrom+j, (plus[i]-base[i])/h)
		}
	}

	bVec := mat.NewVecDense(residualDim, base)
	negate(bVec)
	return &GaussianFactor{Keys: b.Keys(), A: a, B: bVec}, nil
}

// whitenedResidual computes precision * Local(measured, predicted), where
// predicted is the relative displacement from "from" to "to" and measured is
// reinterpreted as a tangent vector from the identity element of the same
// concrete manifold type (tangentFromIdentity).
func (b *Between) whitenedResidual(from, to manifold.Value) []float64 {
	predicted := from.LocalCoordinates(to)
	measured := tangentFromIdentity(b.Measured)
	out := make([]float64, len(predicted))
	for i := range predicted {
		out[i] = (predicted[i] - measured[i]) * b.precision
	}
	return out
}

// LogNormalizingConstant implements NormalizedFactor.
func (b *Between) LogNormalizingConstant() float64 {
	return dcmath.GaussianLogNormalizingConstant(b.Measured.Dim(), dcmath.IsotropicCovariance(b.Measured.Dim(), b.Sigma))
}

// tangentFromIdentity returns v's coordinates as a tangent vector measured
// from the identity element of its concrete manifold type. Both manifolds
// this module ships (Vector, Pose2) satisfy identity.LocalCoordinates(v) ==
// v's own raw components, so this amounts to flattening v; a third concrete
// manifold would need a case added here.
func tangentFromIdentity(v manifold.Value) []float64 {
	switch t := v.(type) {
	case manifold.Vector:
		out := make([]float64, len(t))
		copy(out, t)
		return out
	case manifold.Pose2:
		return []float64{t.X, t.Y, t.Theta}
	default:
		panic("nlls: tangentFromIdentity: unsupported manifold.Value concrete type")
	}
}

func sumSquares(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return sum
}

func negate(v *mat.VecDense) {
	n := v.Len()
	for i := 0; i < n; i++ {
		v.SetVec(i, -v.AtVec(i))
	}
}
