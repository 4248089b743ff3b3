package hybrid

import (
	"math"
	"testing"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"go.viam.com/test"
)

// priorAsHybrid adapts an nlls.Prior (a pure continuous factor) into the
// hybrid.Factor trait with an empty discrete scope, so it can serve as a
// Max/Sum/EM-mixture component in tests without requiring the shadow
// package (which itself depends on hybrid).
type priorAsHybrid struct {
	p *nlls.Prior
}

func (w priorAsHybrid) ContinuousKeys() []dckey.ContinuousKey { return w.p.Keys() }
func (w priorAsHybrid) DiscreteKeys() []dckey.DiscreteKey      { return nil }
func (w priorAsHybrid) Error(c manifold.Values, d discretefg.DiscreteValues) float64 {
	return w.p.Error(c)
}
func (w priorAsHybrid) Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error) {
	return w.p.Linearize(c)
}
func (w priorAsHybrid) ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	return discretefg.Table{}
}
func (w priorAsHybrid) Dim() int { return w.p.Dim() }
func (w priorAsHybrid) LogNormalizingConstant(c manifold.Values) float64 {
	return w.p.LogNormalizingConstant()
}
func (w priorAsHybrid) Equals(other Factor, tol float64) bool {
	o, ok := other.(priorAsHybrid)
	return ok && o.p == w.p
}

func TestMaxMixtureDeterministicTieBreak(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	a := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	b := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	mix := NewMaxMixtureFactor[priorAsHybrid]([]priorAsHybrid{a, b}, nil, false)

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(0)
	disc := discretefg.NewDiscreteValues()

	e := mix.weightedErrors(cont, disc)
	idx1 := activeIndex(e)
	e2 := mix.weightedErrors(cont, disc)
	idx2 := activeIndex(e2)
	test.That(t, idx1, test.ShouldEqual, idx2)
	test.That(t, idx1, test.ShouldEqual, 0)
	test.That(t, mix.Error(cont, disc), test.ShouldAlmostEqual, e[0])
}

func TestSumMixtureErrorBoundedByLogBeta(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	a := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	b := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(10), 1.0)}

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(3)
	disc := discretefg.NewDiscreteValues()

	mix := NewSumMixtureFactor[priorAsHybrid]([]priorAsHybrid{a, b}, nil, false, cont)

	errVal := mix.Error(cont, disc)
	test.That(t, errVal, test.ShouldBeLessThanOrEqualTo, mix.logBeta+1e-9)

	residual := mix.SqrtResidual(cont, disc)
	test.That(t, math.IsNaN(residual), test.ShouldBeFalse)
	test.That(t, residual, test.ShouldBeGreaterThanOrEqualTo, 0.0)
}

func TestEMMixtureDimIsSumOfComponents(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	a := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	b := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(10), 1.0)}
	mix := NewEMMixtureFactor[priorAsHybrid]([]priorAsHybrid{a, b}, nil, false)

	test.That(t, mix.Dim(), test.ShouldEqual, a.Dim()+b.Dim())
}

func TestEMMixtureLinearizeStacksComponents(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	a := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	b := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(10), 1.0)}
	mix := NewEMMixtureFactor[priorAsHybrid]([]priorAsHybrid{a, b}, nil, false)

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(5)
	disc := discretefg.NewDiscreteValues()

	lin, err := mix.Linearize(cont, disc)
	test.That(t, err, test.ShouldBeNil)
	rows, cols := lin.A.Dims()
	test.That(t, rows, test.ShouldEqual, 2)
	test.That(t, cols, test.ShouldEqual, 1)
}

func TestSumMixtureLogProbsEqualForIdenticalComponents(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	a := priorAsHybrid{nlls.NewPrior(x1, manifold.NewVector(0), 1.0)}
	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(0)
	disc := discretefg.NewDiscreteValues()

	mix := NewSumMixtureFactor[priorAsHybrid]([]priorAsHybrid{a, a}, nil, false, cont)
	l := mix.logProbs(cont, disc)
	test.That(t, len(l), test.ShouldEqual, 2)
	test.That(t, l[0], test.ShouldAlmostEqual, l[1])
}
