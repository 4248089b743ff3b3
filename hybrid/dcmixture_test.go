package hybrid

import (
	"testing"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"go.viam.com/test"
)

// TestDiscreteConditionalMixtureMisinitializedContinuous reproduces scenario
// S3: a narrow prior (sigma=1) competing with a broad prior (sigma=8), both
// centered at zero, with the continuous estimate mis-initialized at -2.5.
func TestDiscreteConditionalMixtureMisinitializedContinuous(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}

	narrow := nlls.NewPrior(x1, manifold.NewVector(0), 1.0)
	broad := nlls.NewPrior(x1, manifold.NewVector(0), 8.0)
	mixture := NewDCMixtureFactor[*nlls.Prior](d, []*nlls.Prior{narrow, broad}, false)

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(-2.5)

	table := mixture.ToDiscreteTable(cont, discretefg.NewDiscreteValues())
	assign, _ := table.Argmax()
	test.That(t, assign[d], test.ShouldEqual, 1)

	// Driving x1 -> 0 should flip the MAP component to the narrow prior.
	cont[x1] = manifold.NewVector(0)
	table = mixture.ToDiscreteTable(cont, discretefg.NewDiscreteValues())
	assign, _ = table.Argmax()
	test.That(t, assign[d], test.ShouldEqual, 0)
}

func TestDCMixtureErrorDelegatesToSelectedComponent(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}
	narrow := nlls.NewPrior(x1, manifold.NewVector(0), 1.0)
	broad := nlls.NewPrior(x1, manifold.NewVector(0), 8.0)
	mixture := NewDCMixtureFactor[*nlls.Prior](d, []*nlls.Prior{narrow, broad}, true)

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(3)

	disc := discretefg.NewDiscreteValues()
	disc[d] = 0
	test.That(t, mixture.Error(cont, disc), test.ShouldAlmostEqual, narrow.Error(cont))

	disc[d] = 1
	test.That(t, mixture.Error(cont, disc), test.ShouldAlmostEqual, broad.Error(cont))
}

func TestDCMixtureEvaluatedWithoutDiscreteAssignmentPanics(t *testing.T) {
	x1 := dckey.ContinuousKey(1)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}
	narrow := nlls.NewPrior(x1, manifold.NewVector(0), 1.0)
	mixture := NewDCMixtureFactor[*nlls.Prior](d, []*nlls.Prior{narrow, narrow}, true)

	cont := manifold.NewValues()
	cont[x1] = manifold.NewVector(0)

	test.That(t, func() { mixture.Error(cont, discretefg.NewDiscreteValues()) }, test.ShouldPanic)
}
