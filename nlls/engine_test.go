package nlls

import (
	"testing"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/logging"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"go.viam.com/test"
)

func TestGaussNewtonEngineConvergesOnSinglePrior(t *testing.T) {
	k := dckey.ContinuousKey(1)
	engine := NewGaussNewtonEngine(logging.NewTestLogger(t), 0, 0)

	seed := manifold.NewValues()
	seed[k] = manifold.NewVector(0)

	prior := NewPrior(k, manifold.NewVector(5), 1.0)
	err := engine.Update([]Factor{prior}, seed, UpdateParams{})
	test.That(t, err, test.ShouldBeNil)

	estimate := engine.CalculateEstimate()
	v := estimate[k].(manifold.Vector)
	test.That(t, v[0], test.ShouldAlmostEqual, 5.0, 1e-4)
}

func TestGaussNewtonEngineTwoPriorsAverage(t *testing.T) {
	k := dckey.ContinuousKey(1)
	engine := NewGaussNewtonEngine(logging.NewTestLogger(t), 0, 0)

	seed := manifold.NewValues()
	seed[k] = manifold.NewVector(0)

	p1 := NewPrior(k, manifold.NewVector(0), 1.0)
	p2 := NewPrior(k, manifold.NewVector(10), 1.0)
	err := engine.Update([]Factor{p1, p2}, seed, UpdateParams{})
	test.That(t, err, test.ShouldBeNil)

	estimate := engine.CalculateEstimate()
	v := estimate[k].(manifold.Vector)
	test.That(t, v[0], test.ShouldAlmostEqual, 5.0, 1e-3)
}

func TestGaussNewtonEngineRemovesFactor(t *testing.T) {
	k := dckey.ContinuousKey(1)
	engine := NewGaussNewtonEngine(logging.NewTestLogger(t), 0, 0)
	seed := manifold.NewValues()
	seed[k] = manifold.NewVector(0)

	p1 := NewPrior(k, manifold.NewVector(0), 1.0)
	p2 := NewPrior(k, manifold.NewVector(10), 1.0)
	test.That(t, engine.Update([]Factor{p1, p2}, seed, UpdateParams{}), test.ShouldBeNil)
	test.That(t, len(engine.FactorsUnsafe()), test.ShouldEqual, 2)

	test.That(t, engine.Update(nil, manifold.NewValues(), UpdateParams{RemoveFactorIndices: []int{1}}), test.ShouldBeNil)
	test.That(t, len(engine.FactorsUnsafe()), test.ShouldEqual, 1)

	estimate := engine.CalculateEstimate()
	v := estimate[k].(manifold.Vector)
	test.That(t, v[0], test.ShouldAlmostEqual, 0.0, 1e-3)
}

func TestBetweenFactorPullsRelativePose(t *testing.T) {
	from := dckey.ContinuousKey(1)
	to := dckey.ContinuousKey(2)
	engine := NewGaussNewtonEngine(logging.NewTestLogger(t), 0, 0)

	seed := manifold.NewValues()
	seed[from] = manifold.Pose2{X: 0, Y: 0, Theta: 0}
	seed[to] = manifold.Pose2{X: 0, Y: 0, Theta: 0}

	anchor := NewPrior(from, manifold.Pose2{X: 0, Y: 0, Theta: 0}, 0.01)
	odom := NewBetween(from, to, manifold.Pose2{X: 1, Y: 0, Theta: 0}, 0.1)

	err := engine.Update([]Factor{anchor, odom}, seed, UpdateParams{})
	test.That(t, err, test.ShouldBeNil)

	estimate := engine.CalculateEstimate()
	toPose := estimate[to].(manifold.Pose2)
	test.That(t, toPose.X, test.ShouldAlmostEqual, 1.0, 1e-2)
	test.That(t, toPose.Y, test.ShouldAlmostEqual, 0.0, 1e-2)
}
