package dcsam

import (
	"math"
	"testing"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/hybrid"
	"github.com/MarineRoboticsGroup/dcsam/logging"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"go.viam.com/test"
)

func newSolver(t *testing.T) *Solver {
	logger := logging.NewTestLogger(t)
	engine := nlls.NewGaussNewtonEngine(logger, 0, 0)
	return NewSolver(logger, engine, DefaultSolverParams())
}

// S1 — Discrete prior.
func TestS1DiscretePrior(t *testing.T) {
	s := newSolver(t)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}
	prior := hybrid.NewDiscretePriorFactor(d, []float64{0.1, 0.9})

	err := s.Update(UpdateInput{NewDiscreteFactors: []discretefg.Factor{prior}})
	test.That(t, err, test.ShouldBeNil)

	est := s.CalculateEstimate()
	test.That(t, est.Discrete[d], test.ShouldEqual, 1)

	marg := s.AccumulatedDiscreteGraph().Marginal(d)
	test.That(t, marg.Values[0], test.ShouldAlmostEqual, 0.1, 1e-7)
	test.That(t, marg.Values[1], test.ShouldAlmostEqual, 0.9, 1e-7)
}

// S2 — Smart prior update.
func TestS2SmartPriorUpdate(t *testing.T) {
	s := newSolver(t)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}
	prior := hybrid.NewSmartDiscretePriorFactor(d, []float64{0.1, 0.9})

	err := s.Update(UpdateInput{NewDiscreteFactors: []discretefg.Factor{prior}})
	test.That(t, err, test.ShouldBeNil)
	est := s.CalculateEstimate()
	test.That(t, est.Discrete[d], test.ShouldEqual, 1)

	prior.UpdateProbs([]float64{0.9, 0.1})
	err = s.UpdateEmpty()
	test.That(t, err, test.ShouldBeNil)

	est = s.CalculateEstimate()
	test.That(t, est.Discrete[d], test.ShouldEqual, 0)

	marg := s.AccumulatedDiscreteGraph().Marginal(d)
	test.That(t, marg.Values[0], test.ShouldAlmostEqual, 0.9, 1e-7)
	test.That(t, marg.Values[1], test.ShouldAlmostEqual, 0.1, 1e-7)
}

// S3 — Discrete-conditional mixture, mis-initialized continuous.
func TestS3MixtureMisinitializedContinuous(t *testing.T) {
	s := newSolver(t)
	x1 := dckey.ContinuousKey(1)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}

	narrow := nlls.NewPrior(x1, manifold.NewVector(0), 1.0)
	broad := nlls.NewPrior(x1, manifold.NewVector(0), 8.0)
	mixture := hybrid.NewDCMixtureFactor[*nlls.Prior](d, []*nlls.Prior{narrow, broad}, false)

	init := manifold.NewValues()
	init[x1] = manifold.NewVector(-2.5)
	initDisc := discretefg.NewDiscreteValues()
	initDisc[d] = 0

	err := s.Update(UpdateInput{
		NewHybridFactors:  []hybrid.Factor{mixture},
		InitialContinuous: init,
		InitialDiscrete:   initDisc,
	})
	test.That(t, err, test.ShouldBeNil)

	// The update's discrete solve ran with x1 frozen at -2.5.
	test.That(t, s.currentDiscrete[d], test.ShouldEqual, 1)

	err = s.UpdateEmpty()
	test.That(t, err, test.ShouldBeNil)

	est := s.CalculateEstimate()
	test.That(t, math.Abs(est.Continuous[x1].(manifold.Vector)[0]), test.ShouldBeLessThan, 2.5)
}

func buildOctagonBetweens(x []dckey.ContinuousKey) []*nlls.Between {
	betweens := make([]*nlls.Between, 0, len(x))
	step := manifold.Pose2{X: 1, Y: 0, Theta: math.Pi / 4}
	for i := 0; i < len(x)-1; i++ {
		betweens = append(betweens, nlls.NewBetween(x[i], x[i+1], step, 0.05))
	}
	betweens = append(betweens, nlls.NewBetween(x[len(x)-1], x[0], step, 0.05))
	return betweens
}

func octagonInitialGuess(x []dckey.ContinuousKey) manifold.Values {
	init := manifold.NewValues()
	pose := manifold.Pose2{}
	init[x[0]] = pose
	for i := 1; i < len(x); i++ {
		pose = pose.Compose(manifold.Pose2{X: 1, Y: 0, Theta: math.Pi / 4})
		init[x[i]] = pose
	}
	return init
}

// S4 — Pose-graph, batch.
func TestS4PoseGraphBatch(t *testing.T) {
	s := newSolver(t)
	x := make([]dckey.ContinuousKey, 8)
	for i := range x {
		x[i] = dckey.ContinuousKey(i + 1)
	}

	init := octagonInitialGuess(x)
	anchor := nlls.NewPrior(x[0], manifold.Pose2{}, 0.01)
	betweens := buildOctagonBetweens(x)

	var factors []nlls.Factor
	factors = append(factors, anchor)
	for _, b := range betweens {
		factors = append(factors, b)
	}

	err := s.Update(UpdateInput{NewContinuousFactors: factors, InitialContinuous: init})
	test.That(t, err, test.ShouldBeNil)

	est := s.CalculateEstimate()
	for _, k := range x {
		p := est.Continuous[k].(manifold.Pose2)
		test.That(t, math.IsNaN(p.X), test.ShouldBeFalse)
		test.That(t, math.IsNaN(p.Y), test.ShouldBeFalse)
		test.That(t, math.IsInf(p.X, 0), test.ShouldBeFalse)
	}
}

// S5 — Pose-graph, incremental.
func TestS5PoseGraphIncrementalMatchesBatch(t *testing.T) {
	batch := newSolver(t)
	incr := newSolver(t)

	x := make([]dckey.ContinuousKey, 8)
	for i := range x {
		x[i] = dckey.ContinuousKey(i + 1)
	}
	init := octagonInitialGuess(x)
	anchor := nlls.NewPrior(x[0], manifold.Pose2{}, 0.01)
	betweens := buildOctagonBetweens(x)

	var allFactors []nlls.Factor
	allFactors = append(allFactors, anchor)
	for _, b := range betweens {
		allFactors = append(allFactors, b)
	}
	test.That(t, batch.Update(UpdateInput{NewContinuousFactors: allFactors, InitialContinuous: init}), test.ShouldBeNil)

	test.That(t, incr.Update(UpdateInput{
		NewContinuousFactors: []nlls.Factor{anchor},
		InitialContinuous:    manifold.Values{x[0]: init[x[0]]},
	}), test.ShouldBeNil)
	for _, b := range betweens {
		guess := manifold.Values{}
		if v, ok := init[b.To]; ok {
			guess[b.To] = v
		}
		test.That(t, incr.Update(UpdateInput{
			NewContinuousFactors: []nlls.Factor{b},
			InitialContinuous:    guess,
		}), test.ShouldBeNil)
	}

	batchEst := batch.CalculateEstimate()
	incrEst := incr.CalculateEstimate()
	for _, k := range x {
		bp := batchEst.Continuous[k].(manifold.Pose2)
		ip := incrEst.Continuous[k].(manifold.Pose2)
		test.That(t, ip.X, test.ShouldAlmostEqual, bp.X, 1e-3)
		test.That(t, ip.Y, test.ShouldAlmostEqual, bp.Y, 1e-3)
	}
}

// S6 — Semantic SLAM. Two early measurements favor class 0; enough
// subsequent measurements favoring class 1 eventually flip the MAP once
// their accumulated posterior weight overtakes class 0's (spec S6).
func TestS6SemanticSLAMClassTransitions(t *testing.T) {
	s := newSolver(t)
	x1 := dckey.ContinuousKey(100)
	c1 := dckey.DiscreteKey{Var: 200, Cardinality: 2}

	init := manifold.NewValues()
	init[x1] = manifold.NewVector(0)

	for i := 0; i < 2; i++ {
		early := hybrid.NewDiscretePriorFactor(c1, []float64{0.9, 0.1})
		err := s.Update(UpdateInput{
			NewDiscreteFactors: []discretefg.Factor{early},
			InitialContinuous:  init,
		})
		test.That(t, err, test.ShouldBeNil)
		init = nil
	}
	est := s.CalculateEstimate()
	test.That(t, est.Discrete[c1], test.ShouldEqual, 0)

	for i := 0; i < 2; i++ {
		late := hybrid.NewDiscretePriorFactor(c1, []float64{0.1, 0.9})
		err := s.Update(UpdateInput{NewDiscreteFactors: []discretefg.Factor{late}})
		test.That(t, err, test.ShouldBeNil)
	}
	est = s.CalculateEstimate()
	test.That(t, est.Discrete[c1], test.ShouldEqual, 0)

	late := hybrid.NewDiscretePriorFactor(c1, []float64{0.1, 0.9})
	err := s.Update(UpdateInput{NewDiscreteFactors: []discretefg.Factor{late}})
	test.That(t, err, test.ShouldBeNil)
	est = s.CalculateEstimate()
	test.That(t, est.Discrete[c1], test.ShouldEqual, 1)
}

// Weighted-discrete GTSAM-quirk check (spec §8).
func TestWeightedDiscreteGTSAMQuirk(t *testing.T) {
	s := newSolver(t)
	d := dckey.DiscreteKey{Var: 1, Cardinality: 2}

	unnormalized := hybrid.NewDiscretePriorFactor(d, []float64{45, 5})
	normalized := hybrid.NewDiscretePriorFactor(d, []float64{0.1, 0.9})

	err := s.Update(UpdateInput{NewDiscreteFactors: []discretefg.Factor{unnormalized, normalized}})
	test.That(t, err, test.ShouldBeNil)

	marg := s.AccumulatedDiscreteGraph().Marginal(d)
	test.That(t, marg.Values[0], test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, marg.Values[1], test.ShouldAlmostEqual, 0.5, 1e-9)

	est := s.CalculateEstimate()
	test.That(t, est.Discrete[d], test.ShouldEqual, 0)
}

func TestUpdateEmptyAfterConvergenceLeavesEstimatesUnchanged(t *testing.T) {
	s := newSolver(t)
	x1 := dckey.ContinuousKey(1)
	prior := nlls.NewPrior(x1, manifold.NewVector(5), 1.0)

	init := manifold.NewValues()
	init[x1] = manifold.NewVector(0)
	test.That(t, s.Update(UpdateInput{NewContinuousFactors: []nlls.Factor{prior}, InitialContinuous: init}), test.ShouldBeNil)

	before := s.CalculateEstimate().Continuous[x1].(manifold.Vector)[0]
	test.That(t, s.UpdateEmpty(), test.ShouldBeNil)
	after := s.CalculateEstimate().Continuous[x1].(manifold.Vector)[0]
	test.That(t, after, test.ShouldAlmostEqual, before, 1e-6)
}
