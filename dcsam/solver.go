// Package dcsam implements the alternation controller (spec §4.4): the
// central Solver type that drives a continuous nonlinear least-squares
// engine and a discrete factor graph to a joint MAP estimate by alternating
// between them, splitting every hybrid factor into a continuous-shadow and
// a discrete-shadow pair that share a single hybrid.Handle.
package dcsam

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/graph"
	"github.com/MarineRoboticsGroup/dcsam/hybrid"
	"github.com/MarineRoboticsGroup/dcsam/logging"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"github.com/MarineRoboticsGroup/dcsam/shadow"
	"github.com/pkg/errors"
)

// DCValues is the joint estimate returned by CalculateEstimate: the
// continuous manifold assignment paired with the discrete MAP assignment.
type DCValues struct {
	Continuous manifold.Values
	Discrete   discretefg.DiscreteValues
}

// DCMarginals is the result of Marginals: the continuous estimate passed
// through unchanged (the controller makes no joint-marginal claim, per
// spec §7 Non-goals "no exact hybrid marginals") alongside the discrete
// graph's per-variable marginals under a chosen elimination ordering.
type DCMarginals struct {
	Continuous manifold.Values
	Discrete   map[dckey.DiscreteKey]discretefg.Table
}

// registeredContinuousShadow and registeredDiscreteShadow pair a shadow with the index it occupies in its
// backing collaborator (the continuous engine's factor slice, or the
// discrete graph's factor slice), both of which use the nil-slot
// removal convention so an index stays valid for the shadow's lifetime.
type registeredContinuousShadow struct {
	shadow *shadow.ContinuousShadow
	idx    int
}

type registeredDiscreteShadow struct {
	shadow *shadow.DiscreteShadow
	idx    int
}

// Solver is the alternation controller. It owns the continuous engine and
// the accumulated discrete graph by unique ownership; hybrid factors are
// held by shared ownership through their Handle, referenced by both a
// continuous-shadow and a discrete-shadow registered here (spec §5).
type Solver struct {
	logger logging.Logger
	params SolverParams

	engine   nlls.Engine
	discrete *discretefg.Graph

	currentContinuous manifold.Values
	currentDiscrete   discretefg.DiscreteValues

	continuousShadows []registeredContinuousShadow
	discreteShadows   []registeredDiscreteShadow

	// engineSlots tracks the total number of factor slots ever submitted
	// to engine, since Engine.Update appends newFactors starting at the
	// prior total (removals nil slots rather than shrinking them).
	engineSlots int
}

// NewSolver constructs a Solver around the given continuous engine.
func NewSolver(logger logging.Logger, engine nlls.Engine, params SolverParams) *Solver {
	return &Solver{
		logger:            logger,
		params:            params,
		engine:            engine,
		discrete:          discretefg.NewGraph(),
		currentContinuous: manifold.NewValues(),
		currentDiscrete:   discretefg.NewDiscreteValues(),
	}
}

// UpdateInput bundles one alternation iteration's inputs, mirroring the
// parameter list of spec §4.4's update().
type UpdateInput struct {
	NewContinuousFactors []nlls.Factor
	NewDiscreteFactors   []discretefg.Factor
	NewHybridFactors     []hybrid.Factor

	InitialContinuous manifold.Values
	InitialDiscrete   discretefg.DiscreteValues

	RemovedContinuousIndices []int
	RemovedDiscreteIndices   []int
}

// UpdateFromGraph is a convenience overload taking a HybridFactorGraph's
// live factors as the new-factor inputs, plus the same guesses and removal
// lists as UpdateInput (spec §6 "overload taking a HybridFactorGraph").
func (s *Solver) UpdateFromGraph(g *graph.HybridFactorGraph, initialContinuous manifold.Values, initialDiscrete discretefg.DiscreteValues, removedContinuous, removedDiscrete []int) error {
	return s.Update(UpdateInput{
		NewContinuousFactors:     g.ContinuousFactors(),
		NewDiscreteFactors:       g.DiscreteFactors(),
		NewHybridFactors:         g.HybridFactors(),
		InitialContinuous:        initialContinuous,
		InitialDiscrete:          initialDiscrete,
		RemovedContinuousIndices: removedContinuous,
		RemovedDiscreteIndices:   removedDiscrete,
	})
}

// UpdateEmpty runs one alternation iteration with nothing new: a pure
// shadow-refresh-and-resolve step (spec §4.4 "empty inputs are valid").
func (s *Solver) UpdateEmpty() error {
	return s.Update(UpdateInput{})
}

// Update performs one alternation iteration, implementing the ten numbered
// steps of spec §4.4.
func (s *Solver) Update(in UpdateInput) error {
	sub := s.logger.Sublogger("update")

	// Step 1: apply removals.
	for _, idx := range in.RemovedDiscreteIndices {
		s.discrete.Remove(idx)
	}
	continuousRemoveParams := nlls.UpdateParams{RemoveFactorIndices: in.RemovedContinuousIndices}

	// Step 2: merge initial guesses.
	if in.InitialContinuous != nil {
		s.currentContinuous.Merge(in.InitialContinuous)
	}
	if in.InitialDiscrete != nil {
		s.currentDiscrete.Merge(in.InitialDiscrete)
	}

	// Step 3: split hybrid factors.
	var newContinuousShadows []*shadow.ContinuousShadow
	for _, h := range in.NewHybridFactors {
		handle := hybrid.NewHandle(h)

		dShadow := shadow.NewDiscreteShadow(handle)
		dIdx := s.discrete.Push(dShadow)
		s.discreteShadows = append(s.discreteShadows, registeredDiscreteShadow{shadow: dShadow, idx: dIdx})

		cShadow := shadow.NewContinuousShadow(handle)
		newContinuousShadows = append(newContinuousShadows, cShadow)
	}

	// Step 4: sync discrete shadows (all of them, not just the new ones).
	s.syncDiscreteShadows()

	// Step 5: solve discrete, honoring the pure-odometry skip.
	pureOdometry := s.params.SkipOdometryDiscreteSolve &&
		len(in.NewDiscreteFactors) == 0 &&
		len(in.NewHybridFactors) == 0 &&
		len(in.InitialDiscrete) == 0 &&
		(len(in.NewContinuousFactors) > 0 || len(in.InitialContinuous) > 0)
	// new_discrete_factors_combined (spec §4.4 step 5) is new_discrete_factors
	// plus the discrete shadows built in step 3; the shadows are already
	// pushed into the persistent graph above, so only the plain new
	// discrete factors still need appending here.
	for _, f := range in.NewDiscreteFactors {
		s.discrete.Push(f)
	}

	if !pureOdometry {
		s.currentDiscrete = s.discrete.Optimize()
		sub.Debugw("solved discrete graph", "map", s.currentDiscrete)
	} else {
		sub.Debugw("skipped discrete solve on pure odometry step")
	}

	// Step 6: prime new continuous shadows with the freshly solved discrete
	// estimate, and queue them for submission.
	var combinedContinuous []nlls.Factor
	combinedContinuous = append(combinedContinuous, in.NewContinuousFactors...)
	for _, cShadow := range newContinuousShadows {
		cShadow.UpdateDiscrete(s.currentDiscrete)
		combinedContinuous = append(combinedContinuous, cShadow)
	}

	// Step 7: refresh existing continuous shadows and mark their keys
	// affected so the engine relinearizes them.
	affected := map[int]map[dckey.ContinuousKey]struct{}{}
	for _, reg := range s.continuousShadows {
		reg.shadow.UpdateDiscrete(s.currentDiscrete)
		keySet := map[dckey.ContinuousKey]struct{}{}
		for _, k := range reg.shadow.Keys() {
			keySet[k] = struct{}{}
		}
		affected[reg.idx] = keySet
	}
	continuousRemoveParams.NewAffectedKeys = affected

	// Register the new shadows' assigned engine slots, which begin at the
	// current total slot count (removed slots are nil'd, never shrunk).
	baseIdx := s.engineSlots
	for i, cShadow := range newContinuousShadows {
		s.continuousShadows = append(s.continuousShadows, registeredContinuousShadow{shadow: cShadow, idx: baseIdx + len(in.NewContinuousFactors) + i})
	}

	// Step 8: continuous incremental update.
	if err := s.engine.Update(combinedContinuous, in.InitialContinuous, continuousRemoveParams); err != nil {
		return errors.Wrap(err, "continuous incremental update")
	}
	s.engineSlots += len(combinedContinuous)

	// Step 9: recompute continuous estimate.
	s.currentContinuous = s.engine.CalculateEstimate()

	// Step 10: re-sync discrete shadows.
	s.syncDiscreteShadows()

	return nil
}

func (s *Solver) syncDiscreteShadows() {
	for _, reg := range s.discreteShadows {
		reg.shadow.UpdateContinuous(s.currentContinuous)
		reg.shadow.UpdateDiscrete(s.currentDiscrete)
	}
}

// SolveDiscrete re-optimizes the accumulated discrete graph and returns the
// MAP assignment, without touching the continuous side (spec §4.4
// "solve_discrete() is the discrete-only convenience").
func (s *Solver) SolveDiscrete() discretefg.DiscreteValues {
	s.currentDiscrete = s.discrete.Optimize()
	return s.currentDiscrete
}

// CalculateEstimate returns the current joint estimate.
func (s *Solver) CalculateEstimate() DCValues {
	return DCValues{
		Continuous: s.engine.CalculateEstimate(),
		Discrete:   s.discrete.Optimize(),
	}
}

// AccumulatedDiscreteGraph returns the controller's accumulated discrete
// graph, for callers that need direct access (spec §6 "accessors for the
// accumulated discrete graph").
func (s *Solver) AccumulatedDiscreteGraph() *discretefg.Graph { return s.discrete }

// ContinuousFactorsUnsafe returns the current nonlinear graph's live
// factors (spec §6 "accessors for... the current nonlinear graph").
func (s *Solver) ContinuousFactorsUnsafe() []nlls.Factor { return s.engine.FactorsUnsafe() }

// Marginals computes continuous and discrete marginals for a supplied
// graph/estimate (spec §6's "marginals helper"). The continuous side is
// passed through as-is since the core makes no joint-marginal claim; the
// discrete side is discreteGraph's per-variable marginals under
// orderingType.
func Marginals(discreteGraph *discretefg.Graph, cont manifold.Values, orderingType discretefg.OrderingType) DCMarginals {
	return DCMarginals{
		Continuous: cont,
		Discrete:   discreteGraph.MarginalsOrdered(orderingType),
	}
}
