package nlls

import (
	"sort"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/logging"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// UpdateParams carries the incremental-update hints for one Engine.Update
// call: which existing factor indices were touched by newly affected
// variables (so their cached linearization must be refreshed) and which
// existing factor indices should be dropped entirely.
type UpdateParams struct {
	NewAffectedKeys     map[int]map[dckey.ContinuousKey]struct{}
	RemoveFactorIndices []int
}

// Engine is the continuous nonlinear least-squares backend the alternation
// controller drives. It owns the growing factor list and the current
// estimate, and exposes just enough surface for dcsam.Solver to treat it as
// a pluggable collaborator (spec §6 "to the external nonlinear optimizer").
type Engine interface {
	Update(newFactors []Factor, newValues manifold.Values, params UpdateParams) error
	CalculateEstimate() manifold.Values
	FactorsUnsafe() []Factor
}

// GaussNewtonEngine is a from-scratch incremental least-squares engine: it
// keeps the full factor list (honoring removed indices as nil slots, same
// convention as discretefg.Graph) and re-solves the normal equations each
// Update via damped Gauss-Newton, reusing cached Jacobians for factors
// UpdateParams.NewAffectedKeys does not mention. This stands in for an
// iSAM-style incremental solver without a full Bayes-tree implementation,
// which is out of core scope.
type GaussNewtonEngine struct {
	logger logging.Logger

	factors []Factor
	cache   map[int]*GaussianFactor
	values  manifold.Values

	maxIterations int
	initialLambda float64
	tolerance     float64
}

// NewGaussNewtonEngine constructs an engine with the given damping ladder
// parameters. A maxIterations of 0 defaults to 25, matching the teacher's
// IK solvers' "zero means default" convention (motionplan/ik.CreateNloptIKSolver).
func NewGaussNewtonEngine(logger logging.Logger, maxIterations int, initialLambda float64) *GaussNewtonEngine {
	if maxIterations < 1 {
		maxIterations = 25
	}
	if initialLambda <= 0 {
		initialLambda = 1e-3
	}
	return &GaussNewtonEngine{
		logger:        logger,
		cache:         map[int]*GaussianFactor{},
		values:        manifold.NewValues(),
		maxIterations: maxIterations,
		initialLambda: initialLambda,
		tolerance:     1e-10,
	}
}

// Update applies factor additions/removals, merges newValues into the
// current estimate, relinearizes affected factors, and resolves the normal
// equations via damped Gauss-Newton.
func (e *GaussNewtonEngine) Update(newFactors []Factor, newValues manifold.Values, params UpdateParams) error {
	for _, idx := range params.RemoveFactorIndices {
		if idx >= 0 && idx < len(e.factors) {
			e.factors[idx] = nil
			delete(e.cache, idx)
		}
	}
	for _, f := range newFactors {
		e.factors = append(e.factors, f)
	}
	e.values.Merge(newValues)

	for idx := range params.NewAffectedKeys {
		delete(e.cache, idx)
	}

	var errs error
	for idx, f := range e.factors {
		if f == nil {
			continue
		}
		if _, ok := e.cache[idx]; ok {
			continue
		}
		lin, err := f.Linearize(e.values)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "linearizing factor %d", idx))
			continue
		}
		e.cache[idx] = lin
	}
	if errs != nil {
		e.logger.Errorw("one or more factors failed to linearize", "err", errs)
	}

	if err := e.solve(); err != nil {
		return errors.Wrap(err, "gauss-newton solve")
	}
	return nil
}

// CalculateEstimate returns the current continuous estimate.
func (e *GaussNewtonEngine) CalculateEstimate() manifold.Values {
	return e.values.Clone()
}

// FactorsUnsafe returns the live (non-nil) factors in insertion order. The
// name and contract mirror gtsam's *Unsafe accessors: callers must not
// mutate the returned factors.
func (e *GaussNewtonEngine) FactorsUnsafe() []Factor {
	out := make([]Factor, 0, len(e.factors))
	for _, f := range e.factors {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (e *GaussNewtonEngine) ordering() []dckey.ContinuousKey {
	keys := make([]dckey.ContinuousKey, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// solve runs damped Gauss-Newton to convergence or e.maxIterations,
// retracting e.values in place along each accepted step.
func (e *GaussNewtonEngine) solve() error {
	if len(e.values) == 0 {
		return nil
	}
	order := e.ordering()
	offsets := make(map[dckey.ContinuousKey]int, len(order))
	total := 0
	for _, k := range order {
		offsets[k] = total
		total += e.values[k].Dim()
	}
	if total == 0 {
		return nil
	}

	lambda := e.initialLambda
	prevErr := e.totalError()
	for iter := 0; iter < e.maxIterations; iter++ {
		jtj, jtr := e.buildNormalEquations(offsets, total)

		damped := mat.NewSymDense(total, nil)
		for i := 0; i < total; i++ {
			for j := i; j < total; j++ {
				v := jtj.At(i, j)
				if i == j {
					v += lambda * jtj.At(i, j)
				}
				damped.SetSym(i, j, v)
			}
		}

		var chol mat.Cholesky
		ok := chol.Factorize(damped)
		if !ok {
			lambda *= 10
			continue
		}

		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, jtr); err != nil {
			lambda *= 10
			continue
		}

		trial := e.retract(order, offsets, &delta)
		trialErr := e.totalErrorAt(trial)
		if trialErr <= prevErr {
			e.values = trial
			// Relinearize at the accepted estimate so the next step (and the
			// next Update's cached Jacobians) start from the current point.
			for idx, f := range e.factors {
				if f == nil {
					continue
				}
				lin, err := f.Linearize(e.values)
				if err != nil {
					delete(e.cache, idx)
					continue
				}
				e.cache[idx] = lin
			}
			if prevErr-trialErr < e.tolerance {
				return nil
			}
			prevErr = trialErr
			lambda = maxFloat(lambda/10, 1e-12)
		} else {
			lambda *= 10
			if lambda > 1e12 {
				return errors.New("gauss-newton: damping diverged without improving the objective")
			}
		}
	}
	return nil
}

func (e *GaussNewtonEngine) buildNormalEquations(offsets map[dckey.ContinuousKey]int, total int) (*mat.SymDense, *mat.VecDense) {
	jtj := mat.NewSymDense(total, nil)
	jtr := mat.NewVecDense(total, nil)

	for idx, f := range e.factors {
		if f == nil {
			continue
		}
		lin, ok := e.cache[idx]
		if !ok {
			continue
		}
		blockOffsets := make([]int, len(lin.Keys))
		for i, k := range lin.Keys {
			blockOffsets[i] = offsets[k]
		}

		rows, _ := lin.A.Dims()
		for bi, ki := range lin.Keys {
			dimI := e.values[ki].Dim()
			for li := 0; li < dimI; li++ {
				gi := blockOffsets[bi] + li
				sum := 0.0
				for r := 0; r < rows; r++ {
					sum += lin.A.At(r, colOf(lin.Keys, e.values, bi, li)) * lin.B.AtVec(r)
				}
				jtr.SetVec(gi, jtr.AtVec(gi)+sum)

				for bj, kj := range lin.Keys {
					dimJ := e.values[kj].Dim()
					for lj := 0; lj < dimJ; lj++ {
						gj := blockOffsets[bj] + lj
						if gj < gi {
							continue
						}
						s := 0.0
						for r := 0; r < rows; r++ {
							s += lin.A.At(r, colOf(lin.Keys, e.values, bi, li)) * lin.A.At(r, colOf(lin.Keys, e.values, bj, lj))
						}
						jtj.SetSym(gi, gj, jtj.At(gi, gj)+s)
					}
				}
			}
		}
	}
	return jtj, jtr
}

// colOf returns the column of GaussianFactor.A corresponding to the li-th
// local tangent coordinate of the bi-th key in keys.
func colOf(keys []dckey.ContinuousKey, values manifold.Values, bi, li int) int {
	col := 0
	for i := 0; i < bi; i++ {
		col += values[keys[i]].Dim()
	}
	return col + li
}

func (e *GaussNewtonEngine) retract(order []dckey.ContinuousKey, offsets map[dckey.ContinuousKey]int, delta *mat.VecDense) manifold.Values {
	out := make(manifold.Values, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	for _, k := range order {
		dim := e.values[k].Dim()
		d := make([]float64, dim)
		off := offsets[k]
		for i := 0; i < dim; i++ {
			d[i] = delta.AtVec(off + i)
		}
		out[k] = e.values[k].Retract(d)
	}
	return out
}

func (e *GaussNewtonEngine) totalError() float64 {
	return e.totalErrorAt(e.values)
}

func (e *GaussNewtonEngine) totalErrorAt(values manifold.Values) float64 {
	total := 0.0
	for _, f := range e.factors {
		if f == nil {
			continue
		}
		total += f.Error(values)
	}
	return total
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
