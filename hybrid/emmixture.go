package hybrid

import (
	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/dcmath"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
	"github.com/MarineRoboticsGroup/dcsam/nlls"
	"gonum.org/v1/gonum/mat"
)

// EMMixtureFactor implements the EM-mixture family (spec §4.1.d): the same
// softmax responsibility weights as SumMixtureFactor, but Linearize stacks
// every component's Jacobian scaled by sqrt(responsibility) — an IRLS step
// for the expected-complete-data log-likelihood — rather than picking one
// dominant component.
type EMMixtureFactor[F Factor] struct {
	components     []F
	logWeights     []float64
	normalized     bool
	continuousKeys []dckey.ContinuousKey
	discreteKeys   []dckey.DiscreteKey
}

// NewEMMixtureFactor constructs an EM-mixture.
func NewEMMixtureFactor[F Factor](components []F, weights []float64, normalized bool) *EMMixtureFactor[F] {
	logWeights := weightsToLog(weights, len(components))
	factors := make([]Factor, len(components))
	for i, c := range components {
		factors[i] = c
	}
	return &EMMixtureFactor[F]{
		components:     components,
		logWeights:     logWeights,
		normalized:     normalized,
		continuousKeys: unionContinuousKeys(factors),
		discreteKeys:   unionDiscreteKeys(factors),
	}
}

// UpdateWeights replaces the mixture's weights.
func (m *EMMixtureFactor[F]) UpdateWeights(weights []float64) {
	if len(weights) != len(m.components) {
		panic("hybrid: UpdateWeights length mismatch")
	}
	m.logWeights = weightsToLog(weights, len(weights))
}

// ContinuousKeys implements Factor.
func (m *EMMixtureFactor[F]) ContinuousKeys() []dckey.ContinuousKey { return m.continuousKeys }

// DiscreteKeys implements Factor.
func (m *EMMixtureFactor[F]) DiscreteKeys() []dckey.DiscreteKey { return m.discreteKeys }

func (m *EMMixtureFactor[F]) logProbs(c manifold.Values, d discretefg.DiscreteValues) []float64 {
	l := make([]float64, len(m.components))
	for i, f := range m.components {
		v := -f.Error(c, d) + m.logWeights[i]
		if !m.normalized {
			v -= f.LogNormalizingConstant(c)
		}
		l[i] = v
	}
	return l
}

// Error implements Factor: the expected error under the responsibility
// weights, identical in form to SumMixtureFactor.Error.
func (m *EMMixtureFactor[F]) Error(c manifold.Values, d discretefg.DiscreteValues) float64 {
	l := m.logProbs(c, d)
	w := dcmath.ExpNormalize(l)
	total := 0.0
	for i := range l {
		total += w[i] * -l[i]
	}
	return total
}

// Linearize implements Factor by stacking every component's Jacobian and
// residual, each block scaled by sqrt(w_i), into one tall Gaussian factor
// over the union of all components' continuous keys.
func (m *EMMixtureFactor[F]) Linearize(c manifold.Values, d discretefg.DiscreteValues) (*nlls.GaussianFactor, error) {
	l := m.logProbs(c, d)
	w := dcmath.ExpNormalize(l)

	keys := m.continuousKeys
	colOffsets := make(map[dckey.ContinuousKey]int, len(keys))
	totalCols := 0
	for _, k := range keys {
		colOffsets[k] = totalCols
		totalCols += c[k].Dim()
	}

	type block struct {
		lin    *nlls.GaussianFactor
		sqrtW  float64
		colOff []int
	}
	blocks := make([]block, 0, len(m.components))
	totalRows := 0
	for i, f := range m.components {
		lin, err := f.Linearize(c, d)
		if err != nil {
			return nil, err
		}
		offs := make([]int, len(lin.Keys))
		for j, k := range lin.Keys {
			offs[j] = colOffsets[k]
		}
		blocks = append(blocks, block{lin: lin, sqrtW: sqrtNonNeg(w[i]), colOff: offs})
		rows, _ := lin.A.Dims()
		totalRows += rows
	}

	a := mat.NewDense(totalRows, totalCols, nil)
	b := mat.NewVecDense(totalRows, nil)
	rowCursor := 0
	for _, blk := range blocks {
		rows, _ := blk.lin.A.Dims()
		for r := 0; r < rows; r++ {
			b.SetVec(rowCursor+r, blk.sqrtW*blk.lin.B.AtVec(r))
			col := 0
			for bi, k := range blk.lin.Keys {
				dim := c[k].Dim()
				for lcol := 0; lcol < dim; lcol++ {
					a.Set(rowCursor+r, blk.colOff[bi]+lcol, blk.sqrtW*blk.lin.A.At(r, col))
					col++
				}
			}
		}
		rowCursor += rows
	}

	return &nlls.GaussianFactor{Keys: keys, A: a, B: b}, nil
}

// ToDiscreteTable implements Factor per spec §4.1.d: weight each
// single-discrete-key component's own table by its responsibility weight,
// renormalize, and combine across components.
func (m *EMMixtureFactor[F]) ToDiscreteTable(c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	l := m.logProbs(c, d)
	w := dcmath.ExpNormalize(l)
	return weightedProductTable(m.components, w, c, d)
}

// Dim implements Factor: the sum of every component's dimension, since
// Linearize stacks all of them (spec §9 Open Question 2).
func (m *EMMixtureFactor[F]) Dim() int {
	total := 0
	for _, f := range m.components {
		total += f.Dim()
	}
	return total
}

// LogNormalizingConstant implements Factor.
func (m *EMMixtureFactor[F]) LogNormalizingConstant(c manifold.Values) float64 { return 0 }

// Equals implements Factor.
func (m *EMMixtureFactor[F]) Equals(other Factor, tol float64) bool {
	o, ok := other.(*EMMixtureFactor[F])
	if !ok {
		return false
	}
	if !baseMixtureEquals(m.continuousKeys, o.continuousKeys, m.discreteKeys, o.discreteKeys, m.logWeights, o.logWeights, m.normalized, o.normalized, tol) {
		return false
	}
	if len(m.components) != len(o.components) {
		return false
	}
	for i := range m.components {
		if !m.components[i].Equals(o.components[i], tol) {
			return false
		}
	}
	return true
}

func sqrtNonNeg(x float64) float64 {
	if x < 0 {
		return 0
	}
	return sqrtFloat(x)
}
