package hybrid

import (
	"math"

	"github.com/MarineRoboticsGroup/dcsam/dckey"
	"github.com/MarineRoboticsGroup/dcsam/discretefg"
	"github.com/MarineRoboticsGroup/dcsam/manifold"
)

// expSafe is math.Exp, named to flag that callers (ToDiscreteTable
// implementations) already work in log-space and only exponentiate at the
// very end.
func expSafe(x float64) float64 { return math.Exp(x) }

func sqrtFloat(x float64) float64 { return math.Sqrt(x) }

// activeFactorKeys returns f's own discrete keys, named per the original
// source's getAssociationKeys helper (original_source's max/sum mixture
// headers).
func activeFactorKeys(f Factor) []dckey.DiscreteKey {
	return f.DiscreteKeys()
}

// unionDiscreteKeys returns the ordered union (first-occurrence order) of
// every component's discrete keys.
func unionDiscreteKeys(components []Factor) []dckey.DiscreteKey {
	var out []dckey.DiscreteKey
	seen := map[dckey.DiscreteKey]struct{}{}
	for _, c := range components {
		for _, k := range c.DiscreteKeys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}

// unionContinuousKeys returns the ordered union (first-occurrence order) of
// every component's continuous keys.
func unionContinuousKeys(components []Factor) []dckey.ContinuousKey {
	var out []dckey.ContinuousKey
	seen := map[dckey.ContinuousKey]struct{}{}
	for _, c := range components {
		for _, k := range c.ContinuousKeys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}

// unassignedKeysUniformTable builds a uniform (all-ones) table over every
// key in all that is not in used, so multiplying it into a component's own
// decision table extends that table's support to the full key union without
// altering relative probabilities (original source's
// uniformDecisionTreeFactor helper, spec §4.1.b).
func unassignedKeysUniformTable(all, used []dckey.DiscreteKey) discretefg.Table {
	usedSet := map[dckey.DiscreteKey]struct{}{}
	for _, k := range used {
		usedSet[k] = struct{}{}
	}
	var remaining []dckey.DiscreteKey
	for _, k := range all {
		if _, ok := usedSet[k]; !ok {
			remaining = append(remaining, k)
		}
	}
	if len(remaining) == 0 {
		return discretefg.Table{}
	}
	return discretefg.NewUniformTable(remaining, 1.0)
}

// weightedProductTable implements the EM-mixture (and, by the same softmax
// construction, sum-mixture) to_discrete_table rule: for each component
// carrying exactly one discrete key, weight its own decision table by the
// component's responsibility weight w[i], renormalize, and multiply the
// results across components (spec §4.1.d).
func weightedProductTable[F Factor](components []F, w []float64, c manifold.Values, d discretefg.DiscreteValues) discretefg.Table {
	product := discretefg.Table{}
	for i, comp := range components {
		keys := comp.DiscreteKeys()
		if len(keys) != 1 {
			continue
		}
		t := comp.ToDiscreteTable(c, d)
		scaled := make([]float64, len(t.Values))
		for j, v := range t.Values {
			scaled[j] = v * w[i]
		}
		weighted := discretefg.Table{Keys: t.Keys, Values: scaled}.Normalize()
		product = product.Times(weighted)
	}
	return product
}

// baseMixtureEquals compares the configuration shared by all mixture
// families: continuous keys, discrete keys, log-weights (within tol), and
// the normalized flag. Per Open Question 1, normalized is always compared
// (the source's discrete-conditional mixture skipped it; this
// implementation unifies on always comparing it).
func baseMixtureEquals(
	aCont, bCont []dckey.ContinuousKey,
	aDisc, bDisc []dckey.DiscreteKey,
	aLogWeights, bLogWeights []float64,
	aNormalized, bNormalized bool,
	tol float64,
) bool {
	if aNormalized != bNormalized {
		return false
	}
	if len(aCont) != len(bCont) || len(aDisc) != len(bDisc) || len(aLogWeights) != len(bLogWeights) {
		return false
	}
	for i := range aCont {
		if aCont[i] != bCont[i] {
			return false
		}
	}
	for i := range aDisc {
		if aDisc[i] != bDisc[i] {
			return false
		}
	}
	for i := range aLogWeights {
		diff := aLogWeights[i] - bLogWeights[i]
		if diff < -tol || diff > tol {
			return false
		}
	}
	return true
}
