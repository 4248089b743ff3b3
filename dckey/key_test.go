package dckey

import (
	"testing"

	"go.viam.com/test"
)

func TestDiscreteKeyOrdering(t *testing.T) {
	a := DiscreteKey{Var: 1, Cardinality: 2}
	b := DiscreteKey{Var: 2, Cardinality: 2}
	test.That(t, Less(a, b), test.ShouldBeTrue)
	test.That(t, Less(b, a), test.ShouldBeFalse)
	test.That(t, Less(a, a), test.ShouldBeFalse)
}

func TestContinuousKeySetUnion(t *testing.T) {
	s := NewContinuousKeySet(1, 2)
	other := NewContinuousKeySet(2, 3)
	s.Union(other)
	test.That(t, len(s), test.ShouldEqual, 3)
	for _, k := range []ContinuousKey{1, 2, 3} {
		_, ok := s[k]
		test.That(t, ok, test.ShouldBeTrue)
	}
}

func TestStringers(t *testing.T) {
	test.That(t, ContinuousKey(3).String(), test.ShouldEqual, "x3")
	test.That(t, DiscreteKey{Var: 1, Cardinality: 2}.String(), test.ShouldEqual, "d1[2]")
}
