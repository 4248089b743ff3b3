package dcmath

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestLogSumExpShiftInvariance(t *testing.T) {
	v := []float64{1, 2, 3}
	base := LogSumExp(v)
	for _, c := range []float64{-5, 0, 5, 100} {
		shifted := make([]float64, len(v))
		for i := range v {
			shifted[i] = v[i] + c
		}
		test.That(t, LogSumExp(shifted), test.ShouldAlmostEqual, c+base)
	}
}

func TestLogSumExpEmpty(t *testing.T) {
	test.That(t, math.IsInf(LogSumExp(nil), -1), test.ShouldBeTrue)
}

func TestExpNormalizeSumsToOne(t *testing.T) {
	v := []float64{0.1, 5.3, -2.0, 10}
	w := ExpNormalize(v)
	sum := 0.0
	for _, x := range w {
		sum += x
	}
	test.That(t, sum, test.ShouldAlmostEqual, 1.0)
}

func TestExpNormalizeShiftInvariance(t *testing.T) {
	v := []float64{0.1, 5.3, -2.0, 10}
	w1 := ExpNormalize(v)
	shifted := make([]float64, len(v))
	for i := range v {
		shifted[i] = v[i] + 37.0
	}
	w2 := ExpNormalize(shifted)
	for i := range w1 {
		test.That(t, w2[i], test.ShouldAlmostEqual, w1[i])
	}
}

func TestGaussianLogNormalizingConstant(t *testing.T) {
	cov := IsotropicCovariance(1, 1.0)
	// For sigma=1, dim=1: 0.5*(log(2pi) + log(1)) = 0.5*log(2pi)
	got := GaussianLogNormalizingConstant(1, cov)
	test.That(t, got, test.ShouldAlmostEqual, 0.5*math.Log(2*math.Pi))
}
