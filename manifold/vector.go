package manifold

// Vector is the trivial R^n manifold: retract is vector addition, local
// coordinates is vector subtraction. It is the manifold used for plain
// scalar/vector continuous variables (e.g. the x1 Gaussian-prior scenario
// S3, landmark positions).
type Vector []float64

// NewVector builds a Vector value from the given components.
func NewVector(components ...float64) Vector {
	v := make(Vector, len(components))
	copy(v, components)
	return v
}

// Dim implements Value.
func (v Vector) Dim() int { return len(v) }

// Retract implements Value.
func (v Vector) Retract(delta []float64) Value {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] + delta[i]
	}
	return out
}

// LocalCoordinates implements Value.
func (v Vector) LocalCoordinates(other Value) []float64 {
	o := other.(Vector)
	out := make([]float64, len(v))
	for i := range v {
		out[i] = o[i] - v[i]
	}
	return out
}
