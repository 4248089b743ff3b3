package manifold

import "math"

// Pose2 is a 2D rigid-body pose (x, y, theta), the manifold SE(2). Retract
// composes a local tangent twist (dx, dy, dtheta) expressed in the pose's
// own frame, following the same "compose a local perturbation" idiom used by
// go.viam.com/rdk/spatialmath's Pose arithmetic.
type Pose2 struct {
	X, Y, Theta float64
}

// Dim implements Value: SE(2) has tangent dimension 3.
func (p Pose2) Dim() int { return 3 }

// Retract implements Value by composing p with the pose whose components are
// delta, expressed in p's local frame: newPose = p * Pose2{dx, dy, dtheta}.
// It does not apply the SE(2) exponential map.
func (p Pose2) Retract(delta []float64) Value {
	dx, dy, dtheta := delta[0], delta[1], delta[2]
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose2{
		X:     p.X + c*dx - s*dy,
		Y:     p.Y + s*dx + c*dy,
		Theta: wrapAngle(p.Theta + dtheta),
	}
}

// LocalCoordinates implements Value: returns the tangent vector delta such
// that p.Retract(delta) == other, i.e. the (x, y, theta) components of
// p^-1 * other (not the SE(2) logarithm).
func (p Pose2) LocalCoordinates(other Value) []float64 {
	o := other.(Pose2)
	dx := o.X - p.X
	dy := o.Y - p.Y
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	localX := c*dx + s*dy
	localY := -s*dx + c*dy
	dtheta := wrapAngle(o.Theta - p.Theta)
	return []float64{localX, localY, dtheta}
}

// Compose returns p * other (standard SE(2) group composition), used by
// Between-style factors to predict a relative measurement.
func (p Pose2) Compose(other Pose2) Pose2 {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose2{
		X:     p.X + c*other.X - s*other.Y,
		Y:     p.Y + s*other.X + c*other.Y,
		Theta: wrapAngle(p.Theta + other.Theta),
	}
}

// Inverse returns the SE(2) inverse of p.
func (p Pose2) Inverse() Pose2 {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose2{
		X:     -c*p.X - s*p.Y,
		Y:     s*p.X - c*p.Y,
		Theta: -p.Theta,
	}
}

// Between returns p.Inverse().Compose(other), the relative pose from p to
// other, expressed in p's frame.
func (p Pose2) Between(other Pose2) Pose2 {
	return p.Inverse().Compose(other)
}

func wrapAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta < -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
