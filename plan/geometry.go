package plan

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// DotDriftTolerance is the largest correction the dot-product clamp may make
// before a diagnostic is logged.
const DotDriftTolerance = 1e-6

// EarthCenter is the origin of the Earth-centered frame.
var EarthCenter = Point3{}

// Point3 is an Earth-centered position in kilometres.
type Point3 struct {
	X, Y, Z float64
}

// Vec returns p as a gonum vector.
func (p Point3) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

func (p Point3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// AngleDegrees returns the angle formed between a, the vertex, and b in
// degrees. The result is always in [0, 180].
//
// A vertex that coincides with a or b has no defined angle and yields
// ErrDegenerateGeometry, as does a separation too large to represent.
func AngleDegrees(vertex, a, b Point3) (float64, error) {
	return angleDegrees(vertex, a, b, logDrift)
}

// driftFunc receives a dot product that had to be bounded by more than
// DotDriftTolerance.
type driftFunc func(dot, bounded float64)

func logDrift(dot, bounded float64) {
	logrus.Warnf("dot product %v bounded to %v", dot, bounded)
}

func angleDegrees(vertex, a, b Point3, onDrift driftFunc) (float64, error) {
	ua, err := direction(vertex, a)
	if err != nil {
		return 0, err
	}
	ub, err := direction(vertex, b)
	if err != nil {
		return 0, err
	}
	return math.Acos(clampCosine(r3.Dot(ua, ub), onDrift)) * 180.0 / math.Pi, nil
}

// direction returns the unit vector from -> to. The difference is divided by
// its largest component first so that neither tiny nor huge coordinates
// underflow or overflow the norm.
func direction(from, to Point3) (r3.Vec, error) {
	d := r3.Sub(to.Vec(), from.Vec())
	m := math.Max(math.Abs(d.X), math.Max(math.Abs(d.Y), math.Abs(d.Z)))
	switch {
	case math.IsInf(m, 0) || math.IsNaN(m):
		return r3.Vec{}, fmt.Errorf("%w: separation of %v and %v overflows", ErrDegenerateGeometry, from, to)
	case m == 0:
		return r3.Vec{}, fmt.Errorf("%w: vertex %v coincides with %v", ErrDegenerateGeometry, from, to)
	}
	return r3.Unit(r3.Vec{X: d.X / m, Y: d.Y / m, Z: d.Z / m}), nil
}

// ElevationDegrees returns the elevation of sat above the local horizon of
// user: 90° is directly overhead, 0° is on the geometric horizon.
func ElevationDegrees(user, sat Point3) (float64, error) {
	angle, err := AngleDegrees(user, EarthCenter, sat)
	if err != nil {
		return 0, err
	}
	return angle - 90.0, nil
}

// clampCosine bounds dot to [-1, 1] so it is a valid acos argument. Rounding
// error is expected; anything larger than DotDriftTolerance is passed to
// onDrift.
func clampCosine(dot float64, onDrift driftFunc) float64 {
	bounded := math.Min(1.0, math.Max(-1.0, dot))
	if math.Abs(bounded-dot) > DotDriftTolerance {
		onDrift(dot, bounded)
	}
	return bounded
}
