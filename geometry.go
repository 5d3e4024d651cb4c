package pdftakeoff

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// parallelEpsilon is the determinant magnitude below which two segments are
// treated as parallel.
const parallelEpsilon = 1e-9

func (p Point2D) vec() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

func pointFromVec(v vec.Vec2) Point2D {
	return Point2D{X: v.X, Y: v.Y}
}

// cross returns the z component of the cross product a × b.
func cross(a, b vec.Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 Point2D) float64 {
	return p2.vec().Sub(p1.vec()).Length()
}

// Midpoint returns the point halfway between p1 and p2.
func Midpoint(p1, p2 Point2D) Point2D {
	return pointFromVec(p1.vec().Add(p2.vec()).Mul(0.5))
}

// ShoelaceArea returns the unsigned area of the polygon described by points.
// The ring is closed implicitly from the last point back to the first.
// Callers must pass at least three points.
func ShoelaceArea(points []Point2D) float64 {
	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the summed length of consecutive segments. When closed
// is true the segment from the last point back to the first is included.
func Perimeter(points []Point2D, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	if closed {
		total += Distance(points[len(points)-1], points[0])
	}
	return total
}

// AngleBetween returns the unsigned angle in degrees at vertex formed by the
// rays vertex→p0 and vertex→p2, in [0, 180]. A zero-length ray yields 0.
func AngleBetween(p0, vertex, p2 Point2D) float64 {
	a := p0.vec().Sub(vertex.vec())
	b := p2.vec().Sub(vertex.vec())
	if a.Length() == 0 || b.Length() == 0 {
		return 0
	}
	return math.Atan2(math.Abs(cross(a, b)), a.Dot(b)) * 180 / math.Pi
}

// SegmentIntersection returns the point where segments a1-a2 and b1-b2
// cross. It reports false for parallel (or degenerate) segments and when the
// crossing lies outside either segment.
func SegmentIntersection(a1, a2, b1, b2 Point2D) (Point2D, bool) {
	r := a2.vec().Sub(a1.vec())
	s := b2.vec().Sub(b1.vec())

	det := cross(r, s)
	if math.Abs(det) < parallelEpsilon {
		return Point2D{}, false
	}

	d := b1.vec().Sub(a1.vec())
	t := cross(d, s) / det
	u := cross(d, r) / det
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point2D{}, false
	}

	return pointFromVec(a1.vec().Add(r.Mul(t))), true
}

// ClosestPointOnSegment projects p onto the segment, clamping the projection
// to the segment's endpoints.
func ClosestPointOnSegment(p, segStart, segEnd Point2D) Point2D {
	ab := segEnd.vec().Sub(segStart.vec())
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return segStart
	}
	t := clamp(p.vec().Sub(segStart.vec()).Dot(ab)/lenSq, 0, 1)
	return pointFromVec(segStart.vec().Add(ab.Mul(t)))
}
