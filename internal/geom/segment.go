package geom

import "math"

// SegmentDistance returns the distance from p to the segment ab together with
// the outward unit normal of the segment, flipped so it points from the
// segment toward p. Collision correction pushes agents along this normal.
// A zero-length segment yields the distance to a and a default normal.
func SegmentDistance(p, a, b Point2D) (float64, Point2D) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < 1e-12 {
		d := Dist(p, a)
		if d < 1e-12 {
			return 0, Point2D{X: 0, Y: 1}
		}
		return d, p.Sub(a).Normalize()
	}

	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Lerp(a, b, t)
	d := Dist(p, closest)

	normal := Point2D{X: -ab.Y, Y: ab.X}.Normalize()
	if normal.Dot(p.Sub(closest)) < 0 {
		normal = normal.Scale(-1)
	}
	if d < 1e-12 {
		// Point sits exactly on the segment; either side works.
		return 0, normal
	}
	return d, normal
}

// SegmentsIntersect reports whether the closed segments ab and cd cross.
func SegmentsIntersect(a, b, c, d Point2D) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(c, d, a) {
		return true
	}
	if d2 == 0 && onSegment(c, d, b) {
		return true
	}
	if d3 == 0 && onSegment(a, b, c) {
		return true
	}
	if d4 == 0 && onSegment(a, b, d) {
		return true
	}
	return false
}

func orient(a, b, p Point2D) float64 {
	return b.Sub(a).Cross(p.Sub(a))
}

func onSegment(a, b, p Point2D) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentCircleIntersects reports whether segment ab passes within radius of
// the circle center.
func SegmentCircleIntersects(a, b, center Point2D, radius float64) bool {
	d, _ := SegmentDistance(center, a, b)
	return d < radius
}
