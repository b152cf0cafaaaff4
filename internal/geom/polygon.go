package geom

// Polygon is a closed boundary defined by its vertices in order. The closing
// edge from the last vertex back to the first is implicit.
type Polygon []Point2D

// Contains reports whether pt lies inside the polygon using the even-odd
// crossing rule. Empty or degenerate polygons contain nothing.
func (p Polygon) Contains(pt Point2D) bool {
	n := len(p)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := p[i], p[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			x := vi.X + (pt.Y-vi.Y)/(vj.Y-vi.Y)*(vj.X-vi.X)
			if pt.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Centroid returns the vertex average. Rooms are small convex-ish polygons,
// so the average is close enough for spawn offsets.
func (p Polygon) Centroid() Point2D {
	if len(p) == 0 {
		return Point2D{}
	}
	sum := Point2D{}
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum.Scale(1.0 / float64(len(p)))
}

// Bounds returns the axis-aligned bounding box as (min, max).
func (p Polygon) Bounds() (Point2D, Point2D) {
	if len(p) == 0 {
		return Point2D{}, Point2D{}
	}
	lo, hi := p[0], p[0]
	for _, v := range p[1:] {
		if v.X < lo.X {
			lo.X = v.X
		}
		if v.Y < lo.Y {
			lo.Y = v.Y
		}
		if v.X > hi.X {
			hi.X = v.X
		}
		if v.Y > hi.Y {
			hi.Y = v.Y
		}
	}
	return lo, hi
}
