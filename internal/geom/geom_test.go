package geom

import (
	"math"
	"testing"
)

func TestNormalizeZeroVectorReturnsZero(t *testing.T) {
	v := Point2D{}.Normalize()
	if v.X != 0 || v.Y != 0 {
		t.Fatalf("expected zero vector, got (%v, %v)", v.X, v.Y)
	}
}

func TestSegmentDistanceReturnsOutwardNormal(t *testing.T) {
	cases := []struct {
		name       string
		p, a, b    Point2D
		wantDist   float64
		wantNormal Point2D
	}{
		{
			name:       "above horizontal segment",
			p:          Point2D{X: 1, Y: 2},
			a:          Point2D{X: 0, Y: 0},
			b:          Point2D{X: 2, Y: 0},
			wantDist:   2,
			wantNormal: Point2D{X: 0, Y: 1},
		},
		{
			name:       "below horizontal segment",
			p:          Point2D{X: 1, Y: -3},
			a:          Point2D{X: 0, Y: 0},
			b:          Point2D{X: 2, Y: 0},
			wantDist:   3,
			wantNormal: Point2D{X: 0, Y: -1},
		},
		{
			name:       "beyond endpoint clamps to vertex",
			p:          Point2D{X: 5, Y: 0},
			a:          Point2D{X: 0, Y: 0},
			b:          Point2D{X: 2, Y: 0},
			wantDist:   3,
			wantNormal: Point2D{X: 0, Y: 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dist, normal := SegmentDistance(tc.p, tc.a, tc.b)
			if math.Abs(dist-tc.wantDist) > 1e-9 {
				t.Fatalf("expected distance %v, got %v", tc.wantDist, dist)
			}
			if tc.name == "beyond endpoint clamps to vertex" {
				// Normal direction is toward p; only the push direction matters.
				if normal.Dot(tc.p.Sub(tc.b)) <= 0 {
					t.Fatalf("expected normal pointing toward query point, got (%v, %v)", normal.X, normal.Y)
				}
				return
			}
			if math.Abs(normal.X-tc.wantNormal.X) > 1e-9 || math.Abs(normal.Y-tc.wantNormal.Y) > 1e-9 {
				t.Fatalf("expected normal (%v, %v), got (%v, %v)", tc.wantNormal.X, tc.wantNormal.Y, normal.X, normal.Y)
			}
		})
	}
}

func TestSegmentDistanceDegenerateSegment(t *testing.T) {
	dist, normal := SegmentDistance(Point2D{X: 3, Y: 4}, Point2D{}, Point2D{})
	if math.Abs(dist-5) > 1e-9 {
		t.Fatalf("expected distance 5, got %v", dist)
	}
	if math.Abs(normal.Length()-1) > 1e-9 {
		t.Fatalf("expected unit normal, got length %v", normal.Length())
	}

	_, fallback := SegmentDistance(Point2D{}, Point2D{}, Point2D{})
	if fallback.Length() == 0 {
		t.Fatal("expected a default normal for a fully degenerate query")
	}
}

func TestSegmentsIntersect(t *testing.T) {
	a, b := Point2D{X: 0, Y: 0}, Point2D{X: 4, Y: 4}
	c, d := Point2D{X: 0, Y: 4}, Point2D{X: 4, Y: 0}
	if !SegmentsIntersect(a, b, c, d) {
		t.Fatal("expected crossing diagonals to intersect")
	}
	if SegmentsIntersect(a, b, Point2D{X: 5, Y: 0}, Point2D{X: 6, Y: 0}) {
		t.Fatal("expected disjoint segments not to intersect")
	}
	// Shared endpoint counts as touching.
	if !SegmentsIntersect(a, b, b, Point2D{X: 8, Y: 0}) {
		t.Fatal("expected segments sharing an endpoint to intersect")
	}
}

func TestPolygonContains(t *testing.T) {
	square := Polygon{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	if !square.Contains(Point2D{X: 2, Y: 2}) {
		t.Fatal("expected interior point inside")
	}
	if square.Contains(Point2D{X: 5, Y: 2}) {
		t.Fatal("expected exterior point outside")
	}

	lshape := Polygon{{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4}}
	if !lshape.Contains(Point2D{X: 1, Y: 3}) {
		t.Fatal("expected point in the L arm inside")
	}
	if lshape.Contains(Point2D{X: 3, Y: 3}) {
		t.Fatal("expected point in the notch outside")
	}

	if (Polygon{}).Contains(Point2D{}) {
		t.Fatal("expected empty polygon to contain nothing")
	}
}

func TestPolygonCentroidAndBounds(t *testing.T) {
	square := Polygon{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	c := square.Centroid()
	if math.Abs(c.X-2) > 1e-9 || math.Abs(c.Y-2) > 1e-9 {
		t.Fatalf("expected centroid (2,2), got (%v, %v)", c.X, c.Y)
	}
	lo, hi := square.Bounds()
	if lo.X != 0 || lo.Y != 0 || hi.X != 4 || hi.Y != 4 {
		t.Fatalf("unexpected bounds (%v, %v)-(%v, %v)", lo.X, lo.Y, hi.X, hi.Y)
	}
}

func TestSegmentCircleIntersects(t *testing.T) {
	a, b := Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0}
	if !SegmentCircleIntersects(a, b, Point2D{X: 5, Y: 0.4}, 0.5) {
		t.Fatal("expected grazing segment to intersect circle")
	}
	if SegmentCircleIntersects(a, b, Point2D{X: 5, Y: 2}, 0.5) {
		t.Fatal("expected distant segment not to intersect circle")
	}
}
