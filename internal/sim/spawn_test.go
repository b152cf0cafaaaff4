package sim

import (
	"testing"

	"evacsim/server/internal/geom"
)

func TestFindFarthestCornerMaxMin(t *testing.T) {
	boundary := geom.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	route := []geom.Point2D{{X: 5, Y: 0}}

	corner := findFarthestCorner(boundary, route)
	if corner.Y != 10 {
		t.Fatalf("expected a far wall corner, got %v", corner)
	}
}

func TestFindFarthestCornerDegenerate(t *testing.T) {
	if got := findFarthestCorner(nil, nil); got != (geom.Point2D{}) {
		t.Fatalf("expected zero point for empty boundary, got %v", got)
	}
	boundary := geom.Polygon{{X: 1, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 4}}
	if got := findFarthestCorner(boundary, nil); got != boundary[0] {
		t.Fatalf("expected first vertex without route points, got %v", got)
	}
}

func TestSpawnPositionsFirstOccupantNearCorner(t *testing.T) {
	boundary := geom.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	corner := geom.Point2D{X: 10, Y: 10}
	rng := newDeterministicRNG("test", "spawn")

	positions := spawnPositions(rng, boundary, corner, 5)
	if len(positions) != 5 {
		t.Fatalf("expected 5 positions in a roomy square, got %d", len(positions))
	}
	if d := geom.Dist(positions[0], corner); d > cornerCentroidOffset+1e-9 {
		t.Fatalf("first occupant is %.3f m from the corner, want at most %.3f", d, cornerCentroidOffset)
	}
	for i, pos := range positions {
		if !boundary.Contains(pos) {
			t.Fatalf("position %d (%v) is outside the room", i, pos)
		}
	}
}

func TestSpawnPositionsRespectSeparation(t *testing.T) {
	boundary := geom.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	rng := newDeterministicRNG("test", "spawn")

	positions := spawnPositions(rng, boundary, geom.Point2D{X: 0, Y: 0}, 20)
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			if d := geom.Dist(positions[i], positions[j]); d < spawnMinSeparation {
				t.Fatalf("positions %d and %d are %.3f m apart, want at least %.1f", i, j, d, spawnMinSeparation)
			}
		}
	}
}

func TestSpawnPositionsBudgetBoundsCrowdedRoom(t *testing.T) {
	// A 1x1 room cannot hold 50 occupants half a meter apart.
	boundary := geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	rng := newDeterministicRNG("test", "spawn")

	positions := spawnPositions(rng, boundary, geom.Point2D{X: 0, Y: 0}, 50)
	if len(positions) == 0 {
		t.Fatalf("expected at least the corner occupant")
	}
	if len(positions) >= 50 {
		t.Fatalf("expected the budget to cap placements, got %d", len(positions))
	}
}

func TestSpawnPositionsZeroCount(t *testing.T) {
	boundary := geom.Polygon{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if got := spawnPositions(newDeterministicRNG("test", "spawn"), boundary, geom.Point2D{}, 0); got != nil {
		t.Fatalf("expected nil for zero count, got %v", got)
	}
}
