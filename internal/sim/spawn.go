package sim

import (
	"math"
	"math/rand"

	"evacsim/server/internal/geom"
)

// findFarthestCorner picks the polygon vertex maximizing its minimum distance
// to any route point: the worst-case occupant position (max-min egress
// heuristic). Falls back to the centroid for degenerate input.
func findFarthestCorner(boundary geom.Polygon, routePoints []geom.Point2D) geom.Point2D {
	if len(boundary) == 0 {
		return geom.Point2D{}
	}
	if len(routePoints) == 0 {
		return boundary[0]
	}
	best := boundary[0]
	bestScore := -1.0
	for _, vertex := range boundary {
		nearest := math.Inf(1)
		for _, pt := range routePoints {
			if d := geom.Dist(vertex, pt); d < nearest {
				nearest = d
			}
		}
		if nearest > bestScore {
			bestScore = nearest
			best = vertex
		}
	}
	return best
}

// spawnPositions places count occupants in the room. The first sits at the
// worst-case corner nudged toward the centroid so it does not start on a
// wall; the rest are rejection-sampled interior points with a minimum mutual
// separation. The attempt budget bounds the sampling, so crowded or thin
// rooms may yield fewer positions than requested.
func spawnPositions(rng *rand.Rand, boundary geom.Polygon, corner geom.Point2D, count int) []geom.Point2D {
	if count <= 0 || len(boundary) < 3 {
		return nil
	}

	positions := make([]geom.Point2D, 0, count)

	first := corner.Add(boundary.Centroid().Sub(corner).Normalize().Scale(cornerCentroidOffset))
	if !boundary.Contains(first) {
		first = corner
	}
	positions = append(positions, first)

	remaining := count - 1
	if remaining == 0 {
		return positions
	}

	lo, hi := boundary.Bounds()
	attempts := 0
	maxAttempts := remaining * spawnAttemptFactor
	for len(positions) < count && attempts < maxAttempts {
		attempts++
		candidate := geom.Point2D{
			X: lo.X + rng.Float64()*(hi.X-lo.X),
			Y: lo.Y + rng.Float64()*(hi.Y-lo.Y),
		}
		if !boundary.Contains(candidate) {
			continue
		}
		tooClose := false
		for _, placed := range positions {
			if geom.Dist(candidate, placed) < spawnMinSeparation {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		positions = append(positions, candidate)
	}
	return positions
}
