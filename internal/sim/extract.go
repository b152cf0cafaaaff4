package sim

import (
	"math"
	"sort"

	"evacsim/server/internal/geom"
	"evacsim/server/internal/plan"
)

// WallSegment is a straight unobstructed collision boundary. Door openings
// are represented as missing sub-segments rather than a distinct entity.
type WallSegment struct {
	Start    geom.Point2D `json:"start"`
	End      geom.Point2D `json:"end"`
	StoreyID string       `json:"storeyId"`
}

// CircleObstacle approximates a column or furniture footprint for collision
// and local route planning.
type CircleObstacle struct {
	ID       string       `json:"id"`
	Position geom.Point2D `json:"position"`
	Radius   float64      `json:"radius"`
	StoreyID string       `json:"storeyId"`
}

type paramGap struct {
	lo, hi float64
}

// extractBoundaries converts the raw plan into collision geometry: wall
// segments with door gaps cut out, counters as paired wall lines, and columns
// plus furniture as circles.
func extractBoundaries(snap *plan.Snapshot) ([]WallSegment, []CircleObstacle) {
	segments := make([]WallSegment, 0, len(snap.Walls))

	doorsByWall := make(map[string][]plan.Door)
	for _, door := range snap.Doors {
		doorsByWall[door.WallID] = append(doorsByWall[door.WallID], door)
	}

	for _, wall := range snap.Walls {
		length := geom.Dist(wall.Start, wall.End)
		if length < 1e-9 {
			continue
		}
		doors := doorsByWall[wall.ID]
		if len(doors) == 0 {
			segments = append(segments, WallSegment{Start: wall.Start, End: wall.End, StoreyID: wall.StoreyID})
			continue
		}
		for _, solid := range solidIntervals(doors, length) {
			segments = append(segments, WallSegment{
				Start:    geom.Lerp(wall.Start, wall.End, solid.lo),
				End:      geom.Lerp(wall.Start, wall.End, solid.hi),
				StoreyID: wall.StoreyID,
			})
		}
	}

	for _, counter := range snap.Counters {
		segments = append(segments, counterSegments(counter)...)
	}

	obstacles := make([]CircleObstacle, 0, len(snap.Columns)+len(snap.Furniture))
	for _, col := range snap.Columns {
		obstacles = append(obstacles, CircleObstacle{
			ID:       col.ID,
			Position: col.Position,
			Radius:   math.Max(col.Width, col.Depth)/2 + columnMargin,
			StoreyID: col.StoreyID,
		})
	}
	for _, item := range snap.Furniture {
		obstacles = append(obstacles, CircleObstacle{
			ID:       item.ID,
			Position: item.Position,
			Radius:   math.Hypot(item.Width, item.Depth)/2 + furnitureMargin,
			StoreyID: item.StoreyID,
		})
	}

	return segments, obstacles
}

// solidIntervals subtracts the door gaps (with clearance margin, merged when
// overlapping) from the wall's parametric [0,1] range.
func solidIntervals(doors []plan.Door, wallLength float64) []paramGap {
	gaps := make([]paramGap, 0, len(doors))
	for _, door := range doors {
		half := (door.Width/2 + doorGapMargin) / wallLength
		gap := paramGap{lo: door.Position - half, hi: door.Position + half}
		if gap.lo < 0 {
			gap.lo = 0
		}
		if gap.hi > 1 {
			gap.hi = 1
		}
		if gap.hi <= gap.lo {
			continue
		}
		gaps = append(gaps, gap)
	}
	if len(gaps) == 0 {
		return []paramGap{{lo: 0, hi: 1}}
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i].lo < gaps[j].lo })
	merged := gaps[:1]
	for _, gap := range gaps[1:] {
		last := &merged[len(merged)-1]
		if gap.lo <= last.hi {
			if gap.hi > last.hi {
				last.hi = gap.hi
			}
			continue
		}
		merged = append(merged, gap)
	}

	solids := make([]paramGap, 0, len(merged)+1)
	cursor := 0.0
	for _, gap := range merged {
		if gap.lo-cursor > 1e-9 {
			solids = append(solids, paramGap{lo: cursor, hi: gap.lo})
		}
		cursor = gap.hi
	}
	if 1-cursor > 1e-9 {
		solids = append(solids, paramGap{lo: cursor, hi: 1})
	}
	return solids
}

// counterSegments approximates the counter volume as two blocking lines: the
// front path and a copy offset by the counter depth along the outward normal.
func counterSegments(counter plan.Counter) []WallSegment {
	if len(counter.Path) < 2 {
		return nil
	}
	segments := make([]WallSegment, 0, 2*(len(counter.Path)-1))
	for i := 0; i < len(counter.Path)-1; i++ {
		a, b := counter.Path[i], counter.Path[i+1]
		if geom.Dist(a, b) < 1e-9 {
			continue
		}
		dir := b.Sub(a).Normalize()
		normal := geom.Point2D{X: -dir.Y, Y: dir.X}
		offset := normal.Scale(counter.Depth)
		segments = append(segments,
			WallSegment{Start: a, End: b, StoreyID: counter.StoreyID},
			WallSegment{Start: a.Add(offset), End: b.Add(offset), StoreyID: counter.StoreyID},
		)
	}
	return segments
}
