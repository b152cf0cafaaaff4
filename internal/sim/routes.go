package sim

import (
	"container/heap"
	"context"
	"math"

	"evacsim/server/internal/geom"
	"evacsim/server/logging"
	loggingsim "evacsim/server/logging/simulation"
)

// Waypoint is one hop of a planned route. Plain polyline points carry only a
// position; door and stair hops carry the ids the agent loop needs for squeeze
// rules, teleports, and exit detection.
type Waypoint struct {
	Position geom.Point3D `json:"position"`
	DoorID   string       `json:"doorId,omitempty"`
	IsExit   bool         `json:"isExit,omitempty"`
	StairID  string       `json:"stairId,omitempty"`
	// Stair hops teleport to Target on TargetStoreyID when reached.
	Target         geom.Point3D `json:"target,omitempty"`
	TargetStoreyID string       `json:"targetStoreyId,omitempty"`
}

// EvacuationRoute is the precomputed reference path ("green line") for a
// room: worst-case spawn corner, the obstacle-avoiding polyline to the exit,
// and the hop metadata agents consume. Read-only after Start.
type EvacuationRoute struct {
	SpaceID        string         `json:"spaceId"`
	FarthestCorner geom.Point2D   `json:"farthestCorner"`
	Waypoints      []Waypoint     `json:"waypoints"`
	PathPoints     []geom.Point3D `json:"pathPoints"`
	TotalDistance  float64        `json:"totalDistance"`
	ExitDoorID     string         `json:"exitDoorId"`
}

// routeQueue orders search states by (priority, insertion order) so ties
// break identically across runs.
type routeState struct {
	roomID   string
	priority int
	seq      int
	path     []Waypoint
	index    int
}

type routeQueue []*routeState

func (pq routeQueue) Len() int { return len(pq) }

func (pq routeQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority < pq[j].priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq routeQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *routeQueue) Push(x any) {
	n := len(*pq)
	item := x.(*routeState)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *routeQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// findPathToExit searches the connectivity graph from the room to the nearest
// exit. Only door edges and descending stair edges are traversed; taking a
// stair decrements the priority so multi-storey routes leave the floor before
// wandering further on it. Unreachable rooms yield an empty path.
func (g *Graph) findPathToExit(roomID string) []Waypoint {
	start := g.Room(roomID)
	if start == nil {
		return nil
	}
	for _, door := range start.Doors {
		if door.IsExit {
			return []Waypoint{{Position: door.Position, DoorID: door.DoorID, IsExit: true}}
		}
	}

	open := &routeQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &routeState{roomID: roomID, priority: 0, seq: seq})
	visited := map[string]bool{roomID: true}

	for open.Len() > 0 {
		current := heap.Pop(open).(*routeState)
		room := g.Room(current.roomID)
		if room == nil {
			continue
		}

		for _, door := range room.Doors {
			if door.IsExit {
				return append(append([]Waypoint(nil), current.path...),
					Waypoint{Position: door.Position, DoorID: door.DoorID, IsExit: true})
			}
		}

		for _, door := range room.Doors {
			if door.IsExit || door.ConnectsTo == "" || visited[door.ConnectsTo] {
				continue
			}
			visited[door.ConnectsTo] = true
			seq++
			heap.Push(open, &routeState{
				roomID:   door.ConnectsTo,
				priority: current.priority,
				seq:      seq,
				path: append(append([]Waypoint(nil), current.path...),
					Waypoint{Position: door.Position, DoorID: door.DoorID}),
			})
		}

		for _, stair := range room.Stairs {
			if !stair.Descending || visited[stair.ConnectsToSpace] {
				continue
			}
			visited[stair.ConnectsToSpace] = true
			seq++
			heap.Push(open, &routeState{
				roomID:   stair.ConnectsToSpace,
				priority: current.priority - 1,
				seq:      seq,
				path: append(append([]Waypoint(nil), current.path...),
					Waypoint{
						Position:       stair.Position,
						StairID:        stair.StairID,
						Target:         stair.Target,
						TargetStoreyID: stair.ConnectsToStorey,
					}),
			})
		}
	}
	return nil
}

// calculateAllEvacuationRoutes plans one route per room: the graph search
// supplies the inter-room checkpoints, and the leg from the farthest corner to
// the first checkpoint is re-routed around obstacles by the local planner.
// Rooms with no path to any exit get no route and a warning.
func calculateAllEvacuationRoutes(g *Graph, walls []WallSegment, obstacles []CircleObstacle, pub logging.Publisher) map[string]*EvacuationRoute {
	routes := make(map[string]*EvacuationRoute, len(g.RoomIDs()))
	for _, roomID := range g.RoomIDs() {
		room := g.Room(roomID)
		hops := g.findPathToExit(roomID)
		if len(hops) == 0 {
			loggingsim.RoomUnreachable(context.Background(), pub, 0,
				logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
				loggingsim.RoomUnreachablePayload{StoreyID: room.StoreyID}, nil)
			continue
		}

		hopPoints := make([]geom.Point2D, 0, len(hops))
		for _, hop := range hops {
			hopPoints = append(hopPoints, hop.Position.XY())
		}
		corner := findFarthestCorner(room.Boundary, hopPoints)

		local := planLocalLeg(corner, hops[0].Position.XY(), room.StoreyID, walls, obstacles)

		waypoints := make([]Waypoint, 0, len(local)+len(hops))
		for _, pt := range local {
			waypoints = append(waypoints, Waypoint{Position: pt.At(room.Elevation)})
		}
		waypoints = append(waypoints, hops...)
		waypoints = dedupeWaypoints(waypoints)

		route := &EvacuationRoute{
			SpaceID:        roomID,
			FarthestCorner: corner,
			Waypoints:      waypoints,
			ExitDoorID:     hops[len(hops)-1].DoorID,
		}
		for i, wp := range waypoints {
			route.PathPoints = append(route.PathPoints, wp.Position)
			if i > 0 {
				route.TotalDistance += geom.Dist(waypoints[i-1].Position.XY(), wp.Position.XY())
			}
		}
		routes[roomID] = route
	}
	return routes
}

func dedupeWaypoints(waypoints []Waypoint) []Waypoint {
	out := waypoints[:0]
	for _, wp := range waypoints {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if geom.Dist(prev.Position.XY(), wp.Position.XY()) < dedupeEpsilon {
				// Keep the richer hop: metadata must survive the collapse.
				if wp.DoorID != "" || wp.StairID != "" {
					out[len(out)-1] = wp
				}
				continue
			}
		}
		out = append(out, wp)
	}
	return out
}

// visNode is one vertex of the local visibility graph.
type visNode struct {
	pos geom.Point2D
}

// planLocalLeg routes from start to goal around inflated obstacle circles.
// Nodes are the endpoints plus a ring of points just outside each inflated
// circle; an edge exists when the straight hop neither crosses a wall segment
// nor intrudes into an inflated circle. Dijkstra over that graph yields the
// polyline. When no obstacle-free path exists the direct segment is returned
// so the simulation degrades instead of halting.
func planLocalLeg(start, goal geom.Point2D, storeyID string, walls []WallSegment, obstacles []CircleObstacle) []geom.Point2D {
	circles := make([]CircleObstacle, 0)
	for _, obs := range obstacles {
		if obs.StoreyID == storeyID {
			circles = append(circles, obs)
		}
	}
	storeyWalls := make([]WallSegment, 0)
	for _, wall := range walls {
		if wall.StoreyID == storeyID {
			storeyWalls = append(storeyWalls, wall)
		}
	}

	if len(circles) == 0 || localHopFree(start, goal, storeyWalls, circles) {
		return []geom.Point2D{start, goal}
	}

	nodes := []visNode{{pos: start}, {pos: goal}}
	for _, circle := range circles {
		ring := circle.Radius + routeClearance
		for k := 0; k < ringNodesPerCircle; k++ {
			angle := 2 * math.Pi * float64(k) / ringNodesPerCircle
			pt := circle.Position.Add(geom.Point2D{
				X: math.Cos(angle) * ring * ringNodeFactor,
				Y: math.Sin(angle) * ring * ringNodeFactor,
			})
			if insideAnyInflated(pt, circles) {
				continue
			}
			nodes = append(nodes, visNode{pos: pt})
		}
	}

	const startIdx, goalIdx = 0, 1
	dist := make([]float64, len(nodes))
	prev := make([]int, len(nodes))
	done := make([]bool, len(nodes))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[startIdx] = 0

	for {
		best := -1
		for i := range nodes {
			if done[i] || math.IsInf(dist[i], 1) {
				continue
			}
			if best == -1 || dist[i] < dist[best] {
				best = i
			}
		}
		if best == -1 || best == goalIdx {
			break
		}
		done[best] = true
		for i := range nodes {
			if done[i] || i == best {
				continue
			}
			if !localHopFree(nodes[best].pos, nodes[i].pos, storeyWalls, circles) {
				continue
			}
			candidate := dist[best] + geom.Dist(nodes[best].pos, nodes[i].pos)
			if candidate < dist[i] {
				dist[i] = candidate
				prev[i] = best
			}
		}
	}

	if math.IsInf(dist[goalIdx], 1) {
		return []geom.Point2D{start, goal}
	}
	path := []geom.Point2D{}
	for at := goalIdx; at != -1; at = prev[at] {
		path = append(path, nodes[at].pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// localHopFree reports whether the straight segment avoids walls and stays
// outside every inflated obstacle circle. The endpoints shrink inward first:
// a hop that starts at a room corner or ends on a door sill touches a wall
// without crossing it.
func localHopFree(a, b geom.Point2D, walls []WallSegment, circles []CircleObstacle) bool {
	if dir := b.Sub(a); dir.Length() > 2*hopEndpointInset {
		step := dir.Normalize().Scale(hopEndpointInset)
		a = a.Add(step)
		b = b.Sub(step)
	}
	for _, wall := range walls {
		if geom.SegmentsIntersect(a, b, wall.Start, wall.End) {
			return false
		}
	}
	for _, circle := range circles {
		if geom.SegmentCircleIntersects(a, b, circle.Position, circle.Radius+routeClearance) {
			return false
		}
	}
	return true
}

func insideAnyInflated(pt geom.Point2D, circles []CircleObstacle) bool {
	for _, circle := range circles {
		if geom.Dist(pt, circle.Position) < circle.Radius+routeClearance {
			return true
		}
	}
	return false
}
