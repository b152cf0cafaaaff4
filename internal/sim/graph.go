package sim

import (
	"context"
	"math"
	"sort"

	"evacsim/server/internal/geom"
	"evacsim/server/internal/plan"
	"evacsim/server/logging"
	loggingsim "evacsim/server/logging/simulation"
)

// DoorEdge connects a room to a neighbor through a door. Exit doors are
// terminal: ConnectsTo is empty and IsExit is set.
type DoorEdge struct {
	DoorID     string       `json:"doorId"`
	Position   geom.Point3D `json:"position"`
	ConnectsTo string       `json:"connectsTo,omitempty"`
	IsExit     bool         `json:"isExit"`
}

// StairEdge connects a room to a room on another storey. Evacuation only ever
// descends, so the ascending edge on the bottom room is never traversed by the
// planner; it exists so the graph stays symmetric and inspectable.
type StairEdge struct {
	StairID          string       `json:"stairId"`
	Position         geom.Point3D `json:"position"`
	Target           geom.Point3D `json:"target"`
	ConnectsToStorey string       `json:"connectsToStorey"`
	ConnectsToSpace  string       `json:"connectsToSpace"`
	Descending       bool         `json:"descending"`
}

// RoomNode is one graph vertex per space polygon. Built once per simulation
// start and immutable for the run.
type RoomNode struct {
	ID        string       `json:"id"`
	StoreyID  string       `json:"storeyId"`
	Elevation float64      `json:"elevation"`
	Boundary  geom.Polygon `json:"boundary"`
	Occupants int          `json:"occupants,omitempty"`
	Doors     []DoorEdge   `json:"doors"`
	Stairs    []StairEdge  `json:"stairs"`
}

// Graph holds every room node with a deterministic iteration order.
type Graph struct {
	rooms map[string]*RoomNode
	order []string
}

// Room returns the node for a space id.
func (g *Graph) Room(id string) *RoomNode {
	if g == nil {
		return nil
	}
	return g.rooms[id]
}

// RoomIDs returns the space ids in insertion order.
func (g *Graph) RoomIDs() []string {
	if g == nil {
		return nil
	}
	return g.order
}

// HasExit reports whether any room carries an exit door.
func (g *Graph) HasExit() bool {
	if g == nil {
		return false
	}
	for _, id := range g.order {
		for _, door := range g.rooms[id].Doors {
			if door.IsExit {
				return true
			}
		}
	}
	return false
}

// buildGraph derives room connectivity from the plan: doors link rooms on the
// same storey, stairs link rooms across storeys with a direction.
func buildGraph(snap *plan.Snapshot, pub logging.Publisher) *Graph {
	g := &Graph{rooms: make(map[string]*RoomNode, len(snap.Spaces))}

	for _, space := range snap.Spaces {
		elevation := space.Elevation
		if elevation == 0 {
			elevation = snap.StoreyElevation(space.StoreyID)
		}
		node := &RoomNode{
			ID:        space.ID,
			StoreyID:  space.StoreyID,
			Elevation: elevation,
			Boundary:  space.Boundary,
			Occupants: space.Occupants,
		}
		g.rooms[space.ID] = node
		g.order = append(g.order, space.ID)
	}
	sort.Strings(g.order)

	for _, door := range snap.Doors {
		g.attachDoor(snap, door, pub)
	}
	for _, stair := range snap.Stairs {
		g.attachStair(snap, stair, pub)
	}
	return g
}

func (g *Graph) attachDoor(snap *plan.Snapshot, door plan.Door, pub logging.Publisher) {
	wall, ok := snap.WallByID(door.WallID)
	if !ok {
		loggingsim.ElementIgnored(context.Background(), pub, 0,
			logging.EntityRef{ID: door.ID, Kind: logging.EntityKindDoor},
			loggingsim.ElementIgnoredPayload{Reason: "missing host wall"}, nil)
		return
	}
	if geom.Dist(wall.Start, wall.End) < 1e-9 {
		loggingsim.ElementIgnored(context.Background(), pub, 0,
			logging.EntityRef{ID: door.ID, Kind: logging.EntityKindDoor},
			loggingsim.ElementIgnoredPayload{Reason: "zero-length host wall"}, nil)
		return
	}

	pos2 := geom.Lerp(wall.Start, wall.End, door.Position)
	elevation := snap.StoreyElevation(wall.StoreyID)
	pos3 := pos2.At(elevation)

	dir := wall.End.Sub(wall.Start).Normalize()
	normal := geom.Point2D{X: -dir.Y, Y: dir.X}
	sideA := g.roomContaining(wall.StoreyID, pos2.Add(normal.Scale(exitProbeOffset)))
	sideB := g.roomContaining(wall.StoreyID, pos2.Sub(normal.Scale(exitProbeOffset)))
	if sideA == "" && sideB == "" {
		loggingsim.ElementIgnored(context.Background(), pub, 0,
			logging.EntityRef{ID: door.ID, Kind: logging.EntityKindDoor},
			loggingsim.ElementIgnoredPayload{Reason: "both side probes outside any room"}, nil)
		return
	}

	switch {
	case door.External:
		host := sideA
		if host == "" {
			host = sideB
		}
		g.rooms[host].Doors = append(g.rooms[host].Doors, DoorEdge{DoorID: door.ID, Position: pos3, IsExit: true})
	case sideA != "" && sideB != "" && sideA != sideB:
		g.rooms[sideA].Doors = append(g.rooms[sideA].Doors, DoorEdge{DoorID: door.ID, Position: pos3, ConnectsTo: sideB})
		g.rooms[sideB].Doors = append(g.rooms[sideB].Doors, DoorEdge{DoorID: door.ID, Position: pos3, ConnectsTo: sideA})
	case sideA == "":
		g.rooms[sideB].Doors = append(g.rooms[sideB].Doors, DoorEdge{DoorID: door.ID, Position: pos3, IsExit: true})
	case sideB == "":
		g.rooms[sideA].Doors = append(g.rooms[sideA].Doors, DoorEdge{DoorID: door.ID, Position: pos3, IsExit: true})
	}
	// Both probes in the same room: the door does not change connectivity.
}

func (g *Graph) attachStair(snap *plan.Snapshot, stair plan.Stair, pub logging.Publisher) {
	foot2 := stair.Foot
	head2 := foot2.Add(geom.Point2D{
		X: math.Cos(stair.Rotation) * stair.RunLength,
		Y: math.Sin(stair.Rotation) * stair.RunLength,
	})
	footZ := snap.StoreyElevation(stair.BottomStoreyID)
	headZ := footZ + stair.TotalRise

	bottomRoom := g.roomContaining(stair.BottomStoreyID, foot2)
	topRoom := g.roomContaining(stair.TopStoreyID, head2)
	if bottomRoom == "" || topRoom == "" {
		loggingsim.ElementIgnored(context.Background(), pub, 0,
			logging.EntityRef{ID: stair.ID, Kind: logging.EntityKindStair},
			loggingsim.ElementIgnoredPayload{Reason: "stair end outside any room"}, nil)
		return
	}

	foot3 := foot2.At(footZ)
	head3 := head2.At(headZ)

	g.rooms[bottomRoom].Stairs = append(g.rooms[bottomRoom].Stairs, StairEdge{
		StairID:          stair.ID,
		Position:         foot3,
		Target:           head3,
		ConnectsToStorey: stair.TopStoreyID,
		ConnectsToSpace:  topRoom,
		Descending:       false,
	})
	g.rooms[topRoom].Stairs = append(g.rooms[topRoom].Stairs, StairEdge{
		StairID:          stair.ID,
		Position:         head3,
		Target:           foot3,
		ConnectsToStorey: stair.BottomStoreyID,
		ConnectsToSpace:  bottomRoom,
		Descending:       true,
	})
}

// roomContaining returns the first room on the storey whose polygon contains
// the point, in deterministic order.
func (g *Graph) roomContaining(storeyID string, pt geom.Point2D) string {
	for _, id := range g.order {
		room := g.rooms[id]
		if room.StoreyID != storeyID {
			continue
		}
		if room.Boundary.Contains(pt) {
			return id
		}
	}
	return ""
}
