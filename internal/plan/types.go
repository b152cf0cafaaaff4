// Package plan defines the read-only floor-plan snapshot consumed at
// simulation start. The editor owns these objects; the engine never mutates
// them. The types double as the JSON contract for the /simulation/start
// endpoint and are shared with the schema generator so tooling can validate
// authored plans.
package plan

import "evacsim/server/internal/geom"

// Snapshot is the complete floor-plan input handed to the engine.
type Snapshot struct {
	Storeys   []Storey    `json:"storeys,omitempty" jsonschema:"description=Storey elevations used to resolve ambiguous Z values"`
	Spaces    []Space     `json:"spaces" jsonschema:"description=Room polygons"`
	Walls     []Wall      `json:"walls" jsonschema:"description=Straight wall runs hosting doors"`
	Doors     []Door      `json:"doors" jsonschema:"description=Door openings placed on host walls"`
	Columns   []Column    `json:"columns,omitempty"`
	Furniture []Furniture `json:"furniture,omitempty"`
	Counters  []Counter   `json:"counters,omitempty"`
	Stairs    []Stair     `json:"stairs,omitempty"`
}

// Storey names one building level and its floor elevation in meters.
type Storey struct {
	ID        string  `json:"id" jsonschema:"description=Stable storey identifier"`
	Elevation float64 `json:"elevation"`
}

// Space is one enclosed room given by its ordered boundary polygon.
type Space struct {
	ID        string       `json:"id"`
	StoreyID  string       `json:"storeyId"`
	Elevation float64      `json:"elevation"`
	Boundary  geom.Polygon `json:"boundary" jsonschema:"description=Ordered 2D boundary vertices"`
	Occupants int          `json:"occupants,omitempty" jsonschema:"description=Occupant override for this room; zero uses the configured default"`
}

// Wall is a straight collision run between two plan points.
type Wall struct {
	ID       string       `json:"id"`
	StoreyID string       `json:"storeyId"`
	Start    geom.Point2D `json:"start"`
	End      geom.Point2D `json:"end"`
}

// Door is an opening hosted on a wall at a parametric position.
type Door struct {
	ID       string  `json:"id"`
	WallID   string  `json:"wallId"`
	Position float64 `json:"position" jsonschema:"description=Fraction along the host wall in [0,1]"`
	Width    float64 `json:"width"`
	External bool    `json:"external,omitempty" jsonschema:"description=Marks the door as a building exit regardless of adjacency"`
}

// Column is a structural post treated as a circular obstacle.
type Column struct {
	ID       string       `json:"id"`
	StoreyID string       `json:"storeyId"`
	Position geom.Point2D `json:"position"`
	Width    float64      `json:"width"`
	Depth    float64      `json:"depth"`
}

// Furniture is a loose footprint treated as a circular obstacle.
type Furniture struct {
	ID       string       `json:"id"`
	StoreyID string       `json:"storeyId"`
	Position geom.Point2D `json:"position"`
	Width    float64      `json:"width"`
	Depth    float64      `json:"depth"`
}

// Counter is a solid run of casework. It blocks like a wall rather than a
// column: each path segment contributes a front line and a back line offset
// by Depth.
type Counter struct {
	ID       string         `json:"id"`
	StoreyID string         `json:"storeyId"`
	Path     []geom.Point2D `json:"path" jsonschema:"description=Polyline along the counter front"`
	Depth    float64        `json:"depth"`
}

// Stair joins two storeys. The head point is derived from the foot: run
// length along the rotation, raised by the total rise.
type Stair struct {
	ID             string       `json:"id"`
	Foot           geom.Point2D `json:"foot" jsonschema:"description=Plan position of the bottom step"`
	Rotation       float64      `json:"rotation" jsonschema:"description=Run direction in radians"`
	RunLength      float64      `json:"runLength"`
	TotalRise      float64      `json:"totalRise"`
	BottomStoreyID string       `json:"bottomStoreyId"`
	TopStoreyID    string       `json:"topStoreyId"`
}

// StoreyElevation resolves a storey id to its elevation, falling back to zero
// for unknown ids so malformed plans degrade instead of failing.
func (s *Snapshot) StoreyElevation(id string) float64 {
	for _, st := range s.Storeys {
		if st.ID == id {
			return st.Elevation
		}
	}
	for _, sp := range s.Spaces {
		if sp.StoreyID == id {
			return sp.Elevation
		}
	}
	return 0
}

// WallByID returns the wall with the given id.
func (s *Snapshot) WallByID(id string) (Wall, bool) {
	for _, w := range s.Walls {
		if w.ID == id {
			return w, true
		}
	}
	return Wall{}, false
}
