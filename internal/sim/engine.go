package sim

import (
	"context"
	"fmt"

	"evacsim/server/internal/geom"
	"evacsim/server/internal/plan"
	"evacsim/server/logging"
	loggingsim "evacsim/server/logging/simulation"
)

// Engine owns the precomputed evacuation scene (walls, obstacles, graph,
// routes) and the mutable agent arena. It is single-threaded and
// frame-stepped: one Update call advances every agent by exactly one
// timestep, and the caller must not invoke it more than once per frame.
type Engine struct {
	cfg       Config
	publisher logging.Publisher

	graph     *Graph
	routes    map[string]*EvacuationRoute
	walls     []WallSegment
	obstacles []CircleObstacle
	doors     map[string][]geom.Point2D // storey id -> door plan positions

	agents      []*Agent
	nextAgentID uint64
	running     bool
	elapsed     float64
	tick        uint64
}

// AgentView is the per-agent observable state polled by the presentation
// layer each frame.
type AgentView struct {
	ID        string       `json:"id"`
	Position  geom.Point3D `json:"position"`
	Rotation  float64      `json:"rotation"`
	StoreyID  string       `json:"storeyId"`
	SpaceID   string       `json:"spaceId,omitempty"`
	HasExited bool         `json:"hasExited"`
}

// Stats aggregates run progress.
type Stats struct {
	TotalAgents  int     `json:"totalAgents"`
	ExitedAgents int     `json:"exitedAgents"`
	ElapsedTime  float64 `json:"elapsedTime"`
	Running      bool    `json:"running"`
}

// Snapshot is the full observable state for one frame.
type Snapshot struct {
	Agents []AgentView `json:"agents"`
	Stats  Stats       `json:"stats"`
	Tick   uint64      `json:"tick"`
}

// NewEngine constructs an idle engine with the given config.
func NewEngine(cfg Config, publisher logging.Publisher) *Engine {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Engine{cfg: cfg.normalized(), publisher: publisher}
}

// SetOccupantsPerRoom updates the default room occupancy, clamped to a sane
// range. Takes effect on the next Start.
func (e *Engine) SetOccupantsPerRoom(n int) {
	e.cfg.OccupantsPerRoom = clampInt(n, minOccupantsPerRoom, maxOccupantsPerRoom)
}

// SetAgentSpeed updates the base agent speed in m/s, clamped to a sane range.
// Takes effect on the next Start.
func (e *Engine) SetAgentSpeed(speed float64) {
	e.cfg.AgentSpeed = clampFloat(speed, minAgentSpeed, maxAgentSpeed)
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// IsRunning reports whether a simulation is in progress.
func (e *Engine) IsRunning() bool {
	return e != nil && e.running
}

// Start precomputes the scene from the plan snapshot and spawns occupants.
// It degrades instead of failing: with no exit doors the simulation does not
// start, and rooms without a path to an exit spawn nobody. Returns whether
// the simulation is running afterward.
func (e *Engine) Start(snap *plan.Snapshot) bool {
	if snap == nil || len(snap.Spaces) == 0 {
		return false
	}
	e.Reset()

	e.walls, e.obstacles = extractBoundaries(snap)
	e.graph = buildGraph(snap, e.publisher)
	if !e.graph.HasExit() {
		loggingsim.NoExitDoors(context.Background(), e.publisher, 0, nil)
		e.graph = nil
		e.walls = nil
		e.obstacles = nil
		return false
	}

	e.doors = make(map[string][]geom.Point2D)
	for _, roomID := range e.graph.RoomIDs() {
		room := e.graph.Room(roomID)
		for _, door := range room.Doors {
			e.doors[room.StoreyID] = append(e.doors[room.StoreyID], door.Position.XY())
		}
	}

	e.routes = calculateAllEvacuationRoutes(e.graph, e.walls, e.obstacles, e.publisher)
	e.spawnOccupants()

	e.running = len(e.agents) > 0
	if e.running {
		loggingsim.SimulationStarted(context.Background(), e.publisher, 0, loggingsim.SimulationStartedPayload{
			Rooms:  len(e.graph.RoomIDs()),
			Agents: len(e.agents),
		}, nil)
	}
	return e.running
}

func (e *Engine) spawnOccupants() {
	speedRNG := e.subsystemRNG("agents.speed")
	for _, roomID := range e.graph.RoomIDs() {
		route := e.routes[roomID]
		if route == nil {
			continue
		}
		room := e.graph.Room(roomID)

		count := room.Occupants
		if count <= 0 {
			count = e.cfg.OccupantsPerRoom
		}
		count = clampInt(count, minOccupantsPerRoom, maxOccupantsPerRoom)

		spawnRNG := e.subsystemRNG("spawn." + roomID)
		positions := spawnPositions(spawnRNG, room.Boundary, route.FarthestCorner, count)
		if len(positions) < count {
			loggingsim.SpawnBudgetExhausted(context.Background(), e.publisher, 0,
				logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
				loggingsim.SpawnBudgetExhaustedPayload{Requested: count, Spawned: len(positions)}, nil)
		}

		// The worst-case occupant walks the full green line; later spawns
		// start at random interior points, so their route begins at the first
		// door or stair hop instead of the corner polyline.
		firstHop := 0
		for i, wp := range route.Waypoints {
			if wp.DoorID != "" || wp.StairID != "" {
				firstHop = i
				break
			}
		}

		for i, pos := range positions {
			waypoints := route.Waypoints
			if i > 0 {
				waypoints = route.Waypoints[firstHop:]
			}
			e.nextAgentID++
			jitter := 1 + speedJitter*(2*speedRNG.Float64()-1)
			agent := &Agent{
				ID:            fmt.Sprintf("agent-%d", e.nextAgentID),
				Position:      pos.At(room.Elevation),
				Waypoints:     waypoints,
				StoreyID:      room.StoreyID,
				SpaceID:       roomID,
				SourceSpaceID: roomID,
				maxSpeed:      e.cfg.AgentSpeed * jitter,
				lastPos:       pos,
			}
			e.agents = append(e.agents, agent)
		}
	}
}

// Update advances the simulation by dt seconds. The run self-terminates once
// every spawned agent has exited.
func (e *Engine) Update(dt float64) {
	if !e.running || dt <= 0 {
		return
	}
	e.tick++
	e.elapsed += dt
	e.stepAgents(dt)

	exited := 0
	for _, agent := range e.agents {
		if agent.HasExited {
			exited++
		}
	}
	if exited == len(e.agents) && len(e.agents) > 0 {
		e.running = false
		loggingsim.SimulationComplete(context.Background(), e.publisher, e.tick, loggingsim.SimulationCompletePayload{
			Agents:      len(e.agents),
			ElapsedTime: e.elapsed,
		}, nil)
	}
}

// Stop halts the run without discarding agent state.
func (e *Engine) Stop() {
	e.running = false
}

// Reset discards all agent and scene state. No in-flight work exists to
// interrupt, so this is immediate.
func (e *Engine) Reset() {
	e.graph = nil
	e.routes = nil
	e.walls = nil
	e.obstacles = nil
	e.doors = nil
	e.agents = nil
	e.running = false
	e.elapsed = 0
	e.tick = 0
	e.nextAgentID = 0
}

// Snapshot copies agent state and aggregates into broadcast-friendly structs.
func (e *Engine) Snapshot() Snapshot {
	views := make([]AgentView, 0, len(e.agents))
	exited := 0
	for _, agent := range e.agents {
		if agent.HasExited {
			exited++
		}
		views = append(views, AgentView{
			ID:        agent.ID,
			Position:  agent.Position,
			Rotation:  agent.Rotation,
			StoreyID:  agent.StoreyID,
			SpaceID:   agent.SpaceID,
			HasExited: agent.HasExited,
		})
	}
	return Snapshot{
		Agents: views,
		Tick:   e.tick,
		Stats: Stats{
			TotalAgents:  len(e.agents),
			ExitedAgents: exited,
			ElapsedTime:  e.elapsed,
			Running:      e.running,
		},
	}
}

// Scene is the static precomputed geometry exposed to the presentation layer.
type Scene struct {
	Walls     []WallSegment               `json:"walls"`
	Obstacles []CircleObstacle            `json:"obstacles"`
	Routes    map[string]*EvacuationRoute `json:"routes"`
}

// Scene returns the geometry computed at Start.
func (e *Engine) Scene() Scene {
	return Scene{Walls: e.walls, Obstacles: e.obstacles, Routes: e.routes}
}

// nearDoor reports whether pos is within squeeze-through range of any door on
// the storey.
func (e *Engine) nearDoor(storeyID string, pos geom.Point2D) bool {
	for _, door := range e.doors[storeyID] {
		if geom.Dist(pos, door) < doorProximity {
			return true
		}
	}
	return false
}
