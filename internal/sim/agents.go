package sim

import (
	"context"
	"math"

	"evacsim/server/internal/geom"
	"evacsim/server/logging"
	loggingsim "evacsim/server/logging/simulation"
)

// Agent is the one mutable entity of the simulation. It is owned exclusively
// by the engine loop; every other component sees read-only snapshots.
type Agent struct {
	ID            string
	Position      geom.Point3D
	Velocity      geom.Point2D
	Rotation      float64
	Waypoints     []Waypoint
	WaypointIndex int
	HasExited     bool
	StoreyID      string
	SpaceID       string
	SourceSpaceID string

	maxSpeed     float64
	stuckFrames  int
	pushCooldown int
	lastPos      geom.Point2D
}

// stepAgents advances every active agent by one timestep. Separation forces
// read positions from a snapshot taken before any agent moves, so the
// integration order cannot bias who yields to whom.
func (e *Engine) stepAgents(dt float64) {
	type neighbor struct {
		pos      geom.Point2D
		storeyID string
	}
	before := make([]neighbor, 0, len(e.agents))
	for _, agent := range e.agents {
		if agent.HasExited {
			continue
		}
		before = append(before, neighbor{pos: agent.Position.XY(), storeyID: agent.StoreyID})
	}

	for _, agent := range e.agents {
		if agent.HasExited || agent.WaypointIndex >= len(agent.Waypoints) {
			continue
		}
		pos := agent.Position.XY()

		// Steering: path following toward the current waypoint plus
		// separation from crowding neighbors.
		steer := e.pathFollowForce(agent, pos).Scale(pathWeight)
		sep := geom.Point2D{}
		for _, other := range before {
			if other.storeyID != agent.StoreyID {
				continue
			}
			d := geom.Dist(pos, other.pos)
			if d <= 1e-9 || d >= separationRadius {
				continue
			}
			sep = sep.Add(pos.Sub(other.pos).Normalize().Scale(1 - d/separationRadius))
		}
		steer = steer.Add(sep.Scale(separationWeight * agent.maxSpeed))

		steer = truncate(steer, agentMaxForce)
		agent.Velocity = truncate(agent.Velocity.Add(steer.Scale(dt/agentMass)), agent.maxSpeed)
		pos = pos.Add(agent.Velocity.Scale(dt))

		pos = e.correctWallCollisions(agent, pos)
		pos = e.correctObstacleCollisions(agent, pos)

		agent.Position = pos.At(agent.Position.Z)
		if agent.Velocity.Length() > 1e-6 {
			agent.Rotation = math.Atan2(agent.Velocity.Y, agent.Velocity.X)
		}

		e.detectStuck(agent, pos)
		e.advanceWaypoints(agent)

		if agent.pushCooldown > 0 {
			agent.pushCooldown--
		}
		agent.lastPos = pos
	}
}

// pathFollowForce seeks the current waypoint, decelerating inside the arrival
// radius so the agent settles instead of orbiting the target.
func (e *Engine) pathFollowForce(agent *Agent, pos geom.Point2D) geom.Point2D {
	target := agent.Waypoints[agent.WaypointIndex].Position.XY()
	offset := target.Sub(pos)
	dist := offset.Length()
	if dist < 1e-9 {
		return geom.Point2D{}
	}
	speed := agent.maxSpeed
	if dist < arrivalRadius {
		speed = agent.maxSpeed * dist / arrivalRadius
	}
	desired := offset.Normalize().Scale(speed)
	return desired.Sub(agent.Velocity)
}

// correctWallCollisions pushes the agent out of any wall segment closer than
// the push threshold and damps the velocity component pointing back into the
// wall. Near doors the threshold tightens and the damping lightens so agents
// can squeeze through openings without stalling the flow.
func (e *Engine) correctWallCollisions(agent *Agent, pos geom.Point2D) geom.Point2D {
	threshold := wallPushThreshold
	damping := wallDamping
	if e.nearDoor(agent.StoreyID, pos) {
		threshold = wallPushNearDoor
		damping = wallDampingNearDoor
	}
	if agent.pushCooldown > 0 {
		threshold *= cooldownPushRelax
	}

	for _, wall := range e.walls {
		if wall.StoreyID != agent.StoreyID {
			continue
		}
		d, normal := geom.SegmentDistance(pos, wall.Start, wall.End)
		if d >= threshold {
			continue
		}
		pos = pos.Add(normal.Scale(threshold - d))
		inward := agent.Velocity.Dot(normal)
		if inward < 0 {
			agent.Velocity = agent.Velocity.Sub(normal.Scale(inward * damping))
		}
	}
	return pos
}

// correctObstacleCollisions keeps the agent outside every obstacle circle and
// zeroes the inward radial velocity component.
func (e *Engine) correctObstacleCollisions(agent *Agent, pos geom.Point2D) geom.Point2D {
	for _, obs := range e.obstacles {
		if obs.StoreyID != agent.StoreyID {
			continue
		}
		clearance := obs.Radius + agentRadius + obstacleClearanceGap
		offset := pos.Sub(obs.Position)
		d := offset.Length()
		if d >= clearance {
			continue
		}
		normal := offset.Normalize()
		if normal.Length() == 0 {
			normal = geom.Point2D{X: 0, Y: 1}
		}
		pos = obs.Position.Add(normal.Scale(clearance))
		inward := agent.Velocity.Dot(normal)
		if inward < 0 {
			agent.Velocity = agent.Velocity.Sub(normal.Scale(inward))
		}
	}
	return pos
}

// detectStuck counts consecutive frames of negligible displacement. Recovery
// first steers toward the nearest point on the room's evacuation route; when
// no route point is plausibly close it falls back to the current waypoint,
// but only if that waypoint is near enough that no wall can be in between.
func (e *Engine) detectStuck(agent *Agent, pos geom.Point2D) {
	if geom.Dist(pos, agent.lastPos) >= stuckEpsilon {
		agent.stuckFrames = 0
		return
	}
	agent.stuckFrames++
	if agent.stuckFrames <= stuckFrameLimit {
		return
	}
	agent.stuckFrames = 0

	target, ok := e.recoveryTarget(agent, pos)
	if !ok {
		return
	}
	dir := target.Sub(pos).Normalize()
	if dir.Length() == 0 {
		return
	}
	agent.Velocity = dir.Scale(agent.maxSpeed * recoveryKick)
	agent.pushCooldown = pushCooldownFrames

	loggingsim.AgentStuck(context.Background(), e.publisher, e.tick,
		logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindAgent},
		loggingsim.AgentStuckPayload{SpaceID: agent.SpaceID, X: pos.X, Y: pos.Y}, nil)
}

func (e *Engine) recoveryTarget(agent *Agent, pos geom.Point2D) (geom.Point2D, bool) {
	route := e.routes[agent.SpaceID]
	if route == nil {
		route = e.routes[agent.SourceSpaceID]
	}
	if route != nil {
		best := geom.Point2D{}
		bestDist := math.Inf(1)
		for _, pt := range route.PathPoints {
			if math.Abs(pt.Z-agent.Position.Z) > stairElevationEps {
				continue
			}
			if d := geom.Dist(pos, pt.XY()); d < bestDist {
				bestDist = d
				best = pt.XY()
			}
		}
		if bestDist <= recoveryMaxRouteDist {
			return best, true
		}
	}

	waypoint := agent.Waypoints[agent.WaypointIndex].Position.XY()
	if geom.Dist(pos, waypoint) <= recoveryMaxWaypointRun {
		return waypoint, true
	}
	return geom.Point2D{}, false
}

// advanceWaypoints consumes reached waypoints (the index only increases),
// re-resolves the agent's room, teleports across stairs, and flags exit
// arrival. Only the final waypoint may trigger an exit so agents cannot leak
// through unrelated nearby exits.
func (e *Engine) advanceWaypoints(agent *Agent) {
	pos := agent.Position.XY()
	wp := agent.Waypoints[agent.WaypointIndex]
	dist := geom.Dist(pos, wp.Position.XY())

	switch {
	case wp.StairID != "":
		if dist < stairReachRadius && math.Abs(agent.Position.Z-wp.Position.Z) < stairElevationEps {
			// Stair teleport: position and storey change atomically.
			agent.Position = wp.Target
			agent.StoreyID = wp.TargetStoreyID
			agent.Velocity = geom.Point2D{}
			agent.lastPos = wp.Target.XY()
			agent.WaypointIndex++
		}
	case agent.WaypointIndex == len(agent.Waypoints)-1:
		if wp.IsExit && dist < exitDetectRadius {
			agent.HasExited = true
			agent.Velocity = geom.Point2D{}
			loggingsim.AgentExited(context.Background(), e.publisher, e.tick,
				logging.EntityRef{ID: agent.ID, Kind: logging.EntityKindAgent},
				loggingsim.AgentExitedPayload{DoorID: wp.DoorID, SourceSpaceID: agent.SourceSpaceID}, nil)
		}
	default:
		if dist < waypointReachRadius {
			agent.WaypointIndex++
		}
	}

	if agent.HasExited {
		return
	}
	if spaceID := e.graph.roomContaining(agent.StoreyID, agent.Position.XY()); spaceID != "" {
		agent.SpaceID = spaceID
	}
}

func truncate(v geom.Point2D, max float64) geom.Point2D {
	if l := v.Length(); l > max && l > 0 {
		return v.Scale(max / l)
	}
	return v
}
