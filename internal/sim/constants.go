package sim

// Geometry extraction. Distances in meters.
const (
	doorGapMargin   = 0.10 // clearance added to each side of a door gap
	columnMargin    = 0.10
	furnitureMargin = 0.10
)

// Connectivity graph.
const (
	exitProbeOffset = 0.30 // side probe distance for exit classification
)

// Route planning.
const (
	routeClearance     = 0.45 // obstacle inflation for the local planner
	ringNodeFactor     = 1.10 // visibility nodes sit just outside the inflated circle
	ringNodesPerCircle = 8
	dedupeEpsilon      = 0.01 // consecutive path points closer than this collapse
	hopEndpointInset   = 0.05 // hop ends shrink before wall tests; corners and door sills sit on walls
)

// Population.
const (
	cornerCentroidOffset = 0.30 // first occupant sits this far inside the corner
	spawnMinSeparation   = 0.5
	spawnAttemptFactor   = 100 // rejection-sampling budget per remaining occupant
)

// Agents. The stuck-recovery distances are empirically tuned; changing them
// changes simulated crowd behavior.
const (
	agentRadius      = 0.25
	agentMass        = 1.0
	agentMaxForce    = 8.0
	speedJitter      = 0.10 // per-agent max speed varies +-10% around the base
	arrivalRadius    = 1.2
	separationRadius = 0.8
	separationWeight = 1.6 // higher than path weight so queues form at doors
	pathWeight       = 1.0

	doorProximity        = 1.2  // within this of a door, squeeze-through rules apply
	wallPushThreshold    = 0.30 // push-out distance away from doors
	wallPushNearDoor     = 0.18
	wallDamping          = 0.9 // fraction of into-wall velocity removed
	wallDampingNearDoor  = 0.5
	cooldownPushRelax    = 0.5 // wall threshold multiplier while recovering
	obstacleClearanceGap = 0.05

	waypointReachRadius = 0.6
	exitDetectRadius    = 0.75
	stairReachRadius    = 0.9
	stairElevationEps   = 0.01

	stuckEpsilon           = 0.02 // per-frame displacement below this counts as stalled
	stuckFrameLimit        = 45
	recoveryMaxRouteDist   = 5.0 // ignore green-line points farther than this
	recoveryMaxWaypointRun = 8.0 // a farther waypoint implies a wall in between
	recoveryKick           = 1.5
	pushCooldownFrames     = 30
)
