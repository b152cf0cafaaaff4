package sim

import "strings"

const defaultSeed = "evacuation"

const (
	minOccupantsPerRoom = 1
	maxOccupantsPerRoom = 50
	defaultOccupants    = 4
	minAgentSpeed       = 0.5
	maxAgentSpeed       = 5.0
	defaultAgentSpeed   = 1.5
)

// Config captures the tunables applied when a simulation starts.
type Config struct {
	OccupantsPerRoom int     `json:"occupantsPerRoom"`
	AgentSpeed       float64 `json:"agentSpeed"`
	Seed             string  `json:"seed"`
}

// normalized returns a config with defaults applied and ranges clamped.
func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultSeed
	}
	if normalized.OccupantsPerRoom == 0 {
		normalized.OccupantsPerRoom = defaultOccupants
	}
	normalized.OccupantsPerRoom = clampInt(normalized.OccupantsPerRoom, minOccupantsPerRoom, maxOccupantsPerRoom)
	if normalized.AgentSpeed == 0 {
		normalized.AgentSpeed = defaultAgentSpeed
	}
	normalized.AgentSpeed = clampFloat(normalized.AgentSpeed, minAgentSpeed, maxAgentSpeed)
	return normalized
}

// DefaultConfig returns the stock occupant count, speed, and seed.
func DefaultConfig() Config {
	return Config{
		OccupantsPerRoom: defaultOccupants,
		AgentSpeed:       defaultAgentSpeed,
		Seed:             defaultSeed,
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
