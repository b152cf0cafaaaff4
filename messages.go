package main

import "evacsim/server/internal/sim"

// sceneMessage is sent once per subscriber with the static geometry computed
// at simulation start.
type sceneMessage struct {
	Type       string     `json:"type"`
	Scene      sim.Scene  `json:"scene"`
	Config     sim.Config `json:"config"`
	Running    bool       `json:"running"`
	ServerTime int64      `json:"serverTime"`
}

// stateMessage carries the per-tick observable state.
type stateMessage struct {
	Type       string          `json:"type"`
	Agents     []sim.AgentView `json:"agents"`
	Stats      sim.Stats       `json:"stats"`
	Tick       uint64          `json:"t"`
	ServerTime int64           `json:"serverTime"`
}

// controlResponse acknowledges a start/stop/reset/config request.
type controlResponse struct {
	Running bool       `json:"running"`
	Config  sim.Config `json:"config"`
	Warning string     `json:"warning,omitempty"`
}

// configRequest updates the occupant count and base speed between runs.
type configRequest struct {
	OccupantsPerRoom *int     `json:"occupantsPerRoom,omitempty"`
	AgentSpeed       *float64 `json:"agentSpeed,omitempty"`
}

type diagnosticsSubscriber struct {
	ID          string `json:"id"`
	ConnectedAt int64  `json:"connectedAt"`
}
