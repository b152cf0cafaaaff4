package main

import (
	"testing"

	"evacsim/server/internal/geom"
	"evacsim/server/internal/plan"
	"evacsim/server/internal/sim"
)

func testPlan() *plan.Snapshot {
	return &plan.Snapshot{
		Storeys: []plan.Storey{{ID: "s1", Elevation: 0}},
		Spaces: []plan.Space{{
			ID: "hall", StoreyID: "s1",
			Boundary: geom.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		}},
		Walls: []plan.Wall{
			{ID: "w-s", StoreyID: "s1", Start: geom.Point2D{X: 0, Y: 0}, End: geom.Point2D{X: 10, Y: 0}},
		},
		Doors: []plan.Door{{ID: "d-out", WallID: "w-s", Position: 0.5, Width: 1.0, External: true}},
	}
}

func TestHubStartStopReset(t *testing.T) {
	hub := newHub(sim.Config{OccupantsPerRoom: 2, AgentSpeed: 1.5, Seed: "drill"}, nil)

	if hub.StartSimulation(nil) {
		t.Fatalf("nil plan must not start")
	}
	if !hub.StartSimulation(testPlan()) {
		t.Fatalf("expected the plan to start")
	}
	if !hub.IsRunning() {
		t.Fatalf("expected the hub to report running")
	}

	hub.StopSimulation()
	if hub.IsRunning() {
		t.Fatalf("expected the hub to stop")
	}

	hub.ResetSimulation()
	snapshot, advanced := hub.advance(1.0 / tickRate)
	if advanced {
		t.Fatalf("a reset hub must not advance, got %+v", snapshot)
	}
}

func TestHubAdvanceStepsRunningSimulation(t *testing.T) {
	hub := newHub(sim.Config{OccupantsPerRoom: 1, AgentSpeed: 1.5, Seed: "drill"}, nil)
	if !hub.StartSimulation(testPlan()) {
		t.Fatalf("expected the plan to start")
	}

	snapshot, advanced := hub.advance(1.0 / tickRate)
	if !advanced {
		t.Fatalf("expected the hub to advance a running simulation")
	}
	if snapshot.Tick != 1 {
		t.Fatalf("expected tick 1 after one step, got %d", snapshot.Tick)
	}
	if snapshot.Stats.TotalAgents != 1 {
		t.Fatalf("expected one agent, got %d", snapshot.Stats.TotalAgents)
	}
	if got := hub.Telemetry().TicksTotal; got != 1 {
		t.Fatalf("expected one recorded tick, got %d", got)
	}
}

func TestHubUpdateConfigClamps(t *testing.T) {
	hub := newHub(sim.Config{}, nil)

	occupants := 9999
	speed := 0.0001
	applied := hub.UpdateConfig(configRequest{OccupantsPerRoom: &occupants, AgentSpeed: &speed})

	if applied.OccupantsPerRoom != 50 {
		t.Fatalf("expected occupants clamped to 50, got %d", applied.OccupantsPerRoom)
	}
	if applied.AgentSpeed != 0.5 {
		t.Fatalf("expected speed clamped to 0.5, got %v", applied.AgentSpeed)
	}

	unchanged := hub.UpdateConfig(configRequest{})
	if unchanged != applied {
		t.Fatalf("empty request must not change the config, got %+v", unchanged)
	}
}

func TestHubDiagnosticsSnapshotEmpty(t *testing.T) {
	hub := newHub(sim.Config{}, nil)
	if subs := hub.DiagnosticsSnapshot(); len(subs) != 0 {
		t.Fatalf("expected no subscribers, got %d", len(subs))
	}
}
