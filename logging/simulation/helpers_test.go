package simulation

import (
	"context"
	"testing"

	"evacsim/server/logging"
)

func capture(target *logging.Event) logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		*target = event
	})
}

func TestHelpersApplyCategoryAndSeverity(t *testing.T) {
	var got logging.Event

	SimulationStarted(context.Background(), capture(&got), 0, SimulationStartedPayload{Rooms: 2, Agents: 8}, nil)
	if got.Type != EventSimulationStarted || got.Category != logging.CategorySimulation {
		t.Fatalf("unexpected started event %+v", got)
	}
	if got.Severity != logging.SeverityInfo {
		t.Fatalf("started event severity %v, want info", got.Severity)
	}

	AgentStuck(context.Background(), capture(&got), 120,
		logging.EntityRef{ID: "agent-3", Kind: logging.EntityKindAgent},
		AgentStuckPayload{SpaceID: "hall", X: 1, Y: 2}, nil)
	if got.Severity != logging.SeverityDebug {
		t.Fatalf("stuck event severity %v, want debug", got.Severity)
	}
	if got.Tick != 120 || got.Actor.ID != "agent-3" {
		t.Fatalf("unexpected stuck event %+v", got)
	}

	NoExitDoors(context.Background(), capture(&got), 0, nil)
	if got.Severity != logging.SeverityWarn || got.Actor.Kind != logging.EntityKindWorld {
		t.Fatalf("unexpected no-exit event %+v", got)
	}
}

func TestHelpersTolerateNilPublisher(t *testing.T) {
	// Must not panic.
	SimulationComplete(context.Background(), nil, 10, SimulationCompletePayload{Agents: 3, ElapsedTime: 42.5}, nil)
}
