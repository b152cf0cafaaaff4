// Package simulation defines the typed events the evacuation engine emits.
package simulation

import (
	"context"

	"evacsim/server/logging"
)

const (
	// EventSimulationStarted is emitted once the scene is built and occupants spawned.
	EventSimulationStarted logging.EventType = "simulation.started"
	// EventSimulationComplete is emitted when the last agent reaches an exit.
	EventSimulationComplete logging.EventType = "simulation.complete"
	// EventNoExitDoors is emitted when a plan has no exit and the run is refused.
	EventNoExitDoors logging.EventType = "simulation.no_exit_doors"
	// EventRoomUnreachable is emitted per room with no path to any exit.
	EventRoomUnreachable logging.EventType = "simulation.room_unreachable"
	// EventSpawnBudgetExhausted is emitted when sampling found fewer spawn points than requested.
	EventSpawnBudgetExhausted logging.EventType = "simulation.spawn_budget_exhausted"
	// EventAgentStuck is emitted when a stalled agent receives a recovery kick.
	EventAgentStuck logging.EventType = "simulation.agent_stuck"
	// EventAgentExited is emitted when an agent reaches its final exit waypoint.
	EventAgentExited logging.EventType = "simulation.agent_exited"
	// EventElementIgnored is emitted when malformed plan geometry is skipped.
	EventElementIgnored logging.EventType = "simulation.element_ignored"
	// EventTickBudgetOverrun is emitted when a tick exceeds the frame budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
)

type SimulationStartedPayload struct {
	Rooms  int `json:"rooms"`
	Agents int `json:"agents"`
}

func SimulationStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload SimulationStartedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventSimulationStarted,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

type SimulationCompletePayload struct {
	Agents      int     `json:"agents"`
	ElapsedTime float64 `json:"elapsedTime"`
}

func SimulationComplete(ctx context.Context, pub logging.Publisher, tick uint64, payload SimulationCompletePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventSimulationComplete,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

func NoExitDoors(ctx context.Context, pub logging.Publisher, tick uint64, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventNoExitDoors,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityWarn,
		Extra:    extra,
	})
}

type RoomUnreachablePayload struct {
	StoreyID string `json:"storeyId"`
}

func RoomUnreachable(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RoomUnreachablePayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventRoomUnreachable,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

type SpawnBudgetExhaustedPayload struct {
	Requested int `json:"requested"`
	Spawned   int `json:"spawned"`
}

func SpawnBudgetExhausted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnBudgetExhaustedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventSpawnBudgetExhausted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

type AgentStuckPayload struct {
	SpaceID string  `json:"spaceId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

func AgentStuck(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentStuckPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventAgentStuck,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Payload:  payload,
		Extra:    extra,
	})
}

type AgentExitedPayload struct {
	DoorID        string `json:"doorId"`
	SourceSpaceID string `json:"sourceSpaceId"`
}

func AgentExited(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentExitedPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventAgentExited,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Payload:  payload,
		Extra:    extra,
	})
}

type ElementIgnoredPayload struct {
	Reason string `json:"reason"`
}

func ElementIgnored(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ElementIgnoredPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventElementIgnored,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

type TickBudgetOverrunPayload struct {
	DurationMillis int64 `json:"durationMillis"`
	BudgetMillis   int64 `json:"budgetMillis"`
}

func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	publish(ctx, pub, logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Payload:  payload,
		Extra:    extra,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	if event.Category == "" {
		event.Category = logging.CategorySimulation
	}
	pub.Publish(ctx, event)
}
