package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"evacsim/server/internal/plan"
	"evacsim/server/internal/sim"
	"evacsim/server/logging"
	loggingsim "evacsim/server/logging/simulation"
)

// Hub owns the simulation engine and the live subscriber set. The engine is
// single-threaded; the hub mutex serializes control calls, ticks, and
// snapshot reads.
type Hub struct {
	mu          sync.Mutex
	engine      *sim.Engine
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	publisher   logging.Publisher
	telemetry   *telemetryCounters
}

type subscriber struct {
	id          string
	conn        *websocket.Conn
	mu          sync.Mutex
	connectedAt time.Time
}

// newHub creates a hub with an idle engine.
func newHub(cfg sim.Config, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher{}
	}
	return &Hub{
		engine:      sim.NewEngine(cfg, publisher),
		subscribers: make(map[string]*subscriber),
		publisher:   publisher,
		telemetry:   newTelemetryCounters(),
	}
}

// StartSimulation builds the scene from the plan snapshot and starts the run.
// Returns whether the engine is running afterward.
func (h *Hub) StartSimulation(snap *plan.Snapshot) bool {
	h.mu.Lock()
	running := h.engine.Start(snap)
	snapshot := h.engine.Snapshot()
	h.mu.Unlock()

	if running {
		go h.broadcastState(snapshot)
	}
	return running
}

// StopSimulation halts the run, keeping agent state visible.
func (h *Hub) StopSimulation() {
	h.mu.Lock()
	h.engine.Stop()
	h.mu.Unlock()
}

// ResetSimulation discards all simulation state.
func (h *Hub) ResetSimulation() {
	h.mu.Lock()
	h.engine.Reset()
	snapshot := h.engine.Snapshot()
	h.mu.Unlock()

	go h.broadcastState(snapshot)
}

// UpdateConfig applies occupant and speed overrides for the next run.
func (h *Hub) UpdateConfig(req configRequest) sim.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	if req.OccupantsPerRoom != nil {
		h.engine.SetOccupantsPerRoom(*req.OccupantsPerRoom)
	}
	if req.AgentSpeed != nil {
		h.engine.SetAgentSpeed(*req.AgentSpeed)
	}
	return h.engine.Config()
}

// Config returns the engine configuration.
func (h *Hub) Config() sim.Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.Config()
}

// IsRunning reports whether the simulation is advancing.
func (h *Hub) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine.IsRunning()
}

// Subscribe registers a websocket connection and returns the scene handshake.
func (h *Hub) Subscribe(conn *websocket.Conn) (*subscriber, sceneMessage) {
	id := fmt.Sprintf("viewer-%d", h.nextID.Add(1))
	sub := &subscriber{id: id, conn: conn, connectedAt: time.Now()}

	h.mu.Lock()
	h.subscribers[id] = sub
	scene := h.engine.Scene()
	cfg := h.engine.Config()
	running := h.engine.IsRunning()
	h.mu.Unlock()

	return sub, sceneMessage{
		Type:       "scene",
		Scene:      scene,
		Config:     cfg,
		Running:    running,
		ServerTime: time.Now().UnixMilli(),
	}
}

// Disconnect removes a subscriber and closes its connection.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes. One tick advances the engine by exactly one timestep.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			snapshot, advanced := h.advance(dt)
			if advanced {
				h.broadcastState(snapshot)
			}
		}
	}
}

// advance runs one engine step under the hub mutex and samples the snapshot.
func (h *Hub) advance(dt float64) (sim.Snapshot, bool) {
	started := time.Now()

	h.mu.Lock()
	if !h.engine.IsRunning() {
		h.mu.Unlock()
		return sim.Snapshot{}, false
	}
	h.engine.Update(dt)
	snapshot := h.engine.Snapshot()
	h.mu.Unlock()

	elapsed := time.Since(started)
	h.telemetry.RecordTick(elapsed)
	budget := time.Second / tickRate
	if elapsed > budget {
		loggingsim.TickBudgetOverrun(context.Background(), h.publisher, snapshot.Tick,
			loggingsim.TickBudgetOverrunPayload{
				DurationMillis: elapsed.Milliseconds(),
				BudgetMillis:   budget.Milliseconds(),
			}, nil)
	}
	return snapshot, true
}

// broadcastState sends the latest snapshot to every subscriber.
func (h *Hub) broadcastState(snapshot sim.Snapshot) {
	msg := stateMessage{
		Type:       "state",
		Agents:     snapshot.Agents,
		Stats:      snapshot.Stats,
		Tick:       snapshot.Tick,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}
	h.telemetry.RecordBroadcast(len(data), len(snapshot.Agents))

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", sub.id, err)
			h.Disconnect(sub.id)
		}
	}
}

// DiagnosticsSnapshot exposes subscriber metadata for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsSubscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]diagnosticsSubscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, diagnosticsSubscriber{
			ID:          sub.id,
			ConnectedAt: sub.connectedAt.UnixMilli(),
		})
	}
	return subs
}

// Telemetry returns the counters sampled by /diagnostics.
func (h *Hub) Telemetry() telemetrySnapshot {
	return h.telemetry.Snapshot()
}
