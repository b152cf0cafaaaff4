package main

import (
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent             atomic.Uint64
	agentsSent            atomic.Uint64
	ticksTotal            atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastEntities atomic.Uint64
}

type telemetrySnapshot struct {
	BytesSent             uint64 `json:"bytesSent"`
	AgentsSent            uint64 `json:"agentsSent"`
	TicksTotal            uint64 `json:"ticksTotal"`
	TickDuration          int64  `json:"tickDurationMillis"`
	LastBroadcastBytes    uint64 `json:"lastBroadcastBytes"`
	LastBroadcastEntities uint64 `json:"lastBroadcastEntities"`
}

func newTelemetryCounters() *telemetryCounters {
	return &telemetryCounters{}
}

func (t *telemetryCounters) RecordBroadcast(bytes, entities int) {
	if bytes < 0 {
		bytes = 0
	}
	if entities < 0 {
		entities = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.agentsSent.Add(uint64(entities))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastEntities.Store(uint64(entities))
}

func (t *telemetryCounters) RecordTick(duration time.Duration) {
	t.ticksTotal.Add(1)
	t.tickDurationMillis.Store(duration.Milliseconds())
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		BytesSent:             t.bytesSent.Load(),
		AgentsSent:            t.agentsSent.Load(),
		TicksTotal:            t.ticksTotal.Load(),
		TickDuration:          t.tickDurationMillis.Load(),
		LastBroadcastBytes:    t.lastBroadcastBytes.Load(),
		LastBroadcastEntities: t.lastBroadcastEntities.Load(),
	}
}
