package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"evacsim/server/logging"
)

func TestConsoleSinkFormatsEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, logging.ConsoleConfig{})

	err := sink.Write(logging.Event{
		Type:     "simulation.agent_exited",
		Tick:     42,
		Actor:    logging.EntityRef{ID: "agent-1", Kind: logging.EntityKindAgent},
		Severity: logging.SeverityInfo,
		Payload:  map[string]string{"doorId": "d-exit"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	line := buf.String()
	for _, want := range []string{"simulation.agent_exited", "tick=42", "agent:agent-1", "severity=info", "d-exit"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in output, got %q", want, line)
		}
	}
}

func TestJSONSinkEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf, 0)

	events := []logging.Event{
		{Type: "simulation.started", Tick: 1, Time: time.Unix(100, 0).UTC(), Severity: logging.SeverityInfo},
		{Type: "simulation.complete", Tick: 900, Time: time.Unix(200, 0).UTC(), Severity: logging.SeverityInfo},
	}
	for _, event := range events {
		if err := sink.Write(event); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	for i, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if decoded["type"] != string(events[i].Type) {
			t.Fatalf("line %d has type %v, want %v", i, decoded["type"], events[i].Type)
		}
	}
}

func TestMemorySinkRecordsAndResets(t *testing.T) {
	sink := NewMemorySink()
	sink.Write(logging.Event{Type: "simulation.started"})
	sink.Write(logging.Event{Type: "simulation.complete"})

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("expected two events, got %d", len(events))
	}

	events[0].Type = "mutated"
	if sink.Events()[0].Type != "simulation.started" {
		t.Fatalf("Events must return a copy")
	}

	sink.Reset()
	if got := len(sink.Events()); got != 0 {
		t.Fatalf("expected empty sink after reset, got %d", got)
	}
}
