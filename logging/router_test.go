package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Event, len(s.events))
	copy(copied, s.events)
	return copied
}

// waitFor polls until the sink holds want events or the deadline passes.
// Dispatch is asynchronous, so assertions cannot read the sink immediately.
func waitFor(t *testing.T, sink *captureSink, want int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := sink.snapshot(); len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink never received %d events, has %d", want, len(sink.snapshot()))
	return nil
}

func closeRouter(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close router: %v", err)
	}
}

func TestRouterDeliversToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{
		{Name: "first", Sink: first},
		{Name: "second", Sink: second},
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer closeRouter(t, router)

	router.Publish(context.Background(), Event{Type: "simulation.started", Tick: 3, Severity: SeverityInfo})

	for _, sink := range []*captureSink{first, second} {
		events := waitFor(t, sink, 1)
		if events[0].Type != "simulation.started" || events[0].Tick != 3 {
			t.Fatalf("unexpected event %+v", events[0])
		}
		if events[0].Time.IsZero() {
			t.Fatalf("expected the router to stamp the event time")
		}
	}

	if stats := router.Stats(); stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer closeRouter(t, router)

	router.Publish(context.Background(), Event{Type: "simulation.agent_stuck", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "simulation.no_exit_doors", Severity: SeverityWarn})

	events := waitFor(t, sink, 1)
	if len(events) != 1 || events[0].Type != "simulation.no_exit_doors" {
		t.Fatalf("expected only the warning through, got %+v", events)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer closeRouter(t, router)

	router.Publish(context.Background(), Event{Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "simulation.started", Severity: SeverityInfo})

	events := waitFor(t, sink, 1)
	if len(events) != 1 {
		t.Fatalf("expected the untyped event to be dropped, got %d events", len(events))
	}
}

func TestRouterMergesGlobalFields(t *testing.T) {
	sink := &captureSink{}
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"service": "evacsim", "tickRate": 30}
	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer closeRouter(t, router)

	event := Event{Type: "simulation.started", Severity: SeverityInfo}
	event = event.WithExtra("service", "override")
	router.Publish(context.Background(), event)

	events := waitFor(t, sink, 1)
	if events[0].Extra["service"] != "override" {
		t.Fatalf("event extras must win over globals, got %v", events[0].Extra)
	}
	if events[0].Extra["tickRate"] != 30 {
		t.Fatalf("missing global field, got %v", events[0].Extra)
	}
}

func TestRouterPublishAfterCloseIsNoop(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	closeRouter(t, router)

	router.Publish(context.Background(), Event{Type: "simulation.started", Severity: SeverityInfo})
	if events := sink.snapshot(); len(events) != 0 {
		t.Fatalf("expected no delivery after close, got %d events", len(events))
	}
}

func TestRouterSinkLookup(t *testing.T) {
	sink := &captureSink{}
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer closeRouter(t, router)

	if got := router.Sink("capture"); got != Sink(sink) {
		t.Fatalf("expected the registered sink back")
	}
	if got := router.Sink("missing"); got != nil {
		t.Fatalf("expected nil for unknown sink, got %v", got)
	}
}
