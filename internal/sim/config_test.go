package sim

import "testing"

func TestConfigNormalizedAppliesDefaults(t *testing.T) {
	normalized := Config{}.normalized()

	if normalized.OccupantsPerRoom != defaultOccupants {
		t.Fatalf("expected default occupants %d, got %d", defaultOccupants, normalized.OccupantsPerRoom)
	}
	if normalized.AgentSpeed != defaultAgentSpeed {
		t.Fatalf("expected default speed %v, got %v", defaultAgentSpeed, normalized.AgentSpeed)
	}
	if normalized.Seed != defaultSeed {
		t.Fatalf("expected default seed %q, got %q", defaultSeed, normalized.Seed)
	}
}

func TestConfigNormalizedClampsRanges(t *testing.T) {
	normalized := Config{OccupantsPerRoom: 500, AgentSpeed: 0.01, Seed: "  drill-3  "}.normalized()

	if normalized.OccupantsPerRoom != maxOccupantsPerRoom {
		t.Fatalf("expected occupants clamped to %d, got %d", maxOccupantsPerRoom, normalized.OccupantsPerRoom)
	}
	if normalized.AgentSpeed != minAgentSpeed {
		t.Fatalf("expected speed clamped to %v, got %v", minAgentSpeed, normalized.AgentSpeed)
	}
	if normalized.Seed != "drill-3" {
		t.Fatalf("expected trimmed seed, got %q", normalized.Seed)
	}
}

func TestConfigNormalizedPreservesInRangeValues(t *testing.T) {
	cfg := Config{OccupantsPerRoom: 12, AgentSpeed: 2.5, Seed: "drill"}
	normalized := cfg.normalized()

	if normalized != cfg {
		t.Fatalf("expected in-range config unchanged, got %+v", normalized)
	}
}
