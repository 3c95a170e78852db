package main

import (
	"testing"

	"github.com/pthm-cable/orbitfall/config"
)

func TestSweepSolvesEveryTarget(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	records, err := sweep(cfg, sweepParams{Seed: 3, From: 90, Span: 10, Step: 2, Lift: 2, Speed: cfg.Units.ShellSpeed})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	// -10..10 step 2 minus the shooter itself
	if len(records) != 10 {
		t.Fatalf("len(records) = %d, want 10", len(records))
	}
	for _, r := range records {
		if r.Shooter != 90 {
			t.Errorf("shooter = %d, want 90", r.Shooter)
		}
		if r.Distance <= 0 {
			t.Errorf("target %d distance = %f, want > 0", r.Target, r.Distance)
		}
	}
	s := summarize(records)
	if s.hits+s.bestEffort+s.infeasible != len(records) {
		t.Errorf("summary counts %d, want %d", s.hits+s.bestEffort+s.infeasible, len(records))
	}
}

func TestSweepRejectsZeroStep(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if _, err := sweep(cfg, sweepParams{Span: 10}); err == nil {
		t.Error("expected error for zero step")
	}
}
