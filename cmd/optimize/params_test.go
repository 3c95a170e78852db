package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: got %f, want %f", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	pv := NewParamVector()
	pv.ApplyToConfig(cfg, []float64{2, 7.6, 0, 0.5, 0.05})

	if cfg.Aim.BracketFraction != 0.9 {
		t.Errorf("BracketFraction = %f, want 0.9", cfg.Aim.BracketFraction)
	}
	if cfg.Aim.MaxIterations != 8 {
		t.Errorf("MaxIterations = %d, want 8", cfg.Aim.MaxIterations)
	}
	if cfg.Aim.FlightTime != 1 {
		t.Errorf("FlightTime = %f, want 1", cfg.Aim.FlightTime)
	}

	got := pv.ExtractFromConfig(cfg)
	if len(got) != pv.Dim() {
		t.Fatalf("len(ExtractFromConfig) = %d, want %d", len(got), pv.Dim())
	}
	want := []float64{0.9, 8, 1, 0.5, 0.05}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("%s = %f, want %f", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestSummarizeWeightsBySolves(t *testing.T) {
	s := summarize([]telemetry.WindowStats{
		{Solves: 10, SolveHits: 8, BestEffort: 2, IterMean: 4, MissMean: 1, Shots: 4, Hits: 2},
		{Solves: 30, SolveHits: 10, Infeasible: 20, IterMean: 8, MissMean: 3, Shots: 4},
	})
	if s.Solves != 40 {
		t.Errorf("Solves = %d, want 40", s.Solves)
	}
	if math.Abs(s.IterMean-7) > 1e-9 {
		t.Errorf("IterMean = %f, want 7", s.IterMean)
	}
	if math.Abs(s.FeasibleRate-0.5) > 1e-9 {
		t.Errorf("FeasibleRate = %f, want 0.5", s.FeasibleRate)
	}
	if math.Abs(s.MissMean-2) > 1e-9 {
		t.Errorf("MissMean = %f, want 2", s.MissMean)
	}
	if math.Abs(s.HitRate-0.25) > 1e-9 {
		t.Errorf("HitRate = %f, want 0.25", s.HitRate)
	}
	if computeFitness(runSummary{}) <= computeFitness(s) {
		t.Error("a run with no solves should score worse than one with solves")
	}
}
