package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/orbitfall/ballistics"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, std, p10, p50, p90 := ComputeStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	// Sample standard deviation of 0.1..1.0
	if math.Abs(std-0.30277) > 0.001 {
		t.Errorf("std = %v, want ~0.3028", std)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
	if values[0] != 1.0 {
		t.Error("ComputeStats must not reorder its input")
	}
}

func TestComputeStatsSmall(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}

	mean, std, _, p50, _ = ComputeStats([]float64{4})
	if mean != 4 || std != 0 || p50 != 4 {
		t.Errorf("single value stats = (%v, %v, %v), want (4, 0, 4)", mean, std, p50)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks = %d, want 10", c.WindowDurationTicks())
	}

	for i := 0; i < 4; i++ {
		c.RecordShot()
	}
	c.RecordHit(30)
	c.RecordHit(30)
	c.RecordKill()
	c.RecordGroundHit()
	c.RecordSolve(ballistics.Solution{Outcome: ballistics.Hit, Iterations: 3, Miss: 1})
	c.RecordSolve(ballistics.Solution{Outcome: ballistics.BestEffort, Iterations: 15, Miss: 7})
	c.RecordSolve(ballistics.Solution{Outcome: ballistics.Infeasible, Iterations: 15})

	if c.ShouldFlush(9) {
		t.Error("ShouldFlush(9) = true before the window ends")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("ShouldFlush(10) = false at the window end")
	}

	s := c.Flush(10, Population{Units: 3, Shells: 1, HP: []float64{100, 70, 40}})
	if s.Shots != 4 || s.Hits != 2 || s.Kills != 1 || s.GroundHits != 1 {
		t.Errorf("combat counts = %d/%d/%d/%d, want 4/2/1/1", s.Shots, s.Hits, s.Kills, s.GroundHits)
	}
	if s.HitRate != 0.5 || s.Damage != 60 {
		t.Errorf("hit rate %v damage %v, want 0.5 and 60", s.HitRate, s.Damage)
	}
	if s.Solves != 3 || s.SolveHits != 1 || s.BestEffort != 1 || s.Infeasible != 1 {
		t.Errorf("solve counts = %d/%d/%d/%d, want 3/1/1/1", s.Solves, s.SolveHits, s.BestEffort, s.Infeasible)
	}
	if math.Abs(s.FeasibleRate-2.0/3) > 1e-9 {
		t.Errorf("FeasibleRate = %v, want 2/3", s.FeasibleRate)
	}
	if math.Abs(s.IterMean-11) > 1e-9 {
		t.Errorf("IterMean = %v, want 11", s.IterMean)
	}
	if s.MissMean != 4 {
		t.Errorf("MissMean = %v, want 4 (infeasible solves excluded)", s.MissMean)
	}
	if s.HPMean != 70 || s.HPP50 != 70 {
		t.Errorf("hp mean/p50 = %v/%v, want 70/70", s.HPMean, s.HPP50)
	}
	if math.Abs(s.SimTimeSec-1) > 1e-9 {
		t.Errorf("SimTimeSec = %v, want 1", s.SimTimeSec)
	}

	next := c.Flush(20, Population{})
	if next.Shots != 0 || next.Solves != 0 || next.WindowStartTick != 10 {
		t.Errorf("counters not reset: %+v", next)
	}
}
