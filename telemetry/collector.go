// Package telemetry provides combat and targeting statistics, CSV output,
// per-unit lifetime records and state snapshots.
package telemetry

import "github.com/pthm-cable/orbitfall/ballistics"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	// Event counters for current window
	shots      int
	hits       int
	kills      int
	damage     float64
	expired    int
	groundHits int

	solves     int
	solveHits  int
	bestEffort int
	infeasible int
	iterations []float64
	misses     []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordShot records a fired shell.
func (c *Collector) RecordShot() {
	c.shots++
}

// RecordHit records a shell striking a unit.
func (c *Collector) RecordHit(damage float64) {
	c.hits++
	c.damage += damage
}

// RecordKill records a unit destroyed.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordGroundHit records a shell destroyed on a planet surface.
func (c *Collector) RecordGroundHit() {
	c.groundHits++
}

// RecordExpired records a shell removed at the end of its lifetime.
func (c *Collector) RecordExpired() {
	c.expired++
}

// RecordSolve records one targeting solve.
func (c *Collector) RecordSolve(sol ballistics.Solution) {
	c.solves++
	switch sol.Outcome {
	case ballistics.Hit:
		c.solveHits++
	case ballistics.BestEffort:
		c.bestEffort++
	default:
		c.infeasible++
	}
	c.iterations = append(c.iterations, float64(sol.Iterations))
	if sol.Feasible() {
		c.misses = append(c.misses, sol.Miss)
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population holds the state sampled at window end.
type Population struct {
	Units  int
	Shells int
	HP     []float64 // hit points of every live unit
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	var hitRate, feasibleRate float64
	if c.shots > 0 {
		hitRate = float64(c.hits) / float64(c.shots)
	}
	if c.solves > 0 {
		feasibleRate = float64(c.solveHits+c.bestEffort) / float64(c.solves)
	}

	iterMean, iterStd, _, _, iterP90 := ComputeStats(c.iterations)
	missMean, _, _, missP50, missP90 := ComputeStats(c.misses)
	hpMean, _, hpP10, hpP50, _ := ComputeStats(pop.HP)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Units:  pop.Units,
		Shells: pop.Shells,

		Shots:      c.shots,
		Hits:       c.hits,
		Kills:      c.kills,
		Damage:     c.damage,
		GroundHits: c.groundHits,
		Expired:    c.expired,
		HitRate:    hitRate,

		Solves:       c.solves,
		SolveHits:    c.solveHits,
		BestEffort:   c.bestEffort,
		Infeasible:   c.infeasible,
		FeasibleRate: feasibleRate,
		IterMean:     iterMean,
		IterStd:      iterStd,
		IterP90:      iterP90,
		MissMean:     missMean,
		MissP50:      missP50,
		MissP90:      missP90,

		HPMean: hpMean,
		HPP10:  hpP10,
		HPP50:  hpP50,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.shots = 0
	c.hits = 0
	c.kills = 0
	c.damage = 0
	c.groundHits = 0
	c.expired = 0
	c.solves = 0
	c.solveHits = 0
	c.bestEffort = 0
	c.infeasible = 0
	c.iterations = c.iterations[:0]
	c.misses = c.misses[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
