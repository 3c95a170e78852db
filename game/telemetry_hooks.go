package game

import (
	"log/slog"

	"github.com/pthm-cable/orbitfall/systems"
	"github.com/pthm-cable/orbitfall/telemetry"
)

// recordSolves feeds the last targeting pass into the collectors.
func (g *Game) recordSolves(events []systems.SolveEvent) {
	for _, ev := range events {
		g.collector.RecordSolve(ev.Solution)
		g.lifetime.RecordSolve(ev.Tank, ev.Solution.Feasible())
		if g.outputManager != nil {
			g.aimRecords = append(g.aimRecords,
				telemetry.NewAimRecord(g.tick, ev.Tank, ev.Target, ev.Distance, ev.Solution))
		}
	}
}

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perfCollector.Stats()

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logWorldState()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteAim(g.aimRecords); err != nil {
			slog.Error("failed to write aim records", "error", err)
		}
		g.aimRecords = g.aimRecords[:0]
	}
}

// samplePopulation collects unit health and counts at window end.
func (g *Game) samplePopulation() telemetry.Population {
	var pop telemetry.Population

	uq := g.unitFilter.Query()
	for uq.Next() {
		_, unit := uq.Get()
		if unit.Dead {
			continue
		}
		pop.Units++
		pop.HP = append(pop.HP, unit.HP)
	}

	sq := g.shellFilter.Query()
	for sq.Next() {
		pop.Shells++
	}
	return pop
}

// Snapshot captures the planets and units at the current tick.
func (g *Game) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		RNGSeed: g.opts.Seed,
		Tick:    g.tick,
	}

	for _, pe := range g.planets {
		p := g.planetMap.Get(pe)
		h := g.bodyMap.Get(pe).Handle
		crust := p.Crust

		state := telemetry.PlanetState{
			Index:     p.Index,
			X:         h.Position().X,
			Y:         h.Position().Y,
			Angle:     h.Angle(),
			Spin:      h.AngularVelocity(),
			Core:      crust.CoreRadius(),
			Altitudes: make([]float64, crust.Len()),
			Platforms: len(crust.Platforms()),
		}
		for i := range state.Altitudes {
			state.Altitudes[i] = crust.Segment(i).Points[0].Altitude
		}
		for _, d := range crust.Deposits() {
			state.Deposits = append(state.Deposits, int(d.Remaining))
		}
		outline := crust.Outline()
		state.Outline = make([][2]float64, len(outline))
		for i, v := range outline {
			state.Outline[i] = [2]float64{v.X, v.Y}
		}
		for _, q := range crust.StratumQuads() {
			st := telemetry.StratumState{ID: q.ID, Deposit: q.Deposit}
			for k, v := range q.Corners {
				st.Corners[k] = [2]float64{v.X, v.Y}
			}
			state.Strata = append(state.Strata, st)
		}
		snap.Planets = append(snap.Planets, state)
	}

	query := g.unitFilter.Query()
	for query.Next() {
		body, unit := query.Get()
		if unit.Dead {
			continue
		}
		e := query.Entity()
		h := body.Handle
		state := telemetry.UnitState{
			ID:       unit.ID,
			Kind:     body.Tag.Kind().String(),
			Player:   unit.Player,
			X:        h.Position().X,
			Y:        h.Position().Y,
			VelX:     h.Velocity().X,
			VelY:     h.Velocity().Y,
			Angle:    h.Angle(),
			HP:       unit.HP,
			Planet:   -1,
			Lifetime: g.lifetime.Get(unit.ID),
		}
		if g.tankMap.HasAll(e) {
			state.Gun = g.tankMap.Get(e).GunAngle
		}
		if g.surfMap.HasAll(e) {
			if s := g.surfMap.Get(e); s.Grounded() && g.live(s.Planet) && g.planetMap.HasAll(s.Planet) {
				state.Planet = g.planetMap.Get(s.Planet).Index
			}
		}
		snap.Units = append(snap.Units, state)
	}

	return snap
}
