package game

import "log/slog"

// logWorldState logs planets, per-player strength and shells in flight.
func (g *Game) logWorldState() {
	for _, pe := range g.planets {
		p := g.planetMap.Get(pe)
		h := g.bodyMap.Get(pe).Handle

		var reserve int64
		for _, d := range p.Crust.Deposits() {
			reserve += d.Remaining
		}
		slog.Info("planet",
			"index", p.Index,
			"x", h.Position().X,
			"y", h.Position().Y,
			"angle", h.Angle(),
			"spin", h.AngularVelocity(),
			"platforms", len(p.Crust.Platforms()),
			"reserve", reserve,
		)
	}

	hp := make(map[int]float64)
	grounded := make(map[int]int)
	query := g.unitFilter.Query()
	for query.Next() {
		_, unit := query.Get()
		if unit.Dead {
			continue
		}
		hp[unit.Player] += unit.HP
		if e := query.Entity(); g.surfMap.HasAll(e) && g.surfMap.Get(e).Grounded() {
			grounded[unit.Player]++
		}
	}
	for player, n := range g.Alive() {
		slog.Info("player",
			"player", player,
			"units", n,
			"grounded", grounded[player],
			"hp", hp[player],
		)
	}

	slog.Info("world",
		"tick", g.tick,
		"bodies", g.phys.Bodies(),
		"gravity_sources", g.field.Sources(),
	)
}
