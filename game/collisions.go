package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/physics"
)

// shellArmTime is how long a shell ignores the tank that fired it.
const shellArmTime = 0.1

func (g *Game) registerCollisions() {
	g.phys.OnCollision(physics.CategoryShell, physics.CategoryUnit, g.shellHitsUnit, nil)
	g.phys.OnCollision(physics.CategoryShell, physics.CategoryPlanet, g.shellHitsGround, nil)
	g.phys.OnCollision(physics.CategoryShell, physics.CategoryShell, func(physics.Contact) bool { return false }, nil)
	g.phys.OnCollision(physics.CategoryUnit, physics.CategoryPlanet, g.unitTouchesGround, g.unitLeavesGround)
}

// shellHitsUnit applies damage and an amplified momentum transfer. The
// contact itself is never resolved by the engine.
func (g *Game) shellHitsUnit(c physics.Contact) bool {
	se, ok := g.entityOf(c.A)
	if !ok {
		return false
	}
	ue, ok := g.entityOf(c.B)
	if !ok {
		return false
	}
	shell := g.shellMap.Get(se)
	unit := g.unitMap.Get(ue)
	if shell.Spent || unit.Dead {
		return false
	}
	if shell.Owner == unit.ID && shell.Age < shellArmTime {
		return false
	}

	shell.Spent = true
	unit.HP -= shell.Damage

	j := r2.Scale(c.BodyA.Mass()*g.cfg.Units.HitImpulseScale, c.BodyA.Velocity())
	c.BodyB.ApplyImpulse(j, c.BodyA.Position())

	g.collector.RecordHit(shell.Damage)
	g.lifetime.RecordHit(shell.Owner, unit.ID, shell.Damage)

	if unit.HP <= 0 {
		unit.Dead = true
		g.collector.RecordKill()
		g.lifetime.RecordKill(shell.Owner)
		slog.Debug("unit killed", "unit", unit.ID, "by", shell.Owner, "tick", g.tick)
	}
	return false
}

// shellHitsGround destroys a shell on any planet or platform shape.
func (g *Game) shellHitsGround(c physics.Contact) bool {
	se, ok := g.entityOf(c.A)
	if !ok {
		return false
	}
	shell := g.shellMap.Get(se)
	if !shell.Spent {
		shell.Spent = true
		g.collector.RecordGroundHit()
		if pe, ok := g.entityOf(c.B); ok && g.planetMap.HasAll(pe) {
			g.crater(pe, c.BodyA.Position())
		}
	}
	return false
}

// crater draws down the deposit of the segment under a ground impact at
// world point at and returns the amount knocked loose.
func (g *Game) crater(pe ecs.Entity, at r2.Vec) int64 {
	p := g.planetMap.Get(pe)
	_, a := g.frameOf(pe).WorldToPolar(at)
	i := p.Crust.Locate(a)
	d := p.Crust.Segment(i).Deposit
	if d < 0 {
		return 0
	}
	n := p.Crust.Extract(d, g.cfg.Units.CraterYield)
	if n > 0 {
		slog.Debug("deposit cratered", "planet", p.Index, "segment", i, "deposit", d, "amount", n)
	}
	return n
}

// unitTouchesGround records the planet a unit rests on.
func (g *Game) unitTouchesGround(c physics.Contact) bool {
	ue, ok := g.entityOf(c.A)
	if !ok || !g.surfMap.HasAll(ue) {
		return true
	}
	pe, ok := g.entityOf(c.B)
	if !ok {
		return true
	}
	s := g.surfMap.Get(ue)
	if s.Planet != pe {
		s.Planet = pe
		s.Contacts = 0
	}
	s.Contacts++
	return true
}

func (g *Game) unitLeavesGround(c physics.Contact) {
	ue, ok := g.entityOf(c.A)
	if !ok || !g.surfMap.HasAll(ue) {
		return
	}
	pe, ok := g.entityOf(c.B)
	s := g.surfMap.Get(ue)
	if !ok || s.Planet != pe || s.Contacts == 0 {
		return
	}
	s.Contacts--
	if s.Contacts == 0 {
		s.Reset()
	}
}
