package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/components"
	"github.com/pthm-cable/orbitfall/physics"
	"github.com/pthm-cable/orbitfall/planet"
)

// spawnClearance lifts new tanks off the surface so they settle instead of
// starting in contact.
const spawnClearance = 0.5

// maxSpawnLifts bounds how far a tank is stacked above crowded spawn sites.
const maxSpawnLifts = 4

// SpawnTank places a tank on planet planetIndex at longitude lng (degrees),
// optionally on a new foundation platform, co-moving with the surface.
func (g *Game) SpawnTank(planetIndex int, lng float64, player int, platform bool) (ecs.Entity, error) {
	if planetIndex < 0 || planetIndex >= len(g.planets) {
		return ecs.Entity{}, fmt.Errorf("planet %d out of range [0, %d)", planetIndex, len(g.planets))
	}
	pe := g.planets[planetIndex]
	crust := g.planetMap.Get(pe).Crust
	a := planet.MainAngle(lng * math.Pi / 180)
	alt := crust.AltitudeAt(a)
	if platform {
		if top, ok := g.buildPlatform(pe, a); ok {
			alt = top
		}
	}

	u := g.cfg.Units
	frame := g.frameOf(pe)
	r := crust.CoreRadius() + alt + u.TankHeight/2 + spawnClearance
	pos := frame.PolarToWorld(r, a)
	for lifts := 0; lifts < maxSpawnLifts && g.crowded(pos, g.cfg.Derived.TankRadius); lifts++ {
		r += u.TankHeight + spawnClearance
		pos = frame.PolarToWorld(r, a)
	}
	up := frame.Up(a)

	id := g.newID()
	tag := components.MakeTag(components.KindTank, id)
	handle := g.phys.AddBoxBody(pos, math.Atan2(up.Y, up.X)-math.Pi/2,
		u.TankWidth, u.TankHeight, u.TankMass, physics.CategoryUnit, tag, g.unitVelocity)

	// Co-move with the surface under the tank.
	ph := g.bodyMap.Get(pe).Handle
	w := ph.AngularVelocity()
	rel := r2.Sub(pos, ph.Position())
	handle.SetVelocity(r2.Add(ph.Velocity(), r2.Vec{X: -w * rel.Y, Y: w * rel.X}))
	handle.SetAngularVelocity(w)

	body := components.Body{Handle: handle, Radius: g.cfg.Derived.TankRadius, Tag: tag}
	unit := components.Unit{ID: id, Player: player, HP: u.TankHP, MaxHP: u.TankHP}
	tank := components.Tank{
		GunAngle:   math.Pi / 2,
		ThinkTimer: g.rng.Float64() * g.cfg.Aim.ThinkInterval,
	}
	surf := components.Surface{}
	e := g.tankMapper.NewEntity(&body, &unit, &tank, &surf)

	g.byTag[tag] = e
	g.lifetime.Register(id, g.tick, player)

	slog.Debug("tank spawned",
		"tank", tag.String(),
		"player", player,
		"planet", planetIndex,
		"longitude", lng,
		"altitude", r-crust.CoreRadius(),
	)
	return e, nil
}

// crowded reports whether a tank already overlaps the box of half-size r
// around pos.
func (g *Game) crowded(pos r2.Vec, r float64) bool {
	half := r2.Vec{X: r, Y: r}
	for _, data := range g.phys.QueryBox(r2.Sub(pos, half), r2.Add(pos, half)) {
		if tag, ok := data.(components.Tag); ok && tag.Kind() == components.KindTank {
			return true
		}
	}
	return false
}

// buildPlatform adds a foundation over the segment at local angle a and
// returns the platform's top altitude. It fails when the site is taken.
func (g *Game) buildPlatform(pe ecs.Entity, a float64) (float64, bool) {
	p := g.planetMap.Get(pe)
	crust := p.Crust
	height := g.cfg.Planet.PlatformHeight

	i := crust.Locate(a)
	alt1, alt2 := crust.Boundary(i)
	top := math.Max(alt1, alt2) + height

	occ := g.occupancy[p.Index]
	ri, ai, ok := occ.Locate(crust.CoreRadius()+top-height/2, a)
	if !ok || *occ.At(ri, ai) {
		slog.Warn("platform site occupied", "planet", p.Index, "segment", i)
		return 0, false
	}
	*occ.At(ri, ai) = true

	quad := crust.FoundationQuad(i, height)
	idx := crust.AddPlatform(quad)
	ptag := components.MakeTag(components.KindPlatform, g.newID())
	g.phys.AddPlatformShape(g.bodyMap.Get(pe).Handle, quad, ptag)
	g.byTag[ptag] = pe

	slog.Debug("platform built", "planet", p.Index, "segment", i, "platform", idx, "top", top)
	return top, true
}

// Fire launches a shell from the tank's muzzle along its gun.
func (g *Game) Fire(e ecs.Entity) {
	if !g.live(e) || !g.tankMap.HasAll(e) {
		return
	}
	u := g.cfg.Units

	// Copy what we need: creating the shell entity invalidates component pointers.
	handle := g.bodyMap.Get(e).Handle
	unit := *g.unitMap.Get(e)
	tank := g.tankMap.Get(e)
	a := handle.Angle() + tank.GunAngle

	dir := r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
	muzzle := r2.Add(handle.Position(), r2.Scale(u.GunLength, dir))
	if g.buried(muzzle) {
		slog.Debug("muzzle buried", "tank", unit.ID, "tick", g.tick)
		return
	}
	tank.Shots++

	id := g.newID()
	tag := components.MakeTag(components.KindShell, id)
	sh := g.phys.AddCircleBody(muzzle, u.ShellRadius, u.ShellMass, physics.CategoryShell, tag, nil)
	sh.SetVelocity(r2.Add(handle.Velocity(), r2.Scale(u.ShellSpeed, dir)))

	body := components.Body{Handle: sh, Radius: u.ShellRadius, Tag: tag}
	shell := components.Shell{ID: id, Owner: unit.ID, Player: unit.Player, Damage: u.ShellDamage}
	g.byTag[tag] = g.shellMapper.NewEntity(&body, &shell)

	g.collector.RecordShot()
	g.lifetime.RecordShot(unit.ID)
}

// buried reports whether p lies inside terrain.
func (g *Game) buried(p r2.Vec) bool {
	data, _, ok := g.phys.Nearest(p, 0)
	if !ok {
		return false
	}
	tag, ok := data.(components.Tag)
	return ok && (tag.Kind() == components.KindPlanet || tag.Kind() == components.KindPlatform)
}

// ageShells advances shell clocks and expires old shells.
func (g *Game) ageShells(dt float64) {
	lifetime := g.cfg.Units.ShellLifetime
	query := g.shellFilter.Query()
	for query.Next() {
		_, shell := query.Get()
		shell.Age += dt
		if !shell.Spent && shell.Age > lifetime {
			shell.Spent = true
			g.collector.RecordExpired()
		}
	}
}

// cleanup removes dead units and spent shells after the physics step.
func (g *Game) cleanup() {
	// First pass: collect (must complete before modifying)
	g.removals = g.removals[:0]

	uq := g.unitFilter.Query()
	for uq.Next() {
		_, unit := uq.Get()
		if unit.Dead {
			g.removals = append(g.removals, uq.Entity())
		}
	}
	sq := g.shellFilter.Query()
	for sq.Next() {
		_, shell := sq.Get()
		if shell.Spent {
			g.removals = append(g.removals, sq.Entity())
		}
	}

	// Second pass: remove (query iteration complete)
	for _, e := range g.removals {
		g.removeEntity(e)
	}
}

func (g *Game) removeEntity(e ecs.Entity) {
	body := *g.bodyMap.Get(e)
	delete(g.byTag, body.Tag)

	if g.unitMap.HasAll(e) {
		id := g.unitMap.Get(e).ID
		g.lifetime.UpdateSurvivalTime(id, g.tick, g.cfg.Physics.DT)
		if ls := g.lifetime.Remove(id); ls != nil {
			slog.Info("unit destroyed", "unit", body.Tag.String(), "tick", g.tick, "lifetime", ls)
		}
	}

	g.world.RemoveEntity(e)
	g.phys.Remove(body.Handle)
}

// live reports whether e refers to an existing entity. The zero entity is
// never live, even though the world reserves a slot for it.
func (g *Game) live(e ecs.Entity) bool {
	return !e.IsZero() && g.world.Alive(e)
}

// entityOf resolves shape or body data to a live entity.
func (g *Game) entityOf(data any) (ecs.Entity, bool) {
	tag, ok := data.(components.Tag)
	if !ok {
		return ecs.Entity{}, false
	}
	e, ok := g.byTag[tag]
	if !ok || !g.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

// unitVelocity eases grounded units toward the spin of the planet under them.
func (g *Game) unitVelocity(b physics.Body, dt float64) {
	e, ok := g.entityOf(b.Data())
	if !ok || !g.surfMap.HasAll(e) {
		return
	}
	s := g.surfMap.Get(e)
	if !s.Grounded() || !g.live(s.Planet) {
		return
	}
	w := g.bodyMap.Get(s.Planet).Handle.AngularVelocity()
	b.SetAngularVelocity(physics.MatchSpin(b.AngularVelocity(), w, dt))
}

func (g *Game) newID() uint32 {
	g.nextID++
	return g.nextID
}
