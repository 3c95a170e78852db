// Package game wires planets, units, the physics engine, the targeting
// systems and telemetry into a runnable battle.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/ballistics"
	"github.com/pthm-cable/orbitfall/components"
	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/physics"
	"github.com/pthm-cable/orbitfall/planet"
	"github.com/pthm-cable/orbitfall/systems"
	"github.com/pthm-cable/orbitfall/telemetry"
)

// Options configures a game instance.
type Options struct {
	Seed     int64
	LogStats bool // output stats via slog

	// OutputDir receives telemetry.csv, perf.csv, aim.csv and config.yaml.
	// Empty disables file output.
	OutputDir string

	// StatsCallback is called on each stats window flush.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete battle state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	world  *ecs.World
	phys   *physics.World
	field  *physics.Field
	solver *ballistics.Solver

	// Entity mappers
	planetMapper *ecs.Map3[components.Body, components.Planet, components.GravitySource]
	tankMapper   *ecs.Map4[components.Body, components.Unit, components.Tank, components.Surface]
	shellMapper  *ecs.Map2[components.Body, components.Shell]
	unitFilter   *ecs.Filter2[components.Body, components.Unit]
	shellFilter  *ecs.Filter2[components.Body, components.Shell]

	// Individual component mappers for lookups
	bodyMap   *ecs.Map1[components.Body]
	unitMap   *ecs.Map1[components.Unit]
	tankMap   *ecs.Map1[components.Tank]
	shellMap  *ecs.Map1[components.Shell]
	surfMap   *ecs.Map1[components.Surface]
	planetMap *ecs.Map1[components.Planet]

	planets   []ecs.Entity
	occupancy []*planet.RadialGrid[bool] // platform cells per planet
	byTag     map[components.Tag]ecs.Entity

	// Systems
	separation *systems.SeparationSystem
	aim        *systems.AimSystem
	surface    *systems.SurfaceSystem

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	lifetime      *telemetry.LifetimeTracker
	outputManager *telemetry.OutputManager
	aimRecords    []telemetry.AimRecord

	// State
	tick     int32
	nextID   uint32
	removals []ecs.Entity
}

// NewGame builds the world described by cfg: every configured planet with
// its generated crust, then the starting tanks.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	world := ecs.NewWorld()
	field := physics.NewField(cfg.Physics.GravityConstant, cfg.Physics.MinDistSq)

	solver := ballistics.NewSolver(field)
	solver.Step = cfg.Aim.Step
	solver.FlightTime = cfg.Aim.FlightTime
	solver.MaxIterations = cfg.Aim.MaxIterations
	solver.BracketFraction = cfg.Aim.BracketFraction

	g := &Game{
		cfg:   cfg,
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		world: world,
		field: field,
		phys: physics.NewWorld(field, physics.WorldConfig{
			Substeps:   cfg.Physics.Substeps,
			Damping:    cfg.Physics.Damping,
			Friction:   cfg.Physics.Friction,
			Elasticity: cfg.Physics.Elasticity,
		}),
		solver: solver,

		planetMapper: ecs.NewMap3[components.Body, components.Planet, components.GravitySource](world),
		tankMapper:   ecs.NewMap4[components.Body, components.Unit, components.Tank, components.Surface](world),
		shellMapper:  ecs.NewMap2[components.Body, components.Shell](world),
		unitFilter:   ecs.NewFilter2[components.Body, components.Unit](world),
		shellFilter:  ecs.NewFilter2[components.Body, components.Shell](world),

		bodyMap:   ecs.NewMap1[components.Body](world),
		unitMap:   ecs.NewMap1[components.Unit](world),
		tankMap:   ecs.NewMap1[components.Tank](world),
		shellMap:  ecs.NewMap1[components.Shell](world),
		surfMap:   ecs.NewMap1[components.Surface](world),
		planetMap: ecs.NewMap1[components.Planet](world),

		byTag: make(map[components.Tag]ecs.Entity),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetime:      telemetry.NewLifetimeTracker(),
	}

	g.separation = systems.NewSeparationSystem(world, cfg.Grid.Log2Size, cfg.Grid.CellLength, systems.SeparationConfig{
		Strength:    cfg.Units.SeparationStrength,
		MaxRelSpeed: cfg.Units.SeparationMaxRelSpeed,
	})
	g.aim = systems.NewAimSystem(world, solver, systems.AimConfig{
		ThinkInterval: cfg.Aim.ThinkInterval,
		Tolerance:     cfg.Aim.Tolerance,
		TargetRadius:  cfg.Aim.TargetRadius,
		MaxMiss:       cfg.Aim.MaxMiss,
		Range:         cfg.Aim.Range,
		ShellSpeed:    cfg.Units.ShellSpeed,
		GunTurnRate:   cfg.Units.GunTurnRate,
		ReloadTime:    cfg.Units.ReloadTime,
		DriveAccel:    cfg.Units.DriveAccel,
		MaxDriveSpeed: cfg.Units.MaxDriveSpeed,
	})
	g.surface = systems.NewSurfaceSystem(world)
	g.registerCollisions()

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.aim.Close()
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	for i, pc := range cfg.Planets {
		g.addPlanet(i, pc)
	}
	for i, pc := range cfg.Planets {
		for _, sc := range pc.Tanks {
			if _, err := g.SpawnTank(i, sc.Longitude, sc.Player, sc.Platform); err != nil {
				g.Close()
				return nil, fmt.Errorf("spawning tank on planet %d: %w", i, err)
			}
		}
	}

	return g, nil
}

// addPlanet generates a crust and creates the planet body and entity.
func (g *Game) addPlanet(index int, pc config.PlacementConfig) ecs.Entity {
	pcfg := g.cfg.Planet
	crust, rep := planet.Generate(g.rng, g.cfg.Derived.Gen)

	tag := components.MakeTag(components.KindPlanet, uint32(index+1))
	pos := r2.Vec{X: pc.X, Y: pc.Y}
	handle := g.phys.AddPlanetBody(crust, pos, pcfg.Mass, pcfg.Moment, pcfg.Spin, tag)
	handle.SetVelocity(r2.Vec{X: pc.VX, Y: pc.VY})
	g.field.AddSource(handle, pcfg.Mass)

	relief := maxAltitude(crust) + pcfg.PlatformHeight
	body := components.Body{Handle: handle, Radius: crust.CoreRadius() + relief, Tag: tag}
	p := components.Planet{Index: index, Crust: crust, Mass: pcfg.Mass}
	src := components.GravitySource{Mass: pcfg.Mass}
	e := g.planetMapper.NewEntity(&body, &p, &src)

	g.planets = append(g.planets, e)
	g.occupancy = append(g.occupancy, planet.NewRadialGrid[bool](
		crust.CoreRadius(), crust.CoreRadius()+relief+1, 1, crust.Len()))
	g.byTag[tag] = e

	slog.Info("planet created",
		"index", index,
		"x", pc.X,
		"y", pc.Y,
		"mountains", rep.Mountains,
		"deposits", rep.Deposits,
		"deposit_failures", rep.Failures,
	)
	return e
}

// Step runs a single tick of the simulation.
func (g *Game) Step() {
	dt := g.cfg.Physics.DT
	g.perfCollector.StartTick()

	// 1. Rebuild the tile grid and separate crowded units
	g.perfCollector.StartPhase(telemetry.PhaseGrid)
	g.separation.Update(dt)
	g.surface.Update()

	// 2. Targeting and firing
	g.perfCollector.StartPhase(telemetry.PhaseThink)
	fire := g.aim.Update(dt)
	g.recordSolves(g.aim.Events())
	g.perfCollector.RecordSolves(len(g.aim.Events()))
	for _, e := range fire {
		g.Fire(e)
	}

	// 3. Physics
	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.phys.Step(dt)
	g.ageShells(dt)

	// 4. Deferred removal
	g.perfCollector.StartPhase(telemetry.PhaseCleanup)
	g.cleanup()

	g.tick++

	// 5. Telemetry
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// World returns the ECS world.
func (g *Game) World() *ecs.World {
	return g.world
}

// Physics returns the physics world.
func (g *Game) Physics() *physics.World {
	return g.phys
}

// Planets returns the number of planets.
func (g *Game) Planets() int {
	return len(g.planets)
}

// Planet returns the planet component and entity of planet i.
func (g *Game) Planet(i int) (*components.Planet, ecs.Entity) {
	e := g.planets[i]
	return g.planetMap.Get(e), e
}

// Frame returns the current transform of planet i.
func (g *Game) Frame(i int) planet.Frame {
	return g.frameOf(g.planets[i])
}

func (g *Game) frameOf(e ecs.Entity) planet.Frame {
	h := g.bodyMap.Get(e).Handle
	return planet.Frame{
		Position:   h.Position(),
		Angle:      h.Angle(),
		CoreRadius: g.planetMap.Get(e).Crust.CoreRadius(),
	}
}

// Alive returns the number of live units per player.
func (g *Game) Alive() map[int]int {
	counts := make(map[int]int)
	query := g.unitFilter.Query()
	for query.Next() {
		_, unit := query.Get()
		if !unit.Dead {
			counts[unit.Player]++
		}
	}
	return counts
}

// Winner reports the last player standing. ok is false while more than one
// player has units; a battle with no units left returns -1, true.
func (g *Game) Winner() (player int, ok bool) {
	counts := g.Alive()
	switch len(counts) {
	case 0:
		return -1, true
	case 1:
		for p := range counts {
			return p, true
		}
	}
	return 0, false
}

// Close stops the worker pool and flushes output files.
func (g *Game) Close() {
	g.aim.Close()
	if err := g.outputManager.WriteAim(g.aimRecords); err != nil {
		slog.Error("failed to write aim records", "error", err)
	}
	g.aimRecords = g.aimRecords[:0]
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

func maxAltitude(c *planet.Crust) float64 {
	var top float64
	for i := 0; i < c.Len(); i++ {
		for _, p := range c.Segment(i).Points {
			top = max(top, p.Altitude)
		}
	}
	return top
}
