package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/ballistics"
	"github.com/pthm-cable/orbitfall/components"
	"github.com/pthm-cable/orbitfall/planet"
)

// AimConfig holds targeting parameters for autonomous tanks.
type AimConfig struct {
	ThinkInterval float64 // seconds between solves per tank
	Tolerance     float64 // gun error in radians under which the tank fires
	TargetRadius  float64
	MaxMiss       float64 // best-effort solutions missing by more are dropped; 0 keeps all
	Range         float64
	ShellSpeed    float64
	GunTurnRate   float64 // rad/s
	ReloadTime    float64
	DriveAccel    float64
	MaxDriveSpeed float64
}

// SolveEvent records one targeting solve.
type SolveEvent struct {
	Tank     uint32
	Target   uint32
	Distance float64
	Solution ballistics.Solution
}

type candidate struct {
	e      ecs.Entity
	id     uint32
	player int
	pos    r2.Vec
	vel    r2.Vec
}

// AimSystem picks targets, runs the ballistic solver on a think interval,
// turns guns and decides when to fire. Tanks with no feasible shot drive
// toward their target instead.
type AimSystem struct {
	world   *ecs.World
	cfg     AimConfig
	tanks   *ecs.Filter3[components.Body, components.Unit, components.Tank]
	units   *ecs.Filter2[components.Body, components.Unit]
	tankMap *ecs.Map1[components.Tank]
	surfMap *ecs.Map1[components.Surface]
	bodyMap *ecs.Map1[components.Body]
	pool    *solvePool

	cands  []candidate
	events []SolveEvent
	fire   []ecs.Entity
}

// NewAimSystem creates an aim system using solver for every shot.
func NewAimSystem(w *ecs.World, solver *ballistics.Solver, cfg AimConfig) *AimSystem {
	return &AimSystem{
		world:   w,
		cfg:     cfg,
		tanks:   ecs.NewFilter3[components.Body, components.Unit, components.Tank](w),
		units:   ecs.NewFilter2[components.Body, components.Unit](w),
		tankMap: ecs.NewMap1[components.Tank](w),
		surfMap: ecs.NewMap1[components.Surface](w),
		bodyMap: ecs.NewMap1[components.Body](w),
		pool:    newSolvePool(solver),
	}
}

// Close stops the solver workers.
func (s *AimSystem) Close() {
	s.pool.stopWorkers()
}

// Events returns the solves made during the last Update.
func (s *AimSystem) Events() []SolveEvent {
	return s.events
}

// Update advances timers and returns the tanks that should fire this tick.
// The slice is reused by the next call.
func (s *AimSystem) Update(dt float64) []ecs.Entity {
	s.events = s.events[:0]
	s.fire = s.fire[:0]

	s.cands = s.cands[:0]
	uq := s.units.Query()
	for uq.Next() {
		body, unit := uq.Get()
		if unit.Dead {
			continue
		}
		s.cands = append(s.cands, candidate{
			e:      uq.Entity(),
			id:     unit.ID,
			player: unit.Player,
			pos:    body.Handle.Position(),
			vel:    body.Handle.Velocity(),
		})
	}

	// Phase A: timers and target selection, queueing solves
	s.pool.jobs = s.pool.jobs[:0]
	query := s.tanks.Query()
	for query.Next() {
		body, unit, tank := query.Get()
		if unit.Dead {
			continue
		}
		tank.Cooldown = math.Max(0, tank.Cooldown-dt)
		tank.ThinkTimer -= dt
		if tank.ThinkTimer <= 0 {
			tank.ThinkTimer += s.cfg.ThinkInterval
			s.think(query.Entity(), body, unit, tank)
		}
	}

	// Phase B: solve
	s.pool.run()

	// Phase C: apply results in queue order
	for i := range s.pool.jobs {
		job := &s.pool.jobs[i]
		s.events = append(s.events, SolveEvent{
			Tank:     job.tankID,
			Target:   job.targetID,
			Distance: job.distance,
			Solution: job.sol,
		})
		tank := s.tankMap.Get(job.tank)
		if s.usable(job.sol) {
			tank.AimAngle = job.sol.Angle
			tank.HasAim = true
			tank.Drive = 0
			continue
		}
		tank.HasAim = false
		tank.Drive = s.driveToward(job.tank, s.bodyMap.Get(job.tank), job.req.Target)
	}

	// Phase D: guns and drive
	query = s.tanks.Query()
	for query.Next() {
		body, unit, tank := query.Get()
		if unit.Dead {
			continue
		}
		e := query.Entity()
		if tank.HasAim {
			if s.turnGun(body, tank, dt) && tank.Cooldown <= 0 && s.targetAlive(tank.Target) {
				tank.Cooldown = s.cfg.ReloadTime
				s.fire = append(s.fire, e)
			}
		}
		s.drive(e, body, tank, dt)
	}
	return s.fire
}

// usable reports whether a solution is close enough to fire on.
func (s *AimSystem) usable(sol ballistics.Solution) bool {
	if !sol.Feasible() {
		return false
	}
	return sol.Outcome == ballistics.Hit || s.cfg.MaxMiss <= 0 || sol.Miss <= s.cfg.MaxMiss
}

// think selects the nearest enemy in range and queues a solve for it.
func (s *AimSystem) think(e ecs.Entity, body *components.Body, unit *components.Unit, tank *components.Tank) {
	pos := body.Handle.Position()
	best := -1
	bestDist := s.cfg.Range
	for i, c := range s.cands {
		if c.player == unit.Player {
			continue
		}
		if d := r2.Norm(r2.Sub(c.pos, pos)); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		tank.Target = ecs.Entity{}
		tank.HasAim = false
		tank.Drive = 0
		return
	}

	c := s.cands[best]
	tank.Target = c.e
	s.pool.jobs = append(s.pool.jobs, solveJob{
		tank:     e,
		tankID:   unit.ID,
		targetID: c.id,
		distance: bestDist,
		req: ballistics.Request{
			From:             pos,
			Speed:            s.cfg.ShellSpeed,
			Target:           c.pos,
			Radius:           s.cfg.TargetRadius,
			TargetVelocity:   c.vel,
			LauncherVelocity: body.Handle.Velocity(),
		},
	})
}

// turnGun rotates the gun toward the aim angle and reports whether it is
// within tolerance.
func (s *AimSystem) turnGun(body *components.Body, tank *components.Tank, dt float64) bool {
	world := body.Handle.Angle() + tank.GunAngle
	d := planet.AngleDelta(world, tank.AimAngle)
	limit := s.cfg.GunTurnRate * dt
	step := math.Max(-limit, math.Min(limit, d))
	tank.GunAngle = planet.MainAngle(tank.GunAngle + step)
	return math.Abs(d-step) <= s.cfg.Tolerance
}

// driveToward returns the hull direction (-1 or 1) that moves the tank
// around its planet toward p, or 0 when the tank is airborne.
func (s *AimSystem) driveToward(e ecs.Entity, body *components.Body, p r2.Vec) float64 {
	if !s.surfMap.HasAll(e) {
		return 0
	}
	surf := s.surfMap.Get(e)
	if !surf.Grounded() || surf.Planet.IsZero() || !s.world.Alive(surf.Planet) || !s.bodyMap.HasAll(surf.Planet) {
		return 0
	}
	pb := s.bodyMap.Get(surf.Planet).Handle
	self := pb.WorldToLocal(body.Handle.Position())
	goal := pb.WorldToLocal(p)
	d := planet.AngleDelta(math.Atan2(self.Y, self.X), math.Atan2(goal.Y, goal.X))

	// Counter-clockwise tangent at the tank, in world space.
	a := math.Atan2(self.Y, self.X) + pb.Angle()
	want := r2.Scale(math.Copysign(1, d), r2.Vec{X: -math.Sin(a), Y: math.Cos(a)})
	fwd := hullForward(body.Handle.Angle())
	if r2.Dot(want, fwd) >= 0 {
		return 1
	}
	return -1
}

// drive accelerates grounded tanks along their hull axis.
func (s *AimSystem) drive(e ecs.Entity, body *components.Body, tank *components.Tank, dt float64) {
	if tank.Drive == 0 || !s.surfMap.HasAll(e) || !s.surfMap.Get(e).Grounded() {
		return
	}
	dir := r2.Scale(tank.Drive, hullForward(body.Handle.Angle()))
	vel := body.Handle.Velocity()
	if r2.Dot(vel, dir) >= s.cfg.MaxDriveSpeed {
		return
	}
	body.Handle.SetVelocity(r2.Add(vel, r2.Scale(s.cfg.DriveAccel*dt, dir)))
}

func (s *AimSystem) targetAlive(t ecs.Entity) bool {
	for _, c := range s.cands {
		if c.e == t {
			return true
		}
	}
	return false
}

func hullForward(angle float64) r2.Vec {
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}
