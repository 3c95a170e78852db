// Package ballistics finds launch angles that hit a target under a
// position-dependent gravity field. There is no closed form for a field
// that changes along the path, so the solver shoots: it simulates a
// candidate, classifies it as over- or undershoot and narrows the bracket.
package ballistics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/planet"
)

// Field samples gravitational acceleration at a world point.
type Field interface {
	Gravity(p r2.Vec) r2.Vec
}

// Outcome classifies a solve.
type Outcome uint8

const (
	// Infeasible means no candidate ever passed over the target.
	Infeasible Outcome = iota
	// BestEffort means the budget ran out while bisecting; the angle is the
	// last candidate tried, normally the midpoint of the previous bracket.
	BestEffort
	// Hit means a simulated trajectory passed within the target radius.
	Hit
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case BestEffort:
		return "best_effort"
	}
	return "infeasible"
}

// Defaults used when a Solver field is left at zero.
const (
	DefaultStep            = 1.0 / 30
	DefaultFlightTime      = 1.5
	DefaultMaxIterations   = 15
	DefaultBracketFraction = 0.3
)

// Solver holds the search constants. It keeps no state between calls, so a
// single Solver can be shared and called speculatively.
type Solver struct {
	Field           Field
	Step            float64 // simulation substep in seconds
	FlightTime      float64 // simulated time per candidate
	MaxIterations   int
	BracketFraction float64 // fraction of the remaining gap to "up" taken per bracketing step
}

// NewSolver returns a solver over field with default constants.
func NewSolver(field Field) *Solver {
	return &Solver{
		Field:           field,
		Step:            DefaultStep,
		FlightTime:      DefaultFlightTime,
		MaxIterations:   DefaultMaxIterations,
		BracketFraction: DefaultBracketFraction,
	}
}

// Request describes one shot.
type Request struct {
	From   r2.Vec
	Speed  float64
	Target r2.Vec
	Radius float64

	// TargetVelocity moves the target linearly during the simulated flight.
	TargetVelocity r2.Vec
	// LauncherVelocity is added to the muzzle velocity.
	LauncherVelocity r2.Vec
}

// Solution is the result of a solve.
type Solution struct {
	Outcome    Outcome
	Angle      float64 // world launch angle in radians
	Iterations int
	Miss       float64 // closest approach of the reported angle
}

// Feasible reports whether the caller should shoot at Angle.
func (s Solution) Feasible() bool {
	return s.Outcome != Infeasible
}

// Solve finds a launch angle from 'from' at the given muzzle speed that hits
// a stationary target of the given radius.
func (s *Solver) Solve(from r2.Vec, speed float64, target r2.Vec, radius float64) Solution {
	return s.SolveRequest(Request{From: from, Speed: speed, Target: target, Radius: radius})
}

// SolveRequest runs the two-phase search. Candidates are parametrized as
// direct + t*(up - direct) for t in [0, 1], where direct points at the target
// and up opposes local gravity. Until the first overshoot the lower bound
// advances by BracketFraction of the remaining gap; afterwards the bracket is
// bisected.
func (s *Solver) SolveRequest(req Request) Solution {
	maxIt := s.MaxIterations
	if maxIt <= 0 {
		maxIt = DefaultMaxIterations
	}
	frac := s.BracketFraction
	if frac <= 0 || frac >= 1 {
		frac = DefaultBracketFraction
	}

	toTarget := r2.Sub(req.Target, req.From)
	direct := math.Atan2(toTarget.Y, toTarget.X)
	up := direct + math.Pi/2
	if g := s.Field.Gravity(req.From); r2.Norm2(g) > 0 {
		up = math.Atan2(-g.Y, -g.X)
	}
	span := planet.AngleDelta(direct, up)
	angleOf := func(t float64) float64 { return direct + t*span }

	lo, hi := 0.0, 1.0
	t := 0.0
	bisecting := false
	var a float64
	var sh shot
	for it := 1; it <= maxIt; it++ {
		a = angleOf(t)
		sh = s.shoot(req, a)
		if sh.hit {
			return Solution{Outcome: Hit, Angle: a, Iterations: it, Miss: sh.minDist}
		}
		if sh.crossed && sh.height > 0 {
			hi = t
			bisecting = true
		} else {
			lo = t
		}
		if bisecting {
			t = (lo + hi) / 2
		} else {
			t = lo + frac*(1-lo)
		}
	}

	// The budget is spent; report the last candidate rather than simulate
	// another. Before the first overshoot that candidate is the lower bound.
	out := Infeasible
	if bisecting {
		out = BestEffort
	}
	return Solution{Outcome: out, Angle: a, Iterations: maxIt, Miss: sh.minDist}
}

// shot summarizes one simulated trajectory.
type shot struct {
	hit     bool
	crossed bool    // along-track distance changed sign
	height  float64 // height above the target at closest along-track approach
	minDist float64
}

// shoot simulates a projectile launched at angle a with semi-implicit Euler
// and classifies it in a local frame whose up axis opposes gravity.
func (s *Solver) shoot(req Request, a float64) shot {
	dt := s.step()
	n := steps(s.FlightTime, dt)

	pos := req.From
	vel := r2.Add(r2.Scale(req.Speed, r2.Vec{X: math.Cos(a), Y: math.Sin(a)}), req.LauncherVelocity)

	res := shot{minDist: math.Inf(1)}
	sign := 0.0
	bestAlong := math.Inf(1)
	prevAlong := 1.0 // the target starts ahead

	for k := 1; k <= n; k++ {
		pos = r2.Add(pos, r2.Scale(dt, vel))
		g := s.Field.Gravity(pos)
		vel = r2.Add(vel, r2.Scale(dt, g))

		target := r2.Add(req.Target, r2.Scale(float64(k)*dt, req.TargetVelocity))
		rel := r2.Sub(target, pos)
		dist := r2.Norm(rel)
		res.minDist = math.Min(res.minDist, dist)
		if dist <= req.Radius {
			res.hit = true
			return res
		}

		upv := r2.Vec{X: 0, Y: 1}
		if r2.Norm2(g) > 0 {
			upv = r2.Scale(-1, r2.Unit(g))
		}
		fwd := r2.Vec{X: upv.Y, Y: -upv.X}
		if sign == 0 {
			sign = 1
			if r2.Dot(r2.Sub(target, req.From), fwd) < 0 {
				sign = -1
			}
		}
		along := sign * r2.Dot(rel, fwd)

		if (prevAlong > 0) != (along > 0) {
			res.crossed = true
		}
		prevAlong = along
		if math.Abs(along) < bestAlong {
			bestAlong = math.Abs(along)
			res.height = -r2.Dot(rel, upv)
		}
	}
	return res
}

func (s *Solver) step() float64 {
	if s.Step > 0 {
		return s.Step
	}
	return DefaultStep
}

// Trace samples the path of a projectile launched from 'from' with velocity
// vel for the given duration, one point per solver step.
func (s *Solver) Trace(from, vel r2.Vec, duration float64) []r2.Vec {
	dt := s.step()
	n := steps(duration, dt)
	path := make([]r2.Vec, 0, n+1)
	path = append(path, from)
	pos := from
	for k := 0; k < n; k++ {
		pos = r2.Add(pos, r2.Scale(dt, vel))
		vel = r2.Add(vel, r2.Scale(dt, s.Field.Gravity(pos)))
		path = append(path, pos)
	}
	return path
}

// steps returns how many substeps of dt cover duration, ignoring rounding
// noise in the division.
func steps(duration, dt float64) int {
	return int(math.Ceil(duration/dt - 1e-9))
}
