// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbitfall/planet"
)

// Planet is a gravitating body with a crust.
type Planet struct {
	Index int
	Crust *planet.Crust
	Mass  float64
}

// GravitySource marks an entity registered with the gravity field.
type GravitySource struct {
	Mass float64
}

// Unit holds the shared state of anything that can be shot.
type Unit struct {
	ID     uint32
	Player int
	HP     float64
	MaxHP  float64
	Dead   bool
}

// Tank is an armed ground unit.
type Tank struct {
	GunAngle   float64    // radians, relative to the hull
	Cooldown   float64    // seconds until the gun can fire
	ThinkTimer float64    // seconds until the next targeting pass
	Target     ecs.Entity // zero when no enemy is tracked
	AimAngle   float64    // world angle the gun is turning toward
	HasAim     bool
	Drive      float64 // -1, 0 or 1 along the hull axis
	Shots      int
}

// Shell is a projectile in flight.
type Shell struct {
	ID     uint32
	Owner  uint32 // Unit.ID of the tank that fired it
	Player int
	Damage float64
	Age    float64 // seconds since launch
	Spent  bool
}

// Surface tracks which planet a unit is resting on.
type Surface struct {
	Planet   ecs.Entity // zero when airborne
	Contacts int
}

// Grounded reports whether the unit touches a planet.
func (s *Surface) Grounded() bool {
	return !s.Planet.IsZero() && s.Contacts > 0
}

// Reset drops the surface reference.
func (s *Surface) Reset() {
	s.Planet = ecs.Entity{}
	s.Contacts = 0
}
