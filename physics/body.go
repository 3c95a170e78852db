package physics

import (
	"github.com/jakecoffman/cp"
	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a handle to a rigid body living in a World. The zero value is not
// attached to anything.
type Body struct {
	b *cp.Body
}

// Valid reports whether the handle points at a body.
func (b Body) Valid() bool { return b.b != nil }

// Position implements Positioned.
func (b Body) Position() r2.Vec { return toR2(b.b.Position()) }

func (b Body) SetPosition(p r2.Vec) { b.b.SetPosition(toCP(p)) }

func (b Body) Angle() float64 { return b.b.Angle() }

func (b Body) SetAngle(a float64) { b.b.SetAngle(a) }

func (b Body) Velocity() r2.Vec { return toR2(b.b.Velocity()) }

func (b Body) SetVelocity(v r2.Vec) { b.b.SetVelocityVector(toCP(v)) }

func (b Body) AngularVelocity() float64 { return b.b.AngularVelocity() }

func (b Body) SetAngularVelocity(w float64) { b.b.SetAngularVelocity(w) }

func (b Body) Mass() float64 { return b.b.Mass() }

// LocalToWorld converts a body-frame point to world space.
func (b Body) LocalToWorld(p r2.Vec) r2.Vec { return toR2(b.b.LocalToWorld(toCP(p))) }

// WorldToLocal converts a world point to the body frame.
func (b Body) WorldToLocal(p r2.Vec) r2.Vec { return toR2(b.b.WorldToLocal(toCP(p))) }

// ApplyImpulse applies impulse j at world point p.
func (b Body) ApplyImpulse(j, p r2.Vec) { b.b.ApplyImpulseAtWorldPoint(toCP(j), toCP(p)) }

// Data returns the value attached when the body was created.
func (b Body) Data() any { return b.b.UserData }

func toR2(v cp.Vector) r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

func toCP(v r2.Vec) cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }
