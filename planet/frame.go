package planet

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is a snapshot of a planet's rigid transform. Planets drift and spin,
// so callers should take a fresh Frame each tick rather than caching one.
type Frame struct {
	Position   r2.Vec  // world position of the core center
	Angle      float64 // rotation in radians
	CoreRadius float64
}

// WorldToLocal converts a world point into the planet's body frame.
func (f Frame) WorldToLocal(p r2.Vec) r2.Vec {
	return rotate(r2.Sub(p, f.Position), -f.Angle)
}

// LocalToWorld converts a body-frame point into world space.
func (f Frame) LocalToWorld(p r2.Vec) r2.Vec {
	return r2.Add(rotate(p, f.Angle), f.Position)
}

// AltAngleToLocal converts an altitude above the core and a local angle in
// radians into a body-frame point.
func (f Frame) AltAngleToLocal(alt, a float64) r2.Vec {
	return polar(f.CoreRadius+alt, a)
}

// LocalToAltAngle is the inverse of AltAngleToLocal. The angle is in [0, 2π).
func (f Frame) LocalToAltAngle(p r2.Vec) (alt, a float64) {
	return r2.Norm(p) - f.CoreRadius, MainAngle(math.Atan2(p.Y, p.X))
}

// GeoToLocal converts longitude in degrees and altitude into a body-frame point.
func (f Frame) GeoToLocal(lng, alt float64) r2.Vec {
	return f.AltAngleToLocal(alt, degToRad(lng))
}

// LocalToGeo returns longitude in degrees [0, 360) and altitude.
func (f Frame) LocalToGeo(p r2.Vec) (lng, alt float64) {
	alt, a := f.LocalToAltAngle(p)
	return radToDeg(a), alt
}

// PolarToLocal converts radius and angle into a body-frame point.
func (f Frame) PolarToLocal(r, a float64) r2.Vec {
	return polar(r, a)
}

// LocalToPolar returns radius and angle in [0, 2π) of a body-frame point.
func (f Frame) LocalToPolar(p r2.Vec) (r, a float64) {
	return r2.Norm(p), MainAngle(math.Atan2(p.Y, p.X))
}

// GeoToWorld converts geographic coordinates into a world point.
func (f Frame) GeoToWorld(lng, alt float64) r2.Vec {
	return f.LocalToWorld(f.GeoToLocal(lng, alt))
}

// WorldToGeo converts a world point into geographic coordinates.
func (f Frame) WorldToGeo(p r2.Vec) (lng, alt float64) {
	return f.LocalToGeo(f.WorldToLocal(p))
}

// PolarToWorld converts body-frame polar coordinates into a world point.
func (f Frame) PolarToWorld(r, a float64) r2.Vec {
	return f.LocalToWorld(polar(r, a))
}

// WorldToPolar converts a world point into body-frame polar coordinates.
func (f Frame) WorldToPolar(p r2.Vec) (r, a float64) {
	return f.LocalToPolar(f.WorldToLocal(p))
}

// Up returns the world-space outward normal at local angle a.
func (f Frame) Up(a float64) r2.Vec {
	return r2.Vec{X: math.Cos(a + f.Angle), Y: math.Sin(a + f.Angle)}
}

func rotate(p r2.Vec, a float64) r2.Vec {
	s, c := math.Sincos(a)
	return r2.Vec{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}
