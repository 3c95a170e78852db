// Package physics owns the gravity field and the adapter around the rigid-body
// engine. The engine runs with zero built-in gravity; every dynamic body pulls
// its acceleration from a Field through the velocity-update hook.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Positioned is anything with a current world position. Gravity sources are
// held through this interface so the field never depends on entity types.
type Positioned interface {
	Position() r2.Vec
}

type source struct {
	body Positioned
	mass float64
}

// Field is a summed inverse-square gravity field over a set of mass sources.
//
// Sources are appended once and never removed. Planets outlive every other
// entity, so a removal path has no caller.
type Field struct {
	g         float64
	minDistSq float64
	sources   []source
}

// NewField creates an empty field with gravity constant g. Sources closer
// than sqrt(minDistSq) to a query point are skipped, and a source exactly at
// the query point is always skipped.
func NewField(g, minDistSq float64) *Field {
	return &Field{g: g, minDistSq: minDistSq}
}

// AddSource registers a permanent gravity source.
func (f *Field) AddSource(body Positioned, mass float64) {
	f.sources = append(f.sources, source{body: body, mass: mass})
}

// Sources returns the number of registered sources.
func (f *Field) Sources() int {
	return len(f.sources)
}

// Gravity returns the acceleration at p: G * Σ m_i (x_i - p) / |x_i - p|³.
func (f *Field) Gravity(p r2.Vec) r2.Vec {
	var acc r2.Vec
	for _, s := range f.sources {
		d := r2.Sub(s.body.Position(), p)
		distSq := r2.Norm2(d)
		if distSq == 0 || distSq < f.minDistSq {
			continue
		}
		acc = r2.Add(acc, r2.Scale(s.mass/(distSq*math.Sqrt(distSq)), d))
	}
	return r2.Scale(f.g, acc)
}

// Point is a fixed gravity source position, useful for static attractors.
type Point r2.Vec

// Position implements Positioned.
func (p Point) Position() r2.Vec {
	return r2.Vec(p)
}
