// Package planet provides the planetary crust model: angular indexing,
// procedural generation, altitude queries and coordinate frames.
package planet

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// MainAngle returns a + 2πn with the result in [0, 2π).
func MainAngle(a float64) float64 {
	if a < 0 || a >= TwoPi {
		a -= TwoPi * math.Floor(a/TwoPi)
		// Floor can round a tiny negative input up to exactly 2π.
		if a >= TwoPi {
			a = 0
		}
	}
	return a
}

// AngleDelta returns the signed shortest rotation from 'from' to 'to', in (-π, π].
func AngleDelta(from, to float64) float64 {
	d := MainAngle(to - from)
	if d > math.Pi {
		d -= TwoPi
	}
	return d
}

// AngularGrid is a fixed-size circular array of cells indexed by angle.
// Cell i covers [i*step, (i+1)*step).
type AngularGrid[T any] struct {
	cells []T
	step  float64
}

// NewAngularGrid creates a grid that divides the full circle into n equal sectors.
func NewAngularGrid[T any](n int) *AngularGrid[T] {
	if n <= 0 {
		panic("planet: angular grid needs at least one sector")
	}
	return &AngularGrid[T]{
		cells: make([]T, n),
		step:  TwoPi / float64(n),
	}
}

// Locate returns the index of the sector containing angle a.
// Any real angle is accepted, including negative and > 2π values.
func (g *AngularGrid[T]) Locate(a float64) int {
	a = MainAngle(a)
	i := int(math.Floor(a/g.step)) % len(g.cells)
	if i < 0 {
		i += len(g.cells)
	}
	return i
}

// At returns a pointer to the cell at index i.
func (g *AngularGrid[T]) At(i int) *T {
	return &g.cells[i]
}

// Angle returns the starting angle of sector i.
func (g *AngularGrid[T]) Angle(i int) float64 {
	return float64(i) * g.step
}

// Step returns the angular width of one sector.
func (g *AngularGrid[T]) Step() float64 {
	return g.step
}

// Len returns the number of sectors.
func (g *AngularGrid[T]) Len() int {
	return len(g.cells)
}

// Next returns the index after i, wrapping around the ring.
func (g *AngularGrid[T]) Next(i int) int {
	return (i + 1) % len(g.cells)
}

// Prev returns the index before i, wrapping around the ring.
func (g *AngularGrid[T]) Prev(i int) int {
	return (i - 1 + len(g.cells)) % len(g.cells)
}
