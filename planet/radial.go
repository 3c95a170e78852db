package planet

import "math"

// RadialGrid partitions an annulus [r1, r2) around the planet core into
// rsize rings of asize angular sectors each.
type RadialGrid[T any] struct {
	r1, r2 float64
	rsize  int
	asize  int
	rstep  float64
	astep  float64
	cells  []T // ri*asize + ai
}

// NewRadialGrid creates a grid over the annulus between r1 and r2.
func NewRadialGrid[T any](r1, r2 float64, rsize, asize int) *RadialGrid[T] {
	if rsize <= 0 || asize <= 0 || r2 <= r1 {
		panic("planet: invalid radial grid dimensions")
	}
	return &RadialGrid[T]{
		r1:    r1,
		r2:    r2,
		rsize: rsize,
		asize: asize,
		rstep: (r2 - r1) / float64(rsize),
		astep: TwoPi / float64(asize),
		cells: make([]T, rsize*asize),
	}
}

// Locate returns the ring and sector indices of polar point (r, a).
// ok is false when r falls outside the annulus.
func (g *RadialGrid[T]) Locate(r, a float64) (ri, ai int, ok bool) {
	ri = int(math.Floor((r - g.r1) / g.rstep))
	if ri < 0 || ri >= g.rsize {
		return 0, 0, false
	}
	ai = int(math.Floor(MainAngle(a)/g.astep)) % g.asize
	return ri, ai, true
}

// At returns the cell at ring ri, sector ai.
func (g *RadialGrid[T]) At(ri, ai int) *T {
	return &g.cells[ri*g.asize+ai]
}

// Dims returns the ring and sector counts.
func (g *RadialGrid[T]) Dims() (rsize, asize int) {
	return g.rsize, g.asize
}
