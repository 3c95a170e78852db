// Package systems provides the per-tick ECS systems and the spatial index
// they share.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// TileEntry is one item stored in a tile grid cell.
type TileEntry[T any] struct {
	Item   T
	Pos    r2.Vec
	Radius float64
}

type tileCell[T any] struct {
	gen     uint32
	entries []TileEntry[T]
}

// TileGrid is a toroidal spatial hash of 2^n × 2^n cells. World coordinates
// wrap onto the grid, so distant objects may share a cell; queries filter by
// real distance.
//
// Each item is written into its own cell and the 8 neighbors, so a query only
// reads the single cell containing the query point.
type TileGrid[T any] struct {
	size       int
	mask       int
	cellLength float64
	gen        uint32
	cells      []tileCell[T]
}

// NewTileGrid creates a grid of 2^log2Size cells per side.
func NewTileGrid[T any](log2Size uint, cellLength float64) *TileGrid[T] {
	if log2Size > 15 {
		panic("systems: tile grid too large")
	}
	if cellLength <= 0 {
		panic("systems: tile grid cell length must be positive")
	}
	size := 1 << log2Size
	return &TileGrid[T]{
		size:       size,
		mask:       size - 1,
		cellLength: cellLength,
		gen:        1,
		cells:      make([]tileCell[T], size*size),
	}
}

// Size returns the number of cells per side.
func (g *TileGrid[T]) Size() int { return g.size }

// CellLength returns the side length of one cell in world units.
func (g *TileGrid[T]) CellLength() float64 { return g.cellLength }

// Clear discards every entry in O(1). Cells are emptied lazily on their next
// write.
func (g *TileGrid[T]) Clear() {
	g.gen++
}

func (g *TileGrid[T]) coord(x float64) int {
	return int(math.Floor(x/g.cellLength)) & g.mask
}

// Add inserts item at pos into its cell and the surrounding 8. An item whose
// diameter reaches the cell length is a caller error.
func (g *TileGrid[T]) Add(item T, pos r2.Vec, radius float64) {
	if 2*radius >= g.cellLength {
		panic("systems: tile grid item too large for cell")
	}
	e := TileEntry[T]{Item: item, Pos: pos, Radius: radius}
	cx, cy := g.coord(pos.X), g.coord(pos.Y)

	var seen [9]int
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			idx := ((cy+dy)&g.mask)*g.size + (cx+dx)&g.mask
			dup := false
			for _, s := range seen[:n] {
				if s == idx {
					dup = true
					break
				}
			}
			if dup {
				continue // grids narrower than 3 cells alias neighbors
			}
			seen[n] = idx
			n++

			c := &g.cells[idx]
			if c.gen != g.gen {
				c.entries = c.entries[:0]
				c.gen = g.gen
			}
			c.entries = append(c.entries, e)
		}
	}
}

// Query calls visit for every entry in pos's cell whose circle overlaps the
// circle (pos, radius). Iteration stops when visit returns false.
func (g *TileGrid[T]) Query(pos r2.Vec, radius float64, visit func(e TileEntry[T]) bool) {
	c := &g.cells[g.coord(pos.Y)*g.size+g.coord(pos.X)]
	if c.gen != g.gen {
		return
	}
	for _, e := range c.entries {
		r := radius + e.Radius
		if r2.Norm2(r2.Sub(e.Pos, pos)) >= r*r {
			continue
		}
		if !visit(e) {
			return
		}
	}
}
