package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func collect(g *TileGrid[int], pos r2.Vec, radius float64) []int {
	var out []int
	g.Query(pos, radius, func(e TileEntry[int]) bool {
		out = append(out, e.Item)
		return true
	})
	return out
}

func TestTileGridNeighborCell(t *testing.T) {
	g := NewTileGrid[int](4, 10)
	g.Add(7, r2.Vec{X: 9.5, Y: 5}, 1)

	// Query point sits in the next cell over.
	if got := collect(g, r2.Vec{X: 10.5, Y: 5}, 1); len(got) != 1 || got[0] != 7 {
		t.Fatalf("query from adjacent cell = %v, want [7]", got)
	}
	if got := collect(g, r2.Vec{X: 13.5, Y: 5}, 1); len(got) != 0 {
		t.Errorf("query without overlap = %v, want none", got)
	}

	g.Clear()
	if got := collect(g, r2.Vec{X: 10.5, Y: 5}, 1); len(got) != 0 {
		t.Errorf("query after Clear = %v, want none", got)
	}

	g.Add(8, r2.Vec{X: 10.2, Y: 5}, 1)
	if got := collect(g, r2.Vec{X: 9.8, Y: 5}, 1); len(got) != 1 || got[0] != 8 {
		t.Errorf("query after re-add = %v, want [8]", got)
	}
}

func TestTileGridWrapsAtEdges(t *testing.T) {
	g := NewTileGrid[int](2, 10) // 4×4 cells, 40 units per wrap
	g.Add(1, r2.Vec{X: 39.5, Y: 39.5}, 1)

	tests := []struct {
		name string
		pos  r2.Vec
		want int
	}{
		{"across x seam", r2.Vec{X: 40.5, Y: 39.5}, 1},
		{"across both seams", r2.Vec{X: 40.5, Y: 40.5}, 1},
		{"aliased but far", r2.Vec{X: 0.5, Y: 0.5}, 0},
		{"negative coordinates alias", r2.Vec{X: -0.5, Y: -0.5}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := collect(g, tc.pos, 1); len(got) != tc.want {
				t.Errorf("found %d items, want %d", len(got), tc.want)
			}
		})
	}
}

func TestTileGridTinyGridNoDuplicates(t *testing.T) {
	for _, log2 := range []uint{0, 1} {
		g := NewTileGrid[int](log2, 10)
		g.Add(3, r2.Vec{X: 5, Y: 5}, 1)
		if got := collect(g, r2.Vec{X: 5.5, Y: 5}, 1); len(got) != 1 {
			t.Errorf("log2=%d: found %d copies, want 1", log2, len(got))
		}
	}
}

func TestTileGridEarlyExit(t *testing.T) {
	g := NewTileGrid[int](3, 10)
	for i := 0; i < 5; i++ {
		g.Add(i, r2.Vec{X: 5, Y: 5}, 1)
	}
	visited := 0
	g.Query(r2.Vec{X: 5, Y: 5}, 1, func(TileEntry[int]) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("visited = %d, want 2", visited)
	}
}

func TestTileGridOversizedPanics(t *testing.T) {
	g := NewTileGrid[int](3, 10)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for radius 5 in cell length 10")
		}
	}()
	g.Add(1, r2.Vec{}, 5)
}
