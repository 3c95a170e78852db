package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/components"
	"github.com/pthm-cable/orbitfall/physics"
)

// SeparationConfig holds anti-overlap parameters.
type SeparationConfig struct {
	Strength    float64 // velocity change per unit overlap per second
	MaxRelSpeed float64 // pairs separating faster than this are left alone
}

type unitRef struct {
	e    ecs.Entity
	body physics.Body
}

type push struct {
	body physics.Body
	dv   r2.Vec
}

// SeparationSystem keeps units from stacking. The tile grid is rebuilt from
// scratch every tick and queried once per unit.
type SeparationSystem struct {
	grid   *TileGrid[unitRef]
	filter *ecs.Filter2[components.Body, components.Unit]
	cfg    SeparationConfig
	pushes []push
}

// NewSeparationSystem creates a separation system with its own tile grid of
// 2^log2Size cells per side.
func NewSeparationSystem(w *ecs.World, log2Size uint, cellLength float64, cfg SeparationConfig) *SeparationSystem {
	return &SeparationSystem{
		grid:   NewTileGrid[unitRef](log2Size, cellLength),
		filter: ecs.NewFilter2[components.Body, components.Unit](w),
		cfg:    cfg,
	}
}

// Update rebuilds the grid and nudges overlapping units apart. Returns the
// number of units pushed.
func (s *SeparationSystem) Update(dt float64) int {
	s.grid.Clear()
	query := s.filter.Query()
	for query.Next() {
		body, unit := query.Get()
		if unit.Dead {
			continue
		}
		s.grid.Add(unitRef{e: query.Entity(), body: body.Handle}, body.Handle.Position(), body.Radius)
	}

	s.pushes = s.pushes[:0]
	maxRelSq := s.cfg.MaxRelSpeed * s.cfg.MaxRelSpeed
	query = s.filter.Query()
	for query.Next() {
		body, unit := query.Get()
		if unit.Dead {
			continue
		}
		self := query.Entity()
		pos := body.Handle.Position()
		vel := body.Handle.Velocity()

		var sep r2.Vec
		s.grid.Query(pos, body.Radius, func(e TileEntry[unitRef]) bool {
			if e.Item.e == self {
				return true
			}
			if r2.Norm2(r2.Sub(e.Item.body.Velocity(), vel)) > maxRelSq {
				return true
			}
			d := r2.Sub(pos, e.Pos)
			dist := r2.Norm(d)
			if dist == 0 {
				return true // coincident, no direction to push
			}
			overlap := body.Radius + e.Radius - dist
			sep = r2.Add(sep, r2.Scale(overlap/dist, d))
			return true
		})
		if sep != (r2.Vec{}) {
			s.pushes = append(s.pushes, push{body: body.Handle, dv: r2.Scale(s.cfg.Strength*dt, sep)})
		}
	}

	// Apply after the pass so every unit sees the same velocities.
	for _, p := range s.pushes {
		p.body.SetVelocity(r2.Add(p.body.Velocity(), p.dv))
	}
	return len(s.pushes)
}
