package systems

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orbitfall/components"
)

// SurfaceSystem drops surface references to planets that no longer exist.
type SurfaceSystem struct {
	world  *ecs.World
	filter *ecs.Filter1[components.Surface]
}

// NewSurfaceSystem creates a surface upkeep system.
func NewSurfaceSystem(w *ecs.World) *SurfaceSystem {
	return &SurfaceSystem{
		world:  w,
		filter: ecs.NewFilter1[components.Surface](w),
	}
}

// Update resets stale references and returns how many were cleared.
func (s *SurfaceSystem) Update() int {
	cleared := 0
	query := s.filter.Query()
	for query.Next() {
		surf := query.Get()
		if surf.Planet.IsZero() || s.world.Alive(surf.Planet) {
			continue
		}
		slog.Debug("stale surface cleared", "entity", query.Entity().ID())
		surf.Reset()
		cleared++
	}
	return cleared
}
