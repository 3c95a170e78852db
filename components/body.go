package components

import "github.com/pthm-cable/orbitfall/physics"

// Body links an entity to its rigid body.
type Body struct {
	Handle physics.Body
	Radius float64 // bounding radius for proximity queries
	Tag    Tag
}
