package physics

import (
	"github.com/jakecoffman/cp"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/planet"
)

// Collision categories used to route engine contacts.
const (
	CategoryPlanet cp.CollisionType = iota + 1
	CategoryUnit
	CategoryShell
)

const flatEpsilon = 1e-6

// WorldConfig configures the engine adapter.
type WorldConfig struct {
	Substeps   int
	Damping    float64 // fraction of velocity kept per second
	Friction   float64
	Elasticity float64
}

// VelocityHook runs after gravity has been folded into a body's velocity,
// once per engine substep.
type VelocityHook func(b Body, dt float64)

// Contact is one side-ordered collision between two shapes.
type Contact struct {
	A, B         any // shape data in handler order
	BodyA, BodyB Body
	Normal       r2.Vec
}

// World wraps the rigid-body engine. Engine gravity is zero; each dynamic
// body samples the Field instead.
type World struct {
	space    *cp.Space
	field    *Field
	cfg      WorldConfig
	bodies   int
	shapes   []*cp.Shape
	scratchQ []any
}

// NewWorld creates a world whose bodies fall under field.
func NewWorld(field *Field, cfg WorldConfig) *World {
	if cfg.Substeps < 1 {
		cfg.Substeps = 1
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{})
	if cfg.Damping > 0 {
		space.SetDamping(cfg.Damping)
	}
	return &World{space: space, field: field, cfg: cfg}
}

// Field returns the gravity field driving the world.
func (w *World) Field() *Field { return w.field }

// Bodies returns the number of live bodies.
func (w *World) Bodies() int { return w.bodies }

// GravityVelocityFunc builds an engine velocity-update callback that replaces
// the engine's uniform gravity with the field sampled at the body position.
func GravityVelocityFunc(field *Field, hook VelocityHook) cp.BodyVelocityFunc {
	return func(body *cp.Body, _ cp.Vector, damping, dt float64) {
		g := field.Gravity(toR2(body.Position()))
		body.UpdateVelocity(toCP(g), damping, dt)
		if hook != nil {
			hook(Body{b: body}, dt)
		}
	}
}

// AddPlanetBody creates a dynamic planet body from a crust: a core circle
// plus one quad per surface edge reaching down to the core.
func (w *World) AddPlanetBody(crust *planet.Crust, pos r2.Vec, mass, moment, spin float64, data any) Body {
	body := w.addBody(cp.NewBody(mass, moment), pos, 0, data, nil)
	body.b.SetAngularVelocity(spin)

	core := crust.CoreRadius()
	w.addShape(cp.NewCircle(body.b, core, cp.Vector{}), CategoryPlanet, data)

	surf := crust.Surface()
	for i := range surf {
		p, q := surf[i], surf[(i+1)%len(surf)]
		if r2.Norm(p)-core < flatEpsilon && r2.Norm(q)-core < flatEpsilon {
			continue // flat edge, covered by the core circle
		}
		verts := []cp.Vector{
			toCP(r2.Scale(core/r2.Norm(p), p)),
			toCP(p),
			toCP(q),
			toCP(r2.Scale(core/r2.Norm(q), q)),
		}
		w.addShape(cp.NewPolyShape(body.b, len(verts), verts, cp.NewTransformIdentity(), 0), CategoryPlanet, data)
	}
	return body
}

// AddPlatformShape attaches a foundation quad, in body-local coordinates, to
// an existing planet body.
func (w *World) AddPlatformShape(body Body, quad [4]r2.Vec, data any) {
	verts := make([]cp.Vector, len(quad))
	for i, v := range quad {
		verts[i] = toCP(v)
	}
	w.addShape(cp.NewPolyShape(body.b, len(verts), verts, cp.NewTransformIdentity(), 0), CategoryPlanet, data)
}

// AddBoxBody creates a dynamic box body under field gravity.
func (w *World) AddBoxBody(pos r2.Vec, angle, width, height, mass float64, cat cp.CollisionType, data any, hook VelocityHook) Body {
	body := w.addBody(cp.NewBody(mass, cp.MomentForBox(mass, width, height)), pos, angle, data, hook)
	w.addShape(cp.NewBox(body.b, width, height, 0), cat, data)
	return body
}

// AddCircleBody creates a dynamic circle body under field gravity.
func (w *World) AddCircleBody(pos r2.Vec, radius, mass float64, cat cp.CollisionType, data any, hook VelocityHook) Body {
	body := w.addBody(cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{})), pos, 0, data, hook)
	w.addShape(cp.NewCircle(body.b, radius, cp.Vector{}), cat, data)
	return body
}

func (w *World) addBody(b *cp.Body, pos r2.Vec, angle float64, data any, hook VelocityHook) Body {
	b = w.space.AddBody(b)
	b.SetPosition(toCP(pos))
	b.SetAngle(angle)
	b.UserData = data
	b.SetVelocityUpdateFunc(GravityVelocityFunc(w.field, hook))
	w.bodies++
	return Body{b: b}
}

func (w *World) addShape(s *cp.Shape, cat cp.CollisionType, data any) {
	s = w.space.AddShape(s)
	s.SetCollisionType(cat)
	s.SetFriction(w.cfg.Friction)
	s.SetElasticity(w.cfg.Elasticity)
	s.UserData = data
}

// Remove detaches a body and its shapes. It must not be called while the
// engine is stepping.
func (w *World) Remove(body Body) {
	if !body.Valid() {
		return
	}
	w.shapes = w.shapes[:0]
	body.b.EachShape(func(s *cp.Shape) {
		w.shapes = append(w.shapes, s)
	})
	for _, s := range w.shapes {
		w.space.RemoveShape(s)
	}
	w.space.RemoveBody(body.b)
	w.bodies--
}

// Step advances the engine by dt split into the configured substeps.
func (w *World) Step(dt float64) {
	sub := dt / float64(w.cfg.Substeps)
	for i := 0; i < w.cfg.Substeps; i++ {
		w.space.Step(sub)
	}
}

// OnCollision routes contacts between categories a and b. begin decides
// whether the contact is processed; separate may be nil.
func (w *World) OnCollision(a, b cp.CollisionType, begin func(c Contact) bool, separate func(c Contact)) {
	h := w.space.NewCollisionHandler(a, b)
	h.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		return begin(contactOf(arb))
	}
	if separate != nil {
		h.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
			separate(contactOf(arb))
		}
	}
}

func contactOf(arb *cp.Arbiter) Contact {
	sa, sb := arb.Shapes()
	ba, bb := arb.Bodies()
	return Contact{
		A:      sa.UserData,
		B:      sb.UserData,
		BodyA:  Body{b: ba},
		BodyB:  Body{b: bb},
		Normal: toR2(arb.Normal()),
	}
}

// Nearest returns the data of the closest shape within maxDist of p.
func (w *World) Nearest(p r2.Vec, maxDist float64) (data any, dist float64, ok bool) {
	info := w.space.PointQueryNearest(toCP(p), maxDist, cp.SHAPE_FILTER_ALL)
	if info == nil || info.Shape == nil {
		return nil, 0, false
	}
	return info.Shape.UserData, info.Distance, true
}

// QueryBox returns the data of every shape whose bounds overlap the box
// [min, max]. The returned slice is reused by the next call.
func (w *World) QueryBox(min, max r2.Vec) []any {
	w.scratchQ = w.scratchQ[:0]
	bb := cp.BB{L: min.X, B: min.Y, R: max.X, T: max.Y}
	w.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(s *cp.Shape, _ interface{}) {
		w.scratchQ = append(w.scratchQ, s.UserData)
	}, nil)
	return w.scratchQ
}
