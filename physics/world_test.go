package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/orbitfall/planet"
)

func TestWorldBodyFallsTowardSource(t *testing.T) {
	field := NewField(1, 1e-3)
	field.AddSource(Point{}, 1e6)
	w := NewWorld(field, WorldConfig{Substeps: 2, Damping: 1})

	b := w.AddCircleBody(r2.Vec{X: 0, Y: 500}, 2, 1, CategoryShell, "probe", nil)
	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60)
	}

	if b.Position().Y >= 500 {
		t.Errorf("body did not fall: y = %f", b.Position().Y)
	}
	if math.Abs(b.Position().X) > 1e-9 {
		t.Errorf("body drifted sideways: x = %f", b.Position().X)
	}
	if b.Data() != "probe" {
		t.Errorf("Data() = %v, want probe", b.Data())
	}
}

func TestWorldVelocityHookRuns(t *testing.T) {
	w := NewWorld(NewField(1, 1e-3), WorldConfig{Substeps: 3})
	calls := 0
	w.AddBoxBody(r2.Vec{}, 0, 4, 2, 1, CategoryUnit, nil, func(b Body, dt float64) {
		calls++
		b.SetAngularVelocity(MatchSpin(b.AngularVelocity(), 0, dt))
	})
	w.Step(1.0 / 60)
	if calls != 3 {
		t.Errorf("hook calls = %d, want one per substep (3)", calls)
	}
}

func TestWorldPlanetQueries(t *testing.T) {
	field := NewField(1, 1e-3)
	w := NewWorld(field, WorldConfig{Substeps: 1})
	crust := planet.NewCrust(36, 100)
	p := w.AddPlanetBody(crust, r2.Vec{X: 1000, Y: 0}, 1e6, 1e8, 0, "planet")
	field.AddSource(p, 1e6)

	data, _, ok := w.Nearest(r2.Vec{X: 1000, Y: 105}, 20)
	if !ok || data != "planet" {
		t.Errorf("Nearest = (%v, %v), want planet", data, ok)
	}
	if _, _, ok := w.Nearest(r2.Vec{X: 0, Y: 0}, 20); ok {
		t.Error("Nearest far from any shape should miss")
	}
	if hits := w.QueryBox(r2.Vec{X: 890, Y: -10}, r2.Vec{X: 910, Y: 10}); len(hits) == 0 {
		t.Error("QueryBox over the crust found nothing")
	}

	if w.Bodies() != 1 {
		t.Errorf("Bodies() = %d, want 1", w.Bodies())
	}
	w.Remove(p)
	if w.Bodies() != 0 {
		t.Errorf("Bodies() after Remove = %d, want 0", w.Bodies())
	}
}
