package planet

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestFrameGeoRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		f := Frame{
			Position:   r2.Vec{X: (rng.Float64() - 0.5) * 1e4, Y: (rng.Float64() - 0.5) * 1e4},
			Angle:      (rng.Float64() - 0.5) * 20,
			CoreRadius: 100 + rng.Float64()*900,
		}
		lng := rng.Float64() * 360
		alt := rng.Float64() * 500

		gotLng, gotAlt := f.WorldToGeo(f.GeoToWorld(lng, alt))
		d := math.Abs(gotLng - lng)
		if d > 180 {
			d = 360 - d
		}
		if d > 1e-6 || math.Abs(gotAlt-alt) > 1e-6 {
			t.Fatalf("round trip (%f, %f) -> (%f, %f)", lng, alt, gotLng, gotAlt)
		}
	}
}

func TestFrameKnownValues(t *testing.T) {
	f := Frame{Position: r2.Vec{X: 10, Y: 20}, Angle: math.Pi / 2, CoreRadius: 50}

	tests := []struct {
		name string
		got  r2.Vec
		want r2.Vec
	}{
		{"geo 0 alt 10", f.GeoToWorld(0, 10), r2.Vec{X: 10, Y: 80}},
		{"geo 90 alt 0", f.GeoToWorld(90, 0), r2.Vec{X: -40, Y: 20}},
		{"polar", f.PolarToWorld(5, math.Pi), r2.Vec{X: 10, Y: 15}},
		{"local", f.LocalToWorld(r2.Vec{X: 1, Y: 0}), r2.Vec{X: 10, Y: 21}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if r2.Norm(r2.Sub(tc.got, tc.want)) > 1e-9 {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	r, a := f.WorldToPolar(r2.Vec{X: 10, Y: 15})
	if math.Abs(r-5) > 1e-9 || math.Abs(a-math.Pi) > 1e-9 {
		t.Errorf("WorldToPolar = (%f, %f), want (5, π)", r, a)
	}
	if up := f.Up(0); math.Abs(up.X) > 1e-9 || math.Abs(up.Y-1) > 1e-9 {
		t.Errorf("Up(0) = %v, want (0, 1)", up)
	}
}

func TestFrameAltAngleInverse(t *testing.T) {
	f := Frame{CoreRadius: 30}
	for _, a := range []float64{0, 1, 3, 6} {
		p := f.AltAngleToLocal(12, a)
		alt, got := f.LocalToAltAngle(p)
		if math.Abs(alt-12) > 1e-9 || math.Abs(got-a) > 1e-9 {
			t.Errorf("LocalToAltAngle(AltAngleToLocal(12, %f)) = (%f, %f)", a, alt, got)
		}
	}
}
