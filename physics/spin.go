package physics

import "math"

// MatchSpin eases angular velocity w toward the spin of the surface a unit
// rests on. The remaining difference decays to 10% per second.
func MatchSpin(w, wSurface, dt float64) float64 {
	return w - (w-wSurface)*(1-math.Pow(0.1, dt))
}
