package telemetry

import "github.com/pthm-cable/orbitfall/ballistics"

// AimRecord is one targeting solve, flattened for aim.csv.
type AimRecord struct {
	Tick       int32   `csv:"tick"`
	Shooter    uint32  `csv:"shooter"`
	Target     uint32  `csv:"target"`
	Distance   float64 `csv:"distance"`
	Outcome    string  `csv:"outcome"`
	Angle      float64 `csv:"angle"`
	Iterations int     `csv:"iterations"`
	Miss       float64 `csv:"miss"`
}

// NewAimRecord flattens a solve.
func NewAimRecord(tick int32, shooter, target uint32, distance float64, sol ballistics.Solution) AimRecord {
	return AimRecord{
		Tick:       tick,
		Shooter:    shooter,
		Target:     target,
		Distance:   distance,
		Outcome:    sol.Outcome.String(),
		Angle:      sol.Angle,
		Iterations: sol.Iterations,
		Miss:       sol.Miss,
	}
}
