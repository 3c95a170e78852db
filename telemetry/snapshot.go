package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 2

// Snapshot holds the observable battle state at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int32 `json:"tick"`

	Planets []PlanetState `json:"planets"`
	Units   []UnitState   `json:"units"`
}

// PlanetState holds one planet's pose and terrain summary.
type PlanetState struct {
	Index     int       `json:"index"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Angle     float64   `json:"angle"`
	Spin      float64   `json:"spin"`
	Core      float64   `json:"core_radius"`
	Altitudes []float64 `json:"altitudes"` // first-point altitude per segment
	Platforms int       `json:"platforms"`
	Deposits  []int     `json:"deposits"` // remaining amount per deposit

	// Body-frame geometry for drawing the planet.
	Outline [][2]float64   `json:"outline"`
	Strata  []StratumState `json:"strata,omitempty"`
}

// StratumState is one deposit band quad in body-frame coordinates.
type StratumState struct {
	ID      int           `json:"id"`
	Deposit int           `json:"deposit"`
	Corners [4][2]float64 `json:"corners"`
}

// UnitState holds one unit's physical and combat state.
type UnitState struct {
	ID     uint32  `json:"id"`
	Kind   string  `json:"kind"`
	Player int     `json:"player"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VelX   float64 `json:"vel_x"`
	VelY   float64 `json:"vel_y"`
	Angle  float64 `json:"angle"`
	HP     float64 `json:"hp"`
	Planet int     `json:"planet"` // -1 when airborne
	Gun    float64 `json:"gun_angle,omitempty"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
