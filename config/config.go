// Package config provides configuration loading for the simulation.
//
// There is no package-level instance: Load returns a *Config that callers
// pass to the constructors that need it.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/orbitfall/planet"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics   PhysicsConfig     `yaml:"physics"`
	Planet    PlanetConfig      `yaml:"planet"`
	Planets   []PlacementConfig `yaml:"planets"`
	Units     UnitsConfig       `yaml:"units"`
	Grid      GridConfig        `yaml:"grid"`
	Aim       AimConfig         `yaml:"aim"`
	Telemetry TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds engine and gravity parameters.
type PhysicsConfig struct {
	DT              float64 `yaml:"dt"`
	Substeps        int     `yaml:"substeps"`
	GravityConstant float64 `yaml:"gravity_constant"`
	MinDistSq       float64 `yaml:"min_dist_sq"` // sources closer than this are ignored
	Damping         float64 `yaml:"damping"`     // fraction of velocity kept per second
	Friction        float64 `yaml:"friction"`
	Elasticity      float64 `yaml:"elasticity"`
}

// PlanetConfig holds crust generation and planet body parameters shared by
// every planet.
type PlanetConfig struct {
	Segments          int     `yaml:"segments"`
	CoreRadius        float64 `yaml:"core_radius"`
	Mass              float64 `yaml:"mass"`
	Moment            float64 `yaml:"moment"`
	Spin              float64 `yaml:"spin"` // rad/s
	Mountains         int     `yaml:"mountains"`
	MountainHeightMin float64 `yaml:"mountain_height_min"`
	MountainHeightMax float64 `yaml:"mountain_height_max"`
	MountainSlopeMin  float64 `yaml:"mountain_slope_min"` // altitude per degree
	MountainSlopeMax  float64 `yaml:"mountain_slope_max"`
	MountainMaxWidth  float64 `yaml:"mountain_max_width"` // degrees
	Roughness         float64 `yaml:"roughness"`
	RoughnessScale    float64 `yaml:"roughness_scale"`
	Deposits          int     `yaml:"deposits"`
	FailureBudget     int     `yaml:"failure_budget"`
	DepositPoints     int     `yaml:"deposit_points"`
	DepositReserve    int64   `yaml:"deposit_reserve"`
	OreDepth          float64 `yaml:"ore_depth"`
	OilDepth          float64 `yaml:"oil_depth"`
	OilThickness      float64 `yaml:"oil_thickness"`
	PlatformHeight    float64 `yaml:"platform_height"`
}

// PlacementConfig positions one planet and its starting tanks.
type PlacementConfig struct {
	X     float64       `yaml:"x"`
	Y     float64       `yaml:"y"`
	VX    float64       `yaml:"vx"`
	VY    float64       `yaml:"vy"`
	Tanks []SpawnConfig `yaml:"tanks"`
}

// SpawnConfig places one tank by longitude.
type SpawnConfig struct {
	Player    int     `yaml:"player"`
	Longitude float64 `yaml:"longitude"` // degrees
	Platform  bool    `yaml:"platform"`  // build a foundation under the tank
}

// UnitsConfig holds tank and shell parameters.
type UnitsConfig struct {
	TankWidth       float64 `yaml:"tank_width"`
	TankHeight      float64 `yaml:"tank_height"`
	TankMass        float64 `yaml:"tank_mass"`
	TankHP          float64 `yaml:"tank_hp"`
	GunLength       float64 `yaml:"gun_length"`
	GunTurnRate     float64 `yaml:"gun_turn_rate"` // rad/s
	ReloadTime      float64 `yaml:"reload_time"`
	DriveAccel      float64 `yaml:"drive_accel"`
	MaxDriveSpeed   float64 `yaml:"max_drive_speed"`
	ShellSpeed      float64 `yaml:"shell_speed"`
	ShellRadius     float64 `yaml:"shell_radius"`
	ShellMass       float64 `yaml:"shell_mass"`
	ShellDamage     float64 `yaml:"shell_damage"`
	ShellLifetime   float64 `yaml:"shell_lifetime"`
	HitImpulseScale float64 `yaml:"hit_impulse_scale"`
	CraterYield     int64   `yaml:"crater_yield"` // reserve knocked loose by a ground impact over a deposit

	SeparationStrength    float64 `yaml:"separation_strength"`
	SeparationMaxRelSpeed float64 `yaml:"separation_max_rel_speed"`
}

// GridConfig holds tile grid dimensions.
type GridConfig struct {
	Log2Size   uint    `yaml:"log2_size"`
	CellLength float64 `yaml:"cell_length"`
}

// AimConfig holds targeting and solver parameters.
type AimConfig struct {
	Step            float64 `yaml:"step"`
	FlightTime      float64 `yaml:"flight_time"`
	MaxIterations   int     `yaml:"max_iterations"`
	BracketFraction float64 `yaml:"bracket_fraction"`
	ThinkInterval   float64 `yaml:"think_interval"` // seconds between targeting passes
	Tolerance       float64 `yaml:"tolerance"`      // max gun error in radians to fire
	TargetRadius    float64 `yaml:"target_radius"`
	MaxMiss         float64 `yaml:"max_miss"` // best-effort solutions missing by more are not fired
	Range           float64 `yaml:"range"`    // enemies beyond this are ignored
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	Gen        planet.GenConfig // crust generation parameters
	TankRadius float64          // bounding radius of a tank hull
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	p := c.Planet
	c.Derived.Gen = planet.GenConfig{
		Segments:          p.Segments,
		CoreRadius:        p.CoreRadius,
		Mountains:         p.Mountains,
		MountainHeightMin: p.MountainHeightMin,
		MountainHeightMax: p.MountainHeightMax,
		MountainSlopeMin:  p.MountainSlopeMin,
		MountainSlopeMax:  p.MountainSlopeMax,
		MountainMaxWidth:  p.MountainMaxWidth,
		Roughness:         p.Roughness,
		RoughnessScale:    p.RoughnessScale,
		Deposits:          p.Deposits,
		FailureBudget:     p.FailureBudget,
		DepositPoints:     p.DepositPoints,
		DepositReserve:    p.DepositReserve,
		OreDepth:          p.OreDepth,
		OilDepth:          p.OilDepth,
		OilThickness:      p.OilThickness,
	}
	c.Derived.TankRadius = math.Hypot(c.Units.TankWidth, c.Units.TankHeight) / 2
}

// validate rejects settings the simulation cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	case c.Physics.MinDistSq <= 0:
		return fmt.Errorf("physics.min_dist_sq must be positive, got %v", c.Physics.MinDistSq)
	case c.Aim.MaxMiss <= 0:
		return fmt.Errorf("aim.max_miss must be positive, got %v", c.Aim.MaxMiss)
	case c.Planet.Segments <= 0:
		return fmt.Errorf("planet.segments must be positive, got %d", c.Planet.Segments)
	case c.Planet.DepositPoints < 1:
		return fmt.Errorf("planet.deposit_points must be at least 1, got %d", c.Planet.DepositPoints)
	case c.Grid.CellLength <= 2*c.Derived.TankRadius:
		return fmt.Errorf("grid.cell_length %v must exceed the tank diameter %v",
			c.Grid.CellLength, 2*c.Derived.TankRadius)
	case c.Grid.Log2Size > 15:
		return fmt.Errorf("grid.log2_size %d is too large", c.Grid.Log2Size)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
