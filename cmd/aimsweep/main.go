// Command aimsweep generates a single planet and solves a shot from one
// surface point to targets spaced around the crust, writing every solve to
// aim.csv. It is used to inspect solver behavior over terrain without
// running a battle.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/orbitfall/ballistics"
	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/physics"
	"github.com/pthm-cable/orbitfall/planet"
	"github.com/pthm-cable/orbitfall/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 1, "Crust generation seed")
	from := flag.Float64("from", 0, "Shooter longitude in degrees")
	span := flag.Float64("span", 60, "Sweep targets this many degrees either side of the shooter")
	step := flag.Float64("step", 1, "Degrees between targets")
	lift := flag.Float64("lift", 2, "Height above ground of shooter and targets")
	speed := flag.Float64("speed", 0, "Muzzle speed (0 = units.shell_speed)")
	outputDir := flag.String("output", ".", "Directory for aim.csv")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *speed <= 0 {
		*speed = cfg.Units.ShellSpeed
	}

	records, err := sweep(cfg, sweepParams{
		Seed:  *seed,
		From:  *from,
		Span:  *span,
		Step:  *step,
		Lift:  *lift,
		Speed: *speed,
	})
	if err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	path := filepath.Join(*outputDir, "aim.csv")
	f, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create aim.csv", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&records, f); err != nil {
		slog.Error("failed to write aim.csv", "error", err)
		os.Exit(1)
	}

	summary := summarize(records)
	slog.Info("sweep complete",
		"path", path,
		"targets", len(records),
		"hits", summary.hits,
		"best_effort", summary.bestEffort,
		"infeasible", summary.infeasible,
		"iter_mean", summary.iterMean,
	)
}

type sweepParams struct {
	Seed  int64
	From  float64 // degrees
	Span  float64 // degrees
	Step  float64 // degrees
	Lift  float64
	Speed float64
}

// sweep builds the planet of the first configured placement at the origin,
// with the configured mass as its only gravity source, and solves one shot
// per target longitude. Shooter and target ids are the longitudes rounded
// to whole degrees.
func sweep(cfg *config.Config, p sweepParams) ([]telemetry.AimRecord, error) {
	if p.Step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", p.Step)
	}
	crust, report := planet.Generate(rand.New(rand.NewSource(p.Seed)), cfg.Derived.Gen)
	slog.Info("planet generated", "seed", p.Seed, "report", report)

	field := physics.NewField(cfg.Physics.GravityConstant, cfg.Physics.MinDistSq)
	field.AddSource(physics.Point{}, cfg.Planet.Mass)

	solver := ballistics.NewSolver(field)
	solver.Step = cfg.Aim.Step
	solver.FlightTime = cfg.Aim.FlightTime
	solver.MaxIterations = cfg.Aim.MaxIterations
	solver.BracketFraction = cfg.Aim.BracketFraction

	frame := planet.Frame{CoreRadius: crust.CoreRadius()}
	surfacePoint := func(lng float64) r2.Vec {
		alt := crust.AltitudeAt(planet.MainAngle(lng * math.Pi / 180))
		return frame.GeoToWorld(lng, alt+p.Lift)
	}

	shooter := surfacePoint(p.From)
	var records []telemetry.AimRecord
	for d := -p.Span; d <= p.Span; d += p.Step {
		if d == 0 {
			continue
		}
		lng := p.From + d
		target := surfacePoint(lng)
		sol := solver.Solve(shooter, p.Speed, target, cfg.Aim.TargetRadius)
		records = append(records, telemetry.NewAimRecord(0,
			uint32(math.Round(planet.MainAngle(p.From*math.Pi/180)*180/math.Pi)),
			uint32(math.Round(planet.MainAngle(lng*math.Pi/180)*180/math.Pi)),
			r2.Norm(r2.Sub(target, shooter)), sol))
	}
	return records, nil
}

type sweepSummary struct {
	hits, bestEffort, infeasible int
	iterMean                     float64
}

func summarize(records []telemetry.AimRecord) sweepSummary {
	var s sweepSummary
	iters := make([]float64, 0, len(records))
	for _, r := range records {
		switch r.Outcome {
		case ballistics.Hit.String():
			s.hits++
		case ballistics.BestEffort.String():
			s.bestEffort++
		default:
			s.infeasible++
		}
		iters = append(iters, float64(r.Iterations))
	}
	if len(iters) > 0 {
		s.iterMean = stat.Mean(iters, nil)
	}
	return s
}
