package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/game"
	"github.com/pthm-cable/orbitfall/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for the end-of-run snapshot")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run until one player remains)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.NewGame(cfg, game.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to start game", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"planets", g.Planets(),
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", *maxTicks,
	)

	start := time.Now()
	for {
		g.Step()

		if winner, over := g.Winner(); over {
			slog.Info("battle over", "tick", g.Tick(), "winner", winner)
			break
		}
		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick(), "alive", g.Alive())
			break
		}
	}
	slog.Info("simulation finished", "ticks", g.Tick(), "elapsed", time.Since(start).String())

	if *snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(g.Snapshot(), *snapshotDir)
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
			return
		}
		slog.Info("snapshot saved", "path", path, "tick", g.Tick())
	}
}
