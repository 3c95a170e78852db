package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Units  int `csv:"units"`
	Shells int `csv:"shells"`

	// Combat
	Shots      int     `csv:"shots"`
	Hits       int     `csv:"hits"`
	Kills      int     `csv:"kills"`
	Damage     float64 `csv:"damage"`
	GroundHits int     `csv:"ground_hits"`
	Expired    int     `csv:"expired"`
	HitRate    float64 `csv:"hit_rate"`

	// Targeting
	Solves       int     `csv:"solves"`
	SolveHits    int     `csv:"solve_hits"`
	BestEffort   int     `csv:"best_effort"`
	Infeasible   int     `csv:"infeasible"`
	FeasibleRate float64 `csv:"feasible_rate"`
	IterMean     float64 `csv:"iter_mean"`
	IterStd      float64 `csv:"iter_std"`
	IterP90      float64 `csv:"iter_p90"`
	MissMean     float64 `csv:"miss_mean"` // closest approach of feasible solves
	MissP50      float64 `csv:"miss_p50"`
	MissP90      float64 `csv:"miss_p90"`

	// Unit health (sampled at window end)
	HPMean float64 `csv:"hp_mean"`
	HPP10  float64 `csv:"hp_p10"`
	HPP50  float64 `csv:"hp_p50"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean, sample standard deviation and percentiles.
// The standard deviation is zero for fewer than two values.
func ComputeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	if n == 1 {
		mean = stat.Mean(values, nil)
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("units", s.Units),
		slog.Int("shells", s.Shells),
		slog.Int("shots", s.Shots),
		slog.Int("hits", s.Hits),
		slog.Int("kills", s.Kills),
		slog.Float64("damage", s.Damage),
		slog.Int("ground_hits", s.GroundHits),
		slog.Int("expired", s.Expired),
		slog.Float64("hit_rate", s.HitRate),
		slog.Int("solves", s.Solves),
		slog.Int("solve_hits", s.SolveHits),
		slog.Int("best_effort", s.BestEffort),
		slog.Int("infeasible", s.Infeasible),
		slog.Float64("feasible_rate", s.FeasibleRate),
		slog.Float64("iter_mean", s.IterMean),
		slog.Float64("iter_std", s.IterStd),
		slog.Float64("iter_p90", s.IterP90),
		slog.Float64("miss_mean", s.MissMean),
		slog.Float64("miss_p50", s.MissP50),
		slog.Float64("miss_p90", s.MissP90),
		slog.Float64("hp_mean", s.HPMean),
		slog.Float64("hp_p10", s.HPP10),
		slog.Float64("hp_p50", s.HPP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
