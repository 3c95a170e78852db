package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/orbitfall/config"
	"github.com/pthm-cable/orbitfall/game"
	"github.com/pthm-cable/orbitfall/telemetry"
)

// Cost weights. Iterations measure solver effort; the rest measure whether
// the effort produced shells that land.
const (
	iterWeight       = 1.0
	missWeight       = 0.2  // per world unit of closest approach
	infeasibleWeight = 10.0 // per unit of infeasible fraction
	hitWeight        = 20.0 // per unit of shell hit rate
)

// FitnessEvaluator runs headless battles and scores the targeting they
// produced.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	bestFitness float64
	bestSummary runSummary
	lastSummary runSummary
}

// runSummary aggregates the window stats of one or more runs.
type runSummary struct {
	Solves       int
	IterMean     float64
	MissMean     float64
	FeasibleRate float64
	HitRate      float64
	Ticks        int32
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5.0,
		bestFitness: math.Inf(1),
	}
}

// LastSummary returns the summary from the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// BestSummary returns the summary from the best evaluation so far.
func (fe *FitnessEvaluator) BestSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestSummary
}

// Evaluate computes fitness for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	results := make([]runSummary, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(raw, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var agg runSummary
	for _, r := range results {
		total += computeFitness(r)
		agg.Solves += r.Solves
		agg.IterMean += r.IterMean
		agg.MissMean += r.MissMean
		agg.FeasibleRate += r.FeasibleRate
		agg.HitRate += r.HitRate
		agg.Ticks += r.Ticks
	}
	n := float64(len(results))
	agg.IterMean /= n
	agg.MissMean /= n
	agg.FeasibleRate /= n
	agg.HitRate /= n
	agg.Ticks /= int32(len(results))
	fitness := total / n

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestSummary = agg
	}
	fe.lastSummary = agg
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless battle with raw parameter values
// applied, until one player remains or maxTicks.
func (fe *FitnessEvaluator) runSimulation(raw []float64, seed int64) runSummary {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, raw)
	cfg.Telemetry.StatsWindow = fe.statsWindow

	var windows []telemetry.WindowStats
	g, err := game.NewGame(cfg, game.Options{
		Seed: seed,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	if err != nil {
		return runSummary{Ticks: fe.maxTicks}
	}
	defer g.Close()

	for g.Tick() < fe.maxTicks {
		g.Step()
		if _, over := g.Winner(); over {
			break
		}
	}

	sum := summarize(windows)
	sum.Ticks = g.Tick()
	return sum
}

// summarize weights each window's rates by the solves or shots behind them.
func summarize(windows []telemetry.WindowStats) runSummary {
	var s runSummary
	var feasible, shots, hits int
	var iterSum, missSum float64
	for _, w := range windows {
		s.Solves += w.Solves
		feasible += w.SolveHits + w.BestEffort
		iterSum += w.IterMean * float64(w.Solves)
		missSum += w.MissMean * float64(w.SolveHits+w.BestEffort)
		shots += w.Shots
		hits += w.Hits
	}
	if s.Solves > 0 {
		s.IterMean = iterSum / float64(s.Solves)
		s.FeasibleRate = float64(feasible) / float64(s.Solves)
	}
	if feasible > 0 {
		s.MissMean = missSum / float64(feasible)
	}
	if shots > 0 {
		s.HitRate = float64(hits) / float64(shots)
	}
	return s
}

// copyConfig returns a shallow copy of the base config. Only the aim and
// telemetry sections are modified per run, and both are plain values.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better). A run that
// never solved gets the worst infeasible cost plus the full iteration budget.
func computeFitness(r runSummary) float64 {
	if r.Solves == 0 {
		return infeasibleWeight + iterWeight*40
	}
	return iterWeight*r.IterMean +
		missWeight*r.MissMean +
		infeasibleWeight*(1-r.FeasibleRate) -
		hitWeight*r.HitRate
}
