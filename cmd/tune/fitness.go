package main

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/hordenav/config"
	"github.com/pthm-cable/hordenav/game"
	"github.com/pthm-cable/hordenav/geom"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxFrames  int
	seeds      []int64
	baseConfig *config.Config

	mu         sync.Mutex
	lastScore  float64 // score from the most recent Evaluate call
	lastFrames float64 // mean wall microseconds per frame
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxFrames int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxFrames:  maxFrames,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastScore returns the mean score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// LastFrameUS returns the mean frame cost in wall microseconds from the
// most recent evaluation.
func (fe *FitnessEvaluator) LastFrameUS() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastFrames
}

// frameCostWeight converts a microsecond of mean frame cost into score
// units, so CMA-ES cannot buy score with an unbounded relax budget.
const frameCostWeight = 0.05

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	score   float64
	frameUS float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is frame-cost-penalized negative score: more damage dealt to
// the target within the frame budget = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel; each run owns its engine and pool.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalScore, totalFrameUS float64
	for _, r := range results {
		totalScore += r.score
		totalFrameUS += r.frameUS
	}
	n := float64(len(fe.seeds))
	avgScore := totalScore / n
	avgFrameUS := totalFrameUS / n

	fe.mu.Lock()
	fe.lastScore = avgScore
	fe.lastFrames = avgFrameUS
	fe.mu.Unlock()

	fitness := -avgScore + frameCostWeight*avgFrameUS
	if math.IsNaN(fitness) || math.IsInf(fitness, 0) {
		return 1e12
	}
	return fitness
}

// runSimulation runs one headless engine to the frame budget.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) seedResult {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, x)

	arena := game.NewArena(cfg.Derived.WorldSize32, 40, seed)
	engine, err := game.NewEngine(&cfg, arena, game.Options{Seed: seed})
	if err != nil {
		return seedResult{score: 0, frameUS: 1e6}
	}
	defer engine.Close()

	rng := rand.New(rand.NewSource(seed))
	edge := cfg.Derived.WorldSize32/2 - 10
	target := geom.Vec3{} // arena center
	const dt = float32(1.0 / 60.0)
	const spawnPerFrame = 0.5

	spawnAcc := float32(0)
	start := time.Now()
	for frame := 0; frame < fe.maxFrames; frame++ {
		spawnAcc += spawnPerFrame
		for spawnAcc >= 1 {
			spawnAcc--
			if _, err := engine.Spawn(edgeSpawn(rng, edge)); err != nil {
				break
			}
		}
		engine.Frame(dt, target, target)
	}
	elapsed := time.Since(start)

	return seedResult{
		score:   float64(engine.Score()),
		frameUS: float64(elapsed.Microseconds()) / float64(fe.maxFrames),
	}
}

func edgeSpawn(rng *rand.Rand, edge float32) geom.Vec3 {
	along := (rng.Float32()*2 - 1) * edge
	switch rng.Intn(4) {
	case 0:
		return geom.Vec3{X: along, Z: -edge}
	case 1:
		return geom.Vec3{X: along, Z: edge}
	case 2:
		return geom.Vec3{X: -edge, Z: along}
	default:
		return geom.Vec3{X: edge, Z: along}
	}
}
