package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hordenav/config"
	"github.com/pthm-cable/hordenav/game"
	"github.com/pthm-cable/hordenav/geom"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	watchConfig := flag.Bool("watch-config", false, "Reload config.yaml on change")
	outputDir := flag.String("output-dir", "", "Output directory for CSV telemetry")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	pillars := flag.Int("pillars", 40, "Number of arena pillars")
	spawnRate := flag.Float64("spawn-rate", 30, "Agent spawns per second")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	arena := game.NewArena(cfg.Derived.WorldSize32, *pillars, rngSeed)

	engine, err := game.NewEngine(cfg, arena, game.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	var watcher *config.Watcher
	if *watchConfig && *configPath != "" {
		watcher, err = config.Watch(*configPath)
		if err != nil {
			slog.Error("failed to watch config", "error", err)
			os.Exit(1)
		}
		defer watcher.Close()
	}

	run := &runner{
		engine:    engine,
		watcher:   watcher,
		rng:       rand.New(rand.NewSource(rngSeed)),
		spawnRate: float32(*spawnRate),
		edge:      cfg.Derived.WorldSize32/2 - 10,
		maxFrames: *maxFrames,
	}

	slog.Info("starting",
		"seed", rngSeed,
		"headless", *headless,
		"max_frames", *maxFrames,
		"world_size", cfg.World.Size,
	)

	if *headless {
		run.headless()
		return
	}
	run.graphical(cfg)
}

// runner drives the frame loop in both modes.
type runner struct {
	engine    *game.Engine
	watcher   *config.Watcher
	rng       *rand.Rand
	spawnRate float32
	spawnAcc  float32
	edge      float32
	maxFrames int
	frames    int
}

// step advances one frame: config reload, edge spawns, engine frame.
func (r *runner) step(dt float32, target, viewer geom.Vec3) {
	if r.watcher != nil {
		select {
		case cfg := <-r.watcher.Updates:
			r.engine.ApplyConfig(cfg)
		case err := <-r.watcher.Errors:
			slog.Warn("config reload failed", "error", err)
		default:
		}
	}

	r.spawnAcc += r.spawnRate * dt
	for r.spawnAcc >= 1 {
		r.spawnAcc--
		if _, err := r.engine.Spawn(r.edgeSpawnPoint()); err != nil {
			break // at capacity; refusal is already counted
		}
	}

	r.engine.Frame(dt, target, viewer)
	r.frames++
}

// edgeSpawnPoint picks a random point near one of the four arena edges.
func (r *runner) edgeSpawnPoint() geom.Vec3 {
	along := (r.rng.Float32()*2 - 1) * r.edge
	switch r.rng.Intn(4) {
	case 0:
		return geom.Vec3{X: along, Z: -r.edge}
	case 1:
		return geom.Vec3{X: along, Z: r.edge}
	case 2:
		return geom.Vec3{X: -r.edge, Z: along}
	default:
		return geom.Vec3{X: r.edge, Z: along}
	}
}

func (r *runner) headless() {
	const dt = float32(1.0 / 60.0)
	target := geom.Vec3{} // arena center
	viewer := geom.Vec3{}

	for {
		r.step(dt, target, viewer)
		if r.maxFrames > 0 && r.frames >= r.maxFrames {
			slog.Info("max frames reached", "frames", r.frames)
			return
		}
	}
}

func (r *runner) graphical(cfg *config.Config) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "hordenav")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	viewer := game.NewViewer(cfg, cfg.Derived.WorldSize32)

	for !rl.WindowShouldClose() {
		viewer.HandleInput()

		dt := rl.GetFrameTime()
		if dt > 0.1 {
			dt = 0.1 // clamp stalls so physics stays stable
		}
		r.step(dt, viewer.Target(), viewer.ViewerPos())
		viewer.Draw(r.engine)

		if r.maxFrames > 0 && r.frames >= r.maxFrames {
			break
		}
	}
}
