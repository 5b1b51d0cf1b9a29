// Package game composes the navigation core into a running engine:
// the spatial index, the flow field, the agent table, and the hybrid
// motion controller, all explicitly owned here rather than hanging off
// ambient globals.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hordenav/components"
	"github.com/pthm-cable/hordenav/config"
	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/nav"
	"github.com/pthm-cable/hordenav/sim"
	"github.com/pthm-cable/hordenav/spatial"
	"github.com/pthm-cable/hordenav/telemetry"
)

// Engine owns the full frame: the single-threaded gameplay pass that is
// authoritative for damage, death, and score, and the data-parallel
// kernel dispatches that follow it. The two never interleave within a
// frame: the gameplay pass (including its table uploads) completes
// before any kernel is issued, and kernel output is consumed only after
// the dispatch joins.
type Engine struct {
	cfg   *config.Config
	level Level
	rng   *rand.Rand

	world  *ecs.World
	mapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Health,
		components.Mobility,
		components.Combat,
		components.PathFollow,
		components.AgentSlot,
	]
	filter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Health,
		components.Mobility,
		components.Combat,
		components.PathFollow,
		components.AgentSlot,
	]
	posMap    *ecs.Map1[components.Position]
	healthMap *ecs.Map1[components.Health]

	index *spatial.HashGrid
	grid  *nav.Grid
	field *nav.FlowField
	paths *nav.PathGraph
	table *sim.Table
	pool  *dispatch.Pool

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// Per-slot entity lookup for damage and the grid-mismatch rebuild.
	bySlot []ecs.Entity

	target geom.Vec3
	viewer geom.Vec3
	score  float32 // total damage dealt to the tracked target

	frame        uint64
	simTime      float32
	lastLog      float32
	lastRebuilds uint64
	losBlock     []*spatial.Entry
}

// Options configures an engine beyond the config file.
type Options struct {
	Seed      int64
	OutputDir string
	Workers   int
}

// NewEngine builds the engine over a level: registers static geometry
// into the spatial index, bakes the walkable grid, links the waypoint
// graph, and binds the agent table.
func NewEngine(cfg *config.Config, level Level, opts Options) (*Engine, error) {
	world := ecs.NewWorld()

	e := &Engine{
		cfg:   cfg,
		level: level,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		world: world,
		mapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Health,
			components.Mobility,
			components.Combat,
			components.PathFollow,
			components.AgentSlot,
		](world),
		filter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Health,
			components.Mobility,
			components.Combat,
			components.PathFollow,
			components.AgentSlot,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		healthMap: ecs.NewMap1[components.Health](world),
		pool:      dispatch.NewPool(opts.Workers),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector: &telemetry.Collector{},
		bySlot:    make([]ecs.Entity, cfg.Agents.Max),
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("telemetry output: %w", err)
	}
	e.output = om

	e.index = spatial.NewHashGrid(float32(cfg.Spatial.CellSize))
	rejected := 0
	for _, obj := range level.StaticObjects() {
		if err := e.index.AddStatic(obj); err != nil {
			// Degenerate geometry is excluded and logged, never fatal.
			rejected++
		}
	}
	if rejected > 0 {
		slog.Warn("engine: rejected degenerate colliders", "count", rejected)
	}

	if err := e.buildNavigation(cfg.Nav.GridN); err != nil {
		return nil, err
	}

	slog.Info("engine: ready",
		"colliders", e.index.Len(),
		"grid_n", cfg.Nav.GridN,
		"waypoints", e.paths.NodeCount(),
		"max_agents", cfg.Agents.Max,
	)
	return e, nil
}

// buildNavigation bakes the grid and everything hanging off its shape.
func (e *Engine) buildNavigation(gridN int) error {
	offset := geom.Vec2{X: e.cfg.Derived.GridOffset, Y: e.cfg.Derived.GridOffset}
	cellSize := e.cfg.Derived.WorldSize32 / float32(gridN)

	e.grid = nav.BakeWalkableGrid(e.index, gridN, cellSize, offset)
	e.field = nav.NewFlowField(e.grid, e.pool)
	e.field.SetCadence(float32(e.cfg.Nav.Interval), e.cfg.Nav.Iterations)
	e.paths = nav.NewPathGraph(e.grid, e.level.Waypoints(), float32(e.cfg.Agents.WaypointLink))

	if e.table == nil {
		e.table = sim.NewTable(e.cfg.Agents.Max, e.pool)
	}
	return e.table.BindGrid(e.grid)
}

// RebakeGrid re-bakes the walkable grid at a new resolution. A shape
// change while agents are live is a grid mismatch: the table is rebuilt
// and every live agent is re-seated into a fresh slot.
func (e *Engine) RebakeGrid(gridN int) error {
	err := e.buildNavigation(gridN)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nav.ErrGridMismatch) {
		return err
	}

	slog.Warn("engine: grid mismatch, rebuilding agent table", "grid_n", gridN)
	e.table.Reset()
	for i := range e.bySlot {
		e.bySlot[i] = ecs.Entity{}
	}
	if err := e.table.BindGrid(e.grid); err != nil {
		return err
	}

	// Re-seat every live entity into a fresh slot and re-upload.
	query := e.filter.Query()
	type reseat struct {
		entity ecs.Entity
		pos    geom.Vec3
		health float32
		speed  float32
	}
	var agents []reseat
	for query.Next() {
		pos, _, health, mob, _, _, _ := query.Get()
		agents = append(agents, reseat{
			entity: query.Entity(),
			pos:    pos.Vec3,
			health: health.Current,
			speed:  mob.Speed,
		})
	}
	for _, a := range agents {
		id, err := e.table.Spawn()
		if err != nil {
			return fmt.Errorf("re-seating agents: %w", err)
		}
		slot := e.mapperSlot(a.entity)
		slot.Index = int32(id)
		e.bySlot[id] = a.entity
		e.table.SetPosition(id, a.pos)
		e.table.SetSpeed(id, a.speed)
		e.table.SetHealth(id, a.health)
	}
	return nil
}

func (e *Engine) mapperSlot(entity ecs.Entity) *components.AgentSlot {
	_, _, _, _, _, _, slot := e.mapper.Get(entity)
	return slot
}

// Spawn creates an agent at a position. Capacity failures are refused
// here, never queued.
func (e *Engine) Spawn(pos geom.Vec3) (int, error) {
	id, err := e.table.Spawn()
	if err != nil {
		e.collector.RecordSpawnRefused()
		return -1, err
	}

	cfg := e.cfg.Agents
	p := components.Position{Vec3: pos}
	v := components.Velocity{}
	h := components.Health{Current: float32(cfg.Health), Max: float32(cfg.Health), Alive: true}
	m := components.Mobility{Speed: float32(cfg.Speed), StepHeight: float32(cfg.StepHeight)}
	c := components.Combat{
		Range:    float32(cfg.AttackRange),
		Damage:   float32(cfg.AttackDamage),
		Cooldown: float32(cfg.AttackCooldown),
		// Desync attack timing across the horde.
		CooldownLeft: e.rng.Float32() * float32(cfg.AttackCooldown),
	}
	pf := components.PathFollow{}
	slot := components.AgentSlot{Index: int32(id)}

	entity := e.mapper.NewEntity(&p, &v, &h, &m, &c, &pf, &slot)
	e.bySlot[id] = entity

	e.table.SetPosition(id, pos)
	e.table.SetSpeed(id, m.Speed)
	e.table.SetHealth(id, h.Current)
	e.collector.RecordSpawn()
	return id, nil
}

// Release returns an agent's slot to the pool and removes its entity.
func (e *Engine) Release(id int) {
	if !e.table.Active(id) {
		return
	}
	e.table.Release(id)
	entity := e.bySlot[id]
	e.bySlot[id] = ecs.Entity{}
	if !entity.IsZero() {
		e.mapper.Remove(entity)
	}
}

// Damage applies gameplay damage to an agent. Death is resolved by the
// next gameplay pass, the only writer of death outcomes.
func (e *Engine) Damage(id int, amount float32) {
	if !e.table.Active(id) {
		return
	}
	entity := e.bySlot[id]
	if entity.IsZero() {
		return
	}
	h := e.healthMap.Get(entity)
	if h == nil || !h.Alive {
		return
	}
	h.Current -= amount
}

// Frame advances the engine by dt seconds of simulated time. Order:
// gameplay pass (with uploads), flow-field tick when due, agent kernel.
func (e *Engine) Frame(dt float32, target, viewer geom.Vec3) {
	e.frame++
	e.simTime += dt
	e.target = target
	e.viewer = viewer

	e.perf.StartFrame()

	e.perf.StartPhase(telemetry.PhaseGameplay)
	e.updateAgents(dt)

	e.perf.StartPhase(telemetry.PhaseFlowField)
	e.field.Tick(dt, target)

	e.perf.StartPhase(telemetry.PhaseKernel)
	e.table.StepKernel(dt, e.field, target)

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.emitTelemetry()

	e.perf.EndFrame()
}

func (e *Engine) emitTelemetry() {
	logEvery := float32(e.cfg.Telemetry.LogEvery)
	if logEvery <= 0 || e.simTime-e.lastLog < logEvery {
		return
	}
	e.lastLog = e.simTime

	// The field's counter is cumulative; the window row carries the
	// delta like every other counter.
	rebuilds := e.field.Rebuilds()
	e.collector.FieldRebuilds = rebuilds - e.lastRebuilds
	e.lastRebuilds = rebuilds
	_, states := e.table.RenderBuffers()
	gpu := 0
	for _, s := range states {
		if s.GPUDriven {
			gpu++
		}
	}
	stats := e.collector.Window(e.frame, e.table.Alive(), gpu, e.perf.Durations())

	slog.Info("engine",
		"frame", e.frame,
		"agents", stats.Agents,
		"gpu_agents", stats.GPUAgents,
		"attacks", stats.Attacks,
		"deaths", stats.Deaths,
		"score", e.score,
	)
	e.perf.Stats().LogStats()

	if err := e.output.WriteWindow(stats); err != nil {
		slog.Warn("engine: telemetry write failed", "error", err)
	}
	if err := e.output.WritePerf(e.perf.Stats(), e.frame); err != nil {
		slog.Warn("engine: perf write failed", "error", err)
	}
}

// ApplyConfig takes over live-tunable values from a reloaded config.
func (e *Engine) ApplyConfig(cfg *config.Config) {
	e.cfg.Nav.Interval = cfg.Nav.Interval
	e.cfg.Nav.Iterations = cfg.Nav.Iterations
	e.cfg.Agents.AuthorityRadius = cfg.Agents.AuthorityRadius
	e.cfg.Derived.AuthorityRadSq = cfg.Derived.AuthorityRadSq
	e.cfg.Telemetry.LogEvery = cfg.Telemetry.LogEvery
	e.field.SetCadence(float32(cfg.Nav.Interval), cfg.Nav.Iterations)
	slog.Info("engine: config applied",
		"interval", cfg.Nav.Interval,
		"iterations", cfg.Nav.Iterations,
		"authority_radius", cfg.Agents.AuthorityRadius,
	)
}

// RenderBuffers exposes the batched drawing view of the agent table.
func (e *Engine) RenderBuffers() ([]geom.Vec3, []sim.RenderState) {
	return e.table.RenderBuffers()
}

// Table exposes the agent table for collaborators that upload state
// directly.
func (e *Engine) Table() *sim.Table { return e.table }

// Field exposes the flow field (viewer overlays, tests).
func (e *Engine) Field() *nav.FlowField { return e.field }

// Grid exposes the baked walkable grid.
func (e *Engine) Grid() *nav.Grid { return e.grid }

// Index exposes the spatial broad-phase index.
func (e *Engine) Index() *spatial.HashGrid { return e.index }

// Score returns the total damage dealt to the tracked target.
func (e *Engine) Score() float32 { return e.score }

// Alive returns the number of live agents.
func (e *Engine) Alive() int { return e.table.Alive() }

// Close stops the worker pool and flushes telemetry.
func (e *Engine) Close() {
	e.pool.Stop()
	if err := e.output.Close(); err != nil {
		slog.Warn("engine: closing output", "error", err)
	}
}
