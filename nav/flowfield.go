package nav

import (
	"log/slog"

	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/geom"
)

// Unreached is the cost of a blocked or not-yet-relaxed cell. It is a
// large finite value rather than IEEE infinity so min/add arithmetic in
// the relax kernel stays well-defined.
const Unreached = float32(1e9)

// Defaults for the field rebuild. The iteration budget is fixed rather
// than run-to-convergence: per-tick cost stays constant and independent
// of agent count, and the field is an approximation that may lag for
// distant regions between rebuilds. Agents resample every frame, so the
// lag washes out.
const (
	DefaultInterval   = 0.15 // seconds of simulated time between rebuilds
	DefaultIterations = 28
)

// Phase is where the field rebuild currently is. A rebuild always runs
// Seed -> Relax(xK) -> Extract to completion within one Tick; the phase
// is observable for telemetry only.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSeed
	PhaseRelax
	PhaseExtract
)

// costPair is the explicit ping-pong buffer pair for the relaxation.
// Each generation reads only Front and writes only Back; Flip swaps
// them after the generation fully settles. Keeping the two buffers
// behind this type (rather than two loose slices) makes the read-only /
// write-only split structural: the relax kernel never sees a buffer it
// may both read and write.
type costPair struct {
	bufs  [2][]float32
	front int
}

func newCostPair(size int) costPair {
	return costPair{bufs: [2][]float32{make([]float32, size), make([]float32, size)}}
}

// Front is the settled generation; read-only during a relax pass.
func (p *costPair) Front() []float32 { return p.bufs[p.front] }

// Back is the generation under construction; write-only during a relax
// pass.
func (p *costPair) Back() []float32 { return p.bufs[1-p.front] }

// Flip publishes Back as the new settled generation.
func (p *costPair) Flip() { p.front = 1 - p.front }

// FlowField owns the cost and direction fields over a baked grid.
// Tick is rate-limited; in between rebuilds agents keep sampling the
// last published field.
type FlowField struct {
	grid *Grid
	pool *dispatch.Pool

	costs costPair
	dirX  []float32
	dirZ  []float32

	interval   float32
	iterations int
	accum      float32
	phase      Phase
	valid      bool
	rebuilds   uint64
}

// NewFlowField creates a field over the grid, sharing the kernel
// dispatch pool with the rest of the frame.
func NewFlowField(grid *Grid, pool *dispatch.Pool) *FlowField {
	size := grid.n * grid.n
	return &FlowField{
		grid:       grid,
		pool:       pool,
		costs:      newCostPair(size),
		dirX:       make([]float32, size),
		dirZ:       make([]float32, size),
		interval:   DefaultInterval,
		iterations: DefaultIterations,
		phase:      PhaseIdle,
	}
}

// SetCadence overrides the rebuild interval and iteration budget.
func (f *FlowField) SetCadence(interval float32, iterations int) {
	if interval > 0 {
		f.interval = interval
	}
	if iterations > 0 {
		f.iterations = iterations
	}
}

// Grid returns the baked grid the field runs over.
func (f *FlowField) Grid() *Grid { return f.grid }

// Phase returns the current rebuild phase (telemetry).
func (f *FlowField) Phase() Phase { return f.phase }

// Valid reports whether a full rebuild has completed since creation.
func (f *FlowField) Valid() bool { return f.valid }

// Rebuilds returns the number of completed rebuilds.
func (f *FlowField) Rebuilds() uint64 { return f.rebuilds }

// Tick advances the rebuild timer by dt seconds of simulated time.
// When the cadence is due it runs the full seed+relax+extract sequence
// to completion; the result only becomes sample-visible once extraction
// finishes. Returns true when a rebuild ran this call.
func (f *FlowField) Tick(dt float32, target geom.Vec3) bool {
	f.accum += dt
	if f.accum < f.interval {
		return false
	}
	f.accum = 0

	f.Rebuild(target)
	return true
}

// Rebuild runs seed, K relax generations, and extraction immediately,
// ignoring the cadence timer.
func (f *FlowField) Rebuild(target geom.Vec3) {
	cx, cz, ok := f.grid.CellAt(target)
	if !ok {
		// Target outside the play area: keep the previous field.
		slog.Warn("nav: flow target outside grid", "x", target.X, "z", target.Z)
		f.phase = PhaseIdle
		return
	}

	f.phase = PhaseSeed
	f.seed(cx, cz)

	f.phase = PhaseRelax
	for k := 0; k < f.iterations; k++ {
		f.relaxOnce()
	}

	f.phase = PhaseExtract
	f.extract()

	f.phase = PhaseIdle
	f.valid = true
	f.rebuilds++
}

// seed writes generation zero: the target cell costs 0, everything
// else (including blocked cells) starts at the sentinel. Both buffers
// get the blocked sentinel so a blocked cell can never leak a stale
// finite cost through the ping-pong.
func (f *FlowField) seed(targetCX, targetCZ int) {
	front := f.costs.Front()
	back := f.costs.Back()
	for i := range front {
		front[i] = Unreached
		back[i] = Unreached
	}
	if f.grid.Walkable(targetCX, targetCZ) {
		front[targetCZ*f.grid.n+targetCX] = 0
	}
}

// relaxOnce runs one Jacobi generation: every cell's new cost is
// min(own, min(4-neighbors)+1), computed from the settled front buffer
// and written to the back buffer. Tasks are independent per row slice;
// no task reads anything written this generation, which is what makes
// the dispatch race-free without ordering (Jacobi, not Gauss-Seidel).
func (f *FlowField) relaxOnce() {
	n := f.grid.n
	walk := f.grid.walkable
	src := f.costs.Front()
	dst := f.costs.Back()

	f.pool.Run(n, func(rowStart, rowEnd int) {
		for cz := rowStart; cz < rowEnd; cz++ {
			base := cz * n
			for cx := 0; cx < n; cx++ {
				i := base + cx
				if !walk[i] {
					dst[i] = Unreached // blocked cells stay pinned
					continue
				}
				best := src[i]
				// Border cells clamp neighbor lookups to themselves:
				// no wraparound.
				if c := neighborCost(src, walk, n, cx-1, cz, i) + 1; c < best {
					best = c
				}
				if c := neighborCost(src, walk, n, cx+1, cz, i) + 1; c < best {
					best = c
				}
				if c := neighborCost(src, walk, n, cx, cz-1, i) + 1; c < best {
					best = c
				}
				if c := neighborCost(src, walk, n, cx, cz+1, i) + 1; c < best {
					best = c
				}
				dst[i] = best
			}
		}
	})

	f.costs.Flip()
}

// neighborCost reads a neighbor's settled cost, clamping out-of-bounds
// lookups to the cell itself.
func neighborCost(src []float32, walk []bool, n, cx, cz, self int) float32 {
	if cx < 0 || cx >= n || cz < 0 || cz >= n {
		return src[self]
	}
	i := cz*n + cx
	if !walk[i] {
		return Unreached
	}
	return src[i]
}

// extract derives the direction field: each cell points at its
// lowest-cost 4-neighbor. Blocked cells and cells with no defined
// neighbor get the zero vector, as does the seed cell itself.
func (f *FlowField) extract() {
	n := f.grid.n
	walk := f.grid.walkable
	costs := f.costs.Front()

	f.pool.Run(n, func(rowStart, rowEnd int) {
		for cz := rowStart; cz < rowEnd; cz++ {
			base := cz * n
			for cx := 0; cx < n; cx++ {
				i := base + cx
				f.dirX[i] = 0
				f.dirZ[i] = 0
				if !walk[i] || costs[i] == 0 {
					continue
				}

				best := Unreached
				var bx, bz float32
				if cx > 0 && costs[i-1] < best {
					best, bx, bz = costs[i-1], -1, 0
				}
				if cx < n-1 && costs[i+1] < best {
					best, bx, bz = costs[i+1], 1, 0
				}
				if cz > 0 && costs[i-n] < best {
					best, bx, bz = costs[i-n], 0, -1
				}
				if cz < n-1 && costs[i+n] < best {
					best, bx, bz = costs[i+n], 0, 1
				}
				if best >= Unreached {
					continue // no defined neighbor
				}
				f.dirX[i] = bx
				f.dirZ[i] = bz
			}
		}
	})
}

// CostAt returns the cell's relaxed cost. Out of bounds is Unreached.
func (f *FlowField) CostAt(cx, cz int) float32 {
	if cx < 0 || cx >= f.grid.n || cz < 0 || cz >= f.grid.n {
		return Unreached
	}
	return f.costs.Front()[cz*f.grid.n+cx]
}

// DirectionAt returns the cell's extracted direction; zero when
// undefined.
func (f *FlowField) DirectionAt(cx, cz int) geom.Vec2 {
	if cx < 0 || cx >= f.grid.n || cz < 0 || cz >= f.grid.n {
		return geom.Vec2{}
	}
	i := cz*f.grid.n + cx
	return geom.Vec2{X: f.dirX[i], Y: f.dirZ[i]}
}

// Sample returns the flow direction at a world position. ok is false
// when the field has never completed a rebuild, the position is
// outside the grid, or the cell's direction is undefined.
func (f *FlowField) Sample(pos geom.Vec3) (dir geom.Vec2, ok bool) {
	if !f.valid {
		return geom.Vec2{}, false
	}
	cx, cz, inside := f.grid.CellAt(pos)
	if !inside {
		return geom.Vec2{}, false
	}
	d := f.DirectionAt(cx, cz)
	if d.IsZero() {
		return geom.Vec2{}, false
	}
	return d, true
}
