// Package sim provides the shared agent simulation table: a fixed-
// capacity, slot-indexed store mutated by the CPU gameplay pass and by
// the data-parallel step kernel. Slots are pooled through a free list;
// records are reset on spawn and returned on release, never destroyed.
package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/nav"
)

// ErrCapacityExceeded is returned by Spawn when every slot is live.
// Spawns beyond capacity are refused, never queued or overwritten.
var ErrCapacityExceeded = errors.New("sim: agent capacity exceeded")

// RenderAuthority says whose position value is ground truth for
// drawing an agent this frame.
type RenderAuthority uint8

const (
	// AuthorityCPU: drawn from individually owned geometry; the kernel
	// never touches the slot.
	AuthorityCPU RenderAuthority = iota
	// AuthorityGPU: drawn batched from the table; the kernel may write
	// the slot's position.
	AuthorityGPU
)

// RenderState is the per-agent state exposed alongside positions for
// batched drawing.
type RenderState struct {
	ID        int32
	Health    float32
	GPUDriven bool
}

// freeList hands out slot indices in O(1): released indices first, then
// a monotonic high-water mark. An index is never handed out twice
// without an intervening free.
type freeList struct {
	released  []int32
	highWater int32
}

func (f *freeList) alloc(capacity int32) (int32, bool) {
	if n := len(f.released); n > 0 {
		id := f.released[n-1]
		f.released = f.released[:n-1]
		return id, true
	}
	if f.highWater < capacity {
		id := f.highWater
		f.highWater++
		return id, true
	}
	return -1, false
}

func (f *freeList) free(id int32) {
	f.released = append(f.released, id)
}

func (f *freeList) reset() {
	f.released = f.released[:0]
	f.highWater = 0
}

// Table is the agent simulation table. Parallel array layout so the
// kernel and the render pass stream contiguously.
type Table struct {
	capacity  int32
	positions []geom.Vec3
	velocity  []geom.Vec3
	speeds    []float32
	healths   []float32
	active    []bool
	authority []RenderAuthority

	free  freeList
	alive int

	grid *nav.Grid
	pool *dispatch.Pool

	// Render scratch, reused across frames.
	renderPos   []geom.Vec3
	renderState []RenderState
}

// NewTable creates a table for at most maxAgents agents.
func NewTable(maxAgents int, pool *dispatch.Pool) *Table {
	return &Table{
		capacity:  int32(maxAgents),
		positions: make([]geom.Vec3, maxAgents),
		velocity:  make([]geom.Vec3, maxAgents),
		speeds:    make([]float32, maxAgents),
		healths:   make([]float32, maxAgents),
		active:    make([]bool, maxAgents),
		authority: make([]RenderAuthority, maxAgents),
		pool:      pool,
	}
}

// Capacity returns maxAgents.
func (t *Table) Capacity() int { return int(t.capacity) }

// Alive returns the number of active slots.
func (t *Table) Alive() int { return t.alive }

// BindGrid attaches the walkable grid the kernel gates movement on.
// Re-binding a grid of a different shape while agents are live is a
// grid mismatch: the caller must rebuild (Reset then BindGrid).
func (t *Table) BindGrid(grid *nav.Grid) error {
	if t.grid != nil && t.alive > 0 && !t.grid.SameShape(grid) {
		return fmt.Errorf("rebinding %dx%d over live agents: %w",
			grid.N(), grid.N(), nav.ErrGridMismatch)
	}
	t.grid = grid
	return nil
}

// Reset releases every slot and clears the free list. Used for the
// full rebuild after a grid mismatch.
func (t *Table) Reset() {
	for i := range t.active {
		t.active[i] = false
	}
	t.free.reset()
	t.alive = 0
	t.grid = nil
}

// Spawn allocates a slot and resets its record. The returned id is
// stable until Release.
func (t *Table) Spawn() (int, error) {
	id, ok := t.free.alloc(t.capacity)
	if !ok {
		return -1, ErrCapacityExceeded
	}
	t.positions[id] = geom.Vec3{}
	t.velocity[id] = geom.Vec3{}
	t.speeds[id] = 0
	t.healths[id] = 1
	t.authority[id] = AuthorityCPU
	t.active[id] = true
	t.alive++
	return int(id), nil
}

// Release returns a slot to the pool. Releasing an inactive slot is a
// no-op, which keeps double-release from corrupting the free list.
func (t *Table) Release(id int) {
	if !t.validLive(id) {
		return
	}
	t.active[id] = false
	t.alive--
	t.free.free(int32(id))
}

func (t *Table) validLive(id int) bool {
	return id >= 0 && id < int(t.capacity) && t.active[id]
}

// SetPosition uploads the CPU-authoritative position. Called every
// frame for every live agent regardless of render authority.
func (t *Table) SetPosition(id int, pos geom.Vec3) {
	if t.validLive(id) {
		t.positions[id] = pos
	}
}

// Position returns the slot's current position.
func (t *Table) Position(id int) geom.Vec3 {
	if id < 0 || id >= int(t.capacity) {
		return geom.Vec3{}
	}
	return t.positions[id]
}

// SetVelocity stores the agent's velocity (informational; the kernel
// moves by speed along the field direction).
func (t *Table) SetVelocity(id int, vel geom.Vec3) {
	if t.validLive(id) {
		t.velocity[id] = vel
	}
}

// SetSpeed sets the agent's movement speed in world units per second.
func (t *Table) SetSpeed(id int, speed float32) {
	if t.validLive(id) {
		t.speeds[id] = speed
	}
}

// SetHealth mirrors gameplay health into the table for batched drawing.
func (t *Table) SetHealth(id int, health float32) {
	if t.validLive(id) {
		t.healths[id] = health
	}
}

// SetRenderAuthority flips who owns the slot's drawn position.
func (t *Table) SetRenderAuthority(id int, a RenderAuthority) {
	if t.validLive(id) {
		t.authority[id] = a
	}
}

// Authority returns the slot's current render authority.
func (t *Table) Authority(id int) RenderAuthority {
	if id < 0 || id >= int(t.capacity) {
		return AuthorityCPU
	}
	return t.authority[id]
}

// Active reports whether the slot is live.
func (t *Table) Active(id int) bool {
	return id >= 0 && id < int(t.capacity) && t.active[id]
}

// RenderBuffers compacts the live agents into reusable buffers for the
// batched draw. Inactive slots never appear. The returned slices are
// valid until the next call.
func (t *Table) RenderBuffers() (positions []geom.Vec3, states []RenderState) {
	t.renderPos = t.renderPos[:0]
	t.renderState = t.renderState[:0]
	for i := int32(0); i < t.free.highWater; i++ {
		if !t.active[i] {
			continue
		}
		t.renderPos = append(t.renderPos, t.positions[i])
		t.renderState = append(t.renderState, RenderState{
			ID:        i,
			Health:    t.healths[i],
			GPUDriven: t.authority[i] == AuthorityGPU,
		})
	}
	return t.renderPos, t.renderState
}
