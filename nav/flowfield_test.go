package nav

import (
	"math"
	"testing"

	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/geom"
)

// openGrid builds an n x n fully walkable grid with unit cells at the
// origin.
func openGrid(n int) *Grid {
	mask := make([]bool, n*n)
	for i := range mask {
		mask[i] = true
	}
	return NewGridFromMask(n, 1, geom.Vec2{}, mask)
}

// wallGrid blocks a vertical wall at column wallX with a gap row, or no
// gap when gapZ < 0.
func wallGrid(n, wallX, gapZ int) *Grid {
	mask := make([]bool, n*n)
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			mask[cz*n+cx] = cx != wallX || cz == gapZ
		}
	}
	return NewGridFromMask(n, 1, geom.Vec2{}, mask)
}

func newTestField(grid *Grid, iterations int) *FlowField {
	f := NewFlowField(grid, dispatch.NewPool(1))
	f.SetCadence(DefaultInterval, iterations)
	return f
}

func TestRebuildPropagatesManhattanCost(t *testing.T) {
	grid := openGrid(10)
	f := newTestField(grid, 20)

	f.Rebuild(grid.CellCenter(5, 5))

	if got := f.CostAt(5, 5); got != 0 {
		t.Errorf("seed cost = %f, want 0", got)
	}
	// On an open grid the relaxed cost is the Manhattan distance once
	// the iteration budget covers it.
	if got := f.CostAt(0, 0); got != 10 {
		t.Errorf("corner cost = %f, want 10", got)
	}
	if got := f.CostAt(5, 0); got != 5 {
		t.Errorf("edge cost = %f, want 5", got)
	}
}

func TestIterationBudgetLimitsReach(t *testing.T) {
	grid := openGrid(20)
	f := newTestField(grid, 5)

	f.Rebuild(grid.CellCenter(10, 10))

	// 5 generations reach exactly distance 5.
	if got := f.CostAt(10, 5); got != 5 {
		t.Errorf("cell at distance 5 cost = %f, want 5", got)
	}
	if got := f.CostAt(10, 4); got < Unreached {
		t.Errorf("cell at distance 6 should still be at the sentinel, got %f", got)
	}
	if got := f.CostAt(0, 0); got < Unreached {
		t.Errorf("distant corner should still be at the sentinel, got %f", got)
	}
}

func TestBlockedCellsPinnedToSentinel(t *testing.T) {
	grid := wallGrid(10, 4, -1) // solid wall, no gap
	f := newTestField(grid, 40)

	f.Rebuild(grid.CellCenter(8, 5))

	// Wall cells stay at the sentinel.
	for cz := 0; cz < 10; cz++ {
		if got := f.CostAt(4, cz); got != Unreached {
			t.Errorf("wall cell (4,%d) cost = %f, want sentinel", cz, got)
		}
		if d := f.DirectionAt(4, cz); !d.IsZero() {
			t.Errorf("wall cell (4,%d) has direction %+v", cz, d)
		}
	}
	// Cells behind the wall are unreachable.
	if got := f.CostAt(0, 5); got != Unreached {
		t.Errorf("cell behind solid wall cost = %f, want sentinel", got)
	}
}

func TestFieldRoutesThroughGap(t *testing.T) {
	grid := wallGrid(10, 4, 7)
	f := newTestField(grid, 40)

	f.Rebuild(grid.CellCenter(8, 2))

	// The far side is reachable through the gap, so costs there exceed
	// the straight-line distance.
	got := f.CostAt(0, 2)
	if got >= Unreached {
		t.Fatal("far side unreachable despite gap")
	}
	straight := float32(8)
	if got <= straight {
		t.Errorf("detour cost %f should exceed straight-line %f", got, straight)
	}
}

func TestDirectionsPointDownhill(t *testing.T) {
	grid := wallGrid(12, 5, 9)
	f := newTestField(grid, 60)

	f.Rebuild(grid.CellCenter(9, 3))

	for cz := 0; cz < 12; cz++ {
		for cx := 0; cx < 12; cx++ {
			d := f.DirectionAt(cx, cz)
			if d.IsZero() {
				continue
			}
			here := f.CostAt(cx, cz)
			there := f.CostAt(cx+int(d.X), cz+int(d.Y))
			if there >= here {
				t.Errorf("cell (%d,%d): direction climbs from %f to %f", cx, cz, here, there)
			}
		}
	}

	// The seed cell itself has no direction.
	if d := f.DirectionAt(9, 3); !d.IsZero() {
		t.Errorf("seed cell direction = %+v, want zero", d)
	}
}

func TestRebuildIdempotent(t *testing.T) {
	grid := wallGrid(10, 4, 7)
	f := newTestField(grid, 40)
	target := grid.CellCenter(8, 2)

	f.Rebuild(target)
	first := make([]float32, 0, 100)
	for cz := 0; cz < 10; cz++ {
		for cx := 0; cx < 10; cx++ {
			first = append(first, f.CostAt(cx, cz))
		}
	}

	f.Rebuild(target)
	i := 0
	for cz := 0; cz < 10; cz++ {
		for cx := 0; cx < 10; cx++ {
			if got := f.CostAt(cx, cz); math.Abs(float64(got-first[i])) > 1e-6 {
				t.Fatalf("cell (%d,%d) changed across identical rebuilds: %f vs %f",
					cx, cz, first[i], got)
			}
			i++
		}
	}
}

func TestTickCadence(t *testing.T) {
	grid := openGrid(10)
	f := newTestField(grid, 10)
	target := grid.CellCenter(5, 5)

	if f.Tick(0.05, target) {
		t.Error("tick before interval should not rebuild")
	}
	if f.Valid() {
		t.Error("field valid before first rebuild")
	}
	if !f.Tick(0.11, target) {
		t.Error("accumulated dt past interval should rebuild")
	}
	if !f.Valid() {
		t.Error("field should be valid after rebuild")
	}
	if f.Rebuilds() != 1 {
		t.Errorf("rebuilds = %d, want 1", f.Rebuilds())
	}
}

func TestTargetOutsideGridKeepsField(t *testing.T) {
	grid := openGrid(10)
	f := newTestField(grid, 20)

	f.Rebuild(grid.CellCenter(5, 5))
	before := f.CostAt(0, 0)
	rebuilds := f.Rebuilds()

	f.Rebuild(geom.Vec3{X: -100, Z: -100})

	if got := f.CostAt(0, 0); got != before {
		t.Errorf("cost changed after out-of-grid target: %f vs %f", before, got)
	}
	if f.Rebuilds() != rebuilds {
		t.Error("out-of-grid target counted as a rebuild")
	}
	if !f.Valid() {
		t.Error("field invalidated by out-of-grid target")
	}
}

func TestSample(t *testing.T) {
	grid := wallGrid(10, 4, -1)
	f := newTestField(grid, 40)

	if _, ok := f.Sample(grid.CellCenter(8, 5)); ok {
		t.Error("sample defined before any rebuild")
	}

	f.Rebuild(grid.CellCenter(8, 5))

	if _, ok := f.Sample(grid.CellCenter(6, 5)); !ok {
		t.Error("reachable cell should sample ok")
	}
	if _, ok := f.Sample(grid.CellCenter(4, 5)); ok {
		t.Error("blocked cell should not sample ok")
	}
	if _, ok := f.Sample(grid.CellCenter(1, 5)); ok {
		t.Error("unreachable cell should not sample ok")
	}
	if _, ok := f.Sample(geom.Vec3{X: 50, Z: 50}); ok {
		t.Error("outside grid should not sample ok")
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	grid := wallGrid(96, 40, 70)
	target := grid.CellCenter(80, 20)

	serial := NewFlowField(grid, dispatch.NewPool(1))
	serial.SetCadence(DefaultInterval, 50)
	serial.Rebuild(target)

	pool := dispatch.NewPool(4)
	defer pool.Stop()
	parallel := NewFlowField(grid, pool)
	parallel.SetCadence(DefaultInterval, 50)
	parallel.Rebuild(target)

	for cz := 0; cz < 96; cz++ {
		for cx := 0; cx < 96; cx++ {
			if serial.CostAt(cx, cz) != parallel.CostAt(cx, cz) {
				t.Fatalf("cell (%d,%d): serial %f, parallel %f",
					cx, cz, serial.CostAt(cx, cz), parallel.CostAt(cx, cz))
			}
		}
	}
}
