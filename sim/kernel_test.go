package sim

import (
	"testing"

	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/nav"
)

// ringGrid blocks the outermost cell ring so agents can be pushed
// against a boundary.
func ringGrid(n int) *nav.Grid {
	mask := make([]bool, n*n)
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			mask[cz*n+cx] = cx > 0 && cx < n-1 && cz > 0 && cz < n-1
		}
	}
	return nav.NewGridFromMask(n, 1, geom.Vec2{}, mask)
}

func newKernelField(grid *nav.Grid, target geom.Vec3) *nav.FlowField {
	f := nav.NewFlowField(grid, dispatch.NewPool(1))
	f.SetCadence(nav.DefaultInterval, 64)
	f.Rebuild(target)
	return f
}

func TestKernelMovesOnlyGPUAgents(t *testing.T) {
	grid := openGrid(16)
	tab := NewTable(4, dispatch.NewPool(1))
	if err := tab.BindGrid(grid); err != nil {
		t.Fatal(err)
	}
	target := geom.Vec3{X: 14.5, Z: 14.5}
	field := newKernelField(grid, target)

	cpu, _ := tab.Spawn()
	gpu, _ := tab.Spawn()
	start := geom.Vec3{X: 2.5, Z: 2.5}
	for _, id := range []int{cpu, gpu} {
		tab.SetPosition(id, start)
		tab.SetSpeed(id, 4)
	}
	tab.SetRenderAuthority(gpu, AuthorityGPU)

	tab.StepKernel(0.1, field, target)

	if got := tab.Position(cpu); got != start {
		t.Errorf("CPU-authority agent moved: %+v", got)
	}
	got := tab.Position(gpu)
	if got == start {
		t.Fatal("GPU-authority agent did not move")
	}
	// One step of speed*dt along a unit axis direction.
	moved := geom.GroundDistSq(got, start)
	want := float32(0.4 * 0.4)
	if moved < want*0.99 || moved > want*1.01 {
		t.Errorf("step length sq = %f, want %f", moved, want)
	}
}

func TestKernelGatesOnWalkability(t *testing.T) {
	grid := ringGrid(8)
	tab := NewTable(2, dispatch.NewPool(1))
	if err := tab.BindGrid(grid); err != nil {
		t.Fatal(err)
	}

	// No rebuilt field: the kernel falls back to the direct vector.
	field := nav.NewFlowField(grid, dispatch.NewPool(1))

	id, _ := tab.Spawn()
	// In the last walkable cell before the blocked ring; a big step
	// toward the target would land inside it.
	pos := geom.Vec3{X: 6.5, Z: 4.5}
	tab.SetPosition(id, pos)
	tab.SetSpeed(id, 10)
	tab.SetRenderAuthority(id, AuthorityGPU)

	target := geom.Vec3{X: 20, Z: 4.5} // beyond the wall
	tab.StepKernel(0.1, field, target)

	if got := tab.Position(id); got != pos {
		t.Errorf("agent stepped into a blocked cell: %+v", got)
	}
}

func TestKernelDirectFallback(t *testing.T) {
	grid := openGrid(16)
	tab := NewTable(2, dispatch.NewPool(1))
	if err := tab.BindGrid(grid); err != nil {
		t.Fatal(err)
	}
	field := nav.NewFlowField(grid, dispatch.NewPool(1)) // never rebuilt

	id, _ := tab.Spawn()
	start := geom.Vec3{X: 2.5, Z: 8}
	tab.SetPosition(id, start)
	tab.SetSpeed(id, 5)
	tab.SetRenderAuthority(id, AuthorityGPU)

	target := geom.Vec3{X: 12.5, Z: 8}
	tab.StepKernel(0.2, field, target)

	got := tab.Position(id)
	if got.X <= start.X {
		t.Errorf("fallback did not head toward the target: %+v", got)
	}
	if got.Z != start.Z {
		t.Errorf("fallback drifted off the direct line: %+v", got)
	}
}

func TestKernelFollowsField(t *testing.T) {
	grid := openGrid(16)
	tab := NewTable(2, dispatch.NewPool(1))
	if err := tab.BindGrid(grid); err != nil {
		t.Fatal(err)
	}
	target := geom.Vec3{X: 14.5, Z: 8.5}
	field := newKernelField(grid, target)

	id, _ := tab.Spawn()
	start := geom.Vec3{X: 2.5, Z: 8.5}
	tab.SetPosition(id, start)
	tab.SetSpeed(id, 2)
	tab.SetRenderAuthority(id, AuthorityGPU)

	// Repeated steps walk the agent down the cost gradient.
	before := geom.GroundDistSq(start, target)
	for i := 0; i < 20; i++ {
		tab.StepKernel(0.1, field, target)
	}
	after := geom.GroundDistSq(tab.Position(id), target)
	if after >= before {
		t.Errorf("distance to target did not shrink: %f -> %f", before, after)
	}
}

func TestKernelSkipsInactive(t *testing.T) {
	grid := openGrid(16)
	tab := NewTable(2, dispatch.NewPool(1))
	if err := tab.BindGrid(grid); err != nil {
		t.Fatal(err)
	}
	field := nav.NewFlowField(grid, dispatch.NewPool(1))

	id, _ := tab.Spawn()
	pos := geom.Vec3{X: 3, Z: 3}
	tab.SetPosition(id, pos)
	tab.SetSpeed(id, 5)
	tab.SetRenderAuthority(id, AuthorityGPU)
	tab.Release(id)

	tab.StepKernel(0.1, field, geom.Vec3{X: 10, Z: 10})

	if got := tab.positions[id]; got != pos {
		t.Errorf("released slot moved: %+v", got)
	}
}
