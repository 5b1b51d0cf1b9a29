package sim

import (
	"math"

	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/nav"
)

// StepKernel is the per-agent grid-step dispatch: one independent task
// per slot range, each task writing only the position of its own
// GPU-authority slots. It runs after the gameplay pass has finished its
// uploads for the frame; its output is consumed next frame.
//
// Per agent: sample the flow field at the current cell; fall back to a
// direct vector toward the target when the sample is undefined; gate
// the move on the walkability of the destination cell.
func (t *Table) StepKernel(dt float32, field *nav.FlowField, target geom.Vec3) {
	if t.grid == nil || dt <= 0 {
		return
	}
	n := int(t.free.highWater)

	t.pool.Run(n, func(start, end int) {
		for i := start; i < end; i++ {
			if !t.active[i] || t.authority[i] != AuthorityGPU {
				continue
			}
			pos := t.positions[i]

			dir, ok := field.Sample(pos)
			if !ok {
				// Undefined field here: head straight at the target.
				dx := target.X - pos.X
				dz := target.Z - pos.Z
				l := float32(math.Sqrt(float64(dx*dx + dz*dz)))
				if l < 1e-4 {
					continue
				}
				dir = geom.Vec2{X: dx / l, Y: dz / l}
			}

			step := t.speeds[i] * dt
			next := geom.Vec3{
				X: pos.X + dir.X*step,
				Y: pos.Y,
				Z: pos.Z + dir.Y*step,
			}
			if !t.grid.WalkableAt(next) {
				continue
			}
			t.positions[i] = next
		}
	})
}
