package spatial

import (
	"math"

	"github.com/pthm-cable/hordenav/geom"
)

// maxRaycastCells bounds the grid walk so a malformed ray can never
// spin the traversal loop.
const maxRaycastCells = 4096

// RaycastCandidates walks the grid along the ray's ground-plane
// projection and returns candidate entries in strict ray order, each at
// most once. Entries flagged non-raycastable are skipped. The walk is
// the incremental 2D grid traversal: per-axis step direction and
// distance to the next cell boundary are precomputed from the ray, and
// the axis with the nearer boundary advances first.
func (g *HashGrid) RaycastCandidates(origin, dir geom.Vec3, maxDist float32) []*Entry {
	return g.RaycastCandidatesInto(nil, origin, dir, maxDist)
}

// RaycastCandidatesInto is the allocation-free variant.
func (g *HashGrid) RaycastCandidatesInto(dst []*Entry, origin, dir geom.Vec3, maxDist float32) []*Entry {
	d := dir.XZ().Normalized()
	if d.IsZero() || maxDist <= 0 {
		return dst
	}
	if g.degraded {
		return g.linearRaycast(dst, origin, d, maxDist)
	}

	g.stamp++

	cx, cz := g.cellCoords(origin.X, origin.Z)

	// Step direction and boundary distances per axis. A zero direction
	// component means that axis never crosses a boundary: infinite step.
	stepX, tMaxX, tDeltaX := axisSetup(origin.X, d.X, g.cellSize)
	stepZ, tMaxZ, tDeltaZ := axisSetup(origin.Z, d.Y, g.cellSize)

	t := float32(0)
	for i := 0; i < maxRaycastCells && t <= maxDist; i++ {
		if bucket, ok := g.cells[cellKey(cx, cz)]; ok {
			for _, idx := range bucket {
				if g.stamps[idx] == g.stamp {
					continue
				}
				g.stamps[idx] = g.stamp
				e := &g.entries[idx]
				if !e.raycastable {
					continue
				}
				dst = append(dst, e)
			}
		}

		// Advance to whichever axis boundary is nearer.
		if tMaxX < tMaxZ {
			t = tMaxX
			tMaxX += tDeltaX
			cx += stepX
		} else {
			t = tMaxZ
			tMaxZ += tDeltaZ
			cz += stepZ
		}
	}
	return dst
}

// axisSetup computes the traversal constants for one axis: the cell
// step (-1, 0, +1), the ray parameter at the first boundary crossing,
// and the parameter delta between crossings.
func axisSetup(pos, dir, cellSize float32) (step int32, tMax, tDelta float32) {
	const inf = float32(math.MaxFloat32)
	if dir > 0 {
		cell := float32(math.Floor(float64(pos / cellSize)))
		next := (cell + 1) * cellSize
		return 1, (next - pos) / dir, cellSize / dir
	}
	if dir < 0 {
		cell := float32(math.Floor(float64(pos / cellSize)))
		prev := cell * cellSize
		return -1, (prev - pos) / dir, cellSize / -dir
	}
	return 0, inf, inf
}

// linearRaycast is the degraded-mode fallback: every raycastable
// collider whose box overlaps the ray's bounding rectangle is a
// candidate.
func (g *HashGrid) linearRaycast(dst []*Entry, origin geom.Vec3, d geom.Vec2, maxDist float32) []*Entry {
	end := geom.Vec2{X: origin.X + d.X*maxDist, Y: origin.Z + d.Y*maxDist}
	minX, maxX := minMax(origin.X, end.X)
	minZ, maxZ := minMax(origin.Z, end.Y)

	for i := range g.entries {
		e := &g.entries[i]
		if !e.raycastable {
			continue
		}
		if e.Box.Max.X < minX || e.Box.Min.X > maxX ||
			e.Box.Max.Z < minZ || e.Box.Min.Z > maxZ {
			continue
		}
		dst = append(dst, e)
	}
	return dst
}

func minMax(a, b float32) (float32, float32) {
	if a < b {
		return a, b
	}
	return b, a
}
