// Package nav provides flow-field navigation: a walkable grid baked
// once per level, a rate-limited cost relaxation over it, and the
// direction field agents sample every frame.
package nav

import (
	"errors"
	"log/slog"
	"math"

	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/spatial"
)

// ErrGridMismatch is returned when a grid is re-baked with different
// dimensions while agents still reference the old buffers. The caller
// performs a full table/kernel rebuild.
var ErrGridMismatch = errors.New("nav: grid dimensions changed under live agents")

// Grid is the baked walkable grid over the play area: N×N cells with a
// fixed cell size and world offset. The walkable array is baked once
// from static geometry and immutable afterward.
type Grid struct {
	n        int
	cellSize float32
	offset   geom.Vec2 // world position of cell (0,0)'s min corner
	walkable []bool
}

// BakeWalkableGrid bakes an n×n grid from the static colliders in the
// spatial index. A cell is blocked when a wall or prop collider
// overlaps its bounds; ground, stairs, and markers never block.
func BakeWalkableGrid(index *spatial.HashGrid, n int, cellSize float32, offset geom.Vec2) *Grid {
	g := &Grid{
		n:        n,
		cellSize: cellSize,
		offset:   offset,
		walkable: make([]bool, n*n),
	}

	half := cellSize * 0.5
	// The broad query uses the circumscribed radius so corner-clipping
	// colliders are candidates; the exact cell-vs-box test decides.
	reach := half * float32(math.Sqrt2)
	var scratch []*spatial.Entry
	blockedCount := 0
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			minX := offset.X + float32(cx)*cellSize
			minZ := offset.Y + float32(cz)*cellSize
			center := geom.Vec3{X: minX + half, Z: minZ + half}
			scratch = index.QueryRadiusInto(scratch[:0], center, reach)

			blocked := false
			for _, e := range scratch {
				switch e.Kind {
				case spatial.KindWall, spatial.KindProp:
					blocked = e.Box.Min.X < minX+cellSize && e.Box.Max.X > minX &&
						e.Box.Min.Z < minZ+cellSize && e.Box.Max.Z > minZ
				case spatial.KindGround, spatial.KindStair, spatial.KindMarker:
					// traversable geometry
				}
				if blocked {
					break
				}
			}
			if blocked {
				blockedCount++
			}
			g.walkable[cz*n+cx] = !blocked
		}
	}

	slog.Info("nav: walkable grid baked",
		"cells", n*n,
		"blocked", blockedCount,
		"cell_size", cellSize,
	)
	return g
}

// NewGridFromMask builds a grid directly from a walkable mask. The mask
// is copied; len(mask) must be n*n.
func NewGridFromMask(n int, cellSize float32, offset geom.Vec2, mask []bool) *Grid {
	w := make([]bool, n*n)
	copy(w, mask)
	return &Grid{n: n, cellSize: cellSize, offset: offset, walkable: w}
}

// N returns the grid dimension (the grid is N×N).
func (g *Grid) N() int { return g.n }

// CellSize returns the cell size in world units.
func (g *Grid) CellSize() float32 { return g.cellSize }

// Offset returns the world position of the grid's min corner.
func (g *Grid) Offset() geom.Vec2 { return g.offset }

// Walkable reports whether the cell is inside the grid and walkable.
// Out of bounds is blocked.
func (g *Grid) Walkable(cx, cz int) bool {
	if cx < 0 || cx >= g.n || cz < 0 || cz >= g.n {
		return false
	}
	return g.walkable[cz*g.n+cx]
}

// CellAt maps a world position to cell coordinates. ok is false when
// the position lies outside the grid.
func (g *Grid) CellAt(pos geom.Vec3) (cx, cz int, ok bool) {
	cx = int((pos.X - g.offset.X) / g.cellSize)
	cz = int((pos.Z - g.offset.Y) / g.cellSize)
	if pos.X < g.offset.X || pos.Z < g.offset.Y || cx >= g.n || cz >= g.n {
		return cx, cz, false
	}
	return cx, cz, true
}

// WalkableAt reports whether the world position lies in a walkable cell.
func (g *Grid) WalkableAt(pos geom.Vec3) bool {
	cx, cz, ok := g.CellAt(pos)
	return ok && g.walkable[cz*g.n+cx]
}

// CellCenter returns the world-space center of a cell.
func (g *Grid) CellCenter(cx, cz int) geom.Vec3 {
	return geom.Vec3{
		X: g.offset.X + (float32(cx)+0.5)*g.cellSize,
		Z: g.offset.Y + (float32(cz)+0.5)*g.cellSize,
	}
}

// SameShape reports whether another grid has identical dimensions,
// cell size, and offset. Used to detect re-bakes that require a full
// rebuild of anything holding per-cell buffers.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.n == o.n && g.cellSize == o.cellSize && g.offset == o.offset
}
