// Package spatial provides the broad-phase index over static world
// geometry: a hash grid answering radius queries and ray-cell traversal.
package spatial

import (
	"errors"
	"log/slog"
	"math"

	"github.com/pthm-cable/hordenav/geom"
)

// ErrInvalidGeometry is returned when a static object produces an empty
// ground-plane AABB. The object is excluded from the grid; callers log
// and continue.
var ErrInvalidGeometry = errors.New("spatial: degenerate collider AABB")

// Kind classifies a static collider at registration time. Grid and
// motion code match on it exhaustively; there is no open-ended tag set.
type Kind uint8

const (
	KindGround Kind = iota
	KindWall
	KindStair
	KindProp
	KindMarker
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindGround:
		return "ground"
	case KindWall:
		return "wall"
	case KindStair:
		return "stair"
	case KindProp:
		return "prop"
	case KindMarker:
		return "marker"
	}
	return "unknown"
}

// StaticObject is what collaborators register into the grid. Bounds is
// evaluated exactly once, at registration.
type StaticObject interface {
	Bounds() geom.AABB
	ColliderKind() Kind
	Raycastable() bool
}

// Entry is a registered collider: the AABB computed at registration
// plus the owning object handle.
type Entry struct {
	Box    geom.AABB
	Kind   Kind
	Object StaticObject

	raycastable bool
}

// DefaultCellSize is chosen relative to the expected query radius so a
// typical radius query touches a handful of cells.
const DefaultCellSize = 20.0

// HashGrid indexes static colliders into fixed-size cells. It is
// write-once at level load and read-only afterward. Queries mutate
// only the per-entry visit stamps, so queries must come from a single
// goroutine (the gameplay pass).
type HashGrid struct {
	cellSize float32
	entries  []Entry
	stamps   []uint32
	cells    map[uint64][]int32
	stamp    uint32
	degraded bool
}

// NewHashGrid creates a grid with the given cell size. Zero or negative
// falls back to DefaultCellSize.
func NewHashGrid(cellSize float32) *HashGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &HashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]int32, 256),
	}
}

// CellSize returns the grid cell size in world units.
func (g *HashGrid) CellSize() float32 { return g.cellSize }

// Len returns the number of registered colliders.
func (g *HashGrid) Len() int { return len(g.entries) }

// SetDegraded toggles the linear-scan fallback. Queries stay correct
// but cost O(N) until the grid is marked healthy again.
func (g *HashGrid) SetDegraded(v bool) { g.degraded = v }

// AddStatic registers a collider. The AABB is computed once here;
// empty ground-plane boxes are rejected and logged, never fatal.
func (g *HashGrid) AddStatic(obj StaticObject) error {
	box := obj.Bounds()
	if box.IsEmpty() {
		slog.Warn("spatial: rejecting degenerate collider",
			"kind", obj.ColliderKind().String(),
			"min_x", box.Min.X, "max_x", box.Max.X,
			"min_z", box.Min.Z, "max_z", box.Max.Z,
		)
		return ErrInvalidGeometry
	}

	idx := int32(len(g.entries))
	g.entries = append(g.entries, Entry{
		Box:         box,
		Kind:        obj.ColliderKind(),
		Object:      obj,
		raycastable: obj.Raycastable(),
	})
	g.stamps = append(g.stamps, 0)

	minCX, minCZ := g.cellCoords(box.Min.X, box.Min.Z)
	maxCX, maxCZ := g.cellCoords(box.Max.X, box.Max.Z)
	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			key := cellKey(cx, cz)
			g.cells[key] = append(g.cells[key], idx)
		}
	}
	return nil
}

// QueryRadius returns candidate entries whose owning cells intersect
// the bounding cells of the query circle. Each object appears at most
// once even when its AABB spans multiple cells.
func (g *HashGrid) QueryRadius(pos geom.Vec3, radius float32) []*Entry {
	return g.QueryRadiusInto(nil, pos, radius)
}

// QueryRadiusInto is the allocation-free variant; reuse dst across
// calls.
func (g *HashGrid) QueryRadiusInto(dst []*Entry, pos geom.Vec3, radius float32) []*Entry {
	if g.degraded {
		return g.linearRadius(dst, pos, radius)
	}

	g.stamp++
	center := pos.XZ()

	minCX, minCZ := g.cellCoords(pos.X-radius, pos.Z-radius)
	maxCX, maxCZ := g.cellCoords(pos.X+radius, pos.Z+radius)

	for cz := minCZ; cz <= maxCZ; cz++ {
		for cx := minCX; cx <= maxCX; cx++ {
			bucket, ok := g.cells[cellKey(cx, cz)]
			if !ok {
				continue
			}
			for _, idx := range bucket {
				if g.stamps[idx] == g.stamp {
					continue // already visited this query
				}
				g.stamps[idx] = g.stamp
				e := &g.entries[idx]
				if e.Box.IntersectsCircleXZ(center, radius) {
					dst = append(dst, e)
				}
			}
		}
	}
	return dst
}

// linearRadius is the degraded-mode fallback: scan every collider.
func (g *HashGrid) linearRadius(dst []*Entry, pos geom.Vec3, radius float32) []*Entry {
	center := pos.XZ()
	for i := range g.entries {
		e := &g.entries[i]
		if e.Box.IntersectsCircleXZ(center, radius) {
			dst = append(dst, e)
		}
	}
	return dst
}

// cellCoords maps a world position to integer cell coordinates.
// Floor keeps negative coordinates in the correct cell.
func (g *HashGrid) cellCoords(x, z float32) (int32, int32) {
	cx := int32(math.Floor(float64(x / g.cellSize)))
	cz := int32(math.Floor(float64(z / g.cellSize)))
	return cx, cz
}

// cellKey packs signed cell coordinates into a map key.
func cellKey(cx, cz int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cz))
}
