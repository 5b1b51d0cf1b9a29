package nav

import (
	"testing"

	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/spatial"
)

func bakeTestGrid(t *testing.T) *Grid {
	t.Helper()
	index := spatial.NewHashGrid(20)
	objects := []*spatial.Box{
		{Min: geom.Vec3{X: 0, Y: -0.1, Z: 0}, Max: geom.Vec3{X: 100, Z: 100}, Kind: spatial.KindGround},
		{Min: geom.Vec3{X: 40, Z: 0}, Max: geom.Vec3{X: 50, Y: 4, Z: 60}, Kind: spatial.KindWall},
		{Min: geom.Vec3{X: 70, Z: 70}, Max: geom.Vec3{X: 80, Y: 3, Z: 80}, Kind: spatial.KindProp},
		{Min: geom.Vec3{X: 10, Z: 10}, Max: geom.Vec3{X: 20, Y: 1, Z: 20}, Kind: spatial.KindStair},
		{Min: geom.Vec3{X: 24, Z: 24}, Max: geom.Vec3{X: 26, Y: 1, Z: 26}, Kind: spatial.KindMarker, NoRaycast: true},
	}
	for _, o := range objects {
		if err := index.AddStatic(o); err != nil {
			t.Fatal(err)
		}
	}
	return BakeWalkableGrid(index, 10, 10, geom.Vec2{})
}

func TestBakeBlocksWallsAndProps(t *testing.T) {
	g := bakeTestGrid(t)

	// Cell (4,2) sits under the wall strip.
	if g.Walkable(4, 2) {
		t.Error("wall cell should be blocked")
	}
	// Cell (7,7) sits under the prop.
	if g.Walkable(7, 7) {
		t.Error("prop cell should be blocked")
	}
	// Stairs and markers never block.
	if !g.Walkable(1, 1) {
		t.Error("stair cell should be walkable")
	}
	if !g.Walkable(2, 2) {
		t.Error("marker cell should be walkable")
	}
	// Plain ground is walkable.
	if !g.Walkable(0, 9) {
		t.Error("ground cell should be walkable")
	}
}

func TestBakeBlocksCornerClippedCells(t *testing.T) {
	index := spatial.NewHashGrid(20)
	objects := []*spatial.Box{
		{Min: geom.Vec3{Y: -0.1}, Max: geom.Vec3{X: 100, Z: 100}, Kind: spatial.KindGround},
		// Clips only the corner region of cell (0,0), outside the
		// cell's inscribed circle.
		{Min: geom.Vec3{X: 8.8, Z: 8.8}, Max: geom.Vec3{X: 10, Y: 2, Z: 10}, Kind: spatial.KindProp},
		// Shares an edge with cell (3,0) without overlapping it.
		{Min: geom.Vec3{X: 40, Z: 0}, Max: geom.Vec3{X: 44, Y: 2, Z: 10}, Kind: spatial.KindWall},
	}
	for _, o := range objects {
		if err := index.AddStatic(o); err != nil {
			t.Fatal(err)
		}
	}
	g := BakeWalkableGrid(index, 10, 10, geom.Vec2{})

	if g.Walkable(0, 0) {
		t.Error("corner-clipped cell should be blocked")
	}
	if !g.Walkable(1, 1) {
		t.Error("cell merely touching the prop corner should stay walkable")
	}
	if g.Walkable(4, 0) {
		t.Error("cell under the wall should be blocked")
	}
	if !g.Walkable(3, 0) {
		t.Error("cell merely touching the wall edge should stay walkable")
	}
}

func TestWalkableOutOfBounds(t *testing.T) {
	g := bakeTestGrid(t)

	cases := [][2]int{{-1, 0}, {0, -1}, {10, 0}, {0, 10}}
	for _, c := range cases {
		if g.Walkable(c[0], c[1]) {
			t.Errorf("out-of-bounds cell (%d,%d) must be blocked", c[0], c[1])
		}
	}
	if g.WalkableAt(geom.Vec3{X: -5, Z: 50}) {
		t.Error("position outside the grid must be blocked")
	}
}

func TestCellAtRoundTrip(t *testing.T) {
	g := bakeTestGrid(t)

	for _, want := range [][2]int{{0, 0}, {5, 3}, {9, 9}} {
		center := g.CellCenter(want[0], want[1])
		cx, cz, ok := g.CellAt(center)
		if !ok || cx != want[0] || cz != want[1] {
			t.Errorf("CellAt(CellCenter(%d,%d)) = (%d,%d,%v)", want[0], want[1], cx, cz, ok)
		}
	}

	if _, _, ok := g.CellAt(geom.Vec3{X: 100.5, Z: 50}); ok {
		t.Error("position past the max edge should be outside")
	}
}

func TestSameShape(t *testing.T) {
	a := openGrid(10)
	b := openGrid(10)
	c := openGrid(12)
	d := NewGridFromMask(10, 2, geom.Vec2{}, make([]bool, 100))
	e := NewGridFromMask(10, 1, geom.Vec2{X: 5}, make([]bool, 100))

	if !a.SameShape(b) {
		t.Error("identical grids should match")
	}
	if a.SameShape(c) {
		t.Error("different n should not match")
	}
	if a.SameShape(d) {
		t.Error("different cell size should not match")
	}
	if a.SameShape(e) {
		t.Error("different offset should not match")
	}
	if a.SameShape(nil) {
		t.Error("nil should not match")
	}
}
