package game

import (
	"math/rand"

	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/spatial"
)

// Arena is a procedural square test level: a flat ground plane,
// boundary walls, scattered pillar props, and a waypoint lattice. The
// viewer and the tests both run on it.
type Arena struct {
	size      float32
	objects   []spatial.StaticObject
	waypoints []geom.Vec3
}

// NewArena builds an arena of the given side length, centered on the
// origin, with pillarCount random pillars.
func NewArena(size float32, pillarCount int, seed int64) *Arena {
	a := &Arena{size: size}
	rng := rand.New(rand.NewSource(seed))
	half := size / 2

	// Ground plane. Flat floors are height-degenerate boxes but have
	// ground-plane area, so they pass registration.
	a.objects = append(a.objects, &spatial.Box{
		Min:  geom.Vec3{X: -half, Y: -0.1, Z: -half},
		Max:  geom.Vec3{X: half, Y: 0, Z: half},
		Kind: spatial.KindGround,
		Name: "ground",
	})

	// Boundary walls.
	const wallThick, wallHeight = 2.0, 4.0
	walls := []spatial.Box{
		{Min: geom.Vec3{X: -half, Z: -half - wallThick}, Max: geom.Vec3{X: half, Y: wallHeight, Z: -half}, Name: "wall_n"},
		{Min: geom.Vec3{X: -half, Z: half}, Max: geom.Vec3{X: half, Y: wallHeight, Z: half + wallThick}, Name: "wall_s"},
		{Min: geom.Vec3{X: -half - wallThick, Z: -half}, Max: geom.Vec3{X: -half, Y: wallHeight, Z: half}, Name: "wall_w"},
		{Min: geom.Vec3{X: half, Z: -half}, Max: geom.Vec3{X: half + wallThick, Y: wallHeight, Z: half}, Name: "wall_e"},
	}
	for i := range walls {
		walls[i].Kind = spatial.KindWall
		a.objects = append(a.objects, &walls[i])
	}

	// Pillars, kept off the center so the default target is reachable.
	for i := 0; i < pillarCount; i++ {
		cx := (rng.Float32()*2 - 1) * (half - 30)
		cz := (rng.Float32()*2 - 1) * (half - 30)
		if cx*cx+cz*cz < 50*50 {
			continue
		}
		r := 2 + rng.Float32()*4
		a.objects = append(a.objects, &spatial.Box{
			Min:  geom.Vec3{X: cx - r, Z: cz - r},
			Max:  geom.Vec3{X: cx + r, Y: 3, Z: cz + r},
			Kind: spatial.KindProp,
		})
	}

	// Waypoint lattice every 50 units, skipping cells under pillars.
	const spacing = 50.0
	for z := -half + spacing; z < half; z += spacing {
		for x := -half + spacing; x < half; x += spacing {
			p := geom.Vec3{X: x, Z: z}
			if a.insidePillar(p) {
				continue
			}
			a.waypoints = append(a.waypoints, p)
			a.objects = append(a.objects, &spatial.Box{
				Min:       geom.Vec3{X: x - 0.5, Z: z - 0.5},
				Max:       geom.Vec3{X: x + 0.5, Y: 0.5, Z: z + 0.5},
				Kind:      spatial.KindMarker,
				NoRaycast: true,
			})
		}
	}

	return a
}

func (a *Arena) insidePillar(p geom.Vec3) bool {
	for _, obj := range a.objects {
		box, ok := obj.(*spatial.Box)
		if !ok || box.Kind != spatial.KindProp {
			continue
		}
		if box.Bounds().ContainsXZ(p) {
			return true
		}
	}
	return false
}

// StaticObjects implements Level.
func (a *Arena) StaticObjects() []spatial.StaticObject { return a.objects }

// HeightAt implements Level. The arena floor is flat.
func (a *Arena) HeightAt(x, z float32) float32 { return 0 }

// Waypoints implements Level.
func (a *Arena) Waypoints() []geom.Vec3 { return a.waypoints }

// Size returns the arena side length.
func (a *Arena) Size() float32 { return a.size }
