package game

import (
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/spatial"
)

// Level is what collaborators supply: static collider geometry, a
// terrain-height query, and the waypoint markers the path graph links.
type Level interface {
	// StaticObjects returns every collider to register at load.
	StaticObjects() []spatial.StaticObject
	// HeightAt returns the terrain height at a ground position.
	HeightAt(x, z float32) float32
	// Waypoints returns the marker positions for the path graph.
	Waypoints() []geom.Vec3
}
