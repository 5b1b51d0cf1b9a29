package spatial

import "github.com/pthm-cable/hordenav/geom"

// Box is the simplest static object: a world-space AABB with a fixed
// kind. Levels and tests register these directly.
type Box struct {
	Min, Max  geom.Vec3
	Kind      Kind
	NoRaycast bool
	Name      string
}

// Bounds implements StaticObject.
func (b *Box) Bounds() geom.AABB { return geom.AABB{Min: b.Min, Max: b.Max} }

// ColliderKind implements StaticObject.
func (b *Box) ColliderKind() Kind { return b.Kind }

// Raycastable implements StaticObject.
func (b *Box) Raycastable() bool { return !b.NoRaycast }
