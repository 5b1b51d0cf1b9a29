// Package geom provides the small vector and bounding-box types shared
// by the spatial index, the navigation field, and the agent table.
package geom

import "math"

// Vec2 is a 2D vector over the ground plane (X, Z in world terms).
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the vector length.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// LenSq returns the squared length (avoids sqrt in hot paths).
func (v Vec2) LenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Normalized returns the unit vector, or the zero vector for a
// near-zero input.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l < 1e-6 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Vec3 is a world-space position or velocity. Y is up; the navigation
// grid and spatial hash operate on the X/Z plane.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Len returns the vector length.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// XZ projects onto the ground plane.
func (v Vec3) XZ() Vec2 { return Vec2{v.X, v.Z} }

// GroundDistSq returns the squared distance between the ground-plane
// projections of two points.
func GroundDistSq(a, b Vec3) float32 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max Vec3
}

// IsEmpty reports whether the box has no volume on the ground plane.
// Height-degenerate boxes (flat floors) are still valid colliders.
func (b AABB) IsEmpty() bool {
	return b.Max.X <= b.Min.X || b.Max.Z <= b.Min.Z
}

// ContainsXZ reports whether the ground-plane projection of p lies
// inside the box.
func (b AABB) ContainsXZ(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// IntersectsCircleXZ reports whether the box overlaps a circle on the
// ground plane.
func (b AABB) IntersectsCircleXZ(center Vec2, radius float32) bool {
	cx := clamp(center.X, b.Min.X, b.Max.X)
	cz := clamp(center.Y, b.Min.Z, b.Max.Z)
	dx := center.X - cx
	dz := center.Y - cz
	return dx*dx+dz*dz <= radius*radius
}

// Center returns the box center.
func (b AABB) Center() Vec3 {
	return Vec3{
		X: (b.Min.X + b.Max.X) * 0.5,
		Y: (b.Min.Y + b.Max.Y) * 0.5,
		Z: (b.Min.Z + b.Max.Z) * 0.5,
	}
}

// SegmentIntersectsXZ reports whether the ground-plane projection of
// segment a-b crosses the box. Standard 2D slab test.
func SegmentIntersectsXZ(a, b Vec3, box AABB) bool {
	dx := b.X - a.X
	dz := b.Z - a.Z
	tMin, tMax := float32(0), float32(1)

	for axis := 0; axis < 2; axis++ {
		var origin, dir, lo, hi float32
		if axis == 0 {
			origin, dir, lo, hi = a.X, dx, box.Min.X, box.Max.X
		} else {
			origin, dir, lo, hi = a.Z, dz, box.Min.Z, box.Max.Z
		}
		if dir == 0 {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}
		t0 := (lo - origin) / dir
		t1 := (hi - origin) / dir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
