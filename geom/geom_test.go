package geom

import (
	"math"
	"testing"
)

func TestAABBIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"solid", AABB{Max: Vec3{X: 10, Y: 5, Z: 10}}, false},
		{"flat floor", AABB{Max: Vec3{X: 10, Y: 0, Z: 10}}, false},
		{"zero x extent", AABB{Min: Vec3{X: 5}, Max: Vec3{X: 5, Y: 5, Z: 10}}, true},
		{"inverted z", AABB{Min: Vec3{Z: 10}, Max: Vec3{X: 10, Y: 5, Z: 5}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.box.IsEmpty(); got != tc.want {
				t.Errorf("IsEmpty = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIntersectsCircleXZ(t *testing.T) {
	box := AABB{Min: Vec3{X: 0, Z: 0}, Max: Vec3{X: 10, Y: 2, Z: 10}}

	tests := []struct {
		name   string
		center Vec2
		radius float32
		want   bool
	}{
		{"inside", Vec2{X: 5, Y: 5}, 1, true},
		{"touching edge", Vec2{X: 12, Y: 5}, 2, true},
		{"clear of edge", Vec2{X: 15, Y: 5}, 2, false},
		{"corner within radius", Vec2{X: 11, Y: 11}, 2, true},
		{"corner outside radius", Vec2{X: 12, Y: 12}, 2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.IntersectsCircleXZ(tc.center, tc.radius); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSegmentIntersectsXZ(t *testing.T) {
	box := AABB{Min: Vec3{X: 4, Z: 4}, Max: Vec3{X: 6, Y: 3, Z: 6}}

	tests := []struct {
		name string
		a, b Vec3
		want bool
	}{
		{"through center", Vec3{X: 0, Z: 5}, Vec3{X: 10, Z: 5}, true},
		{"misses above", Vec3{X: 0, Z: 8}, Vec3{X: 10, Z: 8}, false},
		{"stops short", Vec3{X: 0, Z: 5}, Vec3{X: 3, Z: 5}, false},
		{"starts inside", Vec3{X: 5, Z: 5}, Vec3{X: 20, Z: 5}, true},
		{"diagonal through corner region", Vec3{X: 0, Z: 0}, Vec3{X: 10, Z: 10}, true},
		{"axis-parallel on z", Vec3{X: 5, Z: 0}, Vec3{X: 5, Z: 10}, true},
		{"degenerate point outside", Vec3{X: 1, Z: 1}, Vec3{X: 1, Z: 1}, false},
		{"degenerate point inside", Vec3{X: 5, Z: 5}, Vec3{X: 5, Z: 5}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SegmentIntersectsXZ(tc.a, tc.b, box); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalized(t *testing.T) {
	v := Vec2{X: 3, Y: 4}.Normalized()
	if math.Abs(float64(v.Len()-1)) > 1e-5 {
		t.Errorf("normalized length = %f", v.Len())
	}
	if !(Vec2{}).Normalized().IsZero() {
		t.Error("normalizing zero should stay zero")
	}
}

func TestGroundDistSqIgnoresHeight(t *testing.T) {
	a := Vec3{X: 0, Y: 100, Z: 0}
	b := Vec3{X: 3, Y: -50, Z: 4}
	if got := GroundDistSq(a, b); got != 25 {
		t.Errorf("ground dist sq = %f, want 25", got)
	}
}
