package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 1000)

	// Should be centered on the arena origin at fit zoom
	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at (0, 0), got (%f, %f)", cam.X, cam.Y)
	}
	// Fit zoom is min(1280/1000, 720/1000) = 0.72
	if math.Abs(float64(cam.Zoom-0.72)) > 0.001 {
		t.Errorf("expected fit zoom 0.72, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 1000)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(0, 0)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 1000)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToArena(t *testing.T) {
	cam := New(1000, 1000, 1000)
	cam.SetZoom(2.0)

	// Pan far past the arena edge; the view must stop at the boundary.
	cam.Pan(100000, 0)

	halfView := cam.ViewportW / (2 * cam.Zoom)
	maxCenter := cam.Half - halfView
	if math.Abs(float64(cam.X-maxCenter)) > 0.01 {
		t.Errorf("expected X clamped to %f, got %f", maxCenter, cam.X)
	}

	// The visible bounds never leave the arena.
	_, _, maxX, _ := cam.VisibleWorldBounds()
	if maxX > cam.Half+0.01 {
		t.Errorf("visible area extends past arena: maxX=%f half=%f", maxX, cam.Half)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1000, 1000, 1000)

	// Fit zoom for a square viewport over a square arena is 1.0
	if math.Abs(float64(cam.MinZoom-1.0)) > 0.001 {
		t.Errorf("expected MinZoom 1.0, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(100.0) // Above max
	if cam.Zoom != 8.0 {
		t.Errorf("expected zoom clamped to 8.0, got %f", cam.Zoom)
	}
}

func TestWideViewportPinsCenter(t *testing.T) {
	// Viewport wider than the arena on X at min zoom: the camera must
	// pin to the arena center on that axis rather than drift.
	cam := New(1600, 800, 1000)
	cam.Pan(500, 0)

	halfView := cam.ViewportW / (2 * cam.Zoom)
	if halfView >= cam.Half && cam.X != 0 {
		t.Errorf("expected X pinned to 0 with oversized view, got %f", cam.X)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1000, 1000, 1000)
	cam.SetZoom(2.0)

	// Visible half-extent is 1000/(2*2) = 250 world units.
	if !cam.IsVisible(0, 0, 10) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(400, 400, 10) {
		t.Error("far point should not be visible")
	}
	// Point just outside with a large radius still culls in.
	if !cam.IsVisible(300, 0, 100) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 1000)
	cam.Pan(300, 300)
	cam.SetZoom(4.0)

	cam.Reset()

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected position (0, 0), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected fit zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}
