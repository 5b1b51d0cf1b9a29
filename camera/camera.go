// Package camera provides the top-down 2D viewport over the arena.
package camera

// Camera controls the viewport into the arena. The arena is bounded
// and centered on the origin; the camera clamps instead of wrapping.
type Camera struct {
	// Position is the camera center in world coordinates (X, Z plane)
	X, Y float32

	// Zoom level (1.0 = one world unit per pixel)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World half-extent; the arena spans [-Half, +Half] on both axes
	Half float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the arena, zoomed to fit it.
func New(viewportW, viewportH, worldSize float32) *Camera {
	// The fit zoom shows the whole arena; zooming out past it only
	// shows void.
	fitX := viewportW / worldSize
	fitY := viewportH / worldSize
	fit := fitX
	if fitY < fit {
		fit = fitY
	}

	return &Camera{
		Zoom:      fit,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Half:      worldSize / 2,
		MinZoom:   fit,
		MaxZoom:   8.0,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH

	fitX := viewportW / (c.Half * 2)
	fitY := viewportH / (c.Half * 2)
	c.MinZoom = fitX
	if fitY < c.MinZoom {
		c.MinZoom = fitY
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels, clamped to
// the arena bounds.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the arena center at fit zoom.
func (c *Camera) Reset() {
	c.X = 0
	c.Y = 0
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the
// visible area as (minX, minY, maxX, maxY).
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// clampCenter keeps the visible area inside the arena. When the view
// is wider than the arena on an axis, the center pins to zero.
func (c *Camera) clampCenter() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	c.X = clampAxis(c.X, c.Half-halfW)
	c.Y = clampAxis(c.Y, c.Half-halfH)
}

func clampAxis(v, limit float32) float32 {
	if limit <= 0 {
		return 0
	}
	return clamp(v, -limit, limit)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
