package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hordenav/camera"
	"github.com/pthm-cable/hordenav/config"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/spatial"
)

// Viewer draws the engine top-down: static geometry, the agent horde
// from the batched render buffers, and optional navigation overlays.
type Viewer struct {
	cam *camera.Camera

	showGrid  bool
	showField bool
	showHelp  bool

	target geom.Vec3
}

// NewViewer creates a viewer sized from the config.
func NewViewer(cfg *config.Config, worldSize float32) *Viewer {
	return &Viewer{
		cam: camera.New(
			float32(cfg.Screen.Width),
			float32(cfg.Screen.Height),
			worldSize,
		),
		showHelp: true,
	}
}

// Target returns the current player-placed target position.
func (v *Viewer) Target() geom.Vec3 { return v.target }

// ViewerPos returns the world position of the camera center; the
// engine switches render authority around it.
func (v *Viewer) ViewerPos() geom.Vec3 {
	return geom.Vec3{X: v.cam.X, Z: v.cam.Y}
}

// HandleInput processes camera and target input for the frame.
func (v *Viewer) HandleInput() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		v.cam.Pan(-delta.X, -delta.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		mouse := rl.GetMousePosition()
		wx, wz := v.cam.ScreenToWorld(mouse.X, mouse.Y)
		v.target = geom.Vec3{X: wx, Z: wz}
	}

	if rl.IsKeyPressed(rl.KeyG) {
		v.showGrid = !v.showGrid
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.showField = !v.showField
	}
	if rl.IsKeyPressed(rl.KeyH) {
		v.showHelp = !v.showHelp
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
	}
	v.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
}

// Draw renders one frame.
func (v *Viewer) Draw(e *Engine) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(18, 18, 24, 255))

	if v.showGrid {
		v.drawWalkableGrid(e)
	}
	if v.showField {
		v.drawFlowField(e)
	}
	v.drawStatics(e)
	v.drawAgents(e)
	v.drawTarget()
	v.drawHUD(e)

	rl.EndDrawing()
}

func (v *Viewer) drawStatics(e *Engine) {
	for _, obj := range e.level.StaticObjects() {
		box := obj.Bounds()
		if !v.cam.IsVisible(box.Center().X, box.Center().Z, box.Max.X-box.Min.X) {
			continue
		}
		sx, sy := v.cam.WorldToScreen(box.Min.X, box.Min.Z)
		w := (box.Max.X - box.Min.X) * v.cam.Zoom
		h := (box.Max.Z - box.Min.Z) * v.cam.Zoom

		var col rl.Color
		switch obj.ColliderKind() {
		case spatial.KindGround:
			col = rl.NewColor(30, 34, 40, 255)
		case spatial.KindWall:
			col = rl.NewColor(120, 110, 95, 255)
		case spatial.KindStair:
			col = rl.NewColor(90, 100, 80, 255)
		case spatial.KindProp:
			col = rl.NewColor(85, 75, 95, 255)
		case spatial.KindMarker:
			col = rl.NewColor(40, 70, 60, 120)
		}
		rl.DrawRectangle(int32(sx), int32(sy), int32(w)+1, int32(h)+1, col)
	}
}

func (v *Viewer) drawAgents(e *Engine) {
	positions, states := e.RenderBuffers()
	radius := 1.2 * v.cam.Zoom
	if radius < 1.5 {
		radius = 1.5
	}
	for i := range positions {
		p := positions[i]
		if !v.cam.IsVisible(p.X, p.Z, 2) {
			continue
		}
		sx, sy := v.cam.WorldToScreen(p.X, p.Z)

		col := rl.NewColor(220, 90, 70, 255) // CPU-driven: warm
		if states[i].GPUDriven {
			col = rl.NewColor(90, 140, 220, 255) // batched: cool
		}
		rl.DrawCircle(int32(sx), int32(sy), radius, col)
	}
}

func (v *Viewer) drawTarget() {
	sx, sy := v.cam.WorldToScreen(v.target.X, v.target.Z)
	r := 4 * v.cam.Zoom
	if r < 5 {
		r = 5
	}
	rl.DrawCircleLines(int32(sx), int32(sy), r, rl.Gold)
	rl.DrawCircle(int32(sx), int32(sy), 2, rl.Gold)
}

func (v *Viewer) drawWalkableGrid(e *Engine) {
	grid := e.Grid()
	n := grid.N()
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			if grid.Walkable(cx, cz) {
				continue
			}
			c := grid.CellCenter(cx, cz)
			if !v.cam.IsVisible(c.X, c.Z, grid.CellSize()) {
				continue
			}
			half := grid.CellSize() / 2
			sx, sy := v.cam.WorldToScreen(c.X-half, c.Z-half)
			size := grid.CellSize() * v.cam.Zoom
			rl.DrawRectangle(int32(sx), int32(sy), int32(size)+1, int32(size)+1,
				rl.NewColor(160, 40, 40, 90))
		}
	}
}

func (v *Viewer) drawFlowField(e *Engine) {
	field := e.Field()
	if !field.Valid() {
		return
	}
	grid := e.Grid()
	n := grid.N()
	arrow := grid.CellSize() * 0.35
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			dir := field.DirectionAt(cx, cz)
			if dir.IsZero() {
				continue
			}
			c := grid.CellCenter(cx, cz)
			if !v.cam.IsVisible(c.X, c.Z, grid.CellSize()) {
				continue
			}
			sx, sy := v.cam.WorldToScreen(c.X, c.Z)
			ex, ey := v.cam.WorldToScreen(c.X+dir.X*arrow, c.Z+dir.Y*arrow)
			rl.DrawLine(int32(sx), int32(sy), int32(ex), int32(ey),
				rl.NewColor(70, 180, 120, 160))
		}
	}
}

func (v *Viewer) drawHUD(e *Engine) {
	rl.DrawText(fmt.Sprintf("agents %d  score %.0f  fps %d",
		e.Alive(), e.Score(), rl.GetFPS()), 10, 10, 18, rl.RayWhite)

	if v.showHelp {
		rl.DrawText("LMB target | RMB drag pan | wheel zoom | G grid | F field | R reset | H help",
			10, int32(rl.GetScreenHeight())-26, 16, rl.Gray)
	}
}
