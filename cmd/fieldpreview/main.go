// Flow field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/fieldpreview
package main

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hordenav/dispatch"
	"github.com/pthm-cable/hordenav/game"
	"github.com/pthm-cable/hordenav/geom"
	"github.com/pthm-cable/hordenav/nav"
	"github.com/pthm-cable/hordenav/spatial"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	panelWidth   = windowWidth - previewSize - 30
	worldSize    = 1000.0
)

// FieldParams holds the preview's tunable parameters.
type FieldParams struct {
	GridN      int
	Iterations int
	Pillars    int
	Seed       int64
}

// preview owns the baked state for the current parameters.
type preview struct {
	pool  *dispatch.Pool
	arena *game.Arena
	grid  *nav.Grid
	field *nav.FlowField
}

func buildPreview(pool *dispatch.Pool, params FieldParams, target geom.Vec3) *preview {
	arena := game.NewArena(worldSize, params.Pillars, params.Seed)

	index := spatial.NewHashGrid(worldSize / 50)
	for _, obj := range arena.StaticObjects() {
		_ = index.AddStatic(obj)
	}

	cellSize := float32(worldSize) / float32(params.GridN)
	offset := geom.Vec2{X: -worldSize / 2, Y: -worldSize / 2}
	grid := nav.BakeWalkableGrid(index, params.GridN, cellSize, offset)

	field := nav.NewFlowField(grid, pool)
	field.SetCadence(nav.DefaultInterval, params.Iterations)
	field.Rebuild(target)

	return &preview{pool: pool, arena: arena, grid: grid, field: field}
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := FieldParams{
		GridN:      100,
		Iterations: nav.DefaultIterations,
		Pillars:    40,
		Seed:       12345,
	}
	target := geom.Vec3{}

	pool := dispatch.NewPool(0)
	defer pool.Stop()

	pv := buildPreview(pool, params, target)

	img := rl.GenImageColor(params.GridN, params.GridN, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	showArrows := true
	needsRegen := false
	needsRepaint := true

	for !rl.WindowShouldClose() {
		// Click on the preview moves the target.
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			mouse := rl.GetMousePosition()
			if mouse.X >= 10 && mouse.X < 10+previewSize && mouse.Y >= 10 && mouse.Y < 10+previewSize {
				target.X = (mouse.X-10)/previewSize*worldSize - worldSize/2
				target.Z = (mouse.Y-10)/previewSize*worldSize - worldSize/2
				pv.field.Rebuild(target)
				needsRepaint = true
			}
		}

		if needsRegen {
			pv = buildPreview(pool, params, target)
			rl.UnloadTexture(texture)
			img := rl.GenImageColor(params.GridN, params.GridN, rl.Black)
			texture = rl.LoadTextureFromImage(img)
			rl.UnloadImage(img)
			needsRegen = false
			needsRepaint = true
		}
		if needsRepaint {
			paintCosts(texture, pv.field, params.GridN)
			needsRepaint = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(params.GridN), Height: float32(params.GridN)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		if showArrows {
			drawArrows(pv.field, params.GridN)
		}

		// Target marker
		tx := 10 + (target.X+worldSize/2)/worldSize*previewSize
		ty := 10 + (target.Z+worldSize/2)/worldSize*previewSize
		rl.DrawCircleLines(int32(tx), int32(ty), 6, rl.Red)

		reached, maxCost := fieldStats(pv.field, params.GridN)
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Reached: %d  MaxCost: %.0f  Rebuilds: %d",
			reached, maxCost, pv.field.Rebuilds()), 15, statsY, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Flow Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Grid N (cells per side)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newN := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"32", "200",
			float32(params.GridN), 32, 200,
		)
		rl.DrawText(fmt.Sprintf("%d", params.GridN), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newN) != params.GridN {
			params.GridN = int(newN)
			needsRegen = true
		}
		panelY += 35

		rl.DrawText("Iterations (relax budget)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newIter := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "80",
			float32(params.Iterations), 1, 80,
		)
		rl.DrawText(fmt.Sprintf("%d", params.Iterations), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newIter) != params.Iterations {
			params.Iterations = int(newIter)
			pv.field.SetCadence(nav.DefaultInterval, params.Iterations)
			pv.field.Rebuild(target)
			needsRepaint = true
		}
		panelY += 35

		rl.DrawText("Pillars", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newPillars := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "150",
			float32(params.Pillars), 0, 150,
		)
		rl.DrawText(fmt.Sprintf("%d", params.Pillars), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newPillars) != params.Pillars {
			params.Pillars = int(newPillars)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(showArrows, "Hide Arrows", "Show Arrows")) {
			showArrows = !showArrows
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Rebuild") {
			pv.field.Rebuild(target)
			needsRepaint = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := []string{
			"nav:",
			fmt.Sprintf("  grid_n: %d", params.GridN),
			fmt.Sprintf("  iterations: %d", params.Iterations),
		}
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Click preview to move target | C copies YAML", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(fmt.Sprintf("nav:\n  grid_n: %d\n  iterations: %d",
				params.GridN, params.Iterations))
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// fieldStats counts reached cells and the largest finite cost.
func fieldStats(field *nav.FlowField, n int) (reached int, maxCost float32) {
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			c := field.CostAt(cx, cz)
			if c >= nav.Unreached {
				continue
			}
			reached++
			if c > maxCost {
				maxCost = c
			}
		}
	}
	return reached, maxCost
}

// paintCosts maps the cost field onto the texture: a heat gradient for
// reached cells, dark red for blocked or unreached ones.
func paintCosts(texture rl.Texture2D, field *nav.FlowField, n int) {
	_, maxCost := fieldStats(field, n)
	if maxCost < 1 {
		maxCost = 1
	}

	pixels := make([]color.RGBA, n*n)
	for cz := 0; cz < n; cz++ {
		for cx := 0; cx < n; cx++ {
			c := field.CostAt(cx, cz)
			if c >= nav.Unreached {
				pixels[cz*n+cx] = color.RGBA{R: 50, G: 12, B: 12, A: 255}
				continue
			}
			t := c / maxCost
			pixels[cz*n+cx] = heatColor(t)
		}
	}
	rl.UpdateTexture(texture, pixels)
}

// heatColor maps [0,1] through dark blue -> cyan -> yellow -> white.
func heatColor(v float32) color.RGBA {
	var r, g, b uint8
	switch {
	case v < 0.25:
		t := v / 0.25
		r = uint8(10 + t*30)
		g = uint8(20 + t*60)
		b = uint8(60 + t*100)
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r = uint8(40 + t*20)
		g = uint8(80 + t*120)
		b = uint8(160 + t*40)
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r = uint8(60 + t*140)
		g = uint8(200 - t*40)
		b = uint8(200 - t*150)
	default:
		t := (v - 0.75) / 0.25
		r = uint8(200 + t*55)
		g = uint8(160 + t*95)
		b = uint8(50 + t*205)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawArrows overlays the direction field, subsampled so arrows stay
// readable at high grid resolutions.
func drawArrows(field *nav.FlowField, n int) {
	step := n / 40
	if step < 1 {
		step = 1
	}
	cellPx := float32(previewSize) / float32(n)
	for cz := 0; cz < n; cz += step {
		for cx := 0; cx < n; cx += step {
			dir := field.DirectionAt(cx, cz)
			if dir.IsZero() {
				continue
			}
			sx := 10 + (float32(cx)+0.5)*cellPx
			sy := 10 + (float32(cz)+0.5)*cellPx
			l := cellPx * float32(step) * 0.4
			rl.DrawLine(int32(sx), int32(sy), int32(sx+dir.X*l), int32(sy+dir.Y*l),
				rl.NewColor(255, 255, 255, 140))
		}
	}
}
