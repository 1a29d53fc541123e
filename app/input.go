package app

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// dragSensitivity converts pointer pixels to orbit radians.
const dragSensitivity = 0.005

// handleInput processes per-frame keyboard and mouse input on the
// interactive surface.
func (a *App) handleInput() {
	switch {
	case rl.IsKeyPressed(rl.KeyTab):
		a.panel.Toggle()
	case rl.IsKeyPressed(rl.KeyN):
		a.setScene(a.scenes.Next(a.preset.Name))
	case rl.IsKeyPressed(rl.KeyS):
		a.toggleStream()
	}

	// Right-drag orbits; the left button stays free for the gui panel.
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.cam.Drag(delta.X*dragSensitivity, -delta.Y*dragSensitivity)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.cam.Zoom(wheel)
	}
}
