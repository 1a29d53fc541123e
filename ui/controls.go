// Package ui renders the raygui control panel on the interactive surface:
// one slider per declared numeric setting, plus scene and streaming controls.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/settings"
	"github.com/pthm-cable/comet/stream"
)

// Actions reports panel interactions the app must carry out.
type Actions struct {
	ToggleStream bool
	NextScene    bool
}

// Panel is the collapsible settings panel.
type Panel struct {
	x, y    float32
	width   float32
	visible bool
}

// NewPanel creates a hidden panel anchored at (x, y).
func NewPanel(x, y, width float32) *Panel {
	return &Panel{x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// Visible returns whether the panel is shown.
func (p *Panel) Visible() bool { return p.visible }

// Draw renders the panel and applies slider edits straight to the registry.
// Values always go through SetFloat, so declared ranges hold no matter what
// the widget reports.
func (p *Panel) Draw(reg *settings.Registry, status stream.Status, sceneName string, live int) Actions {
	var acts Actions
	if !p.visible {
		rl.DrawText("TAB: settings", int32(p.x), int32(p.y), 14, rl.Gray)
		return acts
	}

	y := p.y
	rl.DrawText("comet", int32(p.x), int32(y), 20, rl.RayWhite)
	y += 30

	for _, name := range reg.Names() {
		param, ok := reg.Lookup(name)
		if !ok || param.Kind != settings.KindFloat {
			continue
		}
		cur := reg.Float(name)

		rl.DrawText(name, int32(p.x), int32(y), 14, rl.Gray)
		y += 18
		next := gui.SliderBar(
			rl.Rectangle{X: p.x, Y: y, Width: p.width - 60, Height: 20},
			"", "",
			float32(cur), float32(param.Min), float32(param.Max),
		)
		rl.DrawText(fmt.Sprintf("%.2f", cur), int32(p.x+p.width-52), int32(y+2), 16, rl.LightGray)
		if float64(next) != cur {
			reg.SetFloat(name, float64(next))
		}
		y += 30
	}

	y += 8
	rl.DrawLine(int32(p.x), int32(y), int32(p.x+p.width), int32(y), rl.DarkGray)
	y += 12

	if gui.Button(rl.Rectangle{X: p.x, Y: y, Width: 130, Height: 28},
		fmt.Sprintf("Scene: %s", sceneName)) {
		acts.NextScene = true
	}
	streamLabel := "Start stream"
	if status.Active {
		streamLabel = "Stop stream"
	}
	if gui.Button(rl.Rectangle{X: p.x + 140, Y: y, Width: 130, Height: 28}, streamLabel) {
		acts.ToggleStream = true
	}
	y += 40

	statusLine := fmt.Sprintf("live %d | fps %d", live, rl.GetFPS())
	if status.Active {
		statusLine += fmt.Sprintf(" | streaming %s @%s skip=%d",
			status.SenderName, status.Resolution, status.FrameSkip)
	} else if status.State != "disabled" {
		statusLine += " | stream " + status.State
	}
	rl.DrawText(statusLine, int32(p.x), int32(y), 14, rl.Gray)

	return acts
}
