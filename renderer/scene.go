// Package renderer draws the particle cloud with raylib: additive link
// ribbons, billboard particles, and the GPU turbulence field texture.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/sim"
)

// SceneRenderer draws one engine's particles and links into the current
// render target (screen or offscreen texture).
type SceneRenderer struct {
	dot rl.Texture2D
}

// NewSceneRenderer creates the renderer and its billboard texture. Must be
// called after the raylib window/GL context exists.
func NewSceneRenderer() *SceneRenderer {
	// Soft radial dot, white core fading to transparent.
	img := rl.GenImageGradientRadial(64, 64, 0.2,
		rl.Color{R: 255, G: 255, B: 255, A: 255},
		rl.Color{R: 255, G: 255, B: 255, A: 0})
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(tex, rl.FilterBilinear)
	return &SceneRenderer{dot: tex}
}

// Draw renders the engine state from the given camera. The caller has
// already begun the target (screen or texture mode).
func (r *SceneRenderer) Draw(cam rl.Camera3D, eng *sim.Engine) {
	rl.BeginMode3D(cam)
	rl.BeginBlendMode(rl.BlendAdditive)

	r.drawLinks(eng)
	r.drawParticles(cam, eng)

	rl.EndBlendMode()
	rl.EndMode3D()
}

// drawLinks renders the per-particle ribbon quads. Each quad is two
// triangles; both windings are emitted so culling orientation never hides a
// ribbon.
func (r *SceneRenderer) drawLinks(eng *sim.Engine) {
	links := eng.Links()
	for q := 0; q+3 < len(links); q += 4 {
		v0, v1, v2, v3 := links[q], links[q+1], links[q+2], links[q+3]
		if v0.Alpha <= 0 {
			continue
		}
		c := linkColor(v0)
		a := toVec3(v0.Pos)
		b := toVec3(v1.Pos)
		cc := toVec3(v2.Pos)
		d := toVec3(v3.Pos)

		rl.DrawTriangle3D(a, b, cc, c)
		rl.DrawTriangle3D(cc, b, a, c)
		rl.DrawTriangle3D(b, d, cc, c)
		rl.DrawTriangle3D(cc, d, b, c)
	}
}

// drawParticles renders live particles as camera-facing billboards sized by
// the current audio-derived uniform and faded by remaining life.
func (r *SceneRenderer) drawParticles(cam rl.Camera3D, eng *sim.Engine) {
	st := eng.State()
	size := eng.Params().Size
	if size <= 0 {
		size = 0.05
	}

	for i := 0; i < st.N; i++ {
		pl := st.PosLife[i]
		if pl.W <= 0 {
			continue
		}
		cr, cg, cb := eng.ParticleColor(i)
		alpha := pl.W
		if alpha > 1 {
			alpha = 1
		}
		tint := rl.Color{
			R: uint8(cr * 255),
			G: uint8(cg * 255),
			B: uint8(cb * 255),
			A: uint8(alpha * 255),
		}
		pos := rl.Vector3{X: pl.X, Y: pl.Y, Z: pl.Z}
		rl.DrawBillboard(cam, r.dot, pos, size, tint)
	}
}

// Unload releases GPU resources.
func (r *SceneRenderer) Unload() {
	rl.UnloadTexture(r.dot)
}

func toVec3(v sim.Vec3) rl.Vector3 {
	return rl.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func linkColor(v sim.LinkVertex) rl.Color {
	return rl.Color{
		R: uint8(clamp01(v.R) * 255),
		G: uint8(clamp01(v.G) * 255),
		B: uint8(clamp01(v.B) * 255),
		A: uint8(clamp01(v.Alpha) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
