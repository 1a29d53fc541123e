package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/sim"
)

// TurbulenceField generates the turbulence vector field on the GPU and
// caches the texture on the CPU for per-particle sampling. It implements the
// simulation's noise field interface, so the engine cannot tell it apart
// from the CPU FBM field.
type TurbulenceField struct {
	shader  rl.Shader
	target  rl.RenderTexture2D
	timeLoc int32

	// Cached vectors decoded from the texture, 3 components per texel.
	data []float32
	size int

	// updateInterval throttles regeneration; the field evolves slowly
	// compared to the tick rate.
	updateInterval float32
	lastUpdate     float32
	started        bool
}

// NewTurbulenceField creates the GPU field generator. Must be called after
// the raylib window exists. size is the square texture side.
func NewTurbulenceField(size int) *TurbulenceField {
	if size <= 0 {
		size = 128
	}
	tf := &TurbulenceField{
		size:           size,
		data:           make([]float32, size*size*3),
		updateInterval: 0.1,
	}

	tf.shader = rl.LoadShader("", "shaders/turbulence.fs")
	tf.timeLoc = rl.GetShaderLocation(tf.shader, "time")
	resolutionLoc := rl.GetShaderLocation(tf.shader, "resolution")
	rl.SetShaderValue(tf.shader, resolutionLoc,
		[]float32{float32(size), float32(size)}, rl.ShaderUniformVec2)

	tf.target = rl.LoadRenderTexture(int32(size), int32(size))
	return tf
}

// Update regenerates the field texture if the interval elapsed and reads it
// back for CPU sampling.
func (tf *TurbulenceField) Update(time float32) {
	if tf.started && time-tf.lastUpdate < tf.updateInterval {
		return
	}
	tf.started = true
	tf.lastUpdate = time

	rl.BeginTextureMode(tf.target)
	rl.ClearBackground(rl.Black)
	rl.SetShaderValue(tf.shader, tf.timeLoc, []float32{time}, rl.ShaderUniformFloat)
	rl.BeginShaderMode(tf.shader)
	rl.DrawRectangle(0, 0, int32(tf.size), int32(tf.size), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()

	tf.readback()
}

// readback decodes the RGB texture into [-0.5, 0.5] vector components.
func (tf *TurbulenceField) readback() {
	img := rl.LoadImageFromTexture(tf.target.Texture)
	if img == nil {
		return
	}
	defer rl.UnloadImage(img)

	colors := rl.LoadImageColors(img)
	n := tf.size * tf.size
	if len(colors) < n {
		return
	}
	for i := 0; i < n; i++ {
		c := colors[i]
		tf.data[i*3+0] = float32(c.R)/255.0 - 0.5
		tf.data[i*3+1] = float32(c.G)/255.0 - 0.5
		tf.data[i*3+2] = float32(c.B)/255.0 - 0.5
	}
}

// Sample returns the cached turbulence vector near (x, y, z). The field
// texture is 2D; z shears the row lookup so vertically separated particles
// decorrelate without a volume texture.
func (tf *TurbulenceField) Sample(x, y, z float32) sim.Vec3 {
	fx := x + z*0.73
	fy := y + z*0.31

	tx := wrapIndex(int(fx*float32(tf.size)*0.1), tf.size)
	ty := wrapIndex(int(fy*float32(tf.size)*0.1), tf.size)

	idx := (ty*tf.size + tx) * 3
	return sim.Vec3{X: tf.data[idx], Y: tf.data[idx+1], Z: tf.data[idx+2]}
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// Unload releases GPU resources.
func (tf *TurbulenceField) Unload() {
	rl.UnloadShader(tf.shader)
	rl.UnloadRenderTexture(tf.target)
}
