package renderer

import (
	"context"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/stream"
)

// Offscreen is a render-texture target implementing the streaming surface.
// It shares the interactive window's GL context, so all calls must happen on
// the render thread.
type Offscreen struct {
	target rl.RenderTexture2D
	width  int
	height int
	open   bool
}

// NewOffscreen creates an unopened surface.
func NewOffscreen() *Offscreen {
	return &Offscreen{}
}

// Open allocates the render texture. Fails when the GL context cannot back a
// framebuffer of the requested size.
func (o *Offscreen) Open(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.target = rl.LoadRenderTexture(int32(width), int32(height))
	if o.target.ID == 0 || o.target.Texture.ID == 0 {
		return fmt.Errorf("render texture %dx%d allocation failed", width, height)
	}
	o.width = width
	o.height = height
	o.open = true
	return nil
}

// Begin starts drawing into the texture. Pair with End.
func (o *Offscreen) Begin() {
	rl.BeginTextureMode(o.target)
	rl.ClearBackground(rl.Color{R: 4, G: 4, B: 10, A: 255})
}

// End finishes drawing into the texture.
func (o *Offscreen) End() {
	rl.EndTextureMode()
}

// Capture returns the last painted frame. With allowTexture it hands out the
// native texture id without any copy; otherwise it reads pixels back and
// flips them, since render textures are stored bottom-up.
func (o *Offscreen) Capture(allowTexture bool) (stream.Frame, error) {
	if !o.open {
		return stream.Frame{}, fmt.Errorf("capture on closed surface")
	}
	if allowTexture {
		return stream.TextureFrame(stream.TextureHandle(o.target.Texture.ID), o.width, o.height), nil
	}

	img := rl.LoadImageFromTexture(o.target.Texture)
	if img == nil {
		return stream.Frame{}, fmt.Errorf("texture readback failed")
	}
	defer rl.UnloadImage(img)

	colors := rl.LoadImageColors(img)
	if len(colors) < o.width*o.height {
		return stream.Frame{}, fmt.Errorf("readback returned %d pixels, want %d", len(colors), o.width*o.height)
	}

	pixels := make([]byte, o.width*o.height*4)
	for y := 0; y < o.height; y++ {
		src := (o.height - 1 - y) * o.width
		dst := y * o.width * 4
		for x := 0; x < o.width; x++ {
			c := colors[src+x]
			pixels[dst+0] = c.R
			pixels[dst+1] = c.G
			pixels[dst+2] = c.B
			pixels[dst+3] = c.A
			dst += 4
		}
	}
	return stream.BitmapFrame(pixels, o.width, o.height), nil
}

// Close releases the render texture. Safe on a never-opened surface.
func (o *Offscreen) Close() {
	if o.open {
		rl.UnloadRenderTexture(o.target)
		o.open = false
	}
}
