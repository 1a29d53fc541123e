// Package stream implements the frame capture and sender pipeline: it
// observes completed paints on the offscreen surface, applies frame pacing,
// and forwards frames to an external sender capability.
package stream

// FrameKind discriminates the two capture paths.
type FrameKind int

const (
	// FrameTexture is the zero-copy path: a native GPU texture handle.
	FrameTexture FrameKind = iota
	// FrameBitmap is the copy path: CPU-side RGBA pixels. Materially higher
	// latency; tracked separately so operators can detect degraded delivery.
	FrameBitmap
)

// TextureHandle is an opaque native GPU texture identifier.
type TextureHandle uint32

// Frame is the tagged union handed to the sender: either a texture handle or
// a bitmap with its pixel dimensions.
type Frame struct {
	Kind    FrameKind
	Texture TextureHandle // FrameTexture only
	Pixels  []byte        // FrameBitmap only, RGBA, len = Width*Height*4
	Width   int
	Height  int
}

// TextureFrame builds a zero-copy frame.
func TextureFrame(handle TextureHandle, width, height int) Frame {
	return Frame{Kind: FrameTexture, Texture: handle, Width: width, Height: height}
}

// BitmapFrame builds a copy-path frame.
func BitmapFrame(pixels []byte, width, height int) Frame {
	return Frame{Kind: FrameBitmap, Pixels: pixels, Width: width, Height: height}
}
