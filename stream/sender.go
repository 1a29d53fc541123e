package stream

import (
	"errors"
	"fmt"
	"sync"
)

// Error taxonomy for the streaming pipeline.
var (
	// ErrCapabilityUnavailable means the sender capability could not be
	// acquired at enable time (native dependency missing, receiver down).
	// Surfaced once to the operator; the session stays Disabled.
	ErrCapabilityUnavailable = errors.New("sender capability unavailable")

	// ErrSurfaceLoad means the offscreen surface failed to initialize; the
	// Enabling transition aborts back to Disabled.
	ErrSurfaceLoad = errors.New("offscreen surface failed to load")

	// ErrSessionActive is returned by Enable on a session that is not
	// Disabled.
	ErrSessionActive = errors.New("streaming session already enabled")
)

// Sender is the external capability that accepts rendered frames and exposes
// them to receiving applications. Exactly one sender exists per active
// session.
type Sender interface {
	// SendBitmap forwards CPU-side RGBA pixels (the copy path).
	SendBitmap(pixels []byte, width, height int) error
	// Rename updates the sender's advertised name without teardown.
	Rename(name string) error
	// Release frees the capability. The sender must not be used afterwards.
	Release() error
}

// TextureSender is the optional zero-copy extension, probed at runtime.
type TextureSender interface {
	Sender
	SendTexture(handle TextureHandle, width, height int) error
}

// SenderFactory acquires a sender capability under a human-readable name.
type SenderFactory func(name string) (Sender, error)

// Recorder is an in-process sender that records every call. It backs tests
// and headless runs where no receiver is attached.
type Recorder struct {
	mu sync.Mutex

	// Textures enables the zero-copy path probe.
	Textures bool

	name     string
	released bool

	BitmapFrames  []Frame
	TextureFrames []Frame
	Renames       []string
}

// NewRecorder creates a recorder advertising the given name.
func NewRecorder(name string, textures bool) *Recorder {
	return &Recorder{name: name, Textures: textures}
}

// RecorderFactory returns a factory that hands out fresh recorders and
// remembers the last one for inspection.
func RecorderFactory(textures bool) (SenderFactory, func() *Recorder) {
	var mu sync.Mutex
	var last *Recorder
	factory := func(name string) (Sender, error) {
		r := NewRecorder(name, textures)
		mu.Lock()
		last = r
		mu.Unlock()
		if textures {
			return textureRecorder{r}, nil
		}
		return r, nil
	}
	lastFn := func() *Recorder {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
	return factory, lastFn
}

// SendBitmap records a copy-path frame.
func (r *Recorder) SendBitmap(pixels []byte, width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return fmt.Errorf("recorder %q: send after release", r.name)
	}
	buf := make([]byte, len(pixels))
	copy(buf, pixels)
	r.BitmapFrames = append(r.BitmapFrames, BitmapFrame(buf, width, height))
	return nil
}

// Rename records a name change.
func (r *Recorder) Rename(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return fmt.Errorf("recorder %q: rename after release", r.name)
	}
	r.name = name
	r.Renames = append(r.Renames, name)
	return nil
}

// Release marks the capability freed.
func (r *Recorder) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
	return nil
}

// Released reports whether Release was called.
func (r *Recorder) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Name returns the currently advertised name.
func (r *Recorder) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// textureRecorder adds the TextureSender probe on top of a Recorder.
type textureRecorder struct {
	*Recorder
}

func (t textureRecorder) SendTexture(handle TextureHandle, width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return fmt.Errorf("recorder %q: send after release", t.name)
	}
	t.TextureFrames = append(t.TextureFrames, TextureFrame(handle, width, height))
	return nil
}
