package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Resolution is the offscreen surface size. Pixel dimensions are fixed at
// surface creation; changing resolution requires a teardown/recreate.
type Resolution string

const (
	Res720p  Resolution = "720p"
	Res1080p Resolution = "1080p"
)

// Dims returns pixel dimensions.
func (r Resolution) Dims() (width, height int) {
	if r == Res1080p {
		return 1920, 1080
	}
	return 1280, 720
}

// ParseResolution validates a resolution string.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case Res720p, Res1080p:
		return Resolution(s), nil
	default:
		return "", fmt.Errorf("unknown resolution %q (want 720p or 1080p)", s)
	}
}

// State is the session lifecycle state.
type State int

const (
	StateDisabled State = iota
	StateEnabling
	StateActive
	StateDisabling
)

func (s State) String() string {
	switch s {
	case StateEnabling:
		return "enabling"
	case StateActive:
		return "active"
	case StateDisabling:
		return "disabling"
	default:
		return "disabled"
	}
}

// Surface is the offscreen render target the session owns while enabled.
// Open is the only suspension point; Capture and Close are synchronous.
type Surface interface {
	// Open creates the underlying target at a fixed pixel size. It must
	// respect ctx cancellation: disabling mid-Enabling discards the
	// in-flight creation.
	Open(ctx context.Context, width, height int) error
	// Capture extracts the most recently painted frame. When allowTexture
	// is true and a native GPU handle is available it returns the zero-copy
	// texture variant, otherwise a CPU bitmap.
	Capture(allowTexture bool) (Frame, error)
	// Close tears the target down. Safe to call on a half-open surface.
	Close()
}

// SurfaceFactory creates a fresh surface per Enabling transition.
type SurfaceFactory func() Surface

// Observer receives pipeline events for telemetry. All methods are called
// from the paint path; implementations must be cheap.
type Observer interface {
	FramePainted()
	FrameSkipped()
	FrameForwarded(texturePath bool)
	FrameError()
}

// nopObserver is the default observer.
type nopObserver struct{}

func (nopObserver) FramePainted()       {}
func (nopObserver) FrameSkipped()       {}
func (nopObserver) FrameForwarded(bool) {}
func (nopObserver) FrameError()         {}

// Options configure a session.
type Options struct {
	Surfaces SurfaceFactory
	Senders  SenderFactory
	Observer Observer     // nil = no-op
	Logger   *slog.Logger // nil = slog.Default()
}

// Session is one streaming session: at most one offscreen surface and one
// sender capability, a frame-skip pacing policy, and the Disabled/Enabling/
// Active/Disabling state machine.
type Session struct {
	mu sync.Mutex

	surfaces SurfaceFactory
	senders  SenderFactory
	obs      Observer
	log      *slog.Logger

	state      State
	resolution Resolution
	frameSkip  int
	name       string

	surface Surface
	sender  Sender
	cancel  context.CancelFunc

	// paintCounter increments once per completed paint while Active.
	// Frame-skip decisions depend only on this counter, so pacing is
	// deterministic for a fixed paint cadence.
	paintCounter uint64
}

// Status is the control-surface view of a session.
type Status struct {
	Active     bool
	State      string
	Resolution Resolution
	FrameSkip  int
	SenderName string
}

// NewSession creates a disabled session.
func NewSession(opts Options) *Session {
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		surfaces: opts.Surfaces,
		senders:  opts.Senders,
		obs:      obs,
		log:      log,
		state:    StateDisabled,
	}
}

// Enable transitions Disabled -> Enabling -> Active: creates the offscreen
// surface at the configured resolution, then acquires the sender capability
// under name. On any failure the session returns to Disabled and the error
// is surfaced once to the caller.
func (s *Session) Enable(ctx context.Context, name string, res Resolution, frameSkip int) error {
	if frameSkip < 0 {
		return fmt.Errorf("frame skip must be >= 0, got %d", frameSkip)
	}

	s.mu.Lock()
	if s.state != StateDisabled {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.state = StateEnabling
	s.resolution = res
	s.frameSkip = frameSkip
	s.name = name
	s.paintCounter = 0

	ctx, s.cancel = context.WithCancel(ctx)
	surface := s.surfaces()
	s.surface = surface
	s.mu.Unlock()

	// Suspension point: asynchronous surface creation/loading.
	w, h := res.Dims()
	if err := surface.Open(ctx, w, h); err != nil {
		s.abortEnable(surface)
		return fmt.Errorf("%w: %v", ErrSurfaceLoad, err)
	}

	// Suspension point: sender capability acquisition.
	sender, err := s.senders(name)
	if err != nil {
		s.abortEnable(surface)
		return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEnabling {
		// Disabled mid-Enabling: discard everything we just built.
		sender.Release()
		surface.Close()
		s.clearLocked()
		return context.Canceled
	}
	s.sender = sender
	s.state = StateActive
	if s.name != name {
		// UpdateName landed while we were Enabling; the sender was acquired
		// under the old name.
		if err := sender.Rename(s.name); err != nil {
			s.log.Warn("renaming sender after enable", "name", s.name, "error", err)
		}
	}
	s.log.Info("streaming session active",
		"sender", s.name, "resolution", string(res), "frame_skip", frameSkip)
	return nil
}

// abortEnable rolls a failed Enabling transition back to Disabled. It takes
// the surface the caller created: a concurrent Disable may already have
// cleared s.surface, and the local one still needs closing.
func (s *Session) abortEnable(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	surface.Close()
	s.clearLocked()
}

// Disable tears the session down from any state, including mid-Enabling.
// Idempotent; always leaves the session Disabled with zero sender handles
// outstanding.
func (s *Session) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateDisabled:
		return
	case StateEnabling:
		// Cancel the in-flight surface creation; the Enable caller observes
		// the state change and discards its partial work.
		if s.cancel != nil {
			s.cancel()
		}
		s.clearLocked()
		return
	}

	s.state = StateDisabling
	if s.sender != nil {
		if err := s.sender.Release(); err != nil {
			s.log.Warn("releasing sender", "error", err)
		}
	}
	if s.surface != nil {
		s.surface.Close()
	}
	s.clearLocked()
	s.log.Info("streaming session disabled")
}

// clearLocked resets to Disabled. Caller holds the mutex (or exclusive use).
func (s *Session) clearLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.surface = nil
	s.sender = nil
	s.state = StateDisabled
}

// Paint runs one offscreen paint: draw renders the scene-only page into the
// surface, then the pacing policy decides whether this completed paint is
// captured and forwarded. A frame that fails to capture or forward is logged
// and dropped; the session stays Active.
func (s *Session) Paint(draw func(width, height int)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}

	w, h := s.resolution.Dims()
	draw(w, h)
	s.paintCounter++
	s.obs.FramePainted()

	// frameSkip=k forwards exactly 1 of every k+1 completed paints.
	if s.paintCounter%uint64(s.frameSkip+1) != 0 {
		s.obs.FrameSkipped()
		return
	}

	textureSender, hasTexturePath := s.sender.(TextureSender)
	frame, err := s.surface.Capture(hasTexturePath)
	if err != nil {
		s.obs.FrameError()
		s.log.Error("capturing frame", "paint", s.paintCounter, "error", err)
		return
	}

	switch frame.Kind {
	case FrameTexture:
		if !hasTexturePath {
			// Surface returned a texture despite allowTexture=false.
			err = fmt.Errorf("surface returned texture frame but sender has no texture path")
		} else {
			err = textureSender.SendTexture(frame.Texture, frame.Width, frame.Height)
		}
	case FrameBitmap:
		err = s.sender.SendBitmap(frame.Pixels, frame.Width, frame.Height)
	}
	if err != nil {
		// A single bad frame must not kill the stream.
		s.obs.FrameError()
		s.log.Error("forwarding frame", "paint", s.paintCounter, "error", err)
		return
	}
	s.obs.FrameForwarded(frame.Kind == FrameTexture)
}

// UpdateName renames the sender in place; no teardown/recreate.
func (s *Session) UpdateName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	if s.state == StateActive && s.sender != nil {
		if err := s.sender.Rename(name); err != nil {
			return fmt.Errorf("renaming sender: %w", err)
		}
	}
	return nil
}

// UpdateFrameSkip changes the pacing policy without touching the paint
// counter, so the forwarding cadence stays deterministic.
func (s *Session) UpdateFrameSkip(n int) error {
	if n < 0 {
		return fmt.Errorf("frame skip must be >= 0, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameSkip = n
	return nil
}

// UpdateResolution recreates the session at a new size. The surface's pixel
// dimensions are fixed at creation, so this is a full Disable/Enable cycle.
func (s *Session) UpdateResolution(ctx context.Context, res Resolution) error {
	s.mu.Lock()
	wasActive := s.state == StateActive
	name, skip := s.name, s.frameSkip
	s.mu.Unlock()

	if !wasActive {
		s.mu.Lock()
		s.resolution = res
		s.mu.Unlock()
		return nil
	}
	s.Disable()
	return s.Enable(ctx, name, res, skip)
}

// Status reports the session for the control surface.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Active:     s.state == StateActive,
		State:      s.state.String(),
		Resolution: s.resolution,
		FrameSkip:  s.frameSkip,
		SenderName: s.name,
	}
}
