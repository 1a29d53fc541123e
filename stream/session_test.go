package stream

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
)

// fakeSurface is a scriptable offscreen surface for session tests.
type fakeSurface struct {
	mu sync.Mutex

	openErr    error
	captureErr error
	hasTexture bool // surface can produce a native texture handle

	openGate chan struct{} // when set, Open blocks until closed or ctx done

	forceTexture bool // misbehave: return texture frames even when disallowed

	opened   bool
	closed   bool
	captures int
}

func (f *fakeSurface) Open(ctx context.Context, width, height int) error {
	if f.openGate != nil {
		select {
		case <-f.openGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) Capture(allowTexture bool) (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return Frame{}, f.captureErr
	}
	f.captures++
	if f.forceTexture || (allowTexture && f.hasTexture) {
		return TextureFrame(TextureHandle(f.captures), 1280, 720), nil
	}
	return BitmapFrame(make([]byte, 1280*720*4), 1280, 720), nil
}

func (f *fakeSurface) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSurface) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestSession(surf *fakeSurface, textures bool) (*Session, func() *Recorder) {
	factory, last := RecorderFactory(textures)
	s := NewSession(Options{
		Surfaces: func() Surface { return surf },
		Senders:  factory,
	})
	return s, last
}

func TestParseResolution(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Resolution
		wantErr bool
	}{
		{"720p", Res720p, false},
		{"1080p", Res1080p, false},
		{"4k", "", true},
		{"", "", true},
	} {
		got, err := ParseResolution(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseResolution(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseResolution(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolutionDims(t *testing.T) {
	if w, h := Res720p.Dims(); w != 1280 || h != 720 {
		t.Errorf("720p dims = %dx%d", w, h)
	}
	if w, h := Res1080p.Dims(); w != 1920 || h != 1080 {
		t.Errorf("1080p dims = %dx%d", w, h)
	}
}

func TestEnablePaintDisable(t *testing.T) {
	surf := &fakeSurface{}
	s, last := newTestSession(surf, false)

	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if st := s.Status(); !st.Active || st.SenderName != "comet" || st.Resolution != Res720p {
		t.Fatalf("status after enable: %+v", st)
	}

	var painted int
	s.Paint(func(w, h int) {
		painted++
		if w != 1280 || h != 720 {
			t.Errorf("paint dims = %dx%d", w, h)
		}
	})
	if painted != 1 {
		t.Fatalf("draw callback ran %d times", painted)
	}
	if n := len(last().BitmapFrames); n != 1 {
		t.Fatalf("forwarded %d frames, want 1 (frameSkip=0 forwards every paint)", n)
	}

	s.Disable()
	if st := s.Status(); st.Active {
		t.Fatal("session still active after Disable")
	}
	if !last().Released() {
		t.Fatal("sender not released on Disable")
	}
	if !surf.isClosed() {
		t.Fatal("surface not closed on Disable")
	}
}

func TestFrameSkipForwardsExactlyOnePerWindow(t *testing.T) {
	surf := &fakeSurface{}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 2); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	// frameSkip=2: of paints 1..9 exactly 3, 6, and 9 are forwarded.
	forwardedAt := []int{}
	for i := 1; i <= 9; i++ {
		before := len(last().BitmapFrames)
		s.Paint(func(int, int) {})
		if len(last().BitmapFrames) > before {
			forwardedAt = append(forwardedAt, i)
		}
	}
	want := []int{3, 6, 9}
	if len(forwardedAt) != len(want) {
		t.Fatalf("forwarded at paints %v, want %v", forwardedAt, want)
	}
	for i := range want {
		if forwardedAt[i] != want[i] {
			t.Fatalf("forwarded at paints %v, want %v", forwardedAt, want)
		}
	}
}

func TestUpdateFrameSkipKeepsCounter(t *testing.T) {
	surf := &fakeSurface{}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	s.Paint(func(int, int) {}) // paint 1, forwarded
	s.Paint(func(int, int) {}) // paint 2, forwarded
	if err := s.UpdateFrameSkip(2); err != nil {
		t.Fatalf("UpdateFrameSkip: %v", err)
	}
	// Counter is at 2; with skip=2 the next forward is paint 3.
	s.Paint(func(int, int) {})
	if n := len(last().BitmapFrames); n != 3 {
		t.Fatalf("forwarded %d frames, want 3", n)
	}
	s.Paint(func(int, int) {}) // 4: skipped
	s.Paint(func(int, int) {}) // 5: skipped
	if n := len(last().BitmapFrames); n != 3 {
		t.Fatalf("forwarded %d frames after skips, want 3", n)
	}

	if err := s.UpdateFrameSkip(-1); err == nil {
		t.Fatal("negative frame skip accepted")
	}
}

func TestEnableSenderUnavailable(t *testing.T) {
	surf := &fakeSurface{}
	boom := errors.New("no receiver")
	s := NewSession(Options{
		Surfaces: func() Surface { return surf },
		Senders:  func(string) (Sender, error) { return nil, boom },
	})

	err := s.Enable(context.Background(), "comet", Res720p, 0)
	if !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("Enable err = %v, want ErrCapabilityUnavailable", err)
	}
	if s.Status().Active {
		t.Fatal("session active after failed enable")
	}
	if !surf.isClosed() {
		t.Fatal("surface leaked after sender acquisition failure")
	}
}

func TestEnableSurfaceLoadFailure(t *testing.T) {
	surf := &fakeSurface{openErr: errors.New("context lost")}
	s, last := newTestSession(surf, false)

	err := s.Enable(context.Background(), "comet", Res720p, 0)
	if !errors.Is(err, ErrSurfaceLoad) {
		t.Fatalf("Enable err = %v, want ErrSurfaceLoad", err)
	}
	if s.Status().Active {
		t.Fatal("session active after failed enable")
	}
	if last() != nil {
		t.Fatal("sender acquired despite surface failure")
	}
}

func TestEnableWhileEnabledFails(t *testing.T) {
	surf := &fakeSurface{}
	s, _ := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.Enable(context.Background(), "other", Res720p, 0); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second Enable err = %v, want ErrSessionActive", err)
	}
}

func TestDisableMidEnabling(t *testing.T) {
	gate := make(chan struct{})
	surf := &fakeSurface{openGate: gate}
	s, last := newTestSession(surf, false)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Enable(context.Background(), "comet", Res720p, 0)
	}()

	// Wait for Enable to reach the Enabling state, then disable under it.
	for s.Status().State != "enabling" {
		runtime.Gosched()
	}
	s.Disable()
	close(gate)

	if err := <-errCh; err == nil {
		t.Fatal("Enable succeeded despite mid-flight Disable")
	}
	if s.Status().Active {
		t.Fatal("session active after mid-enabling disable")
	}
	// Whatever the abort path was, no sender handle may remain live and the
	// surface the aborted Enable created must be closed.
	if r := last(); r != nil && !r.Released() {
		t.Fatal("sender handle outstanding after mid-enabling disable")
	}
	if !surf.isClosed() {
		t.Fatal("surface leaked after mid-enabling disable")
	}
}

func TestDisableIdempotent(t *testing.T) {
	surf := &fakeSurface{}
	s, _ := newTestSession(surf, false)
	s.Disable()
	s.Disable()
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable after idle Disable: %v", err)
	}
	s.Disable()
	s.Disable()
	if s.Status().Active {
		t.Fatal("session active after double Disable")
	}
}

func TestRenameWithoutTeardown(t *testing.T) {
	surf := &fakeSurface{}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	if err := s.UpdateName("comet-live"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	r := last()
	if r.Name() != "comet-live" {
		t.Fatalf("sender name = %q, want comet-live", r.Name())
	}
	if r.Released() {
		t.Fatal("rename tore the sender down")
	}
	if !s.Status().Active {
		t.Fatal("session lost Active on rename")
	}
}

func TestTexturePathPreferred(t *testing.T) {
	surf := &fakeSurface{hasTexture: true}
	s, last := newTestSession(surf, true)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	s.Paint(func(int, int) {})

	r := last()
	if len(r.TextureFrames) != 1 || len(r.BitmapFrames) != 0 {
		t.Fatalf("texture=%d bitmap=%d, want zero-copy path", len(r.TextureFrames), len(r.BitmapFrames))
	}
}

func TestBitmapFallbackWhenSenderLacksTextures(t *testing.T) {
	surf := &fakeSurface{hasTexture: true}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	s.Paint(func(int, int) {})

	r := last()
	if len(r.BitmapFrames) != 1 || len(r.TextureFrames) != 0 {
		t.Fatalf("texture=%d bitmap=%d, want bitmap path", len(r.TextureFrames), len(r.BitmapFrames))
	}
}

func TestUnexpectedTextureFrameIsPerFrameError(t *testing.T) {
	// A surface that returns a texture frame despite allowTexture=false must
	// not take the session down; the frame is dropped like any bad frame.
	surf := &fakeSurface{forceTexture: true}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	s.Paint(func(int, int) {})
	if !s.Status().Active {
		t.Fatal("contract-violating frame killed the session")
	}
	r := last()
	if len(r.TextureFrames) != 0 || len(r.BitmapFrames) != 0 {
		t.Fatalf("texture=%d bitmap=%d, want the frame dropped", len(r.TextureFrames), len(r.BitmapFrames))
	}

	surf.mu.Lock()
	surf.forceTexture = false
	surf.mu.Unlock()
	s.Paint(func(int, int) {})
	if n := len(last().BitmapFrames); n != 1 {
		t.Fatalf("forwarded %d frames after recovery, want 1", n)
	}
}

func TestRenameDuringEnablingReconciles(t *testing.T) {
	gate := make(chan struct{})
	surf := &fakeSurface{openGate: gate}
	s, last := newTestSession(surf, false)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Enable(context.Background(), "comet", Res720p, 0)
	}()

	for s.Status().State != "enabling" {
		runtime.Gosched()
	}
	if err := s.UpdateName("comet-live"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	close(gate)

	if err := <-errCh; err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if r := last(); r.Name() != "comet-live" {
		t.Fatalf("sender name = %q, want the rename that landed mid-enabling applied", r.Name())
	}
	if st := s.Status(); st.SenderName != "comet-live" {
		t.Fatalf("status sender name = %q, want comet-live", st.SenderName)
	}
}

func TestCaptureErrorKeepsSessionActive(t *testing.T) {
	surf := &fakeSurface{}
	s, last := newTestSession(surf, false)
	if err := s.Enable(context.Background(), "comet", Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	surf.mu.Lock()
	surf.captureErr = fmt.Errorf("readback failed")
	surf.mu.Unlock()
	s.Paint(func(int, int) {})
	if !s.Status().Active {
		t.Fatal("per-frame capture error killed the session")
	}

	surf.mu.Lock()
	surf.captureErr = nil
	surf.mu.Unlock()
	s.Paint(func(int, int) {})
	if n := len(last().BitmapFrames); n != 1 {
		t.Fatalf("forwarded %d frames after recovery, want 1", n)
	}
}

func TestUpdateResolutionRecreates(t *testing.T) {
	surfaces := []*fakeSurface{}
	factory, _ := RecorderFactory(false)
	s := NewSession(Options{
		Surfaces: func() Surface {
			surf := &fakeSurface{}
			surfaces = append(surfaces, surf)
			return surf
		},
		Senders: factory,
	})
	if err := s.Enable(context.Background(), "comet", Res720p, 1); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := s.UpdateResolution(context.Background(), Res1080p); err != nil {
		t.Fatalf("UpdateResolution: %v", err)
	}

	st := s.Status()
	if !st.Active || st.Resolution != Res1080p || st.FrameSkip != 1 || st.SenderName != "comet" {
		t.Fatalf("status after resolution change: %+v", st)
	}
	if len(surfaces) != 2 || !surfaces[0].isClosed() {
		t.Fatalf("expected old surface closed and a fresh one opened, got %d surfaces", len(surfaces))
	}
	s.Paint(func(w, h int) {
		if w != 1920 || h != 1080 {
			t.Errorf("paint dims = %dx%d after 1080p switch", w, h)
		}
	})
}

func TestPaintWhileDisabledIsNoop(t *testing.T) {
	surf := &fakeSurface{}
	s, _ := newTestSession(surf, false)
	ran := false
	s.Paint(func(int, int) { ran = true })
	if ran {
		t.Fatal("draw callback ran on a disabled session")
	}
}
