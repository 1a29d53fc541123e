package app

import (
	"context"
	"testing"

	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/bridge"
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/scene"
	"github.com/pthm-cable/comet/sim"
	"github.com/pthm-cable/comet/stream"
)

// nullSurface is a GL-free streaming surface for wiring tests.
type nullSurface struct {
	width, height int
}

func (s *nullSurface) Open(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.width = width
	s.height = height
	return nil
}

func (s *nullSurface) Capture(allowTexture bool) (stream.Frame, error) {
	return stream.BitmapFrame(make([]byte, s.width*s.height*4), s.width, s.height), nil
}

func (s *nullSurface) Close() {}

// testStreamApp builds an App with just the streaming half wired: offscreen
// side, bridge, and a recorder-backed session. No raylib calls.
func testStreamApp(t *testing.T) (*App, *int) {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Particles.Count = 256

	scenes, err := scene.NewRegistry(cfg)
	if err != nil {
		t.Fatalf("scenes: %v", err)
	}
	off, err := newOffscreenSide(cfg, scenes, sim.NewFBMField(sim.FBMOptions{Seed: 1}))
	if err != nil {
		t.Fatalf("offscreen side: %v", err)
	}
	t.Cleanup(off.close)

	factory, _ := stream.RecorderFactory(false)
	a := &App{
		cfg: cfg,
		off: off,
		br:  bridge.New(),
		session: stream.NewSession(stream.Options{
			Surfaces: func() stream.Surface { return &nullSurface{} },
			Senders:  factory,
		}),
	}
	painted := 0
	a.paintOffscreen = func(int, int) { painted++ }
	return a, &painted
}

func TestOffscreenIdleWhileStreamDisabled(t *testing.T) {
	a, painted := testStreamApp(t)

	a.br.Audio.Put(audio.Bands{Bass: 1})
	for i := 0; i < 10; i++ {
		a.stepOffscreen(1.0 / 60)
	}

	if got := a.off.eng.Elapsed(); got != 0 {
		t.Fatalf("offscreen engine ticked %v seconds while the stream was disabled", got)
	}
	if *painted != 0 {
		t.Fatalf("offscreen painted %d frames while the stream was disabled", *painted)
	}
	// The mailbox still holds the snapshot for the next enable.
	if _, ok := a.br.Audio.Take(); !ok {
		t.Fatal("audio snapshot consumed by a disabled stream")
	}
}

func TestOffscreenRunsWhileStreamActive(t *testing.T) {
	a, painted := testStreamApp(t)
	if err := a.session.Enable(context.Background(), "comet", stream.Res720p, 0); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	defer a.session.Disable()

	a.br.Audio.Put(audio.Bands{Bass: 1})
	a.stepOffscreen(1.0 / 60)

	if a.off.eng.Elapsed() == 0 {
		t.Fatal("offscreen engine did not tick while the stream was active")
	}
	if *painted != 1 {
		t.Fatalf("painted %d frames, want 1", *painted)
	}
	if _, ok := a.br.Audio.Take(); ok {
		t.Fatal("audio snapshot not drained by the active stream")
	}
	if a.off.bands.Bass != 1 {
		t.Fatalf("offscreen bands = %+v, want drained bass", a.off.bands)
	}
}
