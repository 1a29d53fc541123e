// streamprobe exercises the full capture/send pipeline without a GPU: it
// ticks a particle engine, rasterizes the pool into a CPU bitmap each frame,
// and pushes frames through a streaming session to a websocket receiver or
// an in-process recorder.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/sim"
	"github.com/pthm-cable/comet/stream"
	"github.com/pthm-cable/comet/telemetry"
)

// softSurface is a CPU render target. The probe's draw callback writes into
// pixels; Capture hands the buffer out as a bitmap frame.
type softSurface struct {
	pixels []byte
	width  int
	height int
}

func (s *softSurface) Open(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.width = width
	s.height = height
	s.pixels = make([]byte, width*height*4)
	return nil
}

func (s *softSurface) Capture(allowTexture bool) (stream.Frame, error) {
	buf := make([]byte, len(s.pixels))
	copy(buf, s.pixels)
	return stream.BitmapFrame(buf, s.width, s.height), nil
}

func (s *softSurface) Close() {}

// plot rasterizes the live particles with a fixed-axis orthographic
// projection. Good enough to verify real image data crosses the pipeline.
func (s *softSurface) plot(eng *sim.Engine) {
	for i := range s.pixels {
		s.pixels[i] = 0
	}
	st := eng.State()
	scale := float32(s.height) / 16.0
	cx := float32(s.width) / 2
	cy := float32(s.height) / 2

	for i := 0; i < st.N; i++ {
		pl := st.PosLife[i]
		if pl.W <= 0 {
			continue
		}
		x := int(cx + pl.X*scale)
		y := int(cy - pl.Y*scale)
		if x < 0 || x >= s.width || y < 0 || y >= s.height {
			continue
		}
		r, g, b := eng.ParticleColor(i)
		a := pl.W
		if a > 1 {
			a = 1
		}
		idx := (y*s.width + x) * 4
		s.pixels[idx+0] = uint8(math.Min(255, float64(s.pixels[idx+0])+float64(r*a*255)))
		s.pixels[idx+1] = uint8(math.Min(255, float64(s.pixels[idx+1])+float64(g*a*255)))
		s.pixels[idx+2] = uint8(math.Min(255, float64(s.pixels[idx+2])+float64(b*a*255)))
		s.pixels[idx+3] = 255
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	wsURL := flag.String("ws", "", "Websocket receiver URL (empty = in-process recorder)")
	frames := flag.Int("frames", 300, "Frames to paint before exiting")
	name := flag.String("sender", "streamprobe", "Sender name")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	eng, err := sim.NewEngine(sim.Options{
		PoolSize:   cfg.Particles.Count,
		Seed:       cfg.Noise.Seed,
		FieldScale: cfg.Particles.FieldScale,
		Coefficients: sim.Coefficients{
			BaseSpawnRate:       cfg.Reactive.BaseSpawnRate,
			BassSpawnGain:       cfg.Reactive.BassSpawnGain,
			BaseTurbulence:      cfg.Reactive.BaseTurbulence,
			MidTurbulenceGain:   cfg.Reactive.MidTurbulenceGain,
			MidFrequencyGain:    cfg.Reactive.MidFrequencyGain,
			BaseSize:            cfg.Reactive.BaseSize,
			HighSizeGain:        cfg.Reactive.HighSizeGain,
			HighColorGain:       cfg.Reactive.HighColorGain,
			OverallLifetimeGain: cfg.Reactive.OverallLifetimeGain,
			TimeScale:           cfg.Particles.TimeScale,
			Friction:            cfg.Particles.Friction,
		},
		Emitter: sim.EmitterOptions{
			BaseRadius:  cfg.Emitter.BaseRadius,
			BassRadius:  cfg.Emitter.BassRadius,
			BaseAngular: cfg.Emitter.BaseAngular,
			MidAngular:  cfg.Emitter.MidAngular,
			Smoothing:   cfg.Emitter.Smoothing,
		},
	})
	if err != nil {
		slog.Error("engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	surf := &softSurface{}
	var senders stream.SenderFactory
	var lastRecorder func() *stream.Recorder
	if *wsURL != "" {
		senders = stream.NewWSSenderFactory(*wsURL)
	} else {
		senders, lastRecorder = stream.RecorderFactory(false)
	}

	collector := telemetry.NewCollector(int64(*frames))
	session := stream.NewSession(stream.Options{
		Surfaces: func() stream.Surface { return surf },
		Senders:  senders,
		Observer: collector,
	})

	res, err := stream.ParseResolution(cfg.Stream.Resolution)
	if err != nil {
		slog.Error("resolution", "error", err)
		os.Exit(1)
	}
	if err := session.Enable(context.Background(), *name, res, cfg.Stream.FrameSkip); err != nil {
		slog.Error("enabling session", "error", err)
		os.Exit(1)
	}
	defer session.Disable()

	reducer := audio.NewSmoother(&audio.Synth{}, cfg.Audio.Attack, cfg.Audio.Release)
	dt := 1.0 / float64(cfg.Screen.TargetFPS)

	start := time.Now()
	for i := 0; i < *frames; i++ {
		bands := reducer.Reduce(dt)
		eng.Tick(dt, bands)
		collector.RecordTick(0, 0, eng.State().Live(), bands)
		session.Paint(func(int, int) { surf.plot(eng) })
	}

	stats := collector.Flush(int64(*frames), eng.Elapsed())
	stats.LogStats()
	slog.Info("probe finished",
		"frames", *frames,
		"elapsed", time.Since(start).Seconds(),
		"live", eng.State().Live(),
	)
	if lastRecorder != nil {
		if r := lastRecorder(); r != nil {
			slog.Info("recorder", "bitmap_frames", len(r.BitmapFrames), "released", r.Released())
		}
	}
}
