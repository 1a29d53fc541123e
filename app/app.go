// Package app wires the interactive surface, the offscreen streaming
// surface, and the state synchronizer into one render-thread loop.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/bridge"
	"github.com/pthm-cable/comet/camera"
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/renderer"
	"github.com/pthm-cable/comet/scene"
	"github.com/pthm-cable/comet/settings"
	"github.com/pthm-cable/comet/sim"
	"github.com/pthm-cable/comet/stream"
	"github.com/pthm-cable/comet/telemetry"
	"github.com/pthm-cable/comet/ui"
)

// elapsedResendSec is how often the interactive surface ships its elapsed
// time to the offscreen engine.
const elapsedResendSec = 1.0

// Options configure the application.
type Options struct {
	Seed      int64
	LogStats  bool
	OutputDir string
	Headless  bool
	Workers   int
}

// App owns both surfaces and everything they share.
type App struct {
	cfg  *config.Config
	opts Options

	reg     *settings.Registry
	reducer audio.Reducer
	scenes  *scene.Registry
	preset  scene.Preset
	eng     *sim.Engine
	cam     *camera.Orbit

	br      *bridge.Bridge
	off     *offscreenSide
	offSurf *renderer.Offscreen
	session *stream.Session

	rend  *renderer.SceneRenderer
	field *renderer.TurbulenceField // nil when the CPU FBM field is in use
	panel *ui.Panel

	// paintOffscreen renders the scene-only page into the offscreen surface;
	// installed by New, replaceable in tests.
	paintOffscreen func(width, height int)

	collector *telemetry.Collector
	output    *telemetry.OutputManager

	tick         int64
	lastBands    audio.Bands
	elapsedSince float64
}

// New builds the app. Graphics-dependent pieces (renderer, GPU field,
// streaming surface) are skipped in headless mode.
func New(opts Options) (*App, error) {
	cfg := config.Cfg()

	scenes, err := scene.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	preset := scenes.Default()

	reg := settings.NewRegistry()
	declareSettings(reg, cfg)

	a := &App{
		cfg:     cfg,
		opts:    opts,
		reg:     reg,
		reducer: newReducer(cfg),
		scenes:  scenes,
		preset:  preset,
		cam:     camera.New(14),
		br:      bridge.New(),
	}

	// Window length in ticks at the configured frame rate.
	windowTicks := int64(cfg.Telemetry.StatsWindow * float64(cfg.Screen.TargetFPS))
	a.collector = telemetry.NewCollector(windowTicks)

	a.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := a.output.WriteConfig(cfg); err != nil {
		slog.Warn("writing config snapshot", "error", err)
	}

	var field sim.NoiseField
	if !opts.Headless {
		a.rend = renderer.NewSceneRenderer()
		a.panel = ui.NewPanel(16, 16, 300)
		if cfg.Noise.GPU {
			a.field = renderer.NewTurbulenceField(cfg.Noise.TextureSize)
			a.field.Update(0)
			field = a.field
		}
	}
	if field == nil {
		field = sim.NewFBMField(sim.FBMOptions{
			Seed:       seedOr(opts.Seed, cfg.Noise.Seed),
			Octaves:    cfg.Noise.Octaves,
			Lacunarity: cfg.Noise.Lacunarity,
			Gain:       cfg.Noise.Gain,
		})
	}

	a.eng, err = sim.NewEngine(sim.Options{
		PoolSize:      cfg.Particles.Count,
		Workers:       opts.Workers,
		Seed:          seedOr(opts.Seed, cfg.Noise.Seed),
		Field:         field,
		FieldScale:    cfg.Particles.FieldScale,
		LinkHalfWidth: cfg.Particles.LinkWidth,
		SpawnJitter:   cfg.Particles.SpawnJitter,
		SpawnSpeed:    cfg.Particles.SpawnSpeed,
		BaseHue:       preset.Hue,
		Emitter: sim.EmitterOptions{
			BaseRadius:  preset.EmitterRadius,
			BassRadius:  cfg.Emitter.BassRadius,
			BaseAngular: cfg.Emitter.BaseAngular,
			MidAngular:  cfg.Emitter.MidAngular,
			Smoothing:   cfg.Emitter.Smoothing,
		},
	})
	if err != nil {
		return nil, err
	}

	if !opts.Headless {
		a.off, err = newOffscreenSide(cfg, scenes, field)
		if err != nil {
			a.eng.Close()
			return nil, err
		}
		a.session = stream.NewSession(stream.Options{
			Surfaces: a.newSurface,
			Senders:  a.newSenderFactory(),
			Observer: a.collector,
		})
		a.paintOffscreen = func(int, int) {
			a.offSurf.Begin()
			a.off.draw(a.rend)
			a.offSurf.End()
		}
	}

	return a, nil
}

// newReducer picks the configured audio source.
func newReducer(cfg *config.Config) audio.Reducer {
	var src audio.Reducer
	switch cfg.Audio.Source {
	case "synth":
		src = &audio.Synth{}
	default:
		src = audio.Silence{}
	}
	return audio.NewSmoother(src, cfg.Audio.Attack, cfg.Audio.Release)
}

func seedOr(cli, cfg int64) int64 {
	if cli != 0 {
		return cli
	}
	if cfg != 0 {
		return cfg
	}
	return time.Now().UnixNano()
}

// newSurface is the session's surface factory; the app keeps the handle so
// the paint closure can begin/end texture mode on it.
func (a *App) newSurface() stream.Surface {
	a.offSurf = renderer.NewOffscreen()
	return a.offSurf
}

// newSenderFactory picks websocket or in-process recording from config.
func (a *App) newSenderFactory() stream.SenderFactory {
	if url := a.cfg.Stream.WSURL; url != "" {
		return stream.NewWSSenderFactory(url)
	}
	factory, _ := stream.RecorderFactory(true)
	return factory
}

// Update advances both surfaces by one frame. Must run on the render thread.
func (a *App) Update() {
	frameDelta := float64(rl.GetFrameTime())
	if frameDelta <= 0 {
		frameDelta = 1.0 / float64(a.cfg.Screen.TargetFPS)
	}
	a.step(frameDelta)

	a.handleInput()
	if a.field != nil {
		a.field.Update(float32(a.eng.Elapsed()))
	}

	a.stepOffscreen(frameDelta)

	a.cam.Update(float32(frameDelta))
}

// stepOffscreen advances the streaming surface's half: drain synchronizer
// state, tick its simulation, paint. Runs only while a session is Active — a
// disabled stream costs no simulation work, and the latest-wins mailboxes
// deliver fresh state within one tick of the next enable.
func (a *App) stepOffscreen(frameDelta float64) {
	if !a.session.Status().Active {
		return
	}
	a.off.drain(a.br)
	a.off.tick(frameDelta)
	a.session.Paint(a.paintOffscreen)
}

// UpdateHeadless advances the interactive simulation without graphics.
func (a *App) UpdateHeadless() {
	a.step(1.0 / float64(a.cfg.Screen.TargetFPS))
}

// step runs the shared interactive-surface tick: audio, simulation,
// synchronizer publishes, telemetry.
func (a *App) step(frameDelta float64) {
	start := time.Now()

	bands := a.reducer.Reduce(frameDelta)
	a.lastBands = bands

	liveBefore := a.eng.State().Live()
	a.eng.SetCoefficients(a.preset.Coefficients(coefficientsFrom(a.reg)))
	a.eng.Tick(frameDelta, bands)
	live := a.eng.State().Live()
	spawned := live - liveBefore
	if spawned < 0 {
		spawned = 0
	}
	a.tick++

	// Synchronizer publishes. Audio goes out every tick; settings only when
	// something changed; elapsed on a slow heartbeat.
	a.br.Audio.Put(bands)
	if a.reg.TakeDirty() {
		a.br.Settings.Put(a.reg.Snapshot())
	}
	a.elapsedSince += frameDelta
	if a.elapsedSince >= elapsedResendSec {
		a.elapsedSince = 0
		a.br.Elapsed.Put(a.eng.Elapsed())
	}

	a.collector.RecordTick(time.Since(start), spawned, live, bands)
	if a.collector.ShouldFlush(a.tick) {
		stats := a.collector.Flush(a.tick, a.eng.Elapsed())
		if a.opts.LogStats {
			stats.LogStats()
		}
		if err := a.output.WriteTelemetry(stats); err != nil {
			slog.Warn("writing telemetry", "error", err)
		}
	}
}

// setScene switches the interactive preset and publishes it.
func (a *App) setScene(p scene.Preset) {
	a.preset = p
	p.ApplyTo(a.eng)
	a.br.Scene.Put(p.Name)
	slog.Info("scene", "name", p.Name)
}

// toggleStream enables or disables the streaming session.
func (a *App) toggleStream() {
	if a.session.Status().Active {
		a.session.Disable()
		return
	}
	res, err := stream.ParseResolution(a.cfg.Stream.Resolution)
	if err != nil {
		slog.Error("stream resolution", "error", err)
		return
	}
	err = a.session.Enable(context.Background(), a.cfg.Stream.SenderName, res, a.cfg.Stream.FrameSkip)
	if err != nil {
		slog.Error("enabling stream", "error", err)
	}
}

// Draw renders the interactive surface. Must run on the render thread.
func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 6, G: 6, B: 14, A: 255})

	x, y, z := a.cam.Position()
	cam := rl.Camera3D{
		Position:   rl.Vector3{X: x, Y: y, Z: z},
		Target:     rl.Vector3{X: a.cam.TargetX, Y: a.cam.TargetY, Z: a.cam.TargetZ},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       55,
		Projection: rl.CameraPerspective,
	}
	a.rend.Draw(cam, a.eng)

	acts := a.panel.Draw(a.reg, a.session.Status(), a.preset.Name, a.eng.State().Live())
	if acts.NextScene {
		a.setScene(a.scenes.Next(a.preset.Name))
	}
	if acts.ToggleStream {
		a.toggleStream()
	}

	rl.EndDrawing()
}

// Tick returns the number of completed interactive ticks.
func (a *App) Tick() int64 { return a.tick }

// StartStream enables streaming with the configured defaults, for the
// stream.enabled config flag.
func (a *App) StartStream() error {
	res, err := stream.ParseResolution(a.cfg.Stream.Resolution)
	if err != nil {
		return err
	}
	if err := a.session.Enable(context.Background(), a.cfg.Stream.SenderName, res, a.cfg.Stream.FrameSkip); err != nil {
		return fmt.Errorf("enabling stream: %w", err)
	}
	return nil
}

// Unload stops engines and releases resources.
func (a *App) Unload() {
	if a.session != nil {
		a.session.Disable()
	}
	if a.off != nil {
		a.off.close()
	}
	a.eng.Close()
	if a.field != nil {
		a.field.Unload()
	}
	if a.rend != nil {
		a.rend.Unload()
	}
	if err := a.output.Close(); err != nil {
		slog.Warn("closing output", "error", err)
	}
}
