package app

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/bridge"
	"github.com/pthm-cable/comet/camera"
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/renderer"
	"github.com/pthm-cable/comet/scene"
	"github.com/pthm-cable/comet/settings"
	"github.com/pthm-cable/comet/sim"
)

// offscreenSide is the streaming surface's half of the state synchronizer:
// its own settings registry, scene, and simulation engine, fed exclusively
// through the bridge mailboxes. It never reads the interactive surface's
// state directly.
type offscreenSide struct {
	reg    *settings.Registry
	eng    *sim.Engine
	scenes *scene.Registry
	cam    *camera.Orbit

	sceneName string
	preset    scene.Preset
	bands     audio.Bands // last received snapshot; reused until the next arrives
}

func newOffscreenSide(cfg *config.Config, scenes *scene.Registry, field sim.NoiseField) (*offscreenSide, error) {
	reg := settings.NewRegistry()
	declareSettings(reg, cfg)

	preset := scenes.Default()
	eng, err := sim.NewEngine(sim.Options{
		PoolSize:      cfg.Particles.Count,
		Seed:          cfg.Noise.Seed + 1, // decorrelate from the interactive pool
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

	return &offscreenSide{
		reg:       reg,
		eng:       eng,
		scenes:    scenes,
		cam:       camera.New(14),
		sceneName: preset.Name,
		preset:    preset,
	}, nil
}

// drain consumes every pending mailbox message. Latest-wins semantics mean
// one Take per kind per tick is enough.
func (o *offscreenSide) drain(b *bridge.Bridge) {
	if snap, ok := b.Settings.Take(); ok {
		o.reg.Apply(snap)
	}
	if bands, ok := b.Audio.Take(); ok {
		o.bands = bands
	}
	if name, ok := b.Scene.Take(); ok && name != o.sceneName {
		if preset, found := o.scenes.Lookup(name); found {
			// Scene selection re-initializes this surface's simulation;
			// the stream cuts to the new scene instead of morphing.
			o.sceneName = name
			o.preset = preset
			o.eng.Reset()
			preset.ApplyTo(o.eng)
		} else {
			slog.Warn("unknown scene from synchronizer", "scene", name)
		}
	}
	if elapsed, ok := b.Elapsed.Take(); ok {
		o.eng.SetElapsed(elapsed)
	}
}

// tick advances the offscreen simulation one frame using the synchronized
// state.
func (o *offscreenSide) tick(frameDelta float64) {
	o.eng.SetCoefficients(o.preset.Coefficients(coefficientsFrom(o.reg)))
	o.eng.Tick(frameDelta, o.bands)
	o.cam.Update(float32(frameDelta))
}

// draw renders the scene-only page (no UI chrome). The render target's size
// sets the aspect; the camera math is resolution independent.
func (o *offscreenSide) draw(rend *renderer.SceneRenderer) {
	x, y, z := o.cam.Position()
	cam := rl.Camera3D{
		Position:   rl.Vector3{X: x, Y: y, Z: z},
		Target:     rl.Vector3{X: o.cam.TargetX, Y: o.cam.TargetY, Z: o.cam.TargetZ},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       55,
		Projection: rl.CameraPerspective,
	}
	rend.Draw(cam, o.eng)
}

func (o *offscreenSide) close() {
	o.eng.Close()
}
