package sim

import (
	"math/rand"

	"github.com/pthm-cable/comet/audio"
)

// Options configure one simulation engine. Each rendering surface owns its
// own Engine and State; nothing is shared between surfaces.
type Options struct {
	PoolSize int // particle pool size, power of two (default 8192)
	Workers  int // worker goroutines for the passes (0 = GOMAXPROCS)
	Seed     int64

	Field      NoiseField // turbulence source (nil = CPU FBM with defaults)
	FieldScale float64    // position scale applied before sampling (default 0.8)

	LinkHalfWidth float64 // ribbon half-width (default 0.035)
	SpawnJitter   float64 // jitter sphere radius (default 0.25)
	SpawnSpeed    float64 // initial particle speed (default 0.6)
	BaseHue       float64 // scene base hue in degrees

	Emitter      EmitterOptions
	Coefficients Coefficients
}

// Engine advances one particle pool through the fixed per-tick pass order:
// integrate, link rebuild, spawn, cursor advance, emitter drift.
type Engine struct {
	st    *State
	field NoiseField
	pool  *workerPool
	rng   *rand.Rand
	em    emitter
	co    Coefficients

	fieldScale    float64
	linkHalfWidth float64
	spawnJitter   float64
	spawnSpeed    float64
	baseHue       float64

	colorOffset float64
	elapsed     float64
	lastParams  Params

	links []LinkVertex
}

// NewEngine builds an engine. Returns an error only for an invalid pool size.
func NewEngine(opts Options) (*Engine, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 8192
	}
	st, err := NewState(opts.PoolSize)
	if err != nil {
		return nil, err
	}

	if opts.Field == nil {
		opts.Field = NewFBMField(FBMOptions{Seed: opts.Seed})
	}
	if opts.FieldScale == 0 {
		opts.FieldScale = 0.8
	}
	if opts.LinkHalfWidth == 0 {
		opts.LinkHalfWidth = 0.035
	}
	if opts.SpawnJitter == 0 {
		opts.SpawnJitter = 0.25
	}
	if opts.SpawnSpeed == 0 {
		opts.SpawnSpeed = 0.6
	}
	if opts.Emitter.Smoothing == 0 {
		opts.Emitter.Smoothing = 0.1
	}
	if opts.Coefficients.TimeScale == 0 {
		opts.Coefficients.TimeScale = 1.0
	}

	return &Engine{
		st:            st,
		field:         opts.Field,
		pool:          newWorkerPool(opts.Workers),
		rng:           rand.New(rand.NewSource(opts.Seed)),
		em:            emitter{opts: opts.Emitter},
		co:            opts.Coefficients,
		fieldScale:    opts.FieldScale,
		linkHalfWidth: opts.LinkHalfWidth,
		spawnJitter:   opts.SpawnJitter,
		spawnSpeed:    opts.SpawnSpeed,
		baseHue:       opts.BaseHue,
		links:         make([]LinkVertex, opts.PoolSize*VerticesPerParticle),
	}, nil
}

// SetCoefficients replaces the audio-coupling knobs. Called once per tick by
// the owning surface with current settings values.
func (e *Engine) SetCoefficients(co Coefficients) {
	if co.TimeScale == 0 {
		co.TimeScale = 1.0
	}
	e.co = co
}

// Reset clears all particle state: every slot dead, cursor at zero, hue
// rotation rewound. Field, coefficients, and emitter options survive, so the
// caller can re-seed a fresh scene immediately.
func (e *Engine) Reset() {
	for i := 0; i < e.st.N; i++ {
		e.st.PosLife[i] = Vec4{}
		e.st.Vel[i] = Vec3{}
		e.st.nextPosLife[i] = Vec4{}
		e.st.nextVel[i] = Vec3{}
	}
	for i := range e.links {
		e.links[i] = LinkVertex{}
	}
	e.st.Cursor = 0
	e.colorOffset = 0
	e.em = emitter{opts: e.em.opts}
}

// SetBaseHue changes the scene base hue in degrees. Takes effect on the next
// tick's link colors; particle state is untouched.
func (e *Engine) SetBaseHue(hue float64) { e.baseHue = hue }

// SetEmitterBaseRadius overrides the silent-audio orbit radius.
func (e *Engine) SetEmitterBaseRadius(r float64) { e.em.opts.BaseRadius = r }

// Tick runs one simulation step. frameDelta is the wall-clock frame time in
// seconds; bands is this tick's audio snapshot (all-zero is valid and leaves
// the simulation idling on its base parameters).
func (e *Engine) Tick(frameDelta float64, bands audio.Bands) {
	b := bands.Clamped()
	p := Derive(e.co, b, frameDelta)
	e.lastParams = p

	e.colorOffset += float64(p.DT) * p.ColorRot

	// Pass 1: integrate + decay into the back buffers, then swap.
	e.pool.run(e.st.N, func(i0, i1 int) { e.integrateChunk(i0, i1, p) })
	e.st.swap()

	// Pass 2: rebuild link quads from the integrated state.
	e.pool.run(e.st.N, func(i0, i1 int) { e.linkChunk(i0, i1, p) })

	// Pass 3: spawn at the ring cursor; must not be aged by this tick.
	e.spawn(p.NbToSpawn)

	// Emitter drift for the next tick's spawn line.
	e.em.update(b.Bass, b.Mid, frameDelta)

	e.elapsed += frameDelta
}

// State exposes the particle buffers for the renderer (read-only by
// convention; the engine is the sole writer).
func (e *Engine) State() *State { return e.st }

// Links returns the per-tick link vertex buffer. Fully rewritten every tick.
func (e *Engine) Links() []LinkVertex { return e.links }

// Params returns the uniforms derived on the most recent tick.
func (e *Engine) Params() Params { return e.lastParams }

// Elapsed returns accumulated simulation time in seconds.
func (e *Engine) Elapsed() float64 { return e.elapsed }

// SetElapsed overrides accumulated time; used when the synchronizer delivers
// an elapsed-time hint to the offscreen surface.
func (e *Engine) SetElapsed(t float64) { e.elapsed = t }

// ParticleColor returns the hue-rotated color of particle i, matching the
// color its link ribbons carry this tick.
func (e *Engine) ParticleColor(i int) (r, g, b float32) {
	return e.instanceColor(i)
}

// SpawnPosition returns the current emitter position.
func (e *Engine) SpawnPosition() Vec3 { return e.em.pos }

// Close stops the worker pool. The engine must not be ticked after Close.
func (e *Engine) Close() { e.pool.stop() }
