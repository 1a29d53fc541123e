package sim

import (
	"math"
	"math/rand"
)

// EmitterOptions parameterize the drifting emission point.
type EmitterOptions struct {
	BaseRadius  float64 // orbit radius with silent audio
	BassRadius  float64 // added radius per unit of bass
	BaseAngular float64 // angular speed (rad/s) with silent audio
	MidAngular  float64 // added angular speed per unit of mid
	Smoothing   float64 // exponential approach factor toward the orbit target
}

// emitter tracks the continuously drifting spawn position. The orbit target
// moves with bass/mid energy; the actual position follows it with exponential
// smoothing, so emission traces a comet-like path instead of snapping.
type emitter struct {
	opts  EmitterOptions
	angle float64

	pos  Vec3 // this tick's spawn position
	prev Vec3 // last tick's spawn position, lerp start for the spawn pass
}

// update advances the orbit and smooths the spawn position toward it.
// bass and mid must already be clamped to [0,1].
func (em *emitter) update(bass, mid, dt float64) {
	radius := em.opts.BaseRadius + bass*em.opts.BassRadius
	angular := em.opts.BaseAngular + mid*em.opts.MidAngular
	em.angle += angular * dt

	target := Vec3{
		X: float32(radius * math.Cos(em.angle)),
		Y: float32(radius * 0.4 * math.Sin(em.angle*1.7)),
		Z: float32(radius * math.Sin(em.angle)),
	}

	em.prev = em.pos
	s := float32(em.opts.Smoothing)
	em.pos = em.pos.Add(target.Sub(em.pos).Scale(s))
}

// spawn claims nb ring-buffer slots starting at the cursor and resets them to
// fresh particles distributed along the line from the previous to the current
// spawn position. Runs after the integrate pass so a spawned particle is not
// aged by the same tick's update.
func (e *Engine) spawn(nb int) {
	if nb <= 0 {
		return
	}
	if nb > e.st.N {
		// The pool is a hard ceiling.
		nb = e.st.N
	}

	mask := e.st.N - 1
	for i := 0; i < nb; i++ {
		slot := (e.st.Cursor + i) & mask

		t := float32(0)
		if nb > 1 {
			t = float32(i) / float32(nb-1)
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		base := e.em.prev.Add(e.em.pos.Sub(e.em.prev).Scale(t))

		dir := randUnitVec(e.rng)
		pos := base.Add(dir.Scale(float32(e.spawnJitter)))

		e.st.PosLife[slot] = Vec4{X: pos.X, Y: pos.Y, Z: pos.Z, W: 1.0}
		e.st.Vel[slot] = dir.Scale(float32(e.spawnSpeed))
	}

	// Host-side cursor advance, after the spawn pass.
	e.st.Cursor = (e.st.Cursor + nb) & mask
}

// randUnitVec returns a uniformly distributed direction on the unit sphere.
func randUnitVec(rng *rand.Rand) Vec3 {
	v := Vec3{
		X: float32(rng.NormFloat64()),
		Y: float32(rng.NormFloat64()),
		Z: float32(rng.NormFloat64()),
	}
	return v.Normalized(Vec3{0, 1, 0})
}
