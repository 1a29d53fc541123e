package audio

// Smoother applies a per-band attack/release envelope: band energy rises
// quickly and falls slowly, which keeps the simulation from strobing on
// transient-heavy input.
type Smoother struct {
	inner   Reducer
	attack  float64 // rise rate per second
	release float64 // fall rate per second
	state   Bands
}

// NewSmoother wraps a reducer with an attack/release envelope.
func NewSmoother(inner Reducer, attack, release float64) *Smoother {
	if attack <= 0 {
		attack = 18.0
	}
	if release <= 0 {
		release = 4.0
	}
	return &Smoother{inner: inner, attack: attack, release: release}
}

// Reduce pulls a snapshot from the wrapped reducer and follows it with the
// envelope. Output stays in [0,1] for in-range input.
func (s *Smoother) Reduce(dt float64) Bands {
	target := s.inner.Reduce(dt).Clamped()
	s.state.Bass = s.follow(s.state.Bass, target.Bass, dt)
	s.state.Mid = s.follow(s.state.Mid, target.Mid, dt)
	s.state.High = s.follow(s.state.High, target.High, dt)
	s.state.Overall = s.follow(s.state.Overall, target.Overall, dt)
	return s.state
}

func (s *Smoother) follow(cur, target, dt float64) float64 {
	rate := s.release
	if target > cur {
		rate = s.attack
	}
	step := rate * dt
	if step > 1 {
		step = 1
	}
	return cur + (target-cur)*step
}
