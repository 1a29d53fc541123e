// Package sim implements the particle simulation engine: a fixed pool of
// particles advanced by ordered data-parallel passes, driven each tick by an
// audio band snapshot and a coefficient set.
//
// The package is deliberately free of rendering imports so the passes can be
// tested headless; the renderer consumes the link vertex buffer read-only.
package sim

import (
	"fmt"
	"math"
)

// Vec3 is a small float32 vector. Particle state is stored column-wise, so
// these stay plain data with value semantics.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 packs a position with a scalar in W. For particles, W is life.
type Vec4 struct {
	X, Y, Z, W float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LenSq returns the squared length.
func (v Vec3) LenSq() float32 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Normalized returns v scaled to unit length, or fallback when degenerate.
func (v Vec3) Normalized(fallback Vec3) Vec3 {
	l := v.LenSq()
	if l < 1e-12 {
		return fallback
	}
	inv := 1 / float32(math.Sqrt(float64(l)))
	return v.Scale(inv)
}

// State owns the column-wise particle buffers for one surface. Each surface
// has its own State; nothing else writes these slices.
type State struct {
	N int // pool size, power of two

	// PosLife holds xyz position and life in W. Life <= 0 means the slot is
	// free; its position and velocity are undefined and must be skipped by
	// the link pass and the renderer.
	PosLife []Vec4
	Vel     []Vec3

	// nextPosLife/nextVel are the write targets of the integrate pass; the
	// buffers are swapped after the pass so readers always see a consistent
	// snapshot.
	nextPosLife []Vec4
	nextVel     []Vec3

	// Cursor is the ring-buffer spawn cursor in [0, N). Owned exclusively by
	// the spawn pass.
	Cursor int
}

// NewState allocates a pool of n dead particles. n must be a power of two.
func NewState(n int) (*State, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("sim: pool size must be a power of two, got %d", n)
	}
	return &State{
		N:           n,
		PosLife:     make([]Vec4, n),
		Vel:         make([]Vec3, n),
		nextPosLife: make([]Vec4, n),
		nextVel:     make([]Vec3, n),
	}, nil
}

// Live counts particles with life > 0.
func (s *State) Live() int {
	live := 0
	for i := range s.PosLife {
		if s.PosLife[i].W > 0 {
			live++
		}
	}
	return live
}

// swap exchanges the read and write buffers after the integrate pass.
func (s *State) swap() {
	s.PosLife, s.nextPosLife = s.nextPosLife, s.PosLife
	s.Vel, s.nextVel = s.nextVel, s.Vel
}

// LinkVertex is one vertex of a link ribbon quad. Four vertices per link,
// two links per live particle. Rebuilt from scratch every tick; consumed
// read-only by the renderer. Dead or linkless slots carry Alpha 0.
type LinkVertex struct {
	Pos     Vec3
	R, G, B float32
	Alpha   float32
}

// VerticesPerParticle is the number of link vertices each particle slot owns
// in the shared buffer (2 links × 4 vertices).
const VerticesPerParticle = 8
