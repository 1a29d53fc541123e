// Package audio defines the band-reduction boundary the simulation consumes.
// Capture and FFT live outside this module; the engine only ever sees four
// scalars per tick.
package audio

import "math"

// Bands is one per-tick audio snapshot. All values are in [0,1] after Clamped.
type Bands struct {
	Bass    float64
	Mid     float64
	High    float64
	Overall float64
}

// Clamped returns a copy with every band forced into [0,1].
// NaN and infinities map to 0 so malformed input can never reach the
// particle buffers.
func (b Bands) Clamped() Bands {
	return Bands{
		Bass:    clamp01(b.Bass),
		Mid:     clamp01(b.Mid),
		High:    clamp01(b.High),
		Overall: clamp01(b.Overall),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Reducer produces one Bands snapshot per tick.
// Implementations must tolerate being called forever; the engine degrades to
// its base parameters on all-zero input rather than stalling.
type Reducer interface {
	Reduce(dt float64) Bands
}

// Silence is the fallback reducer when no audio source is available.
type Silence struct{}

// Reduce returns all-zero bands.
func (Silence) Reduce(dt float64) Bands { return Bands{} }

// Synth is a deterministic low-frequency oscillator mix used for demos and
// headless runs. It is not meant to sound like anything; it exercises the
// same value ranges a real band reducer produces.
type Synth struct {
	t float64
}

// Reduce advances the oscillators by dt and returns the current bands.
func (s *Synth) Reduce(dt float64) Bands {
	s.t += dt
	bass := 0.5 + 0.5*math.Sin(s.t*2.1)
	mid := 0.5 + 0.5*math.Sin(s.t*3.7+1.3)
	high := 0.5 + 0.5*math.Sin(s.t*5.3+2.9)
	b := Bands{
		Bass:    bass * bass, // bias toward pulses
		Mid:     mid,
		High:    high * 0.8,
		Overall: (bass + mid + high) / 3,
	}
	return b.Clamped()
}
