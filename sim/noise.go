package sim

import opensimplex "github.com/ojrac/opensimplex-go"

// NoiseField supplies the 3D turbulence vector field the integrate pass
// samples. Implementations must be safe for concurrent Sample calls; the
// pass runs data-parallel over particle chunks.
type NoiseField interface {
	// Sample returns a perturbation vector with components roughly in
	// [-1, 1] at the given (already frequency-scaled) position.
	Sample(x, y, z float32) Vec3
}

// FBMField is the CPU turbulence field: three decorrelated fractal
// opensimplex evaluations, one per output component.
type FBMField struct {
	noise      opensimplex.Noise
	octaves    int
	lacunarity float64
	gain       float64
}

// FBMOptions configures an FBMField.
type FBMOptions struct {
	Seed       int64
	Octaves    int
	Lacunarity float64
	Gain       float64
}

// NewFBMField builds a fractal noise field. Zero options fall back to
// 4 octaves, lacunarity 2, gain 0.5.
func NewFBMField(opts FBMOptions) *FBMField {
	if opts.Octaves <= 0 {
		opts.Octaves = 4
	}
	if opts.Lacunarity == 0 {
		opts.Lacunarity = 2.0
	}
	if opts.Gain == 0 {
		opts.Gain = 0.5
	}
	return &FBMField{
		noise:      opensimplex.New(opts.Seed),
		octaves:    opts.Octaves,
		lacunarity: opts.Lacunarity,
		gain:       opts.Gain,
	}
}

// Decorrelation offsets per output component. The field is one noise
// instance evaluated at three well-separated regions.
var fieldOffsets = [3][3]float64{
	{0, 0, 0},
	{31.416, -47.853, 12.793},
	{-233.31, 101.07, 310.55},
}

// Sample evaluates the fractal field at p.
func (f *FBMField) Sample(x, y, z float32) Vec3 {
	var out [3]float64
	for c := 0; c < 3; c++ {
		off := fieldOffsets[c]
		out[c] = f.fbm(float64(x)+off[0], float64(y)+off[1], float64(z)+off[2])
	}
	return Vec3{float32(out[0]), float32(out[1]), float32(out[2])}
}

// fbm accumulates octaves and normalizes back to roughly [-1, 1].
func (f *FBMField) fbm(x, y, z float64) float64 {
	sum := 0.0
	amp := 1.0
	norm := 0.0
	freq := 1.0
	for o := 0; o < f.octaves; o++ {
		sum += amp * f.noise.Eval3(x*freq, y*freq, z*freq)
		norm += amp
		amp *= f.gain
		freq *= f.lacunarity
	}
	return sum / norm
}
