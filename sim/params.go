package sim

import (
	"math"

	"github.com/pthm-cable/comet/audio"
)

// Coefficients are the tunable audio-coupling knobs, read from the settings
// boundary once per tick. The engine never writes them.
type Coefficients struct {
	BaseSpawnRate       float64
	BassSpawnGain       float64
	BaseTurbulence      float64
	MidTurbulenceGain   float64
	MidFrequencyGain    float64
	BaseSize            float64
	HighSizeGain        float64
	HighColorGain       float64
	OverallLifetimeGain float64

	TimeScale float64 // multiplies frame delta
	Friction  float64 // per-tick exponential velocity damping
}

// Params are the per-tick uniforms derived from coefficients + audio.
// Immutable once derived; every pass of the tick reads the same values.
type Params struct {
	DT        float32 // frameDelta * timeScale * 0.1
	NbToSpawn int
	TurbAmp   float32
	TurbFreq  float32
	Size      float32
	ColorRot  float64 // hue rotation speed, degrees-per-colorOffset-unit factor
	Lifetime  float32 // life decay constant: life -= dt / Lifetime
	Friction  float32
}

// Derive computes the tick uniforms. bands must already be clamped; Derive
// clamps again so a caller skipping Clamped cannot poison the buffers.
func Derive(c Coefficients, bands audio.Bands, frameDelta float64) Params {
	b := bands.Clamped()

	nb := int(math.Floor(c.BaseSpawnRate + b.Bass*c.BassSpawnGain))
	if nb < 0 {
		nb = 0
	}

	return Params{
		DT:        float32(frameDelta * c.TimeScale * 0.1),
		NbToSpawn: nb,
		TurbAmp:   float32(c.BaseTurbulence + b.Mid*c.MidTurbulenceGain),
		TurbFreq:  float32(0.5 + b.Mid*c.MidFrequencyGain),
		Size:      float32(c.BaseSize + b.High*c.HighSizeGain),
		ColorRot:  1 + b.High*c.HighColorGain,
		Lifetime:  float32(0.5 + (1-b.Overall*c.OverallLifetimeGain)*0.5),
		Friction:  float32(c.Friction),
	}
}

// hueToRGB converts a hue in degrees (any range) at full saturation and
// value to RGB components in [0,1].
func hueToRGB(hue float64) (r, g, b float32) {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	h /= 60
	i := int(h)
	f := h - float64(i)
	q := 1 - f

	switch i {
	case 0:
		return 1, float32(f), 0
	case 1:
		return float32(q), 1, 0
	case 2:
		return 0, 1, float32(f)
	case 3:
		return 0, float32(q), 1
	case 4:
		return float32(f), 0, 1
	default:
		return 1, 0, float32(q)
	}
}
