package app

import (
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/settings"
	"github.com/pthm-cable/comet/sim"
)

// declareSettings seeds the runtime parameter registry from configuration.
// Both surfaces declare the identical set, so snapshots always apply cleanly.
func declareSettings(reg *settings.Registry, cfg *config.Config) {
	re := cfg.Reactive
	reg.DeclareFloat("base_spawn_rate", re.BaseSpawnRate, 0, 20)
	reg.DeclareFloat("bass_spawn_gain", re.BassSpawnGain, 0, 200)
	reg.DeclareFloat("base_turbulence", re.BaseTurbulence, 0, 2)
	reg.DeclareFloat("mid_turbulence_gain", re.MidTurbulenceGain, 0, 3)
	reg.DeclareFloat("mid_frequency_gain", re.MidFrequencyGain, 0, 3)
	reg.DeclareFloat("base_size", re.BaseSize, 0.01, 0.5)
	reg.DeclareFloat("high_size_gain", re.HighSizeGain, 0, 1)
	reg.DeclareFloat("high_color_gain", re.HighColorGain, 0, 10)
	reg.DeclareFloat("overall_lifetime_gain", re.OverallLifetimeGain, 0, 1)
	reg.DeclareFloat("time_scale", cfg.Particles.TimeScale, 0.1, 3)
	reg.DeclareFloat("friction", cfg.Particles.Friction, 0, 0.5)
}

// coefficientsFrom reads the current audio-coupling knobs out of the
// registry. Called once per tick on each surface.
func coefficientsFrom(reg *settings.Registry) sim.Coefficients {
	return sim.Coefficients{
		BaseSpawnRate:       reg.Float("base_spawn_rate"),
		BassSpawnGain:       reg.Float("bass_spawn_gain"),
		BaseTurbulence:      reg.Float("base_turbulence"),
		MidTurbulenceGain:   reg.Float("mid_turbulence_gain"),
		MidFrequencyGain:    reg.Float("mid_frequency_gain"),
		BaseSize:            reg.Float("base_size"),
		HighSizeGain:        reg.Float("high_size_gain"),
		HighColorGain:       reg.Float("high_color_gain"),
		OverallLifetimeGain: reg.Float("overall_lifetime_gain"),
		TimeScale:           reg.Float("time_scale"),
		Friction:            reg.Float("friction"),
	}
}
