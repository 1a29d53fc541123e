// Package scene resolves named particle presets from configuration and
// applies them to a running simulation. A preset changes the base hue and a
// few base parameters; switching scenes never resets particle state, so the
// pool morphs into the new look over a couple of lifetimes.
package scene

import (
	"fmt"

	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/sim"
)

// Preset is a fully resolved scene: config-level zero values are already
// replaced with the inherited base parameters.
type Preset struct {
	Name          string
	Hue           float64
	SpawnRate     float64
	Turbulence    float64
	EmitterRadius float64
}

// Coefficients returns co with the preset's base overrides applied.
func (p Preset) Coefficients(co sim.Coefficients) sim.Coefficients {
	co.BaseSpawnRate = p.SpawnRate
	co.BaseTurbulence = p.Turbulence
	return co
}

// ApplyTo points the engine at this preset's hue and emitter orbit.
func (p Preset) ApplyTo(eng *sim.Engine) {
	eng.SetBaseHue(p.Hue)
	eng.SetEmitterBaseRadius(p.EmitterRadius)
}

// Registry holds the resolved presets in declaration order.
type Registry struct {
	presets []Preset
	index   map[string]int
}

// NewRegistry resolves the configured scenes against the base reactive and
// emitter parameters. A zero in a scene field means "inherit the base value".
func NewRegistry(cfg *config.Config) (*Registry, error) {
	if len(cfg.Scenes) == 0 {
		return nil, fmt.Errorf("no scenes configured")
	}

	r := &Registry{index: make(map[string]int, len(cfg.Scenes))}
	for i, sc := range cfg.Scenes {
		if sc.Name == "" {
			return nil, fmt.Errorf("scene %d has no name", i)
		}
		if _, dup := r.index[sc.Name]; dup {
			return nil, fmt.Errorf("duplicate scene %q", sc.Name)
		}
		p := Preset{
			Name:          sc.Name,
			Hue:           sc.Hue,
			SpawnRate:     sc.SpawnRate,
			Turbulence:    sc.Turbulence,
			EmitterRadius: sc.EmitterRadius,
		}
		if p.SpawnRate == 0 {
			p.SpawnRate = cfg.Reactive.BaseSpawnRate
		}
		if p.Turbulence == 0 {
			p.Turbulence = cfg.Reactive.BaseTurbulence
		}
		if p.EmitterRadius == 0 {
			p.EmitterRadius = cfg.Emitter.BaseRadius
		}
		r.index[p.Name] = i
		r.presets = append(r.presets, p)
	}
	return r, nil
}

// Default returns the first configured scene.
func (r *Registry) Default() Preset { return r.presets[0] }

// Lookup returns the preset by name.
func (r *Registry) Lookup(name string) (Preset, bool) {
	i, ok := r.index[name]
	if !ok {
		return Preset{}, false
	}
	return r.presets[i], true
}

// Next cycles to the scene after current, wrapping around. Unknown names
// restart at the first scene.
func (r *Registry) Next(current string) Preset {
	i, ok := r.index[current]
	if !ok {
		return r.presets[0]
	}
	return r.presets[(i+1)%len(r.presets)]
}

// Names returns scene names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.presets))
	for i, p := range r.presets {
		names[i] = p.Name
	}
	return names
}
