package scene

import (
	"testing"

	"github.com/pthm-cable/comet/audio"
	"github.com/pthm-cable/comet/config"
	"github.com/pthm-cable/comet/sim"
)

func testConfig() *config.Config {
	return &config.Config{
		Reactive: config.ReactiveConfig{
			BaseSpawnRate:  5,
			BaseTurbulence: 0.2,
		},
		Emitter: config.EmitterConfig{BaseRadius: 3},
		Scenes: []config.SceneConfig{
			{Name: "comet", Hue: 210},
			{Name: "ember", Hue: 18, Turbulence: 0.35},
			{Name: "drift", Hue: 120, SpawnRate: 2, EmitterRadius: 6},
		},
	}
}

func TestRegistryInheritance(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	comet, ok := r.Lookup("comet")
	if !ok {
		t.Fatal("comet not found")
	}
	// Zero scene fields inherit the base parameters.
	if comet.SpawnRate != 5 || comet.Turbulence != 0.2 || comet.EmitterRadius != 3 {
		t.Fatalf("comet inherited = %+v", comet)
	}

	ember, _ := r.Lookup("ember")
	if ember.Turbulence != 0.35 || ember.SpawnRate != 5 {
		t.Fatalf("ember override = %+v", ember)
	}

	drift, _ := r.Lookup("drift")
	if drift.SpawnRate != 2 || drift.EmitterRadius != 6 || drift.Turbulence != 0.2 {
		t.Fatalf("drift override = %+v", drift)
	}
}

func TestRegistryCycling(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Default().Name != "comet" {
		t.Fatalf("default = %q", r.Default().Name)
	}
	if n := r.Next("comet").Name; n != "ember" {
		t.Fatalf("after comet: %q", n)
	}
	if n := r.Next("drift").Name; n != "comet" {
		t.Fatalf("after drift should wrap: %q", n)
	}
	if n := r.Next("nope").Name; n != "comet" {
		t.Fatalf("unknown scene should restart: %q", n)
	}
}

func TestRegistryRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Scenes = nil
	if _, err := NewRegistry(cfg); err == nil {
		t.Fatal("empty scene list accepted")
	}

	cfg = testConfig()
	cfg.Scenes = append(cfg.Scenes, config.SceneConfig{Name: "comet"})
	if _, err := NewRegistry(cfg); err == nil {
		t.Fatal("duplicate scene name accepted")
	}

	cfg = testConfig()
	cfg.Scenes[0].Name = ""
	if _, err := NewRegistry(cfg); err == nil {
		t.Fatal("unnamed scene accepted")
	}
}

func TestPresetCoefficientOverride(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ember, _ := r.Lookup("ember")

	co := sim.Coefficients{
		BaseSpawnRate:  5,
		BassSpawnGain:  50,
		BaseTurbulence: 0.2,
		TimeScale:      1,
	}
	out := ember.Coefficients(co)
	if out.BaseTurbulence != 0.35 {
		t.Fatalf("turbulence = %v", out.BaseTurbulence)
	}
	// Gains pass through untouched.
	if out.BassSpawnGain != 50 || out.TimeScale != 1 {
		t.Fatalf("gains changed: %+v", out)
	}
}

func TestApplyToSwitchesWithoutReset(t *testing.T) {
	r, err := NewRegistry(testConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	eng, err := sim.NewEngine(sim.Options{PoolSize: 64, Workers: 1, Seed: 1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	// Seed some live particles, then switch scenes.
	co := sim.Coefficients{BaseSpawnRate: 10, TimeScale: 1}
	eng.SetCoefficients(co)
	eng.Tick(1.0/60, audio.Bands{})
	before := eng.State().Live()
	if before == 0 {
		t.Fatal("no particles spawned before switch")
	}

	ember, _ := r.Lookup("ember")
	ember.ApplyTo(eng)
	eng.SetCoefficients(ember.Coefficients(co))
	eng.Tick(1.0/60, audio.Bands{})

	// Live population survives the switch (spawning continues, nothing dies
	// instantly from a hue change).
	if after := eng.State().Live(); after < before {
		t.Fatalf("live dropped across scene switch: %d -> %d", before, after)
	}
}
