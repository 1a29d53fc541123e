package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	n := cfg.Particles.Count
	if n <= 0 || n&(n-1) != 0 {
		t.Errorf("default particle count %d is not a power of two", n)
	}
	if cfg.Screen.TargetFPS <= 0 {
		t.Errorf("target fps = %d", cfg.Screen.TargetFPS)
	}
	if cfg.Stream.Resolution != "720p" && cfg.Stream.Resolution != "1080p" {
		t.Errorf("default resolution = %q", cfg.Stream.Resolution)
	}
	if len(cfg.Scenes) == 0 {
		t.Fatal("no scenes after load")
	}
	if len(cfg.Derived.SceneIndex) != len(cfg.Scenes) {
		t.Errorf("scene index has %d entries for %d scenes",
			len(cfg.Derived.SceneIndex), len(cfg.Scenes))
	}
	for i, s := range cfg.Scenes {
		if cfg.Derived.SceneIndex[s.Name] != i {
			t.Errorf("scene index[%q] = %d, want %d", s.Name, cfg.Derived.SceneIndex[s.Name], i)
		}
	}
}

func TestLoadUserOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("particles:\n  count: 1024\nstream:\n  resolution: 1080p\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Count != 1024 {
		t.Errorf("count = %d, want override 1024", cfg.Particles.Count)
	}
	if cfg.Stream.Resolution != "1080p" {
		t.Errorf("resolution = %q, want 1080p", cfg.Stream.Resolution)
	}
	// Untouched fields keep their defaults.
	if cfg.Screen.TargetFPS <= 0 {
		t.Errorf("default target fps lost: %d", cfg.Screen.TargetFPS)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"count not power of two", "particles:\n  count: 1000\n"},
		{"count zero", "particles:\n  count: 0\n"},
		{"friction one", "particles:\n  friction: 1.0\n"},
		{"friction negative", "particles:\n  friction: -0.1\n"},
		{"bad resolution", "stream:\n  resolution: 4k\n"},
		{"negative frame skip", "stream:\n  frame_skip: -1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("config accepted:\n%s", tc.yaml)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Particles.Count = 2048

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Particles.Count != 2048 {
		t.Errorf("count after round trip = %d", back.Particles.Count)
	}
}
