package settings

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Snapshot is a full replacement value for every parameter: the synchronizer
// never ships deltas, so applying the latest snapshot is always safe
// regardless of message ordering or drops.
type Snapshot struct {
	Floats  map[string]float64 `yaml:"floats,omitempty"`
	Bools   map[string]bool    `yaml:"bools,omitempty"`
	Strings map[string]string  `yaml:"strings,omitempty"`
}

// Snapshot captures the current value of every declared parameter.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Floats:  make(map[string]float64),
		Bools:   make(map[string]bool),
		Strings: make(map[string]string),
	}
	for _, name := range r.sortedNames() {
		p := r.params[name]
		switch p.Kind {
		case KindFloat:
			s.Floats[name] = p.floatVal
		case KindBool:
			s.Bools[name] = p.boolVal
		case KindString:
			s.Strings[name] = p.stringVal
		}
	}
	return s
}

// Apply overwrites declared parameters with snapshot values. Keys the
// receiving registry has not declared are ignored; the two surfaces may run
// different revisions briefly during a scene switch.
func (r *Registry) Apply(s Snapshot) {
	for name, v := range s.Floats {
		if p, ok := r.params[name]; ok && p.Kind == KindFloat {
			p.floatVal = clampRange(v, p.Min, p.Max)
		}
	}
	for name, v := range s.Bools {
		if p, ok := r.params[name]; ok && p.Kind == KindBool {
			p.boolVal = v
		}
	}
	for name, v := range s.Strings {
		if p, ok := r.params[name]; ok && p.Kind == KindString {
			p.stringVal = v
		}
	}
}

// Encode serializes a snapshot to YAML.
func (s Snapshot) Encode() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a YAML snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding settings snapshot: %w", err)
	}
	return s, nil
}
