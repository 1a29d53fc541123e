// Package settings is the flat runtime parameter boundary: named numeric,
// boolean, and string parameters with declared ranges/options. The UI writes
// them, the simulation reads current values each tick, and the synchronizer
// ships full snapshots to the offscreen surface.
package settings

import (
	"fmt"
	"sort"
)

// Kind discriminates parameter types.
type Kind int

const (
	KindFloat Kind = iota
	KindBool
	KindString
)

// Param is one declared parameter.
type Param struct {
	Name    string
	Kind    Kind
	Min     float64  // KindFloat only
	Max     float64  // KindFloat only
	Options []string // KindString only; empty = free-form

	floatVal  float64
	boolVal   bool
	stringVal string
}

// Registry owns the parameter set. Not safe for concurrent use; both
// surfaces run single-threaded ticks and never share a registry.
type Registry struct {
	params map[string]*Param
	names  []string // declaration order
	dirty  bool     // set on any mutation, cleared by TakeDirty
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{params: make(map[string]*Param)}
}

// DeclareFloat registers a numeric parameter with bounds and a default.
func (r *Registry) DeclareFloat(name string, def, min, max float64) {
	r.declare(&Param{Name: name, Kind: KindFloat, Min: min, Max: max, floatVal: clampRange(def, min, max)})
}

// DeclareBool registers a boolean parameter.
func (r *Registry) DeclareBool(name string, def bool) {
	r.declare(&Param{Name: name, Kind: KindBool, boolVal: def})
}

// DeclareString registers a string parameter with optional allowed values.
func (r *Registry) DeclareString(name, def string, options ...string) {
	r.declare(&Param{Name: name, Kind: KindString, Options: options, stringVal: def})
}

func (r *Registry) declare(p *Param) {
	if _, exists := r.params[p.Name]; !exists {
		r.names = append(r.names, p.Name)
	}
	r.params[p.Name] = p
}

// Float returns the current value of a numeric parameter (0 if undeclared).
func (r *Registry) Float(name string) float64 {
	if p, ok := r.params[name]; ok && p.Kind == KindFloat {
		return p.floatVal
	}
	return 0
}

// Bool returns the current value of a boolean parameter.
func (r *Registry) Bool(name string) bool {
	if p, ok := r.params[name]; ok && p.Kind == KindBool {
		return p.boolVal
	}
	return false
}

// String returns the current value of a string parameter.
func (r *Registry) String(name string) string {
	if p, ok := r.params[name]; ok && p.Kind == KindString {
		return p.stringVal
	}
	return ""
}

// SetFloat updates a numeric parameter, clamping into its declared range.
func (r *Registry) SetFloat(name string, v float64) error {
	p, ok := r.params[name]
	if !ok || p.Kind != KindFloat {
		return fmt.Errorf("settings: no float parameter %q", name)
	}
	nv := clampRange(v, p.Min, p.Max)
	if nv != p.floatVal {
		p.floatVal = nv
		r.dirty = true
	}
	return nil
}

// SetBool updates a boolean parameter.
func (r *Registry) SetBool(name string, v bool) error {
	p, ok := r.params[name]
	if !ok || p.Kind != KindBool {
		return fmt.Errorf("settings: no bool parameter %q", name)
	}
	if v != p.boolVal {
		p.boolVal = v
		r.dirty = true
	}
	return nil
}

// SetString updates a string parameter. Values outside the declared options
// are rejected.
func (r *Registry) SetString(name, v string) error {
	p, ok := r.params[name]
	if !ok || p.Kind != KindString {
		return fmt.Errorf("settings: no string parameter %q", name)
	}
	if len(p.Options) > 0 && !contains(p.Options, v) {
		return fmt.Errorf("settings: %q is not a valid option for %q", v, name)
	}
	if v != p.stringVal {
		p.stringVal = v
		r.dirty = true
	}
	return nil
}

// Lookup returns the declaration for a parameter, for UI range display.
func (r *Registry) Lookup(name string) (Param, bool) {
	p, ok := r.params[name]
	if !ok {
		return Param{}, false
	}
	return *p, true
}

// Names returns parameter names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// TakeDirty reports whether any parameter changed since the last call and
// resets the flag. The interactive surface uses this to decide when to send
// a settings snapshot.
func (r *Registry) TakeDirty() bool {
	d := r.dirty
	r.dirty = false
	return d
}

func clampRange(v, min, max float64) float64 {
	if max > min {
		if v < min {
			return min
		}
		if v > max {
			return max
		}
	}
	return v
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// sortedNames returns names sorted, for deterministic snapshot encoding.
func (r *Registry) sortedNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	sort.Strings(out)
	return out
}
