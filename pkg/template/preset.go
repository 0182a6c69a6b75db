package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

//go:embed presets.toml
var builtinPresets []byte

// presetFile is the on-disk TOML layout of a preset collection.
type presetFile struct {
	Default string              `toml:"default"`
	Presets map[string]Template `toml:"presets"`
}

// Registry is a closed set of named, validated templates.
// A Registry is immutable after loading and safe for concurrent use.
type Registry struct {
	presets map[string]Template
	def     string
}

// LoadPresets decodes a TOML preset collection and validates every entry.
// Any preset with a blocking issue rejects the whole collection.
func LoadPresets(r io.Reader) (*Registry, error) {
	var f presetFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode presets")
	}
	if len(f.Presets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "preset file defines no presets")
	}

	reg := &Registry{presets: make(map[string]Template, len(f.Presets)), def: f.Default}
	for name, t := range f.Presets {
		if err := errors.ValidateName("preset name", name); err != nil {
			return nil, err
		}
		if err := Validate(t).Err(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		t.Name = name
		reg.presets[name] = t
	}
	if reg.def == "" {
		reg.def = reg.Names()[0]
	}
	if _, ok := reg.presets[reg.def]; !ok {
		return nil, errors.New(errors.ErrCodeUnknownPreset, "default preset %q is not defined", reg.def)
	}
	return reg, nil
}

// LoadPresetsFile loads a preset collection from path.
func LoadPresetsFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadPresets(f)
}

var builtin = sync.OnceValues(func() (*Registry, error) {
	return LoadPresets(bytes.NewReader(builtinPresets))
})

// Builtin returns the presets shipped with labelsheet.
func Builtin() *Registry {
	reg, err := builtin()
	if err != nil {
		panic(fmt.Sprintf("template: invalid built-in presets: %v", err))
	}
	return reg
}

// Get returns the preset with the given name.
func (r *Registry) Get(name string) (Template, error) {
	t, ok := r.presets[name]
	if !ok {
		return Template{}, errors.New(errors.ErrCodeUnknownPreset, "unknown preset %q", name)
	}
	return t, nil
}

// Default returns the default preset.
func (r *Registry) Default() Template {
	return r.presets[r.def]
}

// DefaultName returns the name of the default preset.
func (r *Registry) DefaultName() string {
	return r.def
}

// Names returns all preset names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns every preset sorted by name.
func (r *Registry) All() []Template {
	out := make([]Template, 0, len(r.presets))
	for _, name := range r.Names() {
		out = append(out, r.presets[name])
	}
	return out
}

// Merge returns a new registry holding r's presets overlaid by other's.
// The default of other wins when it is set.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := &Registry{presets: make(map[string]Template, len(r.presets)+len(other.presets)), def: r.def}
	for name, t := range r.presets {
		merged.presets[name] = t
	}
	for name, t := range other.presets {
		merged.presets[name] = t
	}
	if other.def != "" {
		merged.def = other.def
	}
	return merged
}
