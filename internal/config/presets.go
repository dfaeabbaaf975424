package config

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/styvesb/probsim/internal/branching"
	apperrors "github.com/styvesb/probsim/internal/errors"
)

// Preset is a named offspring distribution.
type Preset struct {
	// Name is the identifier used with --preset.
	Name string `yaml:"name"`
	// Label is the human-readable description shown in menus and tables.
	Label string `yaml:"label"`
	// Probabilities is the offspring distribution indexed by offspring count.
	Probabilities []float64 `yaml:"probabilities"`
}

// Distribution returns the preset's probabilities as a branching.Distribution.
func (p Preset) Distribution() branching.Distribution {
	return branching.Distribution(p.Probabilities)
}

type presetsFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets returns the built-in distributions of the reference
// implementation: one subcritical, one supercritical, one critical.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "subcritical", Label: "D1 (mu = 0.75)", Probabilities: []float64{0.50, 0.25, 0.25}},
		{Name: "supercritical", Label: "D2 (mu = 1.25)", Probabilities: []float64{0.25, 0.25, 0.50}},
		{Name: "critical", Label: "D3 (mu = 1.00)", Probabilities: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
	}
}

// LoadPresets reads additional presets from a YAML file and appends them to
// the defaults. Every preset must carry a name and a valid distribution.
func LoadPresets(path string) ([]Preset, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapError(err, "read presets file %q", path)
	}
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.WrapError(err, "parse presets file %q", path)
	}

	for _, p := range file.Presets {
		if p.Name == "" {
			return nil, apperrors.NewConfigError("preset in %q is missing a name", path)
		}
		if err := p.Distribution().Validate(); err != nil {
			return nil, apperrors.WrapError(err, "preset %q in %q", p.Name, path)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// FindPreset looks a preset up by name.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
