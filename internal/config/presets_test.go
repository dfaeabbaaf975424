package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()
	if len(presets) != 3 {
		t.Fatalf("len(DefaultPresets()) = %d, want 3", len(presets))
	}

	wantMeans := map[string]float64{
		"subcritical":   0.75,
		"supercritical": 1.25,
		"critical":      1.0,
	}
	for _, p := range presets {
		if err := p.Distribution().Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", p.Name, err)
		}
		mu := p.Distribution().Mean()
		if want := wantMeans[p.Name]; want == 0 || mu < want-1e-9 || mu > want+1e-9 {
			t.Errorf("preset %q mean = %v, want %v", p.Name, mu, wantMeans[p.Name])
		}
	}
}

func TestFindPreset(t *testing.T) {
	presets := DefaultPresets()

	if p, ok := FindPreset(presets, "critical"); !ok || p.Name != "critical" {
		t.Errorf("FindPreset(critical) = %+v, %v", p, ok)
	}
	if _, ok := FindPreset(presets, "nope"); ok {
		t.Error("FindPreset should miss unknown names")
	}
}

func TestLoadPresets_EmptyPathReturnsDefaults(t *testing.T) {
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets error: %v", err)
	}
	if len(presets) != len(DefaultPresets()) {
		t.Errorf("len = %d, want defaults only", len(presets))
	}
}

func TestLoadPresets_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - name: heavy-tail
    label: "custom (mu = 1.5)"
    probabilities: [0.25, 0.0, 0.75]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets error: %v", err)
	}

	p, ok := FindPreset(presets, "heavy-tail")
	if !ok {
		t.Fatal("loaded preset not found")
	}
	if mu := p.Distribution().Mean(); mu < 1.5-1e-9 || mu > 1.5+1e-9 {
		t.Errorf("mean = %v, want 1.5", mu)
	}
	// Defaults survive alongside the file's presets.
	if _, ok := FindPreset(presets, "subcritical"); !ok {
		t.Error("defaults should still be present")
	}
}

func TestLoadPresets_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPresets(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("want error for missing file")
		}
	})

	t.Run("bad distribution", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := `presets:
  - name: broken
    probabilities: [0.5, 0.1]
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPresets(path); err == nil {
			t.Error("want error for distribution not summing to 1")
		}
	})

	t.Run("missing name", func(t *testing.T) {
		path := filepath.Join(dir, "unnamed.yaml")
		content := `presets:
  - probabilities: [1.0]
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPresets(path); err == nil {
			t.Error("want error for preset without a name")
		}
	})
}
