package anim

import (
	_ "embed"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/teranos/HUD/errors"
)

//go:embed effects.toml
var embeddedDefinitions []byte

// Definition describes how one effect renders: how long it holds the
// play slot, and the palette and particle budget the viewer uses.
type Definition struct {
	DurationMs  int      `toml:"duration_ms" json:"duration_ms"`
	Palette     []string `toml:"palette" json:"palette"`
	Particles   int      `toml:"particles" json:"particles"`
	Description string   `toml:"description" json:"description,omitempty"`
}

// Registry maps effects to their definitions.
type Registry map[Effect]Definition

// LoadDefinitions returns the embedded effect registry, with sections
// from overridePath (when non-empty) layered on top. Effects missing
// from the override keep their embedded definition; an effect name the
// registry does not know is rejected.
func LoadDefinitions(overridePath string) (Registry, error) {
	reg, err := decodeDefinitions(embeddedDefinitions)
	if err != nil {
		return nil, errors.Wrap(err, "embedded effect definitions are broken")
	}

	if overridePath == "" {
		return reg, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read effect definitions from %s", overridePath)
	}
	overrides, err := decodeDefinitions(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse effect definitions from %s", overridePath)
	}

	for effect, def := range overrides {
		if _, known := reg[effect]; !known {
			return nil, errors.Newf("unknown effect %q in %s", effect, overridePath)
		}
		reg[effect] = def
	}
	return reg, nil
}

func decodeDefinitions(data []byte) (Registry, error) {
	raw := make(map[string]Definition)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	reg := make(Registry, len(raw))
	for name, def := range raw {
		if def.DurationMs < 0 {
			return nil, errors.Newf("effect %q has negative duration_ms %d", name, def.DurationMs)
		}
		reg[Effect(name)] = def
	}
	return reg, nil
}

// Get returns the definition for an effect, falling back to the redraw
// definition for anything unknown.
func (r Registry) Get(effect Effect) Definition {
	if def, ok := r[effect]; ok {
		return def
	}
	return r[EffectRedraw]
}
