package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type (
	KeyBinding struct {
		Key                   string
		Ctrl, Shift, Alt, Any bool
		Action                string
	}

	// KeyCombo identifies a key press; it is the lookup key of KeyMap.
	KeyCombo struct {
		Key              string
		Ctrl, Shift, Alt bool
	}

	KeyMap map[KeyCombo]string
)

//go:embed keybindings.yml
var defaultKeyBindingsYaml []byte

func loadDefaultKeyBindings() []KeyBinding {
	var keyBindings []KeyBinding
	dec := yaml.NewDecoder(bytes.NewReader(defaultKeyBindingsYaml))
	dec.KnownFields(true)
	if err := dec.Decode(&keyBindings); err != nil {
		panic(fmt.Errorf("failed to unmarshal keybindings: %w", err))
	}
	return keyBindings
}

// ParseKeyBindings decodes a list of key bindings; unknown fields are errors.
func ParseKeyBindings(b []byte) ([]KeyBinding, error) {
	var keyBindings []KeyBinding
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&keyBindings); err != nil {
		return nil, fmt.Errorf("invalid keybindings: %w", err)
	}
	for i, kb := range keyBindings {
		if kb.Key == "" || kb.Action == "" {
			return nil, fmt.Errorf("keybinding %d: key and action are required", i)
		}
	}
	return keyBindings, nil
}

// MakeKeyMap returns the default key bindings, with the user's
// keybindings.yml taking precedence. A broken user file is returned as the
// error together with the default map.
func MakeKeyMap() (KeyMap, error) {
	bindings := loadDefaultKeyBindings()
	path, err := ConfigPath("keybindings.yml")
	if err != nil {
		return NewKeyMap(bindings), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewKeyMap(bindings), nil
	}
	if err != nil {
		return NewKeyMap(bindings), err
	}
	custom, err := ParseKeyBindings(b)
	if err != nil {
		return NewKeyMap(bindings), err
	}
	return NewKeyMap(append(bindings, custom...)), nil
}

// NewKeyMap builds a lookup table; later bindings override earlier ones. A
// binding with Any set matches regardless of the shift state.
func NewKeyMap(bindings []KeyBinding) KeyMap {
	ret := KeyMap{}
	for _, kb := range bindings {
		combo := KeyCombo{Key: kb.Key, Ctrl: kb.Ctrl, Shift: kb.Shift, Alt: kb.Alt}
		ret[combo] = kb.Action
		if kb.Any {
			combo.Shift = !combo.Shift
			ret[combo] = kb.Action
		}
	}
	return ret
}

// Action returns the action bound to the key combination, if any.
func (m KeyMap) Action(c KeyCombo) (string, bool) {
	a, ok := m[c]
	return a, ok
}
