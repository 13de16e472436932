package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsariola/patchbay/config"
)

func TestDefaultPreferences(t *testing.T) {
	p, err := config.ParsePreferences(nil)
	require.NoError(t, err)
	assert.Equal(t, 44100, p.Audio.SampleRate)
	assert.Equal(t, 512, p.Audio.BlockSize)
	assert.True(t, p.DefaultNodes)
	assert.Positive(t, p.Canvas.Width)
	assert.Positive(t, p.Canvas.Height)
}

func TestPreferencesOverride(t *testing.T) {
	p, err := config.ParsePreferences([]byte("audio:\n  samplerate: 48000\nmidi:\n  inputprefix: \"USB\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 48000, p.Audio.SampleRate)
	assert.Equal(t, 512, p.Audio.BlockSize, "fields not in the override keep their defaults")
	assert.Equal(t, "USB", p.MIDI.InputPrefix)
}

func TestPreferencesRejectsUnknownFields(t *testing.T) {
	_, err := config.ParsePreferences([]byte("colour: red\n"))
	assert.Error(t, err)
}

func TestPreferencesRejectsInvalidValues(t *testing.T) {
	_, err := config.ParsePreferences([]byte("audio:\n  blocksize: 0\n"))
	assert.Error(t, err)
}

func TestMakePreferencesWithoutUserFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	p := config.MakePreferences()
	assert.NoError(t, p.YmlError)
	assert.Equal(t, 44100, p.Audio.SampleRate)
}

func TestKeyMap(t *testing.T) {
	km, err := config.MakeKeyMap()
	require.NoError(t, err)
	a, ok := km.Action(config.KeyCombo{Key: "z", Ctrl: true})
	require.True(t, ok)
	assert.Equal(t, "Undo", a)
	a, ok = km.Action(config.KeyCombo{Key: "z", Ctrl: true, Shift: true})
	require.True(t, ok)
	assert.Equal(t, "Redo", a)
	_, ok = km.Action(config.KeyCombo{Key: "z"})
	assert.False(t, ok)
}

func TestKeyBindingsOverride(t *testing.T) {
	custom, err := config.ParseKeyBindings([]byte("- {key: \"x\", any: true, action: \"DeleteSelected\"}\n- {key: \"Delete\", action: \"Cancel\"}\n"))
	require.NoError(t, err)
	km := config.NewKeyMap(append([]config.KeyBinding{{Key: "Delete", Action: "DeleteSelected"}}, custom...))
	a, _ := km.Action(config.KeyCombo{Key: "Delete"})
	assert.Equal(t, "Cancel", a)
	a, _ = km.Action(config.KeyCombo{Key: "x", Shift: true})
	assert.Equal(t, "DeleteSelected", a)
}

func TestKeyBindingsRejectUnknownFields(t *testing.T) {
	_, err := config.ParseKeyBindings([]byte("- {key: \"x\", meta: true, action: \"Quit\"}\n"))
	assert.Error(t, err)
	_, err = config.ParseKeyBindings([]byte("- {key: \"x\"}\n"))
	assert.Error(t, err)
}
