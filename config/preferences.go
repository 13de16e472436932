// Package config loads the user preferences and key bindings. Both have
// embedded defaults, which the user can override with files in
// <UserConfigDir>/patchbay.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		Canvas CanvasPreferences
		Audio  AudioPreferences
		MIDI   MIDIPreferences `yaml:"midi"`
		// LogFile is where the editor logs while the terminal is in use; empty
		// disables logging.
		LogFile string `yaml:"logfile"`
		// DefaultNodes makes new graphs start with the audio input, MIDI input
		// and audio output nodes.
		DefaultNodes bool `yaml:"defaultnodes"`

		YmlError error `yaml:"-"`
	}

	CanvasPreferences struct {
		Width  int
		Height int
	}

	AudioPreferences struct {
		Enabled    bool
		SampleRate int `yaml:"samplerate"`
		BlockSize  int `yaml:"blocksize"`
	}

	MIDIPreferences struct {
		// InputPrefix opens the first MIDI input whose name starts with it;
		// empty means no MIDI input.
		InputPrefix string `yaml:"inputprefix"`
	}
)

const configDirName = "patchbay"

//go:embed preferences.yml
var defaultPreferencesYaml []byte

func loadDefaultPreferences() Preferences {
	var preferences Preferences
	err := yaml.UnmarshalStrict(defaultPreferencesYaml, &preferences)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal preferences: %w", err))
	}
	return preferences
}

// ConfigPath returns the path of a configuration file in the user
// configuration directory.
func ConfigPath(filename string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configDirName, filename), nil
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer.
// exists is false if the user has no such configuration file.
func ReadCustomConfigYml(filename string, target any) (exists bool, err error) {
	path, err := ConfigPath(filename)
	if err != nil {
		return false, err
	}
	bytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	return true, yaml.UnmarshalStrict(bytes, target)
}

// MakePreferences returns the default preferences overridden with the user's
// preferences.yml. A broken user file is reported in YmlError and the
// defaults are used for whatever could not be read.
func MakePreferences() Preferences {
	preferences := loadDefaultPreferences()
	exists, err := ReadCustomConfigYml("preferences.yml", &preferences)
	if exists {
		preferences.YmlError = err
	}
	return preferences
}

// ParsePreferences overrides the default preferences with the given YAML.
func ParsePreferences(b []byte) (Preferences, error) {
	preferences := loadDefaultPreferences()
	if err := yaml.UnmarshalStrict(b, &preferences); err != nil {
		return preferences, fmt.Errorf("invalid preferences: %w", err)
	}
	if err := preferences.validate(); err != nil {
		return preferences, err
	}
	return preferences, nil
}

func (p Preferences) validate() error {
	if p.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", p.Audio.SampleRate)
	}
	if p.Audio.BlockSize <= 0 {
		return fmt.Errorf("invalid block size %d", p.Audio.BlockSize)
	}
	return nil
}
