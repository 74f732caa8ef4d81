package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ClockInputConfig selects the MIDI clock source
type ClockInputConfig struct {
	PortName    string `json:"portName,omitempty"` // substring match; empty = first input
	AutoConnect bool   `json:"autoConnect"`
}

// SynthOutputConfig defines where modulation values are sent
type SynthOutputConfig struct {
	PortName string           `json:"portName,omitempty"`
	Channel  int              `json:"channel,omitempty"` // 1-16
	CCMap    map[string]uint8 `json:"ccMap,omitempty"`   // destination id -> CC override
}

// UIConfig stores UI preferences
type UIConfig struct {
	FocusedOsc string `json:"focusedOsc,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	ClockInput  ClockInputConfig  `json:"clockInput,omitempty"`
	SynthOutput SynthOutputConfig `json:"synthOutput,omitempty"`
	UI          UIConfig          `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ClockInput: ClockInputConfig{
			AutoConnect: true,
		},
		SynthOutput: SynthOutputConfig{
			Channel: 1,
		},
		UI: UIConfig{
			FocusedOsc: "lfo1",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-modulate"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PresetsPath returns the full path to the preset store file
func PresetsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "presets.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.SynthOutput.Channel < 1 || cfg.SynthOutput.Channel > 16 {
		cfg.SynthOutput.Channel = 1
	}
	if cfg.UI.FocusedOsc == "" {
		cfg.UI.FocusedOsc = "lfo1"
	}
	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
