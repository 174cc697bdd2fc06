package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk CLI configuration, read from a TOML file at
// ~/.config/pinlabel/config.toml (or $XDG_CONFIG_HOME/pinlabel/config.toml).
// All fields are optional; command-line flags override file values.
//
// Example:
//
//	[layout]
//	viewport_width = 1280
//	viewport_height = 800
//	padding = 2.0
//	max_visible = 100
//
//	[scheduler]
//	throttle_ms = 250
//	only_when_zooming = false
//
//	[emphasis]
//	boost = 2.0
//	outside_opacity = 0.4
type Config struct {
	Layout    LayoutConfig    `toml:"layout"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Emphasis  EmphasisConfig  `toml:"emphasis"`
}

// LayoutConfig holds layout command defaults.
type LayoutConfig struct {
	ViewportWidth  float64 `toml:"viewport_width"`
	ViewportHeight float64 `toml:"viewport_height"`
	Padding        float64 `toml:"padding"`
	MaxVisible     int     `toml:"max_visible"`
	NoCollisions   bool    `toml:"no_collisions"`

	// MinZoom is the default minimum zoom for layers that do not set one.
	MinZoom float64 `toml:"min_zoom"`
}

// SchedulerConfig holds simulate command defaults.
type SchedulerConfig struct {
	ThrottleMS      int  `toml:"throttle_ms"`
	OnlyWhenZooming bool `toml:"only_when_zooming"`
	MaxPerLayer     int  `toml:"max_per_layer"`
}

// EmphasisConfig holds emphasize command defaults.
type EmphasisConfig struct {
	Boost          float64 `toml:"boost"`
	OutsideOpacity float64 `toml:"outside_opacity"`

	// Palette is a list of hex colors ("#RRGGBB") used to recolor labels
	// inside the emphasis extent.
	Palette []string `toml:"palette"`
}

// DefaultConfigPath returns the standard config file location using XDG
// conventions. The file does not have to exist.
func DefaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// LoadConfig reads a TOML config file. A missing or empty path yields the
// zero config without error; a malformed file yields the zero config and an
// error so callers can warn without aborting.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
