// Package config handles TOML configuration loading for the monitor
// daemon and CLI defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Monitor MonitorConfig `toml:"monitor"`
	History HistoryConfig `toml:"history"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// Path is the directory for logs and plan/rollback artifacts.
	Path string `toml:"path"`
}

type MonitorConfig struct {
	Roots           []RootConfig  `toml:"roots"`
	Apply           bool          `toml:"apply"`
	Staged          bool          `toml:"staged"`
	IncludeExisting bool          `toml:"include_existing"`
	Interval        time.Duration `toml:"interval"`
	SettleWindow    time.Duration `toml:"settle_window"`
	StateFile       string        `toml:"state_file"`
}

type RootConfig struct {
	Watch  string `toml:"watch"`
	Output string `toml:"output"`
}

type HistoryConfig struct {
	// Path of the sqlite journal. Empty disables the journal.
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			Path:  "./logs",
		},
		Monitor: MonitorConfig{
			Interval:     60 * time.Second,
			SettleWindow: 15 * time.Second,
		},
	}
}

// Load reads and validates a config file. Defaults apply for anything
// the file leaves unset.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigError{Path: path, Errors: []string{fmt.Sprintf("unknown keys: %v", keys)}}
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return &cfg, nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
