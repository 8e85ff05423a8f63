package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./tidyarr.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tidyarr", "config.toml")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. TIDYARR_CONFIG environment variable
//  2. ./tidyarr.toml (current directory)
//  3. $XDG_CONFIG_HOME/tidyarr/config.toml
//  4. /etc/tidyarr/config.toml
//
// Returns "" (no error) when nothing is found; the built-in defaults
// apply in that case.
func Discover() (string, error) {
	if envPath := os.Getenv("TIDYARR_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("TIDYARR_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./tidyarr.toml",
		DefaultPath(),
		"/etc/tidyarr/config.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}
