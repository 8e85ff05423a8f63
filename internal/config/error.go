package config

import (
	"fmt"
	"strings"
)

// ConfigError aggregates configuration errors.
type ConfigError struct {
	Path   string   // Config file path
	Errors []string // Validation errors
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("config %s: validation failed:", e.Path)}
	for _, err := range e.Errors {
		parts = append(parts, fmt.Sprintf("  - %s", err))
	}
	return strings.Join(parts, "\n")
}
