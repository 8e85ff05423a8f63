package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	for i, root := range c.Monitor.Roots {
		if root.Watch == "" {
			errs = append(errs, fmt.Sprintf("monitor.roots[%d].watch: required", i))
		}
		if root.Output == "" {
			errs = append(errs, fmt.Sprintf("monitor.roots[%d].output: required", i))
		}
	}

	if c.Monitor.Interval < 0 {
		errs = append(errs, fmt.Sprintf("monitor.interval: must not be negative, got %s", c.Monitor.Interval))
	}
	if c.Monitor.SettleWindow < 0 {
		errs = append(errs, fmt.Sprintf("monitor.settle_window: must not be negative, got %s", c.Monitor.SettleWindow))
	}

	return errs
}
