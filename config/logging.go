package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	// Dev switches to human-readable console output instead of JSON.
	Dev bool `json:"dev"`
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level spelling.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	return nil
}
