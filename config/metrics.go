package config

import "fmt"

// MetricsConfig controls the Prometheus progress endpoint served while a
// solve or benchmark runs.
type MetricsConfig struct {
	// Enabled starts an HTTP listener exporting live solver progress.
	Enabled bool `json:"enabled"`
	// Listen is the address for the /metrics endpoint.
	Listen string `json:"listen"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":2112"
	}
}

// Validate checks mandatory fields.
func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Listen == "" {
		return fmt.Errorf("metrics listen address is required")
	}
	return nil
}
