package config

import "fmt"

// InfluxConfig is the optional benchmark result sink. When disabled, results
// only go to CSV and the text report.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// SetDefaults applies sane defaults.
func (c *InfluxConfig) SetDefaults() {}

// Validate checks mandatory fields when the sink is enabled.
func (c InfluxConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return fmt.Errorf("influx sink needs url, org and bucket")
	}
	return nil
}
