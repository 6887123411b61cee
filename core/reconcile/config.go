package reconcile

import "fmt"

// Config defines settings for the periodic reconciliation loop.
type Config struct {
	// Enabled starts the loop with the service when true.
	Enabled bool `json:"enabled"`
	// IntervalSeconds is the sleep between ticks.
	IntervalSeconds int `json:"interval_seconds"`
	// InitialDelaySeconds postpones the first tick.
	InitialDelaySeconds int `json:"initial_delay_seconds"`
	// MaxIterations stops the loop after that many ticks; zero runs forever.
	MaxIterations int `json:"max_iterations"`
	// DryRun makes every tick count events without persisting them.
	DryRun bool `json:"dry_run"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 3600
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive")
	}
	if c.InitialDelaySeconds < 0 {
		return fmt.Errorf("initial_delay_seconds must not be negative")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	return nil
}
