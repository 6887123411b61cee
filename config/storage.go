package config

import "fmt"

// StorageConfig defines settings for the SQLite store.
type StorageConfig struct {
	// Path is the database file location.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "gridlog.db"
	}
}

// Validate checks mandatory fields.
func (c StorageConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
