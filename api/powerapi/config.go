package powerapi

import "fmt"

// Config defines settings for the HTTP API.
type Config struct {
	// Addr is the listen address.
	Addr string `json:"addr"`
	// JWTSecret signs session tokens.
	JWTSecret string `json:"jwt_secret"`
	// TokenTTLHours bounds session token lifetime.
	TokenTTLHours int `json:"token_ttl_hours"`
	// AdminToken guards the reconcile endpoint when non-empty.
	AdminToken string `json:"admin_token"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("token_ttl_hours must be positive")
	}
	return nil
}
