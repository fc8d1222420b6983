package storage

import (
	"fmt"
	"os"
	"time"
)

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	ConnectionString string `toml:"connection_string"`
	SASExpiry        string `toml:"sas_expiry"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ConnectionString string
	SASExpiry        string
}

// SASExpiryDuration returns SASExpiry as a time.Duration.
func (c *Config) SASExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.SASExpiry)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.SASExpiry != "" {
		c.SASExpiry = overlay.SASExpiry
	}
}

func (c *Config) loadDefaults() {
	if c.SASExpiry == "" {
		c.SASExpiry = "15m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.SASExpiry != "" {
		if v := os.Getenv(env.SASExpiry); v != "" {
			c.SASExpiry = v
		}
	}
}

func (c *Config) validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	if _, err := time.ParseDuration(c.SASExpiry); err != nil {
		return fmt.Errorf("invalid sas_expiry: %w", err)
	}
	return nil
}
