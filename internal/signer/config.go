package signer

import (
	"fmt"
	"os"
	"time"
)

// Config controls certificate retrieval and the signature service client.
type Config struct {
	VaultURL            string `toml:"vault_url"`
	CertificateSecret   string `toml:"certificate_secret"`
	CertificatePassword string `toml:"certificate_password"`
	ServiceURL          string `toml:"service_url"`
	Timeout             string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	VaultURL            string
	CertificatePassword string
	ServiceURL          string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.VaultURL != "" {
		c.VaultURL = overlay.VaultURL
	}
	if overlay.CertificateSecret != "" {
		c.CertificateSecret = overlay.CertificateSecret
	}
	if overlay.CertificatePassword != "" {
		c.CertificatePassword = overlay.CertificatePassword
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "1m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.VaultURL != "" {
		if v := os.Getenv(env.VaultURL); v != "" {
			c.VaultURL = v
		}
	}
	if env.CertificatePassword != "" {
		if v := os.Getenv(env.CertificatePassword); v != "" {
			c.CertificatePassword = v
		}
	}
	if env.ServiceURL != "" {
		if v := os.Getenv(env.ServiceURL); v != "" {
			c.ServiceURL = v
		}
	}
}

func (c *Config) validate() error {
	if c.VaultURL == "" {
		return fmt.Errorf("vault_url required")
	}
	if c.CertificateSecret == "" {
		return fmt.Errorf("certificate_secret required")
	}
	if c.ServiceURL == "" {
		return fmt.Errorf("service_url required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// TimeoutDuration returns the validated signing timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}
