package config

import (
	"fmt"
	"os"
	"strconv"
)

const EnvWorkflowConcurrency = "FACTURAE_WORKFLOW_CONCURRENCY"

// WorkflowConfig holds workflow execution parameters.
type WorkflowConfig struct {
	Concurrency int `toml:"concurrency"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *WorkflowConfig) loadDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
}

func (c *WorkflowConfig) loadEnv() {
	if v := os.Getenv(EnvWorkflowConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	return nil
}
