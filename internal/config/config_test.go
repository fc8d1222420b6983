package config_test

import (
	"testing"

	"github.com/rsanzante/facturae-pipeline/internal/config"
)

func TestServerConfigDefaults(t *testing.T) {
	cfg := config.ServerConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"host", cfg.Host, "0.0.0.0"},
		{"port", cfg.Port, 8080},
		{"read_timeout", cfg.ReadTimeout, "1m"},
		{"write_timeout", cfg.WriteTimeout, "2m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestServerConfigValidation(t *testing.T) {
	cfg := config.ServerConfig{Port: 70000}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected invalid port error")
	}

	cfg = config.ServerConfig{ReadTimeout: "soon"}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected invalid read_timeout error")
	}
}

func TestServerConfigEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvServerHost, "127.0.0.1")
	t.Setenv(config.EnvServerPort, "9090")

	cfg := config.ServerConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("addr: got %q", cfg.Addr())
	}
}

func TestWorkflowConfigDefaults(t *testing.T) {
	cfg := config.WorkflowConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("concurrency default: got %d", cfg.Concurrency)
	}
}

func TestWorkflowConfigEnvOverride(t *testing.T) {
	t.Setenv(config.EnvWorkflowConcurrency, "8")

	cfg := config.WorkflowConfig{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("concurrency: got %d", cfg.Concurrency)
	}
}

func TestWorkflowConfigValidation(t *testing.T) {
	cfg := config.WorkflowConfig{Concurrency: -1}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected invalid concurrency error")
	}
}

func TestWorkflowConfigMerge(t *testing.T) {
	cfg := config.WorkflowConfig{Concurrency: 4}
	cfg.Merge(&config.WorkflowConfig{Concurrency: 16})
	if cfg.Concurrency != 16 {
		t.Errorf("concurrency: got %d", cfg.Concurrency)
	}
}
