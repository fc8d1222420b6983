package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rsanzante/facturae-pipeline/internal/analyzer"
	"github.com/rsanzante/facturae-pipeline/internal/mapping"
	"github.com/rsanzante/facturae-pipeline/internal/signer"
	"github.com/rsanzante/facturae-pipeline/pkg/database"
	"github.com/rsanzante/facturae-pipeline/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFacturaeEnv             = "FACTURAE_ENV"
	EnvFacturaeShutdownTimeout = "FACTURAE_SHUTDOWN_TIMEOUT"
	EnvFacturaeVersion         = "FACTURAE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "FACTURAE_DB_HOST",
	Port:            "FACTURAE_DB_PORT",
	Name:            "FACTURAE_DB_NAME",
	User:            "FACTURAE_DB_USER",
	Password:        "FACTURAE_DB_PASSWORD",
	SSLMode:         "FACTURAE_DB_SSL_MODE",
	ConnMaxLifetime: "FACTURAE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "FACTURAE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ConnectionString: "FACTURAE_STORAGE_CONNECTION_STRING",
	SASExpiry:        "FACTURAE_STORAGE_SAS_EXPIRY",
}

var analyzerEnv = &analyzer.Env{
	Endpoint: "FACTURAE_ANALYZER_ENDPOINT",
	APIKey:   "FACTURAE_ANALYZER_API_KEY",
}

var signerEnv = &signer.Env{
	VaultURL:            "FACTURAE_SIGNER_VAULT_URL",
	CertificatePassword: "FACTURAE_SIGNER_CERTIFICATE_PASSWORD",
	ServiceURL:          "FACTURAE_SIGNER_SERVICE_URL",
}

var issuerEnv = &mapping.Env{
	TaxNumber:     "FACTURAE_ISSUER_TAX_NUMBER",
	CorporateName: "FACTURAE_ISSUER_CORPORATE_NAME",
}

// Config is the root configuration for the invoice pipeline service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Analyzer        analyzer.Config `toml:"analyzer"`
	Signer          signer.Config   `toml:"signer"`
	Issuer          mapping.Config  `toml:"issuer"`
	Workflow        WorkflowConfig  `toml:"workflow"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the FACTURAE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFacturaeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Analyzer.Merge(&overlay.Analyzer)
	c.Signer.Merge(&overlay.Signer)
	c.Issuer.Merge(&overlay.Issuer)
	c.Workflow.Merge(&overlay.Workflow)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Analyzer.Finalize(analyzerEnv); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Signer.Finalize(signerEnv); err != nil {
		return fmt.Errorf("signer: %w", err)
	}
	if err := c.Issuer.Finalize(issuerEnv); err != nil {
		return fmt.Errorf("issuer: %w", err)
	}
	if err := c.Workflow.Finalize(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFacturaeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvFacturaeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvFacturaeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
