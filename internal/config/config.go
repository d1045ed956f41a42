// Package config loads and finalizes the service configuration from TOML
// files and environment variables. A base config.toml may be overlaid with a
// config.<env>.toml selected by PRECIS_ENV; environment variables override
// both.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/precislabs/precis/pkg/database"
	"github.com/precislabs/precis/pkg/docintel"
	"github.com/precislabs/precis/pkg/generation"
	"github.com/precislabs/precis/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPrecisEnv             = "PRECIS_ENV"
	EnvPrecisShutdownTimeout = "PRECIS_SHUTDOWN_TIMEOUT"
	EnvPrecisVersion         = "PRECIS_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PRECIS_DB_HOST",
	Port:            "PRECIS_DB_PORT",
	Name:            "PRECIS_DB_NAME",
	User:            "PRECIS_DB_USER",
	Password:        "PRECIS_DB_PASSWORD",
	SSLMode:         "PRECIS_DB_SSL_MODE",
	MaxOpenConns:    "PRECIS_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PRECIS_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PRECIS_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PRECIS_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PRECIS_STORAGE_CONTAINER_NAME",
	ConnectionString: "PRECIS_STORAGE_CONNECTION_STRING",
}

var analysisEnv = &docintel.Env{
	Endpoint:   "PRECIS_ANALYSIS_ENDPOINT",
	APIVersion: "PRECIS_ANALYSIS_API_VERSION",
	ModelID:    "PRECIS_ANALYSIS_MODEL_ID",
}

var generationEnv = &generation.Env{
	Endpoint:   "PRECIS_GENERATION_ENDPOINT",
	Deployment: "PRECIS_GENERATION_DEPLOYMENT",
}

// Config is the root configuration for the Precis service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Analysis        docintel.Config   `toml:"analysis"`
	Generation      generation.Config `toml:"generation"`
	Pipeline        PipelineConfig    `toml:"pipeline"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the PRECIS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPrecisEnv); env != "" {
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
	c.Analysis.Merge(&overlay.Analysis)
	c.Generation.Merge(&overlay.Generation)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
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
	if err := c.Analysis.Finalize(analysisEnv); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Generation.Finalize(generationEnv); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
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
	if v := os.Getenv(EnvPrecisShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPrecisVersion); v != "" {
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
	if env := os.Getenv(EnvPrecisEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
