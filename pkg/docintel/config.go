package docintel

import (
	"fmt"
	"os"
	"time"
)

// Config holds Azure Document Intelligence connection parameters.
type Config struct {
	Endpoint     string `toml:"endpoint"`
	APIVersion   string `toml:"api_version"`
	ModelID      string `toml:"model_id"`
	PollInterval string `toml:"poll_interval"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint   string
	APIVersion string
	ModelID    string
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
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
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.ModelID != "" {
		c.ModelID = overlay.ModelID
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
}

func (c *Config) loadDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = "2024-11-30"
	}
	if c.ModelID == "" {
		c.ModelID = "prebuilt-read"
	}
	if c.PollInterval == "" {
		c.PollInterval = "2s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.APIVersion != "" {
		if v := os.Getenv(env.APIVersion); v != "" {
			c.APIVersion = v
		}
	}
	if env.ModelID != "" {
		if v := os.Getenv(env.ModelID); v != "" {
			c.ModelID = v
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	return nil
}
