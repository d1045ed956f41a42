package generation

import (
	"fmt"
	"os"
)

// Config holds Azure OpenAI connection parameters.
type Config struct {
	Endpoint   string `toml:"endpoint"`
	Deployment string `toml:"deployment"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint   string
	Deployment string
}

// Finalize applies environment variable overrides and validation.
func (c *Config) Finalize(env *Env) error {
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
	if overlay.Deployment != "" {
		c.Deployment = overlay.Deployment
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.Deployment != "" {
		if v := os.Getenv(env.Deployment); v != "" {
			c.Deployment = v
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if c.Deployment == "" {
		return fmt.Errorf("deployment required")
	}
	return nil
}
