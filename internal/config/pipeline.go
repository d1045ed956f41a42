package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/precislabs/precis/pkg/formatting"
	"github.com/precislabs/precis/pkg/retry"
)

const (
	EnvPipelineStorageRoot     = "PRECIS_PIPELINE_STORAGE_ROOT"
	EnvPipelineCallbackBaseURL = "PRECIS_PIPELINE_CALLBACK_BASE_URL"
	EnvPipelineTruncationCap   = "PRECIS_PIPELINE_TRUNCATION_CAP"
	EnvPipelineMaxDocumentSize = "PRECIS_PIPELINE_MAX_DOCUMENT_SIZE"

	EnvRetryMaxAttempts   = "PRECIS_RETRY_MAX_ATTEMPTS"
	EnvRetryBaseDelay     = "PRECIS_RETRY_BASE_DELAY"
	EnvRetryBackoffFactor = "PRECIS_RETRY_BACKOFF_FACTOR"
	EnvRetryMaxDelay      = "PRECIS_RETRY_MAX_DELAY"
)

// PipelineConfig holds document summarization pipeline settings.
type PipelineConfig struct {
	StorageRoot     string      `toml:"storage_root"`
	CallbackBaseURL string      `toml:"callback_base_url"`
	TruncationCap   int         `toml:"truncation_cap"`
	MaxDocumentSize string      `toml:"max_document_size"`
	Retry           RetryConfig `toml:"retry"`
}

// MaxDocumentSizeBytes returns MaxDocumentSize as a byte count.
func (c *PipelineConfig) MaxDocumentSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	return c.Retry.Finalize()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.StorageRoot != "" {
		c.StorageRoot = overlay.StorageRoot
	}
	if overlay.CallbackBaseURL != "" {
		c.CallbackBaseURL = overlay.CallbackBaseURL
	}
	if overlay.TruncationCap != 0 {
		c.TruncationCap = overlay.TruncationCap
	}
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
	c.Retry.Merge(&overlay.Retry)
}

func (c *PipelineConfig) loadDefaults() {
	if c.TruncationCap == 0 {
		c.TruncationCap = 60000
	}
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "50MB"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineStorageRoot); v != "" {
		c.StorageRoot = v
	}
	if v := os.Getenv(EnvPipelineCallbackBaseURL); v != "" {
		c.CallbackBaseURL = v
	}
	if v := os.Getenv(EnvPipelineTruncationCap); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TruncationCap = n
		}
	}
	if v := os.Getenv(EnvPipelineMaxDocumentSize); v != "" {
		c.MaxDocumentSize = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.StorageRoot == "" {
		return fmt.Errorf("storage_root required")
	}
	if c.CallbackBaseURL == "" {
		return fmt.Errorf("callback_base_url required")
	}
	if c.TruncationCap < 1 {
		return fmt.Errorf("truncation_cap must be positive")
	}
	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	return nil
}

// RetryConfig holds the activity retry policy in TOML-friendly form.
type RetryConfig struct {
	MaxAttempts   int     `toml:"max_attempts"`
	BaseDelay     string  `toml:"base_delay"`
	BackoffFactor float64 `toml:"backoff_factor"`
	MaxDelay      string  `toml:"max_delay"`
}

// Policy converts the config to a retry.Policy. Call after Finalize.
func (c *RetryConfig) Policy() retry.Policy {
	base, _ := time.ParseDuration(c.BaseDelay)
	max, _ := time.ParseDuration(c.MaxDelay)
	return retry.Policy{
		MaxAttempts:   c.MaxAttempts,
		BaseDelay:     base,
		BackoffFactor: c.BackoffFactor,
		MaxDelay:      max,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RetryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RetryConfig) Merge(overlay *RetryConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.BackoffFactor != 0 {
		c.BackoffFactor = overlay.BackoffFactor
	}
	if overlay.MaxDelay != "" {
		c.MaxDelay = overlay.MaxDelay
	}
}

func (c *RetryConfig) loadDefaults() {
	defaults := retry.Default()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.BaseDelay == "" {
		c.BaseDelay = defaults.BaseDelay.String()
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = defaults.BackoffFactor
	}
	if c.MaxDelay == "" {
		c.MaxDelay = defaults.MaxDelay.String()
	}
}

func (c *RetryConfig) loadEnv() {
	if v := os.Getenv(EnvRetryMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(EnvRetryBaseDelay); v != "" {
		c.BaseDelay = v
	}
	if v := os.Getenv(EnvRetryBackoffFactor); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BackoffFactor = f
		}
	}
	if v := os.Getenv(EnvRetryMaxDelay); v != "" {
		c.MaxDelay = v
	}
}

func (c *RetryConfig) validate() error {
	if _, err := time.ParseDuration(c.BaseDelay); err != nil {
		return fmt.Errorf("invalid base_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxDelay); err != nil {
		return fmt.Errorf("invalid max_delay: %w", err)
	}
	return c.Policy().Validate()
}
