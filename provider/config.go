package provider

import (
	"fmt"
	"net/http"
	"time"
)

// Config holds configuration for creating an LLM provider client.
type Config struct {
	// Model is the model to use (provider-specific name).
	// Examples: "gemini-2.5-pro", "gemini-2.0-flash"
	Model string `json:"model" yaml:"model" toml:"model"`

	// APIKey authenticates against the provider's API.
	// Required for the Gemini provider.
	APIKey string `json:"-" yaml:"-" toml:"-"`

	// BaseURL overrides the provider's API endpoint.
	// Empty uses the provider default. Useful for tests and proxies.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`

	// Timeout is the maximum duration for a single completion request.
	// 0 uses the provider default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// MaxRetries is how many times a transient failure is retried.
	// The initial attempt is not counted.
	MaxRetries int `json:"max_retries" yaml:"max_retries" toml:"max_retries"`

	// RetryDelay is the pause between retry attempts.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" toml:"retry_delay"`

	// HTTPClient overrides the underlying HTTP client. Nil uses a client
	// built from Timeout.
	HTTPClient *http.Client `json:"-" yaml:"-" toml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:    2 * time.Minute,
		MaxRetries: 1,
		RetryDelay: 2 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0, got %v", c.RetryDelay)
	}
	return nil
}

// WithModel returns a copy of the config with the specified model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithAPIKey returns a copy of the config with the specified API key.
func (c Config) WithAPIKey(key string) Config {
	c.APIKey = key
	return c
}
