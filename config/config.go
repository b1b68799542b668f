// Package config loads tool settings from TOML or YAML files and from
// FILESMITH_* environment variables.
//
// Precedence, lowest to highest: built-in defaults, config file,
// environment. The API key itself never lives in a config file; the file
// names the environment variable that holds it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/filesmith/filesmith/provider"
)

// Git holds the optional git integration settings.
type Git struct {
	// Branch is the branch created before writing files.
	// Empty means write onto the current branch.
	Branch string `toml:"branch" yaml:"branch"`

	// Commit stages and commits all written files after a clean run.
	Commit bool `toml:"commit" yaml:"commit"`

	// Push pushes the commit to Remote. Implies nothing unless Commit is set.
	Push bool `toml:"push" yaml:"push"`

	// Remote is the push target. Default: "origin".
	Remote string `toml:"remote" yaml:"remote"`
}

// Settings is the tool's full configuration.
type Settings struct {
	// Provider selects the LLM backend. Values: "gemini", "mock".
	Provider string `toml:"provider" yaml:"provider"`

	// Model is the model name passed to the provider.
	Model string `toml:"model" yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`

	// Format is the payload format the model is instructed to emit.
	// Values: "json", "yaml".
	Format string `toml:"format" yaml:"format"`

	// Temperature for completion requests.
	Temperature float64 `toml:"temperature" yaml:"temperature"`

	// MaxOutputTokens caps the response length. 0 uses the provider default.
	MaxOutputTokens int `toml:"max_output_tokens" yaml:"max_output_tokens"`

	// MaxTokensPerFile caps how much of each context file goes into the
	// prompt before truncation. 0 disables truncation.
	MaxTokensPerFile int `toml:"max_tokens_per_file" yaml:"max_tokens_per_file"`

	// MaxRetries is how many transient provider failures are retried.
	MaxRetries int `toml:"max_retries" yaml:"max_retries"`

	// RetryDelay is the pause between provider retries.
	RetryDelay time.Duration `toml:"retry_delay" yaml:"retry_delay"`

	// Timeout bounds a single provider request.
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`

	// Workers is the number of concurrent file writers. Default: 1.
	Workers int `toml:"workers" yaml:"workers"`

	// LogLevel sets the slog level: "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Git configures the optional git integration.
	Git Git `toml:"git" yaml:"git"`
}

// Default returns Settings with sensible defaults.
func Default() Settings {
	return Settings{
		Provider:         "gemini",
		Model:            "gemini-2.5-pro",
		APIKeyEnv:        "GEMINI_API_KEY",
		Format:           "json",
		MaxTokensPerFile: 4096,
		MaxRetries:       1,
		RetryDelay:       2 * time.Second,
		Timeout:          2 * time.Minute,
		Workers:          1,
		LogLevel:         "info",
		Git:              Git{Remote: "origin"},
	}
}

// Load reads settings from path, layered over defaults. Files ending in
// .yaml or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return s, nil
}

// LoadFromEnv populates settings from environment variables.
// Environment variables use the FILESMITH_ prefix and take precedence
// over existing values.
//
// Supported variables:
//   - FILESMITH_PROVIDER: provider name
//   - FILESMITH_MODEL: model name
//   - FILESMITH_API_KEY_ENV: name of the variable holding the API key
//   - FILESMITH_FORMAT: payload format ("json" or "yaml")
//   - FILESMITH_TEMPERATURE: completion temperature
//   - FILESMITH_MAX_OUTPUT_TOKENS: response length cap
//   - FILESMITH_MAX_TOKENS_PER_FILE: per-file context cap
//   - FILESMITH_MAX_RETRIES: provider retry count
//   - FILESMITH_RETRY_DELAY: retry pause (e.g. "2s")
//   - FILESMITH_TIMEOUT: request timeout (e.g. "2m")
//   - FILESMITH_WORKERS: concurrent file writers
//   - FILESMITH_LOG_LEVEL: slog level
//   - FILESMITH_GIT_BRANCH, FILESMITH_GIT_COMMIT, FILESMITH_GIT_PUSH,
//     FILESMITH_GIT_REMOTE: git integration
func (s *Settings) LoadFromEnv() {
	if v := os.Getenv("FILESMITH_PROVIDER"); v != "" {
		s.Provider = v
	}
	if v := os.Getenv("FILESMITH_MODEL"); v != "" {
		s.Model = v
	}
	if v := os.Getenv("FILESMITH_API_KEY_ENV"); v != "" {
		s.APIKeyEnv = v
	}
	if v := os.Getenv("FILESMITH_FORMAT"); v != "" {
		s.Format = v
	}
	if v := os.Getenv("FILESMITH_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.Temperature = f
		}
	}
	if v := os.Getenv("FILESMITH_MAX_OUTPUT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxOutputTokens = n
		}
	}
	if v := os.Getenv("FILESMITH_MAX_TOKENS_PER_FILE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxTokensPerFile = n
		}
	}
	if v := os.Getenv("FILESMITH_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxRetries = n
		}
	}
	if v := os.Getenv("FILESMITH_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.RetryDelay = d
		}
	}
	if v := os.Getenv("FILESMITH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.Timeout = d
		}
	}
	if v := os.Getenv("FILESMITH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Workers = n
		}
	}
	if v := os.Getenv("FILESMITH_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("FILESMITH_GIT_BRANCH"); v != "" {
		s.Git.Branch = v
	}
	if v := os.Getenv("FILESMITH_GIT_COMMIT"); v == "true" || v == "1" {
		s.Git.Commit = true
	}
	if v := os.Getenv("FILESMITH_GIT_PUSH"); v == "true" || v == "1" {
		s.Git.Push = true
	}
	if v := os.Getenv("FILESMITH_GIT_REMOTE"); v != "" {
		s.Git.Remote = v
	}
}

// FromEnv creates Settings from environment variables with defaults.
func FromEnv() Settings {
	s := Default()
	s.LoadFromEnv()
	return s
}

// Validate checks if the settings are usable.
func (s *Settings) Validate() error {
	if s.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	switch s.Format {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("invalid format: %q (must be json or yaml)", s.Format)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %v", s.Temperature)
	}
	if s.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be >= 0, got %d", s.MaxOutputTokens)
	}
	if s.MaxTokensPerFile < 0 {
		return fmt.Errorf("max_tokens_per_file must be >= 0, got %d", s.MaxTokensPerFile)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", s.MaxRetries)
	}
	if s.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0, got %v", s.RetryDelay)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", s.Timeout)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", s.Workers)
	}
	if s.LogLevel != "" {
		switch strings.ToLower(s.LogLevel) {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid log_level: %q (must be debug, info, warn, or error)", s.LogLevel)
		}
	}
	return nil
}

// ProviderConfig builds the provider configuration, resolving the API
// key from the environment variable named by APIKeyEnv.
func (s *Settings) ProviderConfig() provider.Config {
	cfg := provider.DefaultConfig()
	cfg.Model = s.Model
	cfg.MaxRetries = s.MaxRetries
	if s.RetryDelay > 0 {
		cfg.RetryDelay = s.RetryDelay
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.APIKeyEnv != "" {
		cfg.APIKey = os.Getenv(s.APIKeyEnv)
	}
	return cfg
}
