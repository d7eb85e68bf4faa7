// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Input    string `json:"input,omitempty"`     // Path to the document (PDF or JSON pages)
	CacheDir string `json:"cache_dir,omitempty"` // Directory for the durable cache

	// Chunking
	ChunkSize     int `json:"chunk_size,omitempty" validate:"gte=0"`     // Maximum characters per chunk
	ChunkOverlap  int `json:"chunk_overlap,omitempty" validate:"gte=0"`  // Overlap characters carried between chunks
	PageAdjacency int `json:"page_adjacency,omitempty" validate:"gte=0"` // Page distance still merged during citation dedup

	// Limits
	Concurrency       int `json:"concurrency,omitempty" validate:"gte=0,lte=64"` // Concurrent chunk extractions
	MaxAttempts       int `json:"max_attempts,omitempty" validate:"gte=0,lte=10"`
	RequestsPerMinute int `json:"requests_per_minute,omitempty" validate:"gte=0"`
	MemoryCacheSize   int `json:"memory_cache_size,omitempty" validate:"gte=0"` // Entries in the in-memory cache layer

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for run artifacts
	CacheTTL    string `json:"cache_ttl,omitempty"`    // Go duration string, e.g. "168h"
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information

	// Model overrides
	ModelLite     string `json:"model_lite,omitempty"`
	ModelStandard string `json:"model_standard,omitempty"`
	ModelAdvanced string `json:"model_advanced,omitempty"`
}

// Defaults returns the configuration used when neither the config file nor
// flags say otherwise.
func Defaults() Config {
	return Config{
		CacheDir:          ".trust-summarizer/cache",
		ChunkSize:         20000,
		ChunkOverlap:      500,
		PageAdjacency:     1,
		Concurrency:       4,
		MaxAttempts:       3,
		RequestsPerMinute: 60,
		MemoryCacheSize:   1024,
		CacheTTL:          "168h",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.ChunkOverlap > 0 && c.ChunkSize > 0 && c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config error: 'chunk_overlap' must be smaller than 'chunk_size'")
	}

	if c.CacheTTL != "" {
		if _, err := time.ParseDuration(c.CacheTTL); err != nil {
			return fmt.Errorf("config error: 'cache_ttl' is not a valid duration: %w", err)
		}
	}

	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

// TTL returns the parsed cache TTL, or zero when unset or unparseable.
// Call Validate first to surface bad values.
func (c *Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Input == "" {
		result.Input = defaults.Input
	}
	if result.CacheDir == "" {
		result.CacheDir = defaults.CacheDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.CacheTTL == "" {
		result.CacheTTL = defaults.CacheTTL
	}
	if result.ModelLite == "" {
		result.ModelLite = defaults.ModelLite
	}
	if result.ModelStandard == "" {
		result.ModelStandard = defaults.ModelStandard
	}
	if result.ModelAdvanced == "" {
		result.ModelAdvanced = defaults.ModelAdvanced
	}

	// Int fields: use default if zero
	if result.ChunkSize == 0 {
		result.ChunkSize = defaults.ChunkSize
	}
	if result.ChunkOverlap == 0 {
		result.ChunkOverlap = defaults.ChunkOverlap
	}
	if result.PageAdjacency == 0 {
		result.PageAdjacency = defaults.PageAdjacency
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.RequestsPerMinute == 0 {
		result.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if result.MemoryCacheSize == 0 {
		result.MemoryCacheSize = defaults.MemoryCacheSize
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
