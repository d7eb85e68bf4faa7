package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"chunk_size": 15000,
		"chunk_overlap": 400,
		"concurrency": 8,
		"cache_ttl": "72h",
		"api_key": "test-key",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 15000, cfg.ChunkSize)
	assert.Equal(t, 400, cfg.ChunkOverlap)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "72h", cfg.CacheTTL)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_OverlapMustBeSmallerThanChunkSize(t *testing.T) {
	cfg := Defaults()
	cfg.ChunkSize = 400
	cfg.ChunkOverlap = 500

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestValidate_RejectsNegativeConcurrency(t *testing.T) {
	cfg := Defaults()
	cfg.Concurrency = -1
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsBadTTL(t *testing.T) {
	cfg := Defaults()
	cfg.CacheTTL = "one week"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_ttl")
}

func TestValidate_MissingInputFile(t *testing.T) {
	cfg := Defaults()
	cfg.Input = "/nonexistent/trust.pdf"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file not found")
}

func TestTTL_Parses(t *testing.T) {
	cfg := Config{CacheTTL: "30m"}
	assert.Equal(t, 30*time.Minute, cfg.TTL())

	cfg.CacheTTL = ""
	assert.Equal(t, time.Duration(0), cfg.TTL())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{ChunkSize: 10000, APIKey: "from-file"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 10000, merged.ChunkSize, "explicit value wins")
	assert.Equal(t, "from-file", merged.APIKey)
	assert.Equal(t, 500, merged.ChunkOverlap, "unset value filled from defaults")
	assert.Equal(t, 4, merged.Concurrency)
	assert.Equal(t, "168h", merged.CacheTTL)
}
