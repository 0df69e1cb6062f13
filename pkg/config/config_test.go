package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://www.instagram.com", cfg.Instagram.BaseURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1, cfg.Extraction.Parallel)
	assert.Equal(t, "content_links.tsv", cfg.Output.LinksFile)
	assert.Equal(t, "content_records.csv", cfg.Output.RecordsFile)
	assert.Equal(t, "results.json", cfg.Output.ResultsFile)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGHARVEST_SESSION_FILE", "/tmp/sess.json")
	t.Setenv("IGHARVEST_HEADLESS", "false")
	t.Setenv("IGHARVEST_PARALLEL", "4")
	t.Setenv("IGHARVEST_OUTPUT_DIR", "/tmp/out")
	t.Setenv("IGHARVEST_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/sess.json", cfg.Instagram.SessionFile)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 4, cfg.Extraction.Parallel)
	assert.Equal(t, "/tmp/out", cfg.Output.BaseDirectory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidParallel(t *testing.T) {
	t.Setenv("IGHARVEST_PARALLEL", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 1, cfg.Extraction.Parallel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
instagram:
  session_file: from_file.json
collection:
  max_cycles: 42
extraction:
  parallel: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "from_file.json", cfg.Instagram.SessionFile)
	assert.Equal(t, 42, cfg.Collection.MaxCycles)
	assert.Equal(t, 3, cfg.Extraction.Parallel)
	// Untouched sections keep their defaults.
	assert.Equal(t, "https://www.instagram.com", cfg.Instagram.BaseURL)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instagram: [not a map"), 0600))

	cfg := DefaultConfig()
	err := cfg.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty base URL", func(c *Config) { c.Instagram.BaseURL = "" }, "base URL is required"},
		{"empty session file", func(c *Config) { c.Instagram.SessionFile = "" }, "session file path is required"},
		{"zero no-progress threshold", func(c *Config) { c.Collection.NoProgressThreshold = 0 }, "no-progress threshold must be positive"},
		{"zero max cycles", func(c *Config) { c.Collection.MaxCycles = 0 }, "max cycles must be positive"},
		{"poll ceiling below interval", func(c *Config) { c.Collection.PollCeiling = c.Collection.PollInterval / 2 }, "poll ceiling must be at least the poll interval"},
		{"zero parallel", func(c *Config) { c.Extraction.Parallel = 0 }, "parallel contexts must be positive"},
		{"excessive parallel", func(c *Config) { c.Extraction.Parallel = 9 }, "parallel contexts should not exceed 8"},
		{"inverted item delays", func(c *Config) { c.Extraction.ItemDelayMin = 5 * time.Second; c.Extraction.ItemDelayMax = time.Second }, "item delay max must be at least item delay min"},
		{"zero actions per minute", func(c *Config) { c.RateLimit.ActionsPerMinute = 0 }, "actions per minute must be positive"},
		{"empty output directory", func(c *Config) { c.Output.BaseDirectory = "" }, "output directory is required"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instagram.BaseURL = ""
	cfg.Extraction.Parallel = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")
	assert.Contains(t, err.Error(), "parallel contexts must be positive")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"session-file": "flag.json",
		"output":       "/flag/out",
		"parallel":     2,
		"headless":     false,
		"log-level":    "warn",
	})

	assert.Equal(t, "flag.json", cfg.Instagram.SessionFile)
	assert.Equal(t, "/flag/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 2, cfg.Extraction.Parallel)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"session-file": "",
		"parallel":     0,
	})

	assert.Equal(t, "instagram_session.json", cfg.Instagram.SessionFile)
	assert.Equal(t, 1, cfg.Extraction.Parallel)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("IGHARVEST_OUTPUT_DIR", "/env/out")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: /file/out\n"), 0600))

	cfg, err := Load(path, map[string]interface{}{"output": "/flag/out"})
	require.NoError(t, err)
	assert.Equal(t, "/flag/out", cfg.Output.BaseDirectory)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("IGHARVEST_OUTPUT_DIR", "/env/out")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: /file/out\n"), 0600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/env/out", cfg.Output.BaseDirectory)
}

func TestSaveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Collection.MaxCycles = 77
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 77, loaded.Collection.MaxCycles)
	assert.Equal(t, cfg.Extraction.ItemDelayMax, loaded.Extraction.ItemDelayMax)
}
