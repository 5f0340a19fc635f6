package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Extraction.DefaultLimit)
	assert.Equal(t, 2000, cfg.Extraction.MaxLimit)
	assert.Equal(t, Range{15, 25}, cfg.Pacing.ReadEvery)
	assert.Equal(t, Range{80, 120}, cfg.Pacing.BreakEvery)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero limit", func(c *Config) { c.Extraction.DefaultLimit = 0 }},
		{"zero error ceiling", func(c *Config) { c.Extraction.ErrorCeiling = 0 }},
		{"inverted range", func(c *Config) { c.Pacing.ReadPauseMS = Range{5000, 2000} }},
		{"negative range", func(c *Config) { c.Pacing.NodeDelayMS = Range{-1, 10} }},
		{"inverted scroll band", func(c *Config) { c.Pacing.ScrollMaxFraction = 0.1 }},
		{"reread chance above one", func(c *Config) { c.Pacing.RereadChance = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Extraction.RemoteURL = "http://127.0.0.1:9222"
	cfg.Pacing.ReadEvery = Range{10, 12}
	cfg.Schedule.Cron = "0 */2 * * *"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[extraction]\ndefault_limit = 25\n"), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Extraction.DefaultLimit)
	assert.Equal(t, 2000, cfg.Extraction.MaxLimit)
	assert.Equal(t, 0.1, cfg.Pacing.RereadChance)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XEXTRACT_NATS_URL", "nats://example:4222")
	t.Setenv("XEXTRACT_LOG_LEVEL", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "nats://example:4222", cfg.Events.NATSURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("XEXTRACT_STORE_PATH=/tmp/posts.db\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("XEXTRACT_STORE_PATH") })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	path, err := cfg.StorePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/posts.db", path)
}

func TestLoadOrInitWritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, created, err := LoadOrInitAt(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path)

	cfg.Extraction.DefaultLimit = 42
	require.NoError(t, cfg.SaveTo(path))

	cfg, created, err = LoadOrInitAt(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 42, cfg.Extraction.DefaultLimit)
}

func TestLoadOrInitRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[extraction\n"), 0600))

	_, _, err := LoadOrInitAt(path)
	assert.Error(t, err)
}
