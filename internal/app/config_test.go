package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.FillCap)
	assert.Equal(t, 512, cfg.MaxSkippedKeys)
	assert.Equal(t, "primary", cfg.SelfDevice)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.Home)
	assert.Equal(t, filepath.Join(cfg.Home, "vault"), cfg.VaultDir)
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.FillCap)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
home = "/tmp/sentry-test"
self_digest = "abc123"
self_device = "laptop"
fill_cap = 10
log_level = "debug"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sentry-test", cfg.Home)
	assert.Equal(t, "abc123", cfg.SelfDigest)
	assert.Equal(t, "laptop", cfg.SelfDevice)
	assert.Equal(t, 10, cfg.FillCap)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset keys still pick up defaults relative to the configured home.
	assert.Equal(t, filepath.Join("/tmp/sentry-test", "vault"), cfg.VaultDir)
	assert.Equal(t, 512, cfg.MaxSkippedKeys)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`fill_cap = "not a number"`), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
