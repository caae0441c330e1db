package app

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds runtime wiring options. The consistency knobs are policy
// constants that depend on expected offline duration, so they are
// configuration rather than code.
type Config struct {
	// Home is the data directory, e.g. $HOME/.sentry-messenger.
	Home string `toml:"home"`

	// VaultDir is the key vault database directory. Defaults to
	// Home/vault.
	VaultDir string `toml:"vault_dir"`

	// Passphrase protects the identity file and ratchet snapshots at rest.
	Passphrase string `toml:"-"`

	// SelfDigest and SelfDevice identify this account/device on envelopes
	// we produce.
	SelfDigest string `toml:"self_digest"`
	SelfDevice string `toml:"self_device"`

	// FillCap bounds how many missing predecessors one live operation will
	// backfill. Default 50.
	FillCap int `toml:"fill_cap"`

	// MaxSkippedKeys caps the per-session skipped-key cache. Default 512.
	MaxSkippedKeys int `toml:"max_skipped_keys"`

	// LogLevel selects zap's level: debug, info, warn, error. Default info.
	LogLevel string `toml:"log_level"`
}

// LoadConfig reads path (TOML) over the defaults. A missing file is not an
// error; flags and env fill the rest.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Home == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			c.Home = filepath.Join(dir, ".sentry-messenger")
		}
	}
	if c.VaultDir == "" && c.Home != "" {
		c.VaultDir = filepath.Join(c.Home, "vault")
	}
	if c.SelfDevice == "" {
		c.SelfDevice = "primary"
	}
	if c.FillCap <= 0 {
		c.FillCap = 50
	}
	if c.MaxSkippedKeys <= 0 {
		c.MaxSkippedKeys = 512
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
