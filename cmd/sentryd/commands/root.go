package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/app"
)

var (
	configPath string
	home       string
	passphrase string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "sentryd",
		Short: "SENTRY Messenger incoming-message commit pipeline",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
				cfg.VaultDir = filepath.Join(home, "vault")
			}
			cfg.Passphrase = passphrase
			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "config file (TOML)")
	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.sentry-messenger)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting keys and snapshots")

	root.AddCommand(consumeCmd(), sealCmd(), statusCmd())
	return root.Execute()
}

func defaultConfigPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".sentry-messenger", "config.toml")
}
