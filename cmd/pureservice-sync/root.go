package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vestfoldfylke/pureservice-sync/internal/config"
	"github.com/vestfoldfylke/pureservice-sync/internal/logging"
)

type rootOptions struct {
	ConfigFile string
	LogLevel   string
}

func newRootCommand() *cobra.Command {
	var opts = &rootOptions{}

	var cmd = &cobra.Command{
		Use:          "pureservice-sync",
		Short:        "Synchronize Entra ID users to Pureservice",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "configuration file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides log.level")

	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

// load reads the configuration with its Keeper secrets and sets up logging.
func (o *rootOptions) load() (cfg *config.Config, log *logrus.Logger, err error) {
	if cfg, err = config.Load(o.ConfigFile); err != nil {
		return
	}
	if len(o.LogLevel) > 0 {
		cfg.Log.Level = o.LogLevel
	}
	log = logging.New(cfg.Log.Level, cfg.Log.Format)
	if err = config.LoadKeeperSecrets(cfg); err != nil {
		err = fmt.Errorf("load secrets from Keeper: %w", err)
	}
	return
}
