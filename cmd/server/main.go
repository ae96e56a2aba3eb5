package main

import (
	"fmt"
	"os"

	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/nickdesi/scba-benevolat/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	serve := newServeCmd(v)

	root := &cobra.Command{
		Use:   "benevolat",
		Short: "Volunteer roster and carpool service for SCBA games",
		// serving is the default
		RunE: serve.RunE,
	}
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("db-driver", "", "database driver (sqlite or postgres)")
	root.PersistentFlags().String("db-path", "", "sqlite database file")
	bindFlags(v, root, map[string]string{
		"LOG_LEVEL":       "log-level",
		"DATABASE_DRIVER": "db-driver",
		"DATABASE_PATH":   "db-path",
	})
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newSeedCmd(v))
	return root
}

// bindFlags maps config keys to flags. A flag set on the command line wins
// over the environment and .env values.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			flag = cmd.Flags().Lookup(name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			fmt.Fprintf(os.Stderr, "could not bind flag %s: %v\n", name, err)
		}
	}
}

// bootstrap loads the configuration and builds the process logger.
func bootstrap(v *viper.Viper) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
