package commands

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/postboard/config"
	"github.com/d60-Lab/postboard/pkg/logger"
)

var configPath string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "postboard",
		Short:         "Posts, likes and comments API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
	)
	return rootCmd
}

// setup loads config and installs the global logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	format := cfg.Log.Format
	if cfg.IsRelease() {
		format = "json"
	}
	if err := logger.Init(cfg.Log.Level, format); err != nil {
		return nil, err
	}
	return cfg, nil
}
