package main

import (
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"videoproc/config"
	"videoproc/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "videoproc",
		Short:         "Durable video-processing workflows on Temporal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newWorkerCommand(&configFlag))
	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newProcessCommand(&configFlag))
	rootCmd.AddCommand(newPeriodicCommand(&configFlag))

	return rootCmd
}

// runtimeDeps bundles what every subcommand needs: config, a process logger
// and a dialed Temporal client.
type runtimeDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	temporal client.Client
}

func buildDeps(configPath string) (*runtimeDeps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.NewTemporal(logger),
	})
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, logger: logger, temporal: c}, nil
}

func (d *runtimeDeps) close() {
	d.temporal.Close()
	_ = d.logger.Sync()
}
