package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"videoproc/approvals"
	"videoproc/trigger"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger server",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildDeps(*configFlag)
			if err != nil {
				return err
			}
			defer deps.close()

			store, err := approvals.Open(deps.cfg.API.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := trigger.NewServer(deps.cfg, deps.temporal, store, deps.logger)
			return srv.Run(ctx)
		},
	}
}
