package main

import (
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"

	"videoproc/app"
	"videoproc/approvals"
)

func newWorkerCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the workflow and activity worker",
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

			w := worker.New(deps.temporal, app.TaskQueue, worker.Options{})

			w.RegisterWorkflow(app.ProcessVideoWorkflow)
			w.RegisterWorkflow(app.TranscodeVideoWorkflow)
			w.RegisterWorkflow(app.PeriodicTaskWorkflow)
			w.RegisterActivity(&app.Activities{
				Config:    deps.cfg,
				Approvals: store,
			})

			return w.Run(worker.InterruptCh())
		},
	}
}
