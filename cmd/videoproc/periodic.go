package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"videoproc/app"
)

func newPeriodicCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periodic",
		Short: "Control the eternal periodic task",
	}
	cmd.AddCommand(newPeriodicStartCommand(configFlag))
	cmd.AddCommand(newPeriodicStopCommand(configFlag))
	return cmd
}

func newPeriodicStartCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the periodic task under its fixed workflow ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildDeps(*configFlag)
			if err != nil {
				return err
			}
			defer deps.close()

			options := client.StartWorkflowOptions{
				ID:        app.PeriodicTaskWorkflowID,
				TaskQueue: app.TaskQueue,
			}
			run, err := deps.temporal.ExecuteWorkflow(cmd.Context(), options, app.PeriodicTaskWorkflow, 0)
			if err != nil {
				return fmt.Errorf("start periodic task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started periodic task %s (run %s)\n", run.GetID(), run.GetRunID())
			return nil
		},
	}
}

func newPeriodicStopCommand(configFlag *string) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Terminate the periodic task",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildDeps(*configFlag)
			if err != nil {
				return err
			}
			defer deps.close()

			if err := deps.temporal.TerminateWorkflow(cmd.Context(), app.PeriodicTaskWorkflowID, "", reason); err != nil {
				return fmt.Errorf("terminate periodic task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "terminated periodic task %s\n", app.PeriodicTaskWorkflowID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "user requested termination", "Human-readable termination reason")
	return cmd
}
