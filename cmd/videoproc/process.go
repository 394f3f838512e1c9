package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"videoproc/app"
)

func newProcessCommand(configFlag *string) *cobra.Command {
	var video string
	var wait bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Start a video-processing workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if video == "" {
				return errors.New("video location is required, use --video")
			}

			deps, err := buildDeps(*configFlag)
			if err != nil {
				return err
			}
			defer deps.close()

			options := client.StartWorkflowOptions{
				ID:        "process-video-" + uuid.NewString(),
				TaskQueue: app.TaskQueue,
			}
			run, err := deps.temporal.ExecuteWorkflow(cmd.Context(), options, app.ProcessVideoWorkflow, video)
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "started workflow %s (run %s)\n", run.GetID(), run.GetRunID())

			if !wait {
				return nil
			}

			var result app.ProcessVideoResult
			if err := run.Get(cmd.Context(), &result); err != nil {
				return fmt.Errorf("await workflow: %w", err)
			}
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&video, "video", "", "Location of the video to process")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the workflow to finish and print its result")
	return cmd
}
