package app

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// PeriodicTaskWorkflow runs the periodic activity forever: bump the run
// counter, tick, sleep, then continue-as-new with the incremented counter so
// each run carries a bounded, constant-size history instead of looping in
// place. There is no recovery boundary here; a tick failure fails the run.
// The instance is stopped from outside by terminating its fixed workflow ID.
func PeriodicTaskWorkflow(ctx workflow.Context, timesRun int) error {
	timesRun++
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting the periodic task run", "timesRun", timesRun)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities
	if err := workflow.ExecuteActivity(ctx, a.PeriodicActivity, timesRun).Get(ctx, nil); err != nil {
		return err
	}

	if err := workflow.Sleep(ctx, PeriodicInterval); err != nil {
		return err
	}

	return workflow.NewContinueAsNewError(ctx, PeriodicTaskWorkflow, timesRun)
}
